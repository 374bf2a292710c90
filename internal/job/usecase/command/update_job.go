package command

import (
	"context"
	"strings"
	"time"

	invdomain "github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
)

// DeviceLookup reads the device registry to confirm installed IMEIs belong to the job
type DeviceLookup interface {
	ListDevices(ctx context.Context, filter invdomain.DeviceFilter) ([]invdomain.Device, error)
}

// AttachVehicleCommand sets the vehicle a job is performed on
type AttachVehicleCommand struct {
	JobID     uint
	VehicleID uint
}

// AttachVehicleHandler handles attach vehicle command
type AttachVehicleHandler struct {
	repo    domain.JobRepository
	retrier *database.Retrier
}

// NewAttachVehicleHandler creates a new attach vehicle handler
func NewAttachVehicleHandler(repo domain.JobRepository, retrier *database.Retrier) *AttachVehicleHandler {
	return &AttachVehicleHandler{repo: repo, retrier: retrier}
}

// Handle executes the attach vehicle command
func (h *AttachVehicleHandler) Handle(ctx context.Context, cmd AttachVehicleCommand) (*domain.Job, error) {
	if cmd.VehicleID == 0 {
		return nil, apperr.Validation("vehicle_id is required")
	}

	var job *domain.Job
	err := h.retrier.Run(ctx, "attach vehicle", func(ctx context.Context) error {
		j, err := h.repo.FindByID(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		if j.Status.Closed() {
			return closedJob(j)
		}
		vehicleID := cmd.VehicleID
		j.VehicleID = &vehicleID
		if err := h.repo.Update(ctx, j); err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("job_id", cmd.JobID).Msg("Vehicle attachment rejected")
		return nil, err
	}

	logger.Info(ctx).Uint("job_id", job.ID).Uint("vehicle_id", cmd.VehicleID).Msg("Vehicle attached")
	return job, nil
}

// SaveInstallationCommand records the work done on site
type SaveInstallationCommand struct {
	JobID           uint
	DeviceIMEIs     []string
	SIMNumbers      []string
	MACAddresses    []string
	Location        *domain.GeoPoint
	Photos          []string
	Notes           string
	NoDeviceChanged bool
	ActorID         uint
}

// SaveInstallationHandler handles save installation command
type SaveInstallationHandler struct {
	repo    domain.JobRepository
	devices DeviceLookup
	retrier *database.Retrier
}

// NewSaveInstallationHandler creates a new save installation handler
func NewSaveInstallationHandler(repo domain.JobRepository, devices DeviceLookup, retrier *database.Retrier) *SaveInstallationHandler {
	return &SaveInstallationHandler{repo: repo, devices: devices, retrier: retrier}
}

// Handle executes the save installation command. Installation can be recorded while the job
// is IN_PROGRESS and corrected while POST_INSPECTION_PENDING.
func (h *SaveInstallationHandler) Handle(ctx context.Context, cmd SaveInstallationCommand) (*domain.Job, error) {
	imeis, err := normalizeIMEIs(cmd.DeviceIMEIs)
	if err != nil {
		return nil, err
	}
	if len(imeis) == 0 && !cmd.NoDeviceChanged {
		return nil, apperr.Validation("device imeis are required unless no device was changed")
	}
	if cmd.Location != nil && !cmd.Location.Valid() {
		return nil, apperr.Validation("installation location is out of range").
			With("latitude", cmd.Location.Latitude).
			With("longitude", cmd.Location.Longitude)
	}

	var job *domain.Job
	err = h.retrier.Run(ctx, "save installation", func(ctx context.Context) error {
		j, err := h.repo.FindByID(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		if j.Status != domain.StatusInProgress && j.Status != domain.StatusPostInspectionPending {
			return apperr.New(apperr.KindInvalidTransition, "installation can only be recorded on a started job").
				With("job_id", j.ID).
				With("current", string(j.Status))
		}
		if cmd.NoDeviceChanged && len(imeis) == 0 && !j.Type.AllowsNoDeviceChange() {
			return apperr.Validation("job type requires installed device imeis").
				With("job_id", j.ID).
				With("type", string(j.Type))
		}
		if err := h.checkDevices(ctx, j.ID, imeis); err != nil {
			return err
		}

		j.Installation = &domain.Installation{
			DeviceIMEIs:     imeis,
			SIMNumbers:      cmd.SIMNumbers,
			MACAddresses:    cmd.MACAddresses,
			Location:        cmd.Location,
			Photos:          cmd.Photos,
			Notes:           strings.TrimSpace(cmd.Notes),
			NoDeviceChanged: cmd.NoDeviceChanged && len(imeis) == 0,
			RecordedBy:      cmd.ActorID,
			RecordedAt:      time.Now(),
		}
		if err := h.repo.Update(ctx, j); err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("job_id", cmd.JobID).Msg("Installation rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", job.ID).
		Strs("imeis", imeis).
		Int("photos", len(cmd.Photos)).
		Msg("Installation recorded")
	return job, nil
}

// checkDevices requires every installed IMEI to be issued to, or already active on, the job
func (h *SaveInstallationHandler) checkDevices(ctx context.Context, jobID uint, imeis []string) error {
	if len(imeis) == 0 || h.devices == nil {
		return nil
	}
	devices, err := h.devices.ListDevices(ctx, invdomain.DeviceFilter{JobID: jobID, IMEIs: imeis})
	if err != nil {
		return err
	}
	bound := make(map[string]bool, len(devices))
	for _, d := range devices {
		if d.Status == invdomain.DeviceIssued || d.Status == invdomain.DeviceActive {
			bound[d.IMEI] = true
		}
	}
	for _, imei := range imeis {
		if !bound[imei] {
			return apperr.New(apperr.KindDeviceAllocationMismatch, "device is not issued to this job").
				With("imei", imei).
				With("job_id", jobID)
		}
	}
	return nil
}

func normalizeIMEIs(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	imeis := make([]string, 0, len(raw))
	for _, imei := range raw {
		imei = strings.TrimSpace(imei)
		if imei == "" {
			continue
		}
		if seen[imei] {
			return nil, apperr.Validation("device imei listed twice").With("imei", imei)
		}
		seen[imei] = true
		imeis = append(imeis, imei)
	}
	return imeis, nil
}
