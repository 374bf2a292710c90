package command

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
)

// jobCompleted is the job status whose transition event activates installed devices
const jobCompleted = "COMPLETED"

// ActivateDevicesCommand marks devices installed on a completed job as ACTIVE
type ActivateDevicesCommand struct {
	JobID uint
	IMEIs []string
}

// ActivateDevicesHandler handles activate devices command
type ActivateDevicesHandler struct {
	ledger
	retrier *database.Retrier
}

// NewActivateDevicesHandler creates a new activate devices handler
func NewActivateDevicesHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier) *ActivateDevicesHandler {
	return &ActivateDevicesHandler{ledger: ledger{repo: repo, catalog: cat}, retrier: retrier}
}

// Handle executes the activate devices command. Devices already ACTIVE on the job are skipped.
func (h *ActivateDevicesHandler) Handle(ctx context.Context, cmd ActivateDevicesCommand) ([]domain.Device, error) {
	if cmd.JobID == 0 {
		return nil, apperr.Validation("job_id is required")
	}
	if len(cmd.IMEIs) == 0 {
		return nil, nil
	}

	var activated []domain.Device
	err := h.retrier.Run(ctx, "activate devices", func(ctx context.Context) error {
		activated = nil
		for _, imei := range cmd.IMEIs {
			d, err := h.repo.FindDeviceByIMEI(ctx, imei)
			if err != nil {
				return err
			}
			if d.JobID == nil || *d.JobID != cmd.JobID {
				return apperr.New(apperr.KindDeviceAllocationMismatch, "device is not issued to this job").
					With("imei", imei).
					With("job_id", cmd.JobID)
			}
			switch d.Status {
			case domain.DeviceActive:
				continue
			case domain.DeviceIssued:
			default:
				return apperr.New(apperr.KindDeviceAllocationMismatch, "device cannot be activated").
					With("imei", imei).
					With("status", string(d.Status))
			}

			d.Status = domain.DeviceActive
			if err := h.repo.UpdateDevice(ctx, d); err != nil {
				return err
			}
			activated = append(activated, *d)
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("job_id", cmd.JobID).Msg("Device activation rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", cmd.JobID).
		Int("activated", len(activated)).
		Msg("Devices activated")
	return activated, nil
}

// HandleJobEvent activates the devices confirmed in a job's installation once the job completes
func (h *ActivateDevicesHandler) HandleJobEvent(ctx context.Context, event kafka.Event) error {
	if event.EventType != kafka.EventTypeJobStatusChanged || event.To != jobCompleted {
		return nil
	}
	imeis := stringList(event.Data["device_imeis"])
	if len(imeis) == 0 {
		return nil
	}
	_, err := h.Handle(ctx, ActivateDevicesCommand{JobID: event.JobID, IMEIs: imeis})
	return err
}

// stringList accepts the []string published in-process and the []interface{} decoded from JSON
func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
