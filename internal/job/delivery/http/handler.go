package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/field-service/internal/catalog"
	inspdomain "github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/job/usecase/command"
	"github.com/tair/field-service/internal/job/usecase/query"
	reqdomain "github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/httpx"
)

// JobHandler handles HTTP requests for jobs
type JobHandler struct {
	create       *command.CreateJobHandler
	transition   *command.TransitionJobHandler
	technicians  *command.TechnicianHandler
	vehicle      *command.AttachVehicleHandler
	installation *command.SaveInstallationHandler

	get     *query.GetJobHandler
	list    *query.ListJobsHandler
	history *query.JobHistoryHandler
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	repo domain.JobRepository,
	requisitions reqdomain.RequisitionRepository,
	inspections inspdomain.InspectionRepository,
	cat catalog.Catalog,
	devices command.DeviceLookup,
	retrier *database.Retrier,
	publisher kafka.EventPublisher,
) *JobHandler {
	return &JobHandler{
		create:       command.NewCreateJobHandler(repo, cat, retrier, publisher),
		transition:   command.NewTransitionJobHandler(repo, command.NewFactLoader(requisitions, inspections), retrier, publisher),
		technicians:  command.NewTechnicianHandler(repo, retrier, publisher),
		vehicle:      command.NewAttachVehicleHandler(repo, retrier),
		installation: command.NewSaveInstallationHandler(repo, devices, retrier),
		get:          query.NewGetJobHandler(repo),
		list:         query.NewListJobsHandler(repo),
		history:      query.NewJobHistoryHandler(repo),
	}
}

// Transition exposes the transition use case to event consumers
func (h *JobHandler) Transition() *command.TransitionJobHandler {
	return h.transition
}

// CreateJob handles POST /api/jobs
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID         uint        `json:"customer_id"`
		VehicleID          *uint       `json:"vehicle_id"`
		Type               domain.Type `json:"job_type"`
		RequiredProductIDs []uint      `json:"required_product_ids"`
		TechnicianIDs      []uint      `json:"technician_ids"`
		ScheduledDate      *time.Time  `json:"scheduled_date"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	job, err := h.create.Handle(r.Context(), command.CreateJobCommand{
		CustomerID:         req.CustomerID,
		VehicleID:          req.VehicleID,
		Type:               req.Type,
		RequiredProductIDs: req.RequiredProductIDs,
		TechnicianIDs:      req.TechnicianIDs,
		ScheduledDate:      req.ScheduledDate,
		ActorID:            httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondCreated(w, "Job created successfully", job)
}

// GetJob handles GET /api/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	job, err := h.get.Handle(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// ListJobs handles GET /api/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	technicianID, err := httpx.QueryUint(r, "technician_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	customerID, err := httpx.QueryUint(r, "customer_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	jobs, err := h.list.Handle(r.Context(), query.ListJobsQuery{
		Status:       domain.Status(r.URL.Query().Get("status")),
		TechnicianID: technicianID,
		CustomerID:   customerID,
		Limit:        httpx.QueryInt(r, "limit"),
		Offset:       httpx.QueryInt(r, "offset"),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, jobs)
}

// JobHistory handles GET /api/jobs/{id}/history
func (h *JobHandler) JobHistory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	changes, err := h.history.Handle(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, changes)
}

// TransitionJob handles POST /api/jobs/{id}/transitions. Only managers may verify a job.
func (h *JobHandler) TransitionJob(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		Status               domain.Status    `json:"status"`
		Location             *domain.GeoPoint `json:"location"`
		CompletionNotes      string           `json:"completion_notes"`
		CustomerAcknowledged bool             `json:"customer_acknowledged"`
		CustomerSignatory    string           `json:"customer_signatory"`
		Reason               string           `json:"reason"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	actor := httpx.Actor(r)
	if req.Status == domain.StatusVerified && !actor.IsManager() {
		httpx.RespondMessage(w, http.StatusForbidden, "Manager access required")
		return
	}

	job, err := h.transition.Handle(r.Context(), command.TransitionJobCommand{
		JobID: id,
		To:    req.Status,
		Context: domain.TransitionContext{
			ActorID:              actor.UserID,
			Location:             req.Location,
			CompletionNotes:      req.CompletionNotes,
			CustomerAcknowledged: req.CustomerAcknowledged,
			CustomerSignatory:    req.CustomerSignatory,
			Reason:               req.Reason,
		},
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// AssignTechnicians handles POST /api/jobs/{id}/technicians
func (h *JobHandler) AssignTechnicians(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		TechnicianIDs []uint `json:"technician_ids"`
		PrimaryFirst  bool   `json:"primary_first"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	job, err := h.technicians.Assign(r.Context(), command.AssignTechniciansCommand{
		JobID:         id,
		TechnicianIDs: req.TechnicianIDs,
		PrimaryFirst:  req.PrimaryFirst,
		ActorID:       httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// RemoveTechnician handles DELETE /api/jobs/{id}/technicians/{technician_id}
func (h *JobHandler) RemoveTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	technicianID, err := httpx.PathUint(r, "technician_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	newPrimary, err := httpx.QueryUint(r, "new_primary_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	cmd := command.RemoveTechnicianCommand{
		JobID:        id,
		TechnicianID: technicianID,
		ActorID:      httpx.Actor(r).UserID,
	}
	if newPrimary != 0 {
		cmd.NewPrimaryID = &newPrimary
	}

	job, err := h.technicians.Remove(r.Context(), cmd)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// SetPrimaryTechnician handles PUT /api/jobs/{id}/technicians/{technician_id}/primary
func (h *JobHandler) SetPrimaryTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	technicianID, err := httpx.PathUint(r, "technician_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	job, err := h.technicians.SetPrimary(r.Context(), command.SetPrimaryTechnicianCommand{
		JobID:        id,
		TechnicianID: technicianID,
		ActorID:      httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// AttachVehicle handles PUT /api/jobs/{id}/vehicle
func (h *JobHandler) AttachVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		VehicleID uint `json:"vehicle_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	job, err := h.vehicle.Handle(r.Context(), command.AttachVehicleCommand{JobID: id, VehicleID: req.VehicleID})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// SaveInstallation handles PUT /api/jobs/{id}/installation
func (h *JobHandler) SaveInstallation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		DeviceIMEIs     []string         `json:"device_imeis"`
		SIMNumbers      []string         `json:"sim_numbers"`
		MACAddresses    []string         `json:"mac_addresses"`
		Location        *domain.GeoPoint `json:"location"`
		Photos          []string         `json:"photos"`
		Notes           string           `json:"notes"`
		NoDeviceChanged bool             `json:"no_device_changed"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	job, err := h.installation.Handle(r.Context(), command.SaveInstallationCommand{
		JobID:           id,
		DeviceIMEIs:     req.DeviceIMEIs,
		SIMNumbers:      req.SIMNumbers,
		MACAddresses:    req.MACAddresses,
		Location:        req.Location,
		Photos:          req.Photos,
		Notes:           req.Notes,
		NoDeviceChanged: req.NoDeviceChanged,
		ActorID:         httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, job)
}

// RegisterRoutes registers all job routes
func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/jobs", h.ListJobs).Methods("GET")
	router.HandleFunc("/api/jobs", httpx.ManagerOnly(h.CreateJob)).Methods("POST")
	router.HandleFunc("/api/jobs/{id:[0-9]+}", h.GetJob).Methods("GET")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/history", h.JobHistory).Methods("GET")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/transitions", h.TransitionJob).Methods("POST")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/technicians", httpx.ManagerOnly(h.AssignTechnicians)).Methods("POST")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/technicians/{technician_id:[0-9]+}", httpx.ManagerOnly(h.RemoveTechnician)).Methods("DELETE")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/technicians/{technician_id:[0-9]+}/primary", httpx.ManagerOnly(h.SetPrimaryTechnician)).Methods("PUT")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/vehicle", h.AttachVehicle).Methods("PUT")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/installation", h.SaveInstallation).Methods("PUT")
}
