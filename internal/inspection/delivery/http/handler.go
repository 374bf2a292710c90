package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/internal/inspection/usecase/command"
	"github.com/tair/field-service/internal/inspection/usecase/query"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/httpx"
)

// InspectionHandler handles HTTP requests for inspections and the checklist
type InspectionHandler struct {
	submit    *command.SubmitInspectionHandler
	save      *command.SaveChecklistItemHandler
	status    *query.StageStatusHandler
	revisions *query.ListRevisionsHandler
	checklist *query.ListChecklistHandler
}

// NewInspectionHandler creates a new inspection handler
func NewInspectionHandler(repo domain.InspectionRepository, jobs jobdomain.JobRepository, retrier *database.Retrier) *InspectionHandler {
	return &InspectionHandler{
		submit:    command.NewSubmitInspectionHandler(repo, jobs, retrier),
		save:      command.NewSaveChecklistItemHandler(repo),
		status:    query.NewStageStatusHandler(repo),
		revisions: query.NewListRevisionsHandler(repo),
		checklist: query.NewListChecklistHandler(repo),
	}
}

// SubmitInspection handles POST /api/jobs/{id}/inspections
func (h *InspectionHandler) SubmitInspection(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		VehicleID *uint        `json:"vehicle_id"`
		Stage     domain.Stage `json:"stage"`
		EditMode  bool         `json:"edit_mode"`
		Items     []struct {
			ChecklistItemID uint              `json:"checklist_item_id"`
			Status          domain.ItemStatus `json:"status"`
			Notes           string            `json:"notes"`
			PhotoURL        string            `json:"photo_url"`
		} `json:"items"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	items := make([]command.ItemResult, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, command.ItemResult{
			ChecklistItemID: item.ChecklistItemID,
			Status:          item.Status,
			Notes:           item.Notes,
			PhotoURL:        item.PhotoURL,
		})
	}

	records, err := h.submit.Handle(r.Context(), command.SubmitInspectionCommand{
		JobID:        jobID,
		VehicleID:    req.VehicleID,
		Stage:        req.Stage,
		Items:        items,
		TechnicianID: httpx.Actor(r).UserID,
		EditMode:     req.EditMode,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondCreated(w, "Inspection recorded successfully", records)
}

// StageStatus handles GET /api/jobs/{id}/inspections/{stage}
func (h *InspectionHandler) StageStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	status, err := h.status.Handle(r.Context(), query.StageStatusQuery{
		JobID: jobID,
		Stage: domain.Stage(mux.Vars(r)["stage"]),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, status)
}

// ListRevisions handles GET /api/jobs/{id}/inspections/revisions
func (h *InspectionHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	revisions, err := h.revisions.Handle(r.Context(), jobID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, revisions)
}

// ListChecklist handles GET /api/checklist
func (h *InspectionHandler) ListChecklist(w http.ResponseWriter, r *http.Request) {
	items, err := h.checklist.Handle(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, items)
}

// SaveChecklistItem handles POST /api/checklist
func (h *InspectionHandler) SaveChecklistItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        uint           `json:"id"`
		Name      string         `json:"name"`
		Stages    []domain.Stage `json:"stages"`
		Active    bool           `json:"active"`
		SortOrder int            `json:"sort_order"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	item, err := h.save.Handle(r.Context(), command.SaveChecklistItemCommand{
		ID:        req.ID,
		Name:      req.Name,
		Stages:    req.Stages,
		Active:    req.Active,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondCreated(w, "Checklist item saved successfully", item)
}

// RegisterRoutes registers all inspection routes
func (h *InspectionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/checklist", h.ListChecklist).Methods("GET")
	router.HandleFunc("/api/checklist", httpx.ManagerOnly(h.SaveChecklistItem)).Methods("POST")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/inspections", h.SubmitInspection).Methods("POST")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/inspections/revisions", h.ListRevisions).Methods("GET")
	router.HandleFunc("/api/jobs/{id:[0-9]+}/inspections/{stage:[A-Z_]+}", h.StageStatus).Methods("GET")
}
