package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/idempotency"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/internal/requisition/usecase/command"
	"github.com/tair/field-service/internal/requisition/usecase/query"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/httpx"
)

// IdempotencyHeader carries the client's key for safely retrying an issue call
const IdempotencyHeader = "Idempotency-Key"

// RequisitionHandler handles HTTP requests for requisitions
type RequisitionHandler struct {
	create  *command.CreateRequisitionHandler
	approve *command.ApproveRequisitionHandler
	reject  *command.RejectRequisitionHandler
	issue   *command.IssueRequisitionHandler

	get       *query.GetRequisitionHandler
	list      *query.ListRequisitionsHandler
	issuances *query.ListIssuancesHandler
}

// NewRequisitionHandler creates a new requisition handler
func NewRequisitionHandler(
	repo domain.RequisitionRepository,
	jobs jobdomain.JobRepository,
	cat catalog.Catalog,
	stock command.StockIssuer,
	keys idempotency.Store,
	retrier *database.Retrier,
	publisher kafka.EventPublisher,
) *RequisitionHandler {
	return &RequisitionHandler{
		create:    command.NewCreateRequisitionHandler(repo, jobs, cat, retrier, publisher),
		approve:   command.NewApproveRequisitionHandler(repo, retrier, publisher),
		reject:    command.NewRejectRequisitionHandler(repo, retrier, publisher),
		issue:     command.NewIssueRequisitionHandler(repo, jobs, stock, keys, retrier, publisher),
		get:       query.NewGetRequisitionHandler(repo),
		list:      query.NewListRequisitionsHandler(repo),
		issuances: query.NewListIssuancesHandler(repo),
	}
}

type itemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
	Optional  bool `json:"optional"`
}

type issueLineRequest struct {
	ItemID      uint     `json:"item_id"`
	BatchID     *uint    `json:"batch_id"`
	Quantity    int      `json:"quantity"`
	DeviceIMEIs []string `json:"device_imeis"`
}

// CreateRequisition handles POST /api/requisitions
func (h *RequisitionHandler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID          uint          `json:"job_id"`
		SourceLocation string        `json:"source_location"`
		Items          []itemRequest `json:"items"`
		Notes          string        `json:"notes"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	items := make([]command.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, command.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Optional:  item.Optional,
		})
	}

	requisition, err := h.create.Handle(r.Context(), command.CreateRequisitionCommand{
		JobID:          req.JobID,
		TechnicianID:   httpx.Actor(r).UserID,
		SourceLocation: req.SourceLocation,
		Items:          items,
		Notes:          req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondCreated(w, "Requisition created successfully", requisition)
}

// GetRequisition handles GET /api/requisitions/{id}
func (h *RequisitionHandler) GetRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	requisition, err := h.get.Handle(r.Context(), query.GetRequisitionQuery{ID: id})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, requisition)
}

// ListRequisitions handles GET /api/requisitions
func (h *RequisitionHandler) ListRequisitions(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.QueryUint(r, "job_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	technicianID, err := httpx.QueryUint(r, "technician_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	requisitions, err := h.list.Handle(r.Context(), query.ListRequisitionsQuery{
		JobID:        jobID,
		TechnicianID: technicianID,
		Status:       domain.Status(r.URL.Query().Get("status")),
		Limit:        httpx.QueryInt(r, "limit"),
		Offset:       httpx.QueryInt(r, "offset"),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, requisitions)
}

// ApproveRequisition handles POST /api/requisitions/{id}/approve
func (h *RequisitionHandler) ApproveRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	requisition, err := h.approve.Handle(r.Context(), command.ApproveRequisitionCommand{
		ID:         id,
		ApproverID: httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, requisition)
}

// RejectRequisition handles POST /api/requisitions/{id}/reject
func (h *RequisitionHandler) RejectRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	requisition, err := h.reject.Handle(r.Context(), command.RejectRequisitionCommand{
		ID:      id,
		Reason:  req.Reason,
		ActorID: httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, requisition)
}

// IssueRequisition handles POST /api/requisitions/{id}/issue
func (h *RequisitionHandler) IssueRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		Lines []issueLineRequest `json:"lines"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	lines := make([]command.IssueLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, command.IssueLine{
			ItemID:      line.ItemID,
			BatchID:     line.BatchID,
			Quantity:    line.Quantity,
			DeviceIMEIs: line.DeviceIMEIs,
		})
	}

	result, err := h.issue.Handle(r.Context(), command.IssueRequisitionCommand{
		ID:             id,
		Lines:          lines,
		IssuedBy:       httpx.Actor(r).UserID,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, result)
}

// ListIssuances handles GET /api/requisitions/{id}/issuances
func (h *RequisitionHandler) ListIssuances(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	history, err := h.issuances.Handle(r.Context(), query.ListIssuancesQuery{RequisitionID: id})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, history)
}

// RegisterRoutes registers all requisition routes
func (h *RequisitionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/requisitions", h.ListRequisitions).Methods("GET")
	router.HandleFunc("/api/requisitions", h.CreateRequisition).Methods("POST")
	router.HandleFunc("/api/requisitions/{id:[0-9]+}", h.GetRequisition).Methods("GET")
	router.HandleFunc("/api/requisitions/{id:[0-9]+}/approve", httpx.ManagerOnly(h.ApproveRequisition)).Methods("POST")
	router.HandleFunc("/api/requisitions/{id:[0-9]+}/reject", httpx.ManagerOnly(h.RejectRequisition)).Methods("POST")
	router.HandleFunc("/api/requisitions/{id:[0-9]+}/issue", httpx.ManagerOnly(h.IssueRequisition)).Methods("POST")
	router.HandleFunc("/api/requisitions/{id:[0-9]+}/issuances", h.ListIssuances).Methods("GET")
}
