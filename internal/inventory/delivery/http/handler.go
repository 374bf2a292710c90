package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/internal/inventory/usecase/command"
	"github.com/tair/field-service/internal/inventory/usecase/query"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/httpx"
	"github.com/tair/field-service/pkg/logger"
)

const reportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler handles HTTP requests for inventory
type InventoryHandler struct {
	receive     *command.ReceiveBatchHandler
	adjust      *command.AdjustInventoryHandler
	transfer    *command.TransferInventoryHandler
	reservation *command.ReservationHandler
	returns     *command.ReturnStockHandler
	location    *command.SaveLocationHandler

	get       *query.GetInventoryHandler
	list      *query.ListInventoryHandler
	devices   *query.GetAvailableDevicesHandler
	locations *query.ListLocationsHandler
	batches   *query.ListBatchesHandler
	movements *query.ListMovementsHandler
	report    *query.ExportStockReportHandler
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *InventoryHandler {
	return &InventoryHandler{
		receive:     command.NewReceiveBatchHandler(repo, cat, retrier, publisher),
		adjust:      command.NewAdjustInventoryHandler(repo, cat, retrier, publisher),
		transfer:    command.NewTransferInventoryHandler(repo, cat, retrier, publisher),
		reservation: command.NewReservationHandler(repo, cat, retrier),
		returns:     command.NewReturnStockHandler(repo, cat, retrier, publisher),
		location:    command.NewSaveLocationHandler(repo),
		get:         query.NewGetInventoryHandler(repo),
		list:        query.NewListInventoryHandler(repo),
		devices:     query.NewGetAvailableDevicesHandler(repo),
		locations:   query.NewListLocationsHandler(repo),
		batches:     query.NewListBatchesHandler(repo),
		movements:   query.NewListMovementsHandler(repo),
		report:      query.NewExportStockReportHandler(repo),
	}
}

// ReceiveBatch handles POST /api/inventory/receipts
func (h *InventoryHandler) ReceiveBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   uint            `json:"product_id"`
		BatchNumber string          `json:"batch_number"`
		Location    string          `json:"location"`
		Quantity    int             `json:"quantity"`
		CostBasis   decimal.Decimal `json:"cost_basis"`
		ReceivedAt  time.Time       `json:"received_at"`
		ExpiresAt   *time.Time      `json:"expires_at"`
		IMEIs       []string        `json:"imeis"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	result, err := h.receive.Handle(r.Context(), command.ReceiveBatchCommand{
		ProductID:   req.ProductID,
		BatchNumber: req.BatchNumber,
		Location:    req.Location,
		Quantity:    req.Quantity,
		CostBasis:   req.CostBasis,
		ReceivedAt:  req.ReceivedAt,
		ExpiresAt:   req.ExpiresAt,
		IMEIs:       req.IMEIs,
		ActorID:     httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondCreated(w, "Batch received successfully", result)
}

// AdjustInventory handles POST /api/inventory/adjustments
func (h *InventoryHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   uint                  `json:"product_id"`
		BatchID     *uint                 `json:"batch_id"`
		Location    string                `json:"location"`
		Type        domain.AdjustmentType `json:"adjustment_type"`
		Quantity    int                   `json:"quantity"`
		Reason      string                `json:"reason"`
		DeviceIMEIs []string              `json:"device_imeis"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	result, err := h.adjust.Handle(r.Context(), command.AdjustInventoryCommand{
		ProductID:   req.ProductID,
		BatchID:     req.BatchID,
		Location:    req.Location,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		DeviceIMEIs: req.DeviceIMEIs,
		ActorID:     httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, result)
}

// TransferInventory handles POST /api/inventory/transfers
func (h *InventoryHandler) TransferInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID    uint     `json:"product_id"`
		BatchID      *uint    `json:"batch_id"`
		FromLocation string   `json:"from_location"`
		ToLocation   string   `json:"to_location"`
		Quantity     int      `json:"quantity"`
		DeviceIMEIs  []string `json:"device_imeis"`
		Reason       string   `json:"reason"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	result, err := h.transfer.Handle(r.Context(), command.TransferInventoryCommand{
		ProductID:    req.ProductID,
		BatchID:      req.BatchID,
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		Quantity:     req.Quantity,
		DeviceIMEIs:  req.DeviceIMEIs,
		Reason:       req.Reason,
		ActorID:      httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, result)
}

// ChangeReservation handles POST /api/inventory/{id}/reservations
func (h *InventoryHandler) ChangeReservation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	var req struct {
		Action    command.ReservationAction `json:"action"`
		Quantity  int                       `json:"quantity"`
		Reference string                    `json:"reference"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	record, err := h.reservation.Handle(r.Context(), command.ReservationCommand{
		RecordID:  id,
		Action:    req.Action,
		Quantity:  req.Quantity,
		Reference: req.Reference,
		ActorID:   httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, record)
}

// ReturnStock handles POST /api/inventory/returns
func (h *InventoryHandler) ReturnStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID       uint                 `json:"job_id"`
		Location    string               `json:"location"`
		DeviceIMEIs []string             `json:"device_imeis"`
		Lines       []command.ReturnLine `json:"lines"`
		Reason      string               `json:"reason"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	result, err := h.returns.Handle(r.Context(), command.ReturnStockCommand{
		JobID:       req.JobID,
		Location:    req.Location,
		DeviceIMEIs: req.DeviceIMEIs,
		Lines:       req.Lines,
		Reason:      req.Reason,
		ActorID:     httpx.Actor(r).UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, result)
}

// SaveLocation handles POST /api/inventory/locations
func (h *InventoryHandler) SaveLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string              `json:"code"`
		Name string              `json:"name"`
		Kind domain.LocationKind `json:"kind"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	location, err := h.location.Handle(r.Context(), command.SaveLocationCommand{
		Code: req.Code,
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondCreated(w, "Location saved successfully", location)
}

// GetInventory handles GET /api/inventory/{id}
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	record, err := h.get.Handle(r.Context(), query.GetInventoryQuery{ID: id})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, record)
}

// ListInventory handles GET /api/inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.QueryUint(r, "product_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	batchID, err := httpx.QueryUint(r, "batch_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	records, err := h.list.Handle(r.Context(), query.ListInventoryQuery{
		ProductID: productID,
		BatchID:   batchID,
		Location:  r.URL.Query().Get("location"),
		Limit:     httpx.QueryInt(r, "limit"),
		Offset:    httpx.QueryInt(r, "offset"),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, records)
}

// AvailableDevices handles GET /api/inventory/devices/available
func (h *InventoryHandler) AvailableDevices(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.QueryUint(r, "product_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	batchID, err := httpx.QueryUint(r, "batch_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	q := query.GetAvailableDevicesQuery{
		ProductID: productID,
		Location:  r.URL.Query().Get("location"),
	}
	if batchID != 0 {
		q.BatchID = &batchID
	}

	devices, err := h.devices.Handle(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, devices)
}

// ListLocations handles GET /api/inventory/locations
func (h *InventoryHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.Handle(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, locations)
}

// ListBatches handles GET /api/inventory/batches
func (h *InventoryHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.QueryUint(r, "product_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	batches, err := h.batches.Handle(r.Context(), query.ListBatchesQuery{ProductID: productID})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, batches)
}

// ListMovements handles GET /api/inventory/movements
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.QueryUint(r, "product_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	movements, err := h.movements.Handle(r.Context(), query.ListMovementsQuery{
		ProductID: productID,
		Reference: r.URL.Query().Get("reference"),
		Limit:     httpx.QueryInt(r, "limit"),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	httpx.RespondOK(w, movements)
}

// ExportReport handles GET /api/inventory/report and streams an xlsx workbook
func (h *InventoryHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.QueryUint(r, "product_id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	data, err := h.report.Handle(r.Context(), query.ExportStockReportQuery{
		ProductID: productID,
		Location:  r.URL.Query().Get("location"),
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", reportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="stock-report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Warn(r.Context()).Err(err).Msg("Failed to write stock report")
	}
}

// RegisterRoutes registers all inventory routes. Static paths are registered before
// /api/inventory/{id} so that mux does not treat them as record IDs.
func (h *InventoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/inventory", h.ListInventory).Methods("GET")
	router.HandleFunc("/api/inventory/devices/available", h.AvailableDevices).Methods("GET")
	router.HandleFunc("/api/inventory/locations", h.ListLocations).Methods("GET")
	router.HandleFunc("/api/inventory/locations", httpx.ManagerOnly(h.SaveLocation)).Methods("POST")
	router.HandleFunc("/api/inventory/batches", h.ListBatches).Methods("GET")
	router.HandleFunc("/api/inventory/movements", h.ListMovements).Methods("GET")
	router.HandleFunc("/api/inventory/report", h.ExportReport).Methods("GET")
	router.HandleFunc("/api/inventory/receipts", httpx.ManagerOnly(h.ReceiveBatch)).Methods("POST")
	router.HandleFunc("/api/inventory/adjustments", httpx.ManagerOnly(h.AdjustInventory)).Methods("POST")
	router.HandleFunc("/api/inventory/transfers", httpx.ManagerOnly(h.TransferInventory)).Methods("POST")
	router.HandleFunc("/api/inventory/returns", h.ReturnStock).Methods("POST")
	router.HandleFunc("/api/inventory/{id:[0-9]+}", h.GetInventory).Methods("GET")
	router.HandleFunc("/api/inventory/{id:[0-9]+}/reservations", h.ChangeReservation).Methods("POST")
}
