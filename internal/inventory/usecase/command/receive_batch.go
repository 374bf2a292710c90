package command

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
)

// ReceiveBatchCommand represents the receipt of a new batch into a location
type ReceiveBatchCommand struct {
	ProductID   uint
	BatchNumber string
	Location    string
	Quantity    int
	CostBasis   decimal.Decimal
	ReceivedAt  time.Time
	ExpiresAt   *time.Time
	IMEIs       []string
	ActorID     uint
}

// ReceiveBatchResult is the batch, its ledger row and any registered devices
type ReceiveBatchResult struct {
	Batch   *domain.Batch           `json:"batch"`
	Record  *domain.InventoryRecord `json:"record"`
	Devices []domain.Device         `json:"devices,omitempty"`
}

// ReceiveBatchHandler handles receive batch command
type ReceiveBatchHandler struct {
	ledger
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewReceiveBatchHandler creates a new receive batch handler
func NewReceiveBatchHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *ReceiveBatchHandler {
	return &ReceiveBatchHandler{ledger: ledger{repo: repo, catalog: cat}, retrier: retrier, publisher: publisher}
}

// Handle executes the receive batch command
func (h *ReceiveBatchHandler) Handle(ctx context.Context, cmd ReceiveBatchCommand) (*ReceiveBatchResult, error) {
	cmd.BatchNumber = strings.TrimSpace(cmd.BatchNumber)
	if cmd.BatchNumber == "" {
		return nil, apperr.Validation("batch_number is required")
	}
	if cmd.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive").With("quantity", cmd.Quantity)
	}
	if cmd.CostBasis.IsNegative() {
		return nil, apperr.Validation("cost_basis cannot be negative").With("cost_basis", cmd.CostBasis.String())
	}
	cmd.Location = locationOrDefault(cmd.Location)
	if cmd.ReceivedAt.IsZero() {
		cmd.ReceivedAt = time.Now()
	}

	product, err := h.product(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Serialized && len(cmd.IMEIs) != cmd.Quantity {
		return nil, apperr.Validation("serialized product needs one imei per unit").
			With("product_id", cmd.ProductID).
			With("quantity", cmd.Quantity).
			With("imeis", len(cmd.IMEIs))
	}
	if !product.Serialized && len(cmd.IMEIs) > 0 {
		return nil, apperr.Validation("product is not serialized").With("product_id", cmd.ProductID)
	}

	var result *ReceiveBatchResult
	err = h.retrier.Run(ctx, "receive batch", func(ctx context.Context) error {
		if err := h.requireLocation(ctx, cmd.Location); err != nil {
			return err
		}

		batch := &domain.Batch{
			ProductID:   cmd.ProductID,
			BatchNumber: cmd.BatchNumber,
			ReceivedAt:  cmd.ReceivedAt,
			CostBasis:   cmd.CostBasis,
			ExpiresAt:   cmd.ExpiresAt,
		}
		if err := h.repo.CreateBatch(ctx, batch); err != nil {
			return err
		}

		rec, err := h.record(ctx, cmd.ProductID, batch.ID, cmd.Location, true)
		if err != nil {
			return err
		}
		rec.QuantityAvailable += cmd.Quantity
		if err := h.repo.UpdateRecord(ctx, rec); err != nil {
			return err
		}

		devices, err := h.registerDevices(ctx, cmd.IMEIs, cmd.ProductID, batch.ID, cmd.Location)
		if err != nil {
			return err
		}

		if err := h.movement(ctx, domain.StockMovement{
			ProductID: cmd.ProductID,
			BatchID:   batch.ID,
			Location:  cmd.Location,
			Type:      domain.MovementReceipt,
			Quantity:  cmd.Quantity,
			Reference: batch.BatchNumber,
			ActorID:   cmd.ActorID,
			IMEIs:     cmd.IMEIs,
		}); err != nil {
			return err
		}

		result = &ReceiveBatchResult{Batch: batch, Record: rec, Devices: devices}
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("product_id", cmd.ProductID).
			Str("batch_number", cmd.BatchNumber).
			Msg("Batch receipt rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("product_id", cmd.ProductID).
		Uint("batch_id", result.Batch.ID).
		Str("location", cmd.Location).
		Int("quantity", cmd.Quantity).
		Msg("Batch received")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType: kafka.EventTypeInventoryReceived,
		ProductID: cmd.ProductID,
		ActorID:   cmd.ActorID,
		Data: map[string]interface{}{
			"batch_id": result.Batch.ID,
			"location": cmd.Location,
			"quantity": cmd.Quantity,
		},
		Timestamp: time.Now(),
	})
	return result, nil
}

// registerDevices creates AVAILABLE devices for imeis
func (l ledger) registerDevices(ctx context.Context, imeis []string, productID, batchID uint, location string) ([]domain.Device, error) {
	devices := make([]domain.Device, 0, len(imeis))
	for _, imei := range imeis {
		imei = strings.TrimSpace(imei)
		if imei == "" {
			return nil, apperr.Validation("imei cannot be empty")
		}
		d := domain.Device{
			IMEI:      imei,
			ProductID: productID,
			BatchID:   batchID,
			Location:  location,
			Status:    domain.DeviceAvailable,
		}
		if err := l.repo.CreateDevice(ctx, &d); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}
