package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/numbering"
)

// TransferInventoryCommand represents a stock move between two locations
type TransferInventoryCommand struct {
	ProductID    uint
	BatchID      *uint
	FromLocation string
	ToLocation   string
	Quantity     int
	DeviceIMEIs  []string
	Reason       string
	ActorID      uint
}

// TransferLine is the part of a transfer drawn from one batch
type TransferLine struct {
	BatchID  uint     `json:"batch_id"`
	Quantity int      `json:"quantity"`
	IMEIs    []string `json:"imeis,omitempty"`
}

// TransferInventoryResult summarizes a completed transfer
type TransferInventoryResult struct {
	Message   string         `json:"message"`
	Reference string         `json:"reference"`
	Lines     []TransferLine `json:"lines"`
}

// TransferInventoryHandler handles transfer inventory command
type TransferInventoryHandler struct {
	ledger
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewTransferInventoryHandler creates a new transfer inventory handler
func NewTransferInventoryHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *TransferInventoryHandler {
	return &TransferInventoryHandler{ledger: ledger{repo: repo, catalog: cat}, retrier: retrier, publisher: publisher}
}

// Handle executes the transfer inventory command. Ledger rows and device locations move
// together in one transaction.
func (h *TransferInventoryHandler) Handle(ctx context.Context, cmd TransferInventoryCommand) (*TransferInventoryResult, error) {
	cmd.FromLocation = strings.TrimSpace(cmd.FromLocation)
	cmd.ToLocation = strings.TrimSpace(cmd.ToLocation)
	if cmd.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive").With("quantity", cmd.Quantity)
	}
	if cmd.FromLocation == "" || cmd.ToLocation == "" {
		return nil, apperr.New(apperr.KindInvalidTransfer, "both endpoints are required").
			With("from_location", cmd.FromLocation).
			With("to_location", cmd.ToLocation)
	}
	if cmd.FromLocation == cmd.ToLocation {
		return nil, apperr.New(apperr.KindInvalidTransfer, "source and destination are the same location").
			With("from_location", cmd.FromLocation).
			With("to_location", cmd.ToLocation)
	}

	product, err := h.product(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Serialized && len(cmd.DeviceIMEIs) > 0 {
		return nil, apperr.Validation("product is not serialized").With("product_id", cmd.ProductID)
	}

	reference := numbering.New(numbering.Transfer)
	var lines []TransferLine
	err = h.retrier.Run(ctx, "transfer inventory", func(ctx context.Context) error {
		lines = nil
		for _, code := range []string{cmd.FromLocation, cmd.ToLocation} {
			if err := h.requireLocation(ctx, code); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return apperr.Wrap(apperr.KindInvalidTransfer, err, "unknown location %q", code).With("location", code)
				}
				return err
			}
		}

		var batchID uint
		if cmd.BatchID != nil {
			batch, err := h.resolveBatch(ctx, cmd.ProductID, cmd.BatchID, cmd.FromLocation)
			if err != nil {
				return err
			}
			batchID = batch.ID
		}

		var err error
		if product.Serialized {
			lines, err = h.planDevices(ctx, cmd, batchID)
		} else if batchID != 0 {
			lines = []TransferLine{{BatchID: batchID, Quantity: cmd.Quantity}}
		} else {
			var splits []domain.Split
			splits, err = h.fifoPlan(ctx, cmd.ProductID, cmd.FromLocation, cmd.Quantity)
			for _, s := range splits {
				lines = append(lines, TransferLine{BatchID: s.BatchID, Quantity: s.Quantity})
			}
		}
		if err != nil {
			return err
		}

		for _, line := range lines {
			if err := h.moveLine(ctx, cmd, reference, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("product_id", cmd.ProductID).
			Str("from", cmd.FromLocation).
			Str("to", cmd.ToLocation).
			Int("quantity", cmd.Quantity).
			Msg("Inventory transfer rejected")
		return nil, err
	}

	result := &TransferInventoryResult{
		Message:   fmt.Sprintf("transferred %d units from %s to %s", cmd.Quantity, cmd.FromLocation, cmd.ToLocation),
		Reference: reference,
		Lines:     lines,
	}

	logger.Info(ctx).
		Uint("product_id", cmd.ProductID).
		Str("reference", reference).
		Str("from", cmd.FromLocation).
		Str("to", cmd.ToLocation).
		Int("quantity", cmd.Quantity).
		Int("lines", len(lines)).
		Msg("Inventory transferred")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType: kafka.EventTypeInventoryTransferred,
		ProductID: cmd.ProductID,
		ActorID:   cmd.ActorID,
		Data: map[string]interface{}{
			"reference":     reference,
			"from_location": cmd.FromLocation,
			"to_location":   cmd.ToLocation,
			"quantity":      cmd.Quantity,
		},
		Timestamp: time.Now(),
	})
	return result, nil
}

func (h *TransferInventoryHandler) planDevices(ctx context.Context, cmd TransferInventoryCommand, batchID uint) ([]TransferLine, error) {
	devices, err := h.deviceSelection(ctx, apperr.KindInsufficientDeviceSelection,
		cmd.ProductID, batchID, cmd.FromLocation, cmd.DeviceIMEIs, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	groups, err := h.groupByBatch(ctx, devices)
	if err != nil {
		return nil, err
	}
	lines := make([]TransferLine, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, TransferLine{BatchID: g.batch.ID, Quantity: len(g.devices), IMEIs: g.imeis()})
	}
	return lines, nil
}

func (h *TransferInventoryHandler) moveLine(ctx context.Context, cmd TransferInventoryCommand, reference string, line TransferLine) error {
	src, err := h.record(ctx, cmd.ProductID, line.BatchID, cmd.FromLocation, false)
	if errors.Is(err, apperr.ErrNotFound) {
		src = &domain.InventoryRecord{ProductID: cmd.ProductID, BatchID: line.BatchID, Location: cmd.FromLocation}
		return insufficient(src, line.Quantity)
	}
	if err != nil {
		return err
	}
	if src.QuantityAvailable < line.Quantity {
		return insufficient(src, line.Quantity)
	}

	dst, err := h.record(ctx, cmd.ProductID, line.BatchID, cmd.ToLocation, true)
	if err != nil {
		return err
	}

	src.QuantityAvailable -= line.Quantity
	if err := h.repo.UpdateRecord(ctx, src); err != nil {
		return err
	}
	dst.QuantityAvailable += line.Quantity
	if err := h.repo.UpdateRecord(ctx, dst); err != nil {
		return err
	}

	for _, imei := range line.IMEIs {
		d, err := h.repo.FindDeviceByIMEI(ctx, imei)
		if err != nil {
			return err
		}
		d.Location = cmd.ToLocation
		if err := h.repo.UpdateDevice(ctx, d); err != nil {
			return err
		}
	}

	out := domain.StockMovement{
		ProductID: cmd.ProductID,
		BatchID:   line.BatchID,
		Location:  cmd.FromLocation,
		Type:      domain.MovementTransferOut,
		Quantity:  line.Quantity,
		Reason:    cmd.Reason,
		Reference: reference,
		ActorID:   cmd.ActorID,
		IMEIs:     line.IMEIs,
	}
	if err := h.movement(ctx, out); err != nil {
		return err
	}
	in := out
	in.Location = cmd.ToLocation
	in.Type = domain.MovementTransferIn
	return h.movement(ctx, in)
}
