package command

import (
	"context"
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

// AdjustInventoryCommand represents a manual stock adjustment
type AdjustInventoryCommand struct {
	ProductID   uint
	BatchID     *uint
	Location    string
	Type        domain.AdjustmentType
	Quantity    int
	Reason      string
	DeviceIMEIs []string
	ActorID     uint
}

// AdjustInventoryResult is the adjusted record. Warning is set when a decrease was floored at zero.
type AdjustInventoryResult struct {
	Record    *domain.InventoryRecord `json:"record"`
	Applied   int                     `json:"applied"`
	Direction string                  `json:"direction"`
	Reference string                  `json:"reference,omitempty"`
	Warning   string                  `json:"warning,omitempty"`
}

// AdjustInventoryHandler handles adjust inventory command
type AdjustInventoryHandler struct {
	ledger
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewAdjustInventoryHandler creates a new adjust inventory handler
func NewAdjustInventoryHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *AdjustInventoryHandler {
	return &AdjustInventoryHandler{ledger: ledger{repo: repo, catalog: cat}, retrier: retrier, publisher: publisher}
}

// Handle executes the adjust inventory command
func (h *AdjustInventoryHandler) Handle(ctx context.Context, cmd AdjustInventoryCommand) (*AdjustInventoryResult, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, apperr.Validation("reason is required")
	}
	// reject malformed requests before touching storage; the real delta needs the record
	if _, err := domain.NormalizeAdjustment(cmd.Type, cmd.Quantity, 0); err != nil {
		return nil, err
	}
	cmd.Location = locationOrDefault(cmd.Location)

	product, err := h.product(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Serialized && len(cmd.DeviceIMEIs) > 0 {
		return nil, apperr.Validation("product is not serialized").With("product_id", cmd.ProductID)
	}

	reference := numbering.New(numbering.Adjustment)
	var result *AdjustInventoryResult
	err = h.retrier.Run(ctx, "adjust inventory", func(ctx context.Context) error {
		if err := h.requireLocation(ctx, cmd.Location); err != nil {
			return err
		}
		batch, err := h.resolveBatch(ctx, cmd.ProductID, cmd.BatchID, cmd.Location)
		if err != nil {
			return err
		}
		rec, err := h.record(ctx, cmd.ProductID, batch.ID, cmd.Location, true)
		if err != nil {
			return err
		}

		adj, err := domain.NormalizeAdjustment(cmd.Type, cmd.Quantity, rec.QuantityAvailable)
		if err != nil {
			return err
		}

		res := &AdjustInventoryResult{Record: rec, Direction: adj.Direction.String(), Reference: reference}
		movement := domain.StockMovement{
			ProductID: cmd.ProductID,
			BatchID:   batch.ID,
			Location:  cmd.Location,
			Reason:    cmd.Reason,
			Reference: reference,
			ActorID:   cmd.ActorID,
		}

		switch adj.Direction {
		case domain.DirectionNone:
			result = res
			return nil

		case domain.DirectionIncrease:
			if product.Serialized && len(cmd.DeviceIMEIs) > 0 && len(cmd.DeviceIMEIs) != adj.Delta {
				return apperr.Validation("serialized increase needs one imei per unit").
					With("quantity", adj.Delta).
					With("imeis", len(cmd.DeviceIMEIs))
			}
			if _, err := h.registerDevices(ctx, cmd.DeviceIMEIs, cmd.ProductID, batch.ID, cmd.Location); err != nil {
				return err
			}
			rec.QuantityAvailable += adj.Delta
			res.Applied = adj.Delta
			movement.Type = domain.MovementIncrease
			movement.IMEIs = cmd.DeviceIMEIs

		case domain.DirectionDecrease:
			if product.Serialized {
				// retired devices must match the ledger decrement, so no flooring here
				if adj.Delta > rec.QuantityAvailable {
					return insufficient(rec, adj.Delta)
				}
				devices, err := h.deviceSelection(ctx, apperr.KindInsufficientDeviceSelection,
					cmd.ProductID, batch.ID, cmd.Location, cmd.DeviceIMEIs, adj.Delta)
				if err != nil {
					return err
				}
				for i := range devices {
					devices[i].Status = domain.DeviceRetired
					if err := h.repo.UpdateDevice(ctx, &devices[i]); err != nil {
						return err
					}
				}
				movement.IMEIs = cmd.DeviceIMEIs
			}
			applied := adj.Delta
			if applied > rec.QuantityAvailable {
				applied = rec.QuantityAvailable
				res.Warning = "decrease exceeds available quantity; floored at zero"
			}
			rec.QuantityAvailable -= applied
			res.Applied = applied
			movement.Type = domain.MovementDecrease
		}

		if err := h.repo.UpdateRecord(ctx, rec); err != nil {
			return err
		}
		movement.Quantity = res.Applied
		if err := h.movement(ctx, movement); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("product_id", cmd.ProductID).
			Str("type", string(cmd.Type)).
			Int("quantity", cmd.Quantity).
			Msg("Inventory adjustment rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("product_id", cmd.ProductID).
		Uint("batch_id", result.Record.BatchID).
		Str("direction", result.Direction).
		Int("applied", result.Applied).
		Int("available", result.Record.QuantityAvailable).
		Msg("Inventory adjusted")

	if result.Applied > 0 {
		kafka.Emit(ctx, h.publisher, kafka.Event{
			EventType: kafka.EventTypeInventoryAdjusted,
			ProductID: cmd.ProductID,
			ActorID:   cmd.ActorID,
			Data: map[string]interface{}{
				"batch_id":  result.Record.BatchID,
				"location":  cmd.Location,
				"direction": result.Direction,
				"quantity":  result.Applied,
				"reason":    cmd.Reason,
				"reference": reference,
			},
			Timestamp: time.Now(),
		})
	}
	return result, nil
}
