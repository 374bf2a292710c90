package command

import (
	"context"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
)

// ReservationAction selects how a reservation changes a record
type ReservationAction string

// Reservation actions
const (
	ActionReserve ReservationAction = "RESERVE"
	ActionRelease ReservationAction = "RELEASE"
	ActionCommit  ReservationAction = "COMMIT"
)

// ReservationCommand moves quantity between the available and reserved buckets of a record
type ReservationCommand struct {
	RecordID  uint
	Action    ReservationAction
	Quantity  int
	Reference string
	ActorID   uint
}

// ReservationHandler handles reserve, release and commit commands
type ReservationHandler struct {
	ledger
	retrier *database.Retrier
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier) *ReservationHandler {
	return &ReservationHandler{ledger: ledger{repo: repo, catalog: cat}, retrier: retrier}
}

// Handle executes the reservation command.
// Reserve moves available to reserved, release moves it back and commit consumes reserved.
func (h *ReservationHandler) Handle(ctx context.Context, cmd ReservationCommand) (*domain.InventoryRecord, error) {
	if cmd.RecordID == 0 {
		return nil, apperr.Validation("record id is required")
	}
	if cmd.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive").With("quantity", cmd.Quantity)
	}

	var movementType domain.MovementType
	switch cmd.Action {
	case ActionReserve:
		movementType = domain.MovementReserve
	case ActionRelease:
		movementType = domain.MovementRelease
	case ActionCommit:
		movementType = domain.MovementCommit
	default:
		return nil, apperr.Validation("unknown reservation action %q", cmd.Action).With("action", string(cmd.Action))
	}

	var rec *domain.InventoryRecord
	err := h.retrier.Run(ctx, "reserve stock", func(ctx context.Context) error {
		var err error
		rec, err = h.repo.FindRecordByID(ctx, cmd.RecordID)
		if err != nil {
			return err
		}

		switch cmd.Action {
		case ActionReserve:
			if rec.QuantityAvailable < cmd.Quantity {
				return insufficient(rec, cmd.Quantity)
			}
			rec.QuantityAvailable -= cmd.Quantity
			rec.QuantityReserved += cmd.Quantity
		case ActionRelease, ActionCommit:
			if rec.QuantityReserved < cmd.Quantity {
				return apperr.New(apperr.KindInsufficientStock, "record has %d reserved, %d requested", rec.QuantityReserved, cmd.Quantity).
					With("inventory_record_id", rec.ID).
					With("reserved", rec.QuantityReserved).
					With("requested", cmd.Quantity)
			}
			rec.QuantityReserved -= cmd.Quantity
			if cmd.Action == ActionRelease {
				rec.QuantityAvailable += cmd.Quantity
			}
		}

		if err := h.repo.UpdateRecord(ctx, rec); err != nil {
			return err
		}
		return h.movement(ctx, domain.StockMovement{
			ProductID: rec.ProductID,
			BatchID:   rec.BatchID,
			Location:  rec.Location,
			Type:      movementType,
			Quantity:  cmd.Quantity,
			Reference: cmd.Reference,
			ActorID:   cmd.ActorID,
		})
	})
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("record_id", cmd.RecordID).
			Str("action", string(cmd.Action)).
			Int("quantity", cmd.Quantity).
			Msg("Reservation rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("record_id", rec.ID).
		Str("action", string(cmd.Action)).
		Int("available", rec.QuantityAvailable).
		Int("reserved", rec.QuantityReserved).
		Msg("Reservation applied")
	return rec, nil
}
