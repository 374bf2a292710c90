package domain

import (
	"github.com/tair/field-service/pkg/apperr"
)

// AdjustmentType is the requested kind of stock adjustment
type AdjustmentType string

// Adjustment types
const (
	AdjustIncrease   AdjustmentType = "INCREASE"
	AdjustDecrease   AdjustmentType = "DECREASE"
	AdjustCorrection AdjustmentType = "CORRECTION"
)

// Direction is the normalized effect of an adjustment
type Direction int

// Directions
const (
	DirectionNone Direction = iota
	DirectionIncrease
	DirectionDecrease
)

func (d Direction) String() string {
	switch d {
	case DirectionIncrease:
		return string(AdjustIncrease)
	case DirectionDecrease:
		return string(AdjustDecrease)
	default:
		return "NONE"
	}
}

// Adjustment is an adjustment reduced to a direction and a non-negative delta
type Adjustment struct {
	Direction Direction
	Delta     int
}

// NormalizeAdjustment converts a requested adjustment into a direction and delta.
// For CORRECTION the quantity is the exact target and current is the quantity on hand.
func NormalizeAdjustment(kind AdjustmentType, quantity, current int) (Adjustment, error) {
	switch kind {
	case AdjustIncrease:
		if quantity <= 0 {
			return Adjustment{}, apperr.Validation("increase quantity must be positive").With("quantity", quantity)
		}
		return Adjustment{Direction: DirectionIncrease, Delta: quantity}, nil
	case AdjustDecrease:
		if quantity <= 0 {
			return Adjustment{}, apperr.Validation("decrease quantity must be positive").With("quantity", quantity)
		}
		return Adjustment{Direction: DirectionDecrease, Delta: quantity}, nil
	case AdjustCorrection:
		if quantity < 0 {
			return Adjustment{}, apperr.Validation("correction target cannot be negative").With("quantity", quantity)
		}
		delta := quantity - current
		switch {
		case delta > 0:
			return Adjustment{Direction: DirectionIncrease, Delta: delta}, nil
		case delta < 0:
			return Adjustment{Direction: DirectionDecrease, Delta: -delta}, nil
		default:
			return Adjustment{Direction: DirectionNone}, nil
		}
	default:
		return Adjustment{}, apperr.Validation("unknown adjustment type %q", kind).With("type", string(kind))
	}
}
