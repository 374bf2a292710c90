package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/pkg/apperr"
)

func TestNormalizeAdjustment(t *testing.T) {
	tests := []struct {
		name      string
		kind      AdjustmentType
		quantity  int
		current   int
		want      Adjustment
		wantError bool
	}{
		{name: "increase", kind: AdjustIncrease, quantity: 4, current: 10, want: Adjustment{DirectionIncrease, 4}},
		{name: "decrease", kind: AdjustDecrease, quantity: 3, current: 1, want: Adjustment{DirectionDecrease, 3}},
		{name: "correction up", kind: AdjustCorrection, quantity: 12, current: 10, want: Adjustment{DirectionIncrease, 2}},
		{name: "correction down", kind: AdjustCorrection, quantity: 7, current: 10, want: Adjustment{DirectionDecrease, 3}},
		{name: "correction equal", kind: AdjustCorrection, quantity: 10, current: 10, want: Adjustment{DirectionNone, 0}},
		{name: "zero increase", kind: AdjustIncrease, quantity: 0, wantError: true},
		{name: "negative correction", kind: AdjustCorrection, quantity: -1, wantError: true},
		{name: "unknown type", kind: "SHRINK", quantity: 1, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAdjustment(tt.kind, tt.quantity, tt.current)
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanFIFO_SplitsOldestFirst(t *testing.T) {
	now := time.Now()
	batches := []BatchAvailability{
		{BatchID: 2, ReceivedAt: now, Available: 5},
		{BatchID: 1, ReceivedAt: now.Add(-48 * time.Hour), Available: 2},
	}

	splits, shortfall := PlanFIFO(batches, 4)

	assert.Equal(t, 0, shortfall)
	assert.Equal(t, []Split{{BatchID: 1, Quantity: 2}, {BatchID: 2, Quantity: 2}}, splits)
}

func TestPlanFIFO_SkipsEmptyAndReportsShortfall(t *testing.T) {
	now := time.Now()
	batches := []BatchAvailability{
		{BatchID: 1, ReceivedAt: now.Add(-time.Hour), Available: 0},
		{BatchID: 2, ReceivedAt: now, Available: 3},
	}

	splits, shortfall := PlanFIFO(batches, 5)

	assert.Equal(t, 2, shortfall)
	assert.Equal(t, []Split{{BatchID: 2, Quantity: 3}}, splits)
}

func TestPlanFIFO_TieBrokenByBatchID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	splits, _ := PlanFIFO([]BatchAvailability{
		{BatchID: 9, ReceivedAt: at, Available: 1},
		{BatchID: 3, ReceivedAt: at, Available: 1},
	}, 1)

	assert.Equal(t, []Split{{BatchID: 3, Quantity: 1}}, splits)
}

func TestInventoryRecord_OnHand(t *testing.T) {
	r := InventoryRecord{QuantityAvailable: 4, QuantityReserved: 3}
	assert.Equal(t, 7, r.OnHand())
}
