package domain

import (
	"sort"
	"time"
)

// BatchAvailability is the stock of one batch at a location, as seen by the FIFO planner
type BatchAvailability struct {
	BatchID    uint
	ReceivedAt time.Time
	Available  int
}

// Split is one portion of a requested quantity drawn from a single batch
type Split struct {
	BatchID  uint
	Quantity int
}

// PlanFIFO draws quantity from batches oldest receipt first. Ties are broken by batch ID.
// It returns the planned splits and the quantity that could not be covered.
func PlanFIFO(batches []BatchAvailability, quantity int) ([]Split, int) {
	ordered := make([]BatchAvailability, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ReceivedAt.Equal(ordered[j].ReceivedAt) {
			return ordered[i].BatchID < ordered[j].BatchID
		}
		return ordered[i].ReceivedAt.Before(ordered[j].ReceivedAt)
	})

	remaining := quantity
	var splits []Split
	for _, b := range ordered {
		if remaining <= 0 {
			break
		}
		if b.Available <= 0 {
			continue
		}
		take := b.Available
		if take > remaining {
			take = remaining
		}
		splits = append(splits, Split{BatchID: b.BatchID, Quantity: take})
		remaining -= take
	}
	return splits, remaining
}
