package command

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/metrics"
)

// ledger holds the lookups and bookkeeping shared by the stock commands.
// All of its methods expect to run inside a transaction.
type ledger struct {
	repo    domain.InventoryRepository
	catalog catalog.Catalog
}

func (l ledger) product(ctx context.Context, productID uint) (*catalog.Product, error) {
	if productID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	return l.catalog.GetProduct(ctx, productID)
}

func locationOrDefault(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.DefaultLocation
	}
	return code
}

// resolveBatch returns the explicit batch, or the only batch of the product stocked at
// location. Several candidate batches without an explicit choice is a validation error.
func (l ledger) resolveBatch(ctx context.Context, productID uint, batchID *uint, location string) (*domain.Batch, error) {
	if batchID != nil && *batchID != 0 {
		batch, err := l.repo.FindBatch(ctx, *batchID)
		if err != nil {
			return nil, err
		}
		if batch.ProductID != productID {
			return nil, apperr.Validation("batch does not belong to product").
				With("batch_id", batch.ID).
				With("product_id", productID)
		}
		return batch, nil
	}

	records, err := l.repo.ListRecords(ctx, domain.RecordFilter{ProductID: productID, Location: location})
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		batches, err := l.repo.ListBatches(ctx, productID)
		if err != nil {
			return nil, err
		}
		if len(batches) == 1 {
			return &batches[0], nil
		}
		if len(batches) == 0 {
			return nil, apperr.NotFound("batch", productID).With("product_id", productID)
		}
	case 1:
		return l.repo.FindBatch(ctx, records[0].BatchID)
	}
	return nil, apperr.Validation("batch_id is required when a product has several batches").
		With("product_id", productID).
		With("location", location)
}

// record returns the ledger row for the key, creating an empty one when create is set
func (l ledger) record(ctx context.Context, productID, batchID uint, location string, create bool) (*domain.InventoryRecord, error) {
	rec, err := l.repo.FindRecord(ctx, productID, batchID, location)
	if err == nil {
		return rec, nil
	}
	if !create || !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	rec = &domain.InventoryRecord{ProductID: productID, BatchID: batchID, Location: location}
	if err := l.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l ledger) requireLocation(ctx context.Context, code string) error {
	_, err := l.repo.FindLocation(ctx, code)
	return err
}

func (l ledger) movement(ctx context.Context, m domain.StockMovement) error {
	if err := l.repo.CreateMovement(ctx, &m); err != nil {
		return err
	}
	metrics.StockMovements.WithLabelValues(string(m.Type)).Add(float64(m.Quantity))
	return nil
}

// deviceSelection loads the devices for imeis and checks they are exactly quantity
// distinct AVAILABLE units of the product at location, and of batchID when it is set.
// Any mismatch is reported with the given kind.
func (l ledger) deviceSelection(ctx context.Context, kind apperr.Kind, productID uint, batchID uint, location string, imeis []string, quantity int) ([]domain.Device, error) {
	seen := make(map[string]bool, len(imeis))
	for _, imei := range imeis {
		if seen[imei] {
			return nil, apperr.New(kind, "imei listed more than once").With("imei", imei)
		}
		seen[imei] = true
	}
	if len(imeis) != quantity {
		return nil, apperr.New(kind, "serialized product needs exactly %d devices, got %d", quantity, len(imeis)).
			With("product_id", productID).
			With("quantity", quantity).
			With("selected", len(imeis))
	}

	devices, err := l.repo.ListDevices(ctx, domain.DeviceFilter{IMEIs: imeis})
	if err != nil {
		return nil, err
	}
	byIMEI := make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		byIMEI[d.IMEI] = d
	}

	selected := make([]domain.Device, 0, len(imeis))
	for _, imei := range imeis {
		d, ok := byIMEI[imei]
		switch {
		case !ok:
			return nil, apperr.New(kind, "device not registered").With("imei", imei)
		case d.ProductID != productID:
			return nil, apperr.New(kind, "device belongs to another product").
				With("imei", imei).With("product_id", d.ProductID)
		case batchID != 0 && d.BatchID != batchID:
			return nil, apperr.New(kind, "device belongs to another batch").
				With("imei", imei).With("batch_id", d.BatchID)
		case d.Location != location:
			return nil, apperr.New(kind, "device is not at the source location").
				With("imei", imei).With("location", d.Location)
		case d.Status != domain.DeviceAvailable:
			return nil, apperr.New(kind, "device is not available").
				With("imei", imei).With("status", string(d.Status))
		}
		selected = append(selected, d)
	}
	return selected, nil
}

// groupByBatch groups devices by batch, ordered oldest receipt first
func (l ledger) groupByBatch(ctx context.Context, devices []domain.Device) ([]deviceGroup, error) {
	index := make(map[uint]int)
	var groups []deviceGroup
	for _, d := range devices {
		i, ok := index[d.BatchID]
		if !ok {
			batch, err := l.repo.FindBatch(ctx, d.BatchID)
			if err != nil {
				return nil, err
			}
			i = len(groups)
			index[d.BatchID] = i
			groups = append(groups, deviceGroup{batch: *batch})
		}
		groups[i].devices = append(groups[i].devices, d)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].batch, groups[j].batch
		if a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ID < b.ID
		}
		return a.ReceivedAt.Before(b.ReceivedAt)
	})
	return groups, nil
}

type deviceGroup struct {
	batch   domain.Batch
	devices []domain.Device
}

func (g deviceGroup) imeis() []string {
	out := make([]string, 0, len(g.devices))
	for _, d := range g.devices {
		out = append(out, d.IMEI)
	}
	return out
}

// fifoPlan splits quantity across the product's batches at location, oldest first
func (l ledger) fifoPlan(ctx context.Context, productID uint, location string, quantity int) ([]domain.Split, error) {
	records, err := l.repo.ListRecords(ctx, domain.RecordFilter{ProductID: productID, Location: location})
	if err != nil {
		return nil, err
	}

	available := make([]domain.BatchAvailability, 0, len(records))
	total := 0
	for _, rec := range records {
		batch, err := l.repo.FindBatch(ctx, rec.BatchID)
		if err != nil {
			return nil, err
		}
		available = append(available, domain.BatchAvailability{
			BatchID:    rec.BatchID,
			ReceivedAt: batch.ReceivedAt,
			Available:  rec.QuantityAvailable,
		})
		total += rec.QuantityAvailable
	}

	splits, shortfall := domain.PlanFIFO(available, quantity)
	if shortfall > 0 {
		return nil, apperr.New(apperr.KindInsufficientStock, "not enough stock across batches").
			With("product_id", productID).
			With("location", location).
			With("requested", quantity).
			With("available", total)
	}
	return splits, nil
}

func insufficient(rec *domain.InventoryRecord, requested int) error {
	return apperr.New(apperr.KindInsufficientStock, "batch has %d available, %d requested", rec.QuantityAvailable, requested).
		With("product_id", rec.ProductID).
		With("batch_id", rec.BatchID).
		With("location", rec.Location).
		With("available", rec.QuantityAvailable).
		With("requested", requested)
}
