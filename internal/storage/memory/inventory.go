package memory

import (
	"context"
	"sort"
	"time"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

// InventoryRepository implements domain.InventoryRepository
type InventoryRepository struct {
	store *Store
}

func cloneDevice(d domain.Device) domain.Device {
	if d.JobID != nil {
		v := *d.JobID
		d.JobID = &v
	}
	if d.RequisitionID != nil {
		v := *d.RequisitionID
		d.RequisitionID = &v
	}
	return d
}

func cloneMovement(m domain.StockMovement) domain.StockMovement {
	m.IMEIs = append([]string(nil), m.IMEIs...)
	return m
}

func (r *InventoryRepository) SaveLocation(ctx context.Context, location *domain.Location) error {
	return r.store.do(ctx, func(st *state) error {
		if existing, ok := st.locations[location.Code]; ok {
			location.CreatedAt = existing.CreatedAt
		} else if location.CreatedAt.IsZero() {
			location.CreatedAt = time.Now()
		}
		st.locations[location.Code] = *location
		return nil
	})
}

func (r *InventoryRepository) FindLocation(ctx context.Context, code string) (*domain.Location, error) {
	var out *domain.Location
	err := r.store.do(ctx, func(st *state) error {
		l, ok := st.locations[code]
		if !ok {
			return apperr.NotFound("location", code)
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *InventoryRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var out []domain.Location
	err := r.store.do(ctx, func(st *state) error {
		for _, l := range st.locations {
			out = append(out, l)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
		return nil
	})
	return out, err
}

func (r *InventoryRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	return r.store.do(ctx, func(st *state) error {
		for _, b := range st.batches {
			if b.ProductID == batch.ProductID && b.BatchNumber == batch.BatchNumber {
				return apperr.Validation("batch number already received for product").
					With("product_id", batch.ProductID).
					With("batch_number", batch.BatchNumber)
			}
		}
		batch.ID = st.nextID("batches")
		batch.CreatedAt = time.Now()
		st.batches[batch.ID] = *batch
		return nil
	})
}

func (r *InventoryRepository) FindBatch(ctx context.Context, id uint) (*domain.Batch, error) {
	var out *domain.Batch
	err := r.store.do(ctx, func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return apperr.NotFound("batch", id)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *InventoryRepository) ListBatches(ctx context.Context, productID uint) ([]domain.Batch, error) {
	var out []domain.Batch
	err := r.store.do(ctx, func(st *state) error {
		for _, b := range st.batches {
			if b.ProductID == productID {
				out = append(out, b)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		})
		return nil
	})
	return out, err
}

func (r *InventoryRepository) CreateRecord(ctx context.Context, record *domain.InventoryRecord) error {
	return r.store.do(ctx, func(st *state) error {
		for _, existing := range st.records {
			if existing.ProductID == record.ProductID && existing.BatchID == record.BatchID && existing.Location == record.Location {
				return database.ErrVersionConflict
			}
		}
		if record.QuantityAvailable < 0 || record.QuantityReserved < 0 {
			return apperr.Validation("inventory quantities cannot be negative")
		}
		now := time.Now()
		record.ID = st.nextID("inventory_records")
		record.CreatedAt, record.UpdatedAt = now, now
		st.records[record.ID] = *record
		return nil
	})
}

func (r *InventoryRepository) FindRecord(ctx context.Context, productID, batchID uint, location string) (*domain.InventoryRecord, error) {
	var out *domain.InventoryRecord
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ProductID == productID && rec.BatchID == batchID && rec.Location == location {
				rec := rec
				out = &rec
				return nil
			}
		}
		return apperr.NotFound("inventory_record", map[string]interface{}{
			"product_id": productID, "batch_id": batchID, "location": location,
		})
	})
	return out, err
}

func (r *InventoryRepository) FindRecordByID(ctx context.Context, id uint) (*domain.InventoryRecord, error) {
	var out *domain.InventoryRecord
	err := r.store.do(ctx, func(st *state) error {
		rec, ok := st.records[id]
		if !ok {
			return apperr.NotFound("inventory_record", id)
		}
		out = &rec
		return nil
	})
	return out, err
}

func (r *InventoryRepository) ListRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if filter.ProductID != 0 && rec.ProductID != filter.ProductID {
				continue
			}
			if filter.BatchID != 0 && rec.BatchID != filter.BatchID {
				continue
			}
			if filter.Location != "" && rec.Location != filter.Location {
				continue
			}
			out = append(out, rec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *InventoryRepository) UpdateRecord(ctx context.Context, record *domain.InventoryRecord) error {
	return r.store.do(ctx, func(st *state) error {
		stored, ok := st.records[record.ID]
		if !ok {
			return apperr.NotFound("inventory_record", record.ID)
		}
		if stored.Version != record.Version {
			return database.ErrVersionConflict
		}
		if record.QuantityAvailable < 0 || record.QuantityReserved < 0 {
			return apperr.Validation("inventory quantities cannot be negative").With("inventory_record_id", record.ID)
		}
		stored.QuantityAvailable = record.QuantityAvailable
		stored.QuantityReserved = record.QuantityReserved
		stored.Version++
		stored.UpdatedAt = time.Now()
		st.records[record.ID] = stored

		record.Version = stored.Version
		record.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *InventoryRepository) CreateDevice(ctx context.Context, device *domain.Device) error {
	return r.store.do(ctx, func(st *state) error {
		for _, d := range st.devices {
			if d.IMEI == device.IMEI {
				return apperr.Validation("imei already registered").With("imei", device.IMEI)
			}
		}
		now := time.Now()
		device.ID = st.nextID("devices")
		device.CreatedAt, device.UpdatedAt = now, now
		st.devices[device.ID] = cloneDevice(*device)
		return nil
	})
}

func (r *InventoryRepository) FindDeviceByIMEI(ctx context.Context, imei string) (*domain.Device, error) {
	var out *domain.Device
	err := r.store.do(ctx, func(st *state) error {
		for _, d := range st.devices {
			if d.IMEI == imei {
				c := cloneDevice(d)
				out = &c
				return nil
			}
		}
		return apperr.NotFound("device", imei)
	})
	return out, err
}

func (r *InventoryRepository) ListDevices(ctx context.Context, filter domain.DeviceFilter) ([]domain.Device, error) {
	var imeis map[string]bool
	if len(filter.IMEIs) > 0 {
		imeis = make(map[string]bool, len(filter.IMEIs))
		for _, imei := range filter.IMEIs {
			imeis[imei] = true
		}
	}

	var out []domain.Device
	err := r.store.do(ctx, func(st *state) error {
		for _, d := range st.devices {
			if filter.ProductID != 0 && d.ProductID != filter.ProductID {
				continue
			}
			if filter.BatchID != 0 && d.BatchID != filter.BatchID {
				continue
			}
			if filter.Location != "" && d.Location != filter.Location {
				continue
			}
			if filter.Status != "" && d.Status != filter.Status {
				continue
			}
			if filter.JobID != 0 && (d.JobID == nil || *d.JobID != filter.JobID) {
				continue
			}
			if imeis != nil && !imeis[d.IMEI] {
				continue
			}
			out = append(out, cloneDevice(d))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *InventoryRepository) UpdateDevice(ctx context.Context, device *domain.Device) error {
	return r.store.do(ctx, func(st *state) error {
		stored, ok := st.devices[device.ID]
		if !ok {
			return apperr.NotFound("device", device.IMEI)
		}
		if stored.Version != device.Version {
			return database.ErrVersionConflict
		}
		updated := cloneDevice(*device)
		updated.IMEI = stored.IMEI
		updated.ProductID = stored.ProductID
		updated.BatchID = stored.BatchID
		updated.CreatedAt = stored.CreatedAt
		updated.Version = stored.Version + 1
		updated.UpdatedAt = time.Now()
		st.devices[device.ID] = updated

		device.Version = updated.Version
		device.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (r *InventoryRepository) CreateMovement(ctx context.Context, movement *domain.StockMovement) error {
	return r.store.do(ctx, func(st *state) error {
		movement.ID = st.nextID("stock_movements")
		movement.CreatedAt = time.Now()
		st.movements = append(st.movements, cloneMovement(*movement))
		return nil
	})
}

func (r *InventoryRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	var out []domain.StockMovement
	err := r.store.do(ctx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if filter.ProductID != 0 && m.ProductID != filter.ProductID {
				continue
			}
			if filter.Reference != "" && m.Reference != filter.Reference {
				continue
			}
			out = append(out, cloneMovement(m))
		}
		out = page(out, filter.Limit, 0)
		return nil
	})
	return out, err
}
