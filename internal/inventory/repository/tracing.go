package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/field-service/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// TracingRepository wraps an InventoryRepository with a span per call
type TracingRepository struct {
	next domain.InventoryRepository
}

// NewTracingRepository creates a new repository with tracing
func NewTracingRepository(next domain.InventoryRepository) *TracingRepository {
	return &TracingRepository{next: next}
}

func (r *TracingRepository) SaveLocation(ctx context.Context, location *domain.Location) error {
	ctx, span := tracer.Start(ctx, "repository.SaveLocation",
		trace.WithAttributes(attribute.String("location.code", location.Code)))
	defer span.End()
	return record(span, r.next.SaveLocation(ctx, location))
}

func (r *TracingRepository) FindLocation(ctx context.Context, code string) (*domain.Location, error) {
	ctx, span := tracer.Start(ctx, "repository.FindLocation",
		trace.WithAttributes(attribute.String("location.code", code)))
	defer span.End()
	location, err := r.next.FindLocation(ctx, code)
	return location, record(span, err)
}

func (r *TracingRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	ctx, span := tracer.Start(ctx, "repository.ListLocations")
	defer span.End()
	locations, err := r.next.ListLocations(ctx)
	span.SetAttributes(attribute.Int("result.count", len(locations)))
	return locations, record(span, err)
}

func (r *TracingRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	ctx, span := tracer.Start(ctx, "repository.CreateBatch",
		trace.WithAttributes(
			attribute.Int("batch.product_id", int(batch.ProductID)),
			attribute.String("batch.number", batch.BatchNumber),
		))
	defer span.End()
	err := r.next.CreateBatch(ctx, batch)
	span.SetAttributes(attribute.Int("batch.id", int(batch.ID)))
	return record(span, err)
}

func (r *TracingRepository) FindBatch(ctx context.Context, id uint) (*domain.Batch, error) {
	ctx, span := tracer.Start(ctx, "repository.FindBatch",
		trace.WithAttributes(attribute.Int("batch.id", int(id))))
	defer span.End()
	batch, err := r.next.FindBatch(ctx, id)
	return batch, record(span, err)
}

func (r *TracingRepository) ListBatches(ctx context.Context, productID uint) ([]domain.Batch, error) {
	ctx, span := tracer.Start(ctx, "repository.ListBatches",
		trace.WithAttributes(attribute.Int("batch.product_id", int(productID))))
	defer span.End()
	batches, err := r.next.ListBatches(ctx, productID)
	span.SetAttributes(attribute.Int("result.count", len(batches)))
	return batches, record(span, err)
}

func (r *TracingRepository) CreateRecord(ctx context.Context, rec *domain.InventoryRecord) error {
	ctx, span := tracer.Start(ctx, "repository.CreateRecord", trace.WithAttributes(recordAttrs(rec)...))
	defer span.End()
	return record(span, r.next.CreateRecord(ctx, rec))
}

func (r *TracingRepository) FindRecord(ctx context.Context, productID, batchID uint, location string) (*domain.InventoryRecord, error) {
	ctx, span := tracer.Start(ctx, "repository.FindRecord",
		trace.WithAttributes(
			attribute.Int("inventory.product_id", int(productID)),
			attribute.Int("inventory.batch_id", int(batchID)),
			attribute.String("inventory.location", location),
		))
	defer span.End()
	rec, err := r.next.FindRecord(ctx, productID, batchID, location)
	if err == nil {
		span.SetAttributes(attribute.Int("inventory.quantity_available", rec.QuantityAvailable))
	}
	return rec, record(span, err)
}

func (r *TracingRepository) FindRecordByID(ctx context.Context, id uint) (*domain.InventoryRecord, error) {
	ctx, span := tracer.Start(ctx, "repository.FindRecordByID",
		trace.WithAttributes(attribute.Int("inventory.id", int(id))))
	defer span.End()
	rec, err := r.next.FindRecordByID(ctx, id)
	return rec, record(span, err)
}

func (r *TracingRepository) ListRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.InventoryRecord, error) {
	ctx, span := tracer.Start(ctx, "repository.ListRecords",
		trace.WithAttributes(
			attribute.Int("query.product_id", int(filter.ProductID)),
			attribute.String("query.location", filter.Location),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		))
	defer span.End()
	records, err := r.next.ListRecords(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(records)))
	return records, record(span, err)
}

func (r *TracingRepository) UpdateRecord(ctx context.Context, rec *domain.InventoryRecord) error {
	ctx, span := tracer.Start(ctx, "repository.UpdateRecord", trace.WithAttributes(recordAttrs(rec)...))
	defer span.End()
	return record(span, r.next.UpdateRecord(ctx, rec))
}

func (r *TracingRepository) CreateDevice(ctx context.Context, device *domain.Device) error {
	ctx, span := tracer.Start(ctx, "repository.CreateDevice",
		trace.WithAttributes(attribute.String("device.imei", device.IMEI)))
	defer span.End()
	return record(span, r.next.CreateDevice(ctx, device))
}

func (r *TracingRepository) FindDeviceByIMEI(ctx context.Context, imei string) (*domain.Device, error) {
	ctx, span := tracer.Start(ctx, "repository.FindDeviceByIMEI",
		trace.WithAttributes(attribute.String("device.imei", imei)))
	defer span.End()
	device, err := r.next.FindDeviceByIMEI(ctx, imei)
	return device, record(span, err)
}

func (r *TracingRepository) ListDevices(ctx context.Context, filter domain.DeviceFilter) ([]domain.Device, error) {
	ctx, span := tracer.Start(ctx, "repository.ListDevices",
		trace.WithAttributes(
			attribute.Int("query.product_id", int(filter.ProductID)),
			attribute.Int("query.batch_id", int(filter.BatchID)),
			attribute.String("query.status", string(filter.Status)),
			attribute.Int("query.imei_count", len(filter.IMEIs)),
		))
	defer span.End()
	devices, err := r.next.ListDevices(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(devices)))
	return devices, record(span, err)
}

func (r *TracingRepository) UpdateDevice(ctx context.Context, device *domain.Device) error {
	ctx, span := tracer.Start(ctx, "repository.UpdateDevice",
		trace.WithAttributes(
			attribute.String("device.imei", device.IMEI),
			attribute.String("device.status", string(device.Status)),
			attribute.Int("device.version", device.Version),
		))
	defer span.End()
	return record(span, r.next.UpdateDevice(ctx, device))
}

func (r *TracingRepository) CreateMovement(ctx context.Context, movement *domain.StockMovement) error {
	ctx, span := tracer.Start(ctx, "repository.CreateMovement",
		trace.WithAttributes(
			attribute.String("movement.type", string(movement.Type)),
			attribute.Int("movement.quantity", movement.Quantity),
		))
	defer span.End()
	return record(span, r.next.CreateMovement(ctx, movement))
}

func (r *TracingRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "repository.ListMovements",
		trace.WithAttributes(attribute.Int("query.product_id", int(filter.ProductID))))
	defer span.End()
	movements, err := r.next.ListMovements(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(movements)))
	return movements, record(span, err)
}

func recordAttrs(rec *domain.InventoryRecord) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("inventory.id", int(rec.ID)),
		attribute.Int("inventory.product_id", int(rec.ProductID)),
		attribute.Int("inventory.batch_id", int(rec.BatchID)),
		attribute.String("inventory.location", rec.Location),
		attribute.Int("inventory.quantity_available", rec.QuantityAvailable),
		attribute.Int("inventory.version", rec.Version),
	}
}

// record adds database error details to span
func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
