package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

type GormInventoryRepository struct {
	db *gorm.DB
}

func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&domain.Location{},
		&domain.Batch{},
		&domain.InventoryRecord{},
		&domain.Device{},
		&domain.StockMovement{},
	)
}

func (r *GormInventoryRepository) SaveLocation(ctx context.Context, location *domain.Location) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "kind"}),
		}).
		Create(location).Error
}

func (r *GormInventoryRepository) FindLocation(ctx context.Context, code string) (*domain.Location, error) {
	var location domain.Location
	err := database.Conn(ctx, r.db).Where("code = ?", code).First(&location).Error
	if err != nil {
		return nil, notFound(err, "location", code)
	}
	return &location, nil
}

func (r *GormInventoryRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location
	err := database.Conn(ctx, r.db).Order("code").Find(&locations).Error
	return locations, err
}

func (r *GormInventoryRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	err := database.Conn(ctx, r.db).Create(batch).Error
	if database.IsUniqueViolation(err) {
		return apperr.Validation("batch number already received for product").
			With("product_id", batch.ProductID).
			With("batch_number", batch.BatchNumber)
	}
	return err
}

func (r *GormInventoryRepository) FindBatch(ctx context.Context, id uint) (*domain.Batch, error) {
	var batch domain.Batch
	err := database.Conn(ctx, r.db).First(&batch, id).Error
	if err != nil {
		return nil, notFound(err, "batch", id)
	}
	return &batch, nil
}

func (r *GormInventoryRepository) ListBatches(ctx context.Context, productID uint) ([]domain.Batch, error) {
	var batches []domain.Batch
	err := database.Conn(ctx, r.db).
		Where("product_id = ?", productID).
		Order("received_at, id").
		Find(&batches).Error
	return batches, err
}

func (r *GormInventoryRepository) CreateRecord(ctx context.Context, record *domain.InventoryRecord) error {
	err := database.Conn(ctx, r.db).Create(record).Error
	if database.IsUniqueViolation(err) {
		// Another writer created the same (product, batch, location) row first.
		return database.ErrVersionConflict
	}
	return err
}

func (r *GormInventoryRepository) FindRecord(ctx context.Context, productID, batchID uint, location string) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := database.ForUpdate(ctx, r.db).
		Where("product_id = ? AND batch_id = ? AND location = ?", productID, batchID, location).
		First(&record).Error
	if err != nil {
		return nil, notFound(err, "inventory_record", map[string]interface{}{
			"product_id": productID, "batch_id": batchID, "location": location,
		})
	}
	return &record, nil
}

func (r *GormInventoryRepository) FindRecordByID(ctx context.Context, id uint) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := database.ForUpdate(ctx, r.db).First(&record, id).Error
	if err != nil {
		return nil, notFound(err, "inventory_record", id)
	}
	return &record, nil
}

func (r *GormInventoryRepository) ListRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.InventoryRecord, error) {
	query := database.ForUpdate(ctx, r.db).Model(&domain.InventoryRecord{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var records []domain.InventoryRecord
	err := query.Order("id").Find(&records).Error
	return records, err
}

func (r *GormInventoryRepository) UpdateRecord(ctx context.Context, record *domain.InventoryRecord) error {
	now := time.Now()
	res := database.Conn(ctx, r.db).
		Model(&domain.InventoryRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]interface{}{
			"quantity_available": record.QuantityAvailable,
			"quantity_reserved":  record.QuantityReserved,
			"version":            record.Version + 1,
			"updated_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrVersionConflict
	}
	record.Version++
	record.UpdatedAt = now
	return nil
}

func (r *GormInventoryRepository) CreateDevice(ctx context.Context, device *domain.Device) error {
	err := database.Conn(ctx, r.db).Create(device).Error
	if database.IsUniqueViolation(err) {
		return apperr.Validation("imei already registered").With("imei", device.IMEI)
	}
	return err
}

func (r *GormInventoryRepository) FindDeviceByIMEI(ctx context.Context, imei string) (*domain.Device, error) {
	var device domain.Device
	err := database.ForUpdate(ctx, r.db).Where("imei = ?", imei).First(&device).Error
	if err != nil {
		return nil, notFound(err, "device", imei)
	}
	return &device, nil
}

func (r *GormInventoryRepository) ListDevices(ctx context.Context, filter domain.DeviceFilter) ([]domain.Device, error) {
	query := database.Conn(ctx, r.db).Model(&domain.Device{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.JobID != 0 {
		query = query.Where("job_id = ?", filter.JobID)
	}
	if len(filter.IMEIs) > 0 {
		query = query.Where("imei IN ?", filter.IMEIs)
	}

	var devices []domain.Device
	err := query.Order("id").Find(&devices).Error
	return devices, err
}

func (r *GormInventoryRepository) UpdateDevice(ctx context.Context, device *domain.Device) error {
	now := time.Now()
	res := database.Conn(ctx, r.db).
		Model(&domain.Device{}).
		Where("id = ? AND version = ?", device.ID, device.Version).
		Updates(map[string]interface{}{
			"location":       device.Location,
			"status":         device.Status,
			"job_id":         device.JobID,
			"requisition_id": device.RequisitionID,
			"version":        device.Version + 1,
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrVersionConflict
	}
	device.Version++
	device.UpdatedAt = now
	return nil
}

func (r *GormInventoryRepository) CreateMovement(ctx context.Context, movement *domain.StockMovement) error {
	return database.Conn(ctx, r.db).Create(movement).Error
}

func (r *GormInventoryRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	query := database.Conn(ctx, r.db).Model(&domain.StockMovement{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var movements []domain.StockMovement
	err := query.Order("id DESC").Find(&movements).Error
	return movements, err
}

func notFound(err error, entity string, id interface{}) error {
	if database.IsNotFound(err) {
		return apperr.NotFound(entity, id)
	}
	return err
}
