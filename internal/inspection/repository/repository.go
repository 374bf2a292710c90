package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

type GormInspectionRepository struct {
	db *gorm.DB
}

func NewGormInspectionRepository(db *gorm.DB) *GormInspectionRepository {
	return &GormInspectionRepository{db: db}
}

func (r *GormInspectionRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ChecklistItem{}, &domain.Record{}, &domain.Revision{})
}

// SaveChecklistItem upserts by id so configuration can be reseeded on startup
func (r *GormInspectionRepository) SaveChecklistItem(ctx context.Context, item *domain.ChecklistItem) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "stages", "active", "sort_order"}),
		}).
		Create(item).Error
}

func (r *GormInspectionRepository) ListChecklistItems(ctx context.Context) ([]domain.ChecklistItem, error) {
	var items []domain.ChecklistItem
	err := database.Conn(ctx, r.db).Order("sort_order, id").Find(&items).Error
	return items, err
}

func (r *GormInspectionRepository) FindRecord(ctx context.Context, jobID uint, stage domain.Stage, checklistItemID uint) (*domain.Record, error) {
	var record domain.Record
	err := database.ForUpdate(ctx, r.db).
		Where("job_id = ? AND stage = ? AND checklist_item_id = ?", jobID, stage, checklistItemID).
		First(&record).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("inspection_record", checklistItemID)
		}
		return nil, err
	}
	return &record, nil
}

func (r *GormInspectionRepository) ListRecords(ctx context.Context, jobID uint, stage domain.Stage) ([]domain.Record, error) {
	query := database.Conn(ctx, r.db).Where("job_id = ?", jobID)
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}
	var records []domain.Record
	err := query.Order("id").Find(&records).Error
	return records, err
}

// CreateRecord reports a concurrent first submission of the same item as a version conflict
func (r *GormInspectionRepository) CreateRecord(ctx context.Context, record *domain.Record) error {
	err := database.Conn(ctx, r.db).Create(record).Error
	if database.IsUniqueViolation(err) {
		return database.ErrVersionConflict
	}
	return err
}

func (r *GormInspectionRepository) UpdateRecord(ctx context.Context, record *domain.Record) error {
	now := time.Now()
	res := database.Conn(ctx, r.db).
		Model(&domain.Record{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]interface{}{
			"status":        record.Status,
			"notes":         record.Notes,
			"photo_url":     record.PhotoURL,
			"technician_id": record.TechnicianID,
			"vehicle_id":    record.VehicleID,
			"checked_at":    record.CheckedAt,
			"revision":      record.Revision,
			"version":       record.Version + 1,
			"updated_at":    now,
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

func (r *GormInspectionRepository) CreateRevision(ctx context.Context, revision *domain.Revision) error {
	return database.Conn(ctx, r.db).Create(revision).Error
}

func (r *GormInspectionRepository) ListRevisions(ctx context.Context, jobID uint) ([]domain.Revision, error) {
	var revisions []domain.Revision
	err := database.Conn(ctx, r.db).
		Where("job_id = ?", jobID).
		Order("id").
		Find(&revisions).Error
	return revisions, err
}
