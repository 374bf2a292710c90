package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

type GormRequisitionRepository struct {
	db *gorm.DB
}

func NewGormRequisitionRepository(db *gorm.DB) *GormRequisitionRepository {
	return &GormRequisitionRepository{db: db}
}

func (r *GormRequisitionRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Requisition{}, &domain.RequisitionItem{}, &domain.Issuance{})
}

func (r *GormRequisitionRepository) Create(ctx context.Context, requisition *domain.Requisition) error {
	return database.Conn(ctx, r.db).Create(requisition).Error
}

func (r *GormRequisitionRepository) FindByID(ctx context.Context, id uint) (*domain.Requisition, error) {
	var requisition domain.Requisition
	err := database.ForUpdate(ctx, r.db).First(&requisition, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("requisition", id)
		}
		return nil, err
	}

	err = database.Conn(ctx, r.db).
		Where("requisition_id = ?", id).
		Order("id").
		Find(&requisition.Items).Error
	if err != nil {
		return nil, err
	}
	return &requisition, nil
}

func (r *GormRequisitionRepository) FindAll(ctx context.Context, filter domain.Filter) ([]domain.Requisition, error) {
	query := database.Conn(ctx, r.db).Model(&domain.Requisition{})
	if filter.JobID != 0 {
		query = query.Where("job_id = ?", filter.JobID)
	}
	if filter.TechnicianID != 0 {
		query = query.Where("technician_id = ?", filter.TechnicianID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var requisitions []domain.Requisition
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&requisitions).Error
	return requisitions, err
}

// Update writes the requisition header under a version check, then its items
func (r *GormRequisitionRepository) Update(ctx context.Context, requisition *domain.Requisition) error {
	now := time.Now()
	conn := database.Conn(ctx, r.db)
	res := conn.
		Model(&domain.Requisition{}).
		Where("id = ? AND version = ?", requisition.ID, requisition.Version).
		Updates(map[string]interface{}{
			"status":           requisition.Status,
			"notes":            requisition.Notes,
			"rejection_reason": requisition.RejectionReason,
			"approved_by":      requisition.ApprovedBy,
			"approved_at":      requisition.ApprovedAt,
			"version":          requisition.Version + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrVersionConflict
	}

	for i := range requisition.Items {
		item := &requisition.Items[i]
		err := conn.
			Model(&domain.RequisitionItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"quantity_issued": item.QuantityIssued,
				"batch_id":        item.BatchID,
				"issued_by":       item.IssuedBy,
				"issued_at":       item.IssuedAt,
			}).Error
		if err != nil {
			return err
		}
	}

	requisition.Version++
	requisition.UpdatedAt = now
	return nil
}

func (r *GormRequisitionRepository) CreateIssuance(ctx context.Context, issuance *domain.Issuance) error {
	return database.Conn(ctx, r.db).Create(issuance).Error
}

func (r *GormRequisitionRepository) ListIssuances(ctx context.Context, requisitionID uint) ([]domain.Issuance, error) {
	var issuances []domain.Issuance
	err := database.Conn(ctx, r.db).
		Where("requisition_id = ?", requisitionID).
		Order("id").
		Find(&issuances).Error
	return issuances, err
}

func (r *GormRequisitionRepository) FindIssuancesByKey(ctx context.Context, idempotencyKey string) ([]domain.Issuance, error) {
	var issuances []domain.Issuance
	err := database.Conn(ctx, r.db).
		Where("idempotency_key = ?", idempotencyKey).
		Order("id").
		Find(&issuances).Error
	return issuances, err
}
