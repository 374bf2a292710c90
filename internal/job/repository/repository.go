package repository

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

type GormJobRepository struct {
	db *gorm.DB
}

func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

func (r *GormJobRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Job{}, &domain.StatusChange{})
}

func (r *GormJobRepository) Create(ctx context.Context, job *domain.Job) error {
	err := database.Conn(ctx, r.db).Create(job).Error
	if database.IsUniqueViolation(err) {
		return apperr.Validation("job number already exists").With("number", job.Number)
	}
	return err
}

func (r *GormJobRepository) FindByID(ctx context.Context, id uint) (*domain.Job, error) {
	var job domain.Job
	err := database.ForUpdate(ctx, r.db).First(&job, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("job", id)
		}
		return nil, err
	}
	return &job, nil
}

func (r *GormJobRepository) FindAll(ctx context.Context, filter domain.Filter) ([]domain.Job, error) {
	query := database.Conn(ctx, r.db).Model(&domain.Job{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.TechnicianID != 0 {
		query = query.Where("technicians @> ?", technicianContains(filter.TechnicianID))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var jobs []domain.Job
	err := query.Order("id").Find(&jobs).Error
	return jobs, err
}

// technicianContains builds the jsonb containment operand matching one assignment
func technicianContains(technicianID uint) string {
	return `[{"technician_id":` + strconv.FormatUint(uint64(technicianID), 10) + `}]`
}

// Update writes every mutable column under a version check
func (r *GormJobRepository) Update(ctx context.Context, job *domain.Job) error {
	now := time.Now()
	res := database.Conn(ctx, r.db).
		Model(&domain.Job{}).
		Where("id = ? AND version = ?", job.ID, job.Version).
		Select("*").
		Omit("id", "number", "created_at").
		Updates(&domain.Job{
			CustomerID:           job.CustomerID,
			VehicleID:            job.VehicleID,
			Type:                 job.Type,
			Status:               job.Status,
			RequiredProductIDs:   job.RequiredProductIDs,
			Technicians:          job.Technicians,
			PrimaryTechnicianID:  job.PrimaryTechnicianID,
			ScheduledDate:        job.ScheduledDate,
			Installation:         job.Installation,
			StartLocation:        job.StartLocation,
			StartedAt:            job.StartedAt,
			CompletionNotes:      job.CompletionNotes,
			CustomerAcknowledged: job.CustomerAcknowledged,
			CustomerSignatory:    job.CustomerSignatory,
			CompletedAt:          job.CompletedAt,
			VerifiedBy:           job.VerifiedBy,
			VerifiedAt:           job.VerifiedAt,
			CancellationReason:   job.CancellationReason,
			CancelledAt:          job.CancelledAt,
			Version:              job.Version + 1,
			UpdatedAt:            now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrVersionConflict
	}
	job.Version++
	job.UpdatedAt = now
	return nil
}

func (r *GormJobRepository) AddStatusChange(ctx context.Context, change *domain.StatusChange) error {
	return database.Conn(ctx, r.db).Create(change).Error
}

func (r *GormJobRepository) ListStatusChanges(ctx context.Context, jobID uint) ([]domain.StatusChange, error) {
	var changes []domain.StatusChange
	err := database.Conn(ctx, r.db).
		Where("job_id = ?", jobID).
		Order("id").
		Find(&changes).Error
	return changes, err
}
