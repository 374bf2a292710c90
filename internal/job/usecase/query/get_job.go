package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/job/domain"
)

// GetJobHandler handles get job query
type GetJobHandler struct {
	repo domain.JobRepository
}

// NewGetJobHandler creates a new get job handler
func NewGetJobHandler(repo domain.JobRepository) *GetJobHandler {
	return &GetJobHandler{repo: repo}
}

// Handle executes the get job query
func (h *GetJobHandler) Handle(ctx context.Context, id uint) (*domain.Job, error) {
	return h.repo.FindByID(ctx, id)
}

// ListJobsQuery represents the query to list jobs
type ListJobsQuery struct {
	Status       domain.Status
	TechnicianID uint
	CustomerID   uint
	Limit        int
	Offset       int
}

// ListJobsHandler handles list jobs query
type ListJobsHandler struct {
	repo domain.JobRepository
}

// NewListJobsHandler creates a new list jobs handler
func NewListJobsHandler(repo domain.JobRepository) *ListJobsHandler {
	return &ListJobsHandler{repo: repo}
}

// Handle executes the list jobs query
func (h *ListJobsHandler) Handle(ctx context.Context, query ListJobsQuery) ([]domain.Job, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	jobs, err := h.repo.FindAll(ctx, domain.Filter{
		Status:       query.Status,
		TechnicianID: query.TechnicianID,
		CustomerID:   query.CustomerID,
		Limit:        query.Limit,
		Offset:       query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// JobHistoryHandler returns a job's status changes, oldest first
type JobHistoryHandler struct {
	repo domain.JobRepository
}

// NewJobHistoryHandler creates a new job history handler
func NewJobHistoryHandler(repo domain.JobRepository) *JobHistoryHandler {
	return &JobHistoryHandler{repo: repo}
}

// Handle executes the job history query
func (h *JobHistoryHandler) Handle(ctx context.Context, jobID uint) ([]domain.StatusChange, error) {
	if _, err := h.repo.FindByID(ctx, jobID); err != nil {
		return nil, err
	}
	changes, err := h.repo.ListStatusChanges(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status changes: %w", err)
	}
	if changes == nil {
		changes = []domain.StatusChange{}
	}
	return changes, nil
}
