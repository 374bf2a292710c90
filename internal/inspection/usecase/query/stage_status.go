package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/pkg/apperr"
)

// StageStatusQuery asks whether a job's inspection stage is complete
type StageStatusQuery struct {
	JobID uint
	Stage domain.Stage
}

// StageStatusHandler evaluates stage completeness
type StageStatusHandler struct {
	repo domain.InspectionRepository
}

// NewStageStatusHandler creates a new stage status handler
func NewStageStatusHandler(repo domain.InspectionRepository) *StageStatusHandler {
	return &StageStatusHandler{repo: repo}
}

// Handle executes the stage status query
func (h *StageStatusHandler) Handle(ctx context.Context, query StageStatusQuery) (*domain.StageStatus, error) {
	if query.JobID == 0 {
		return nil, apperr.Validation("job_id is required")
	}
	if !query.Stage.Valid() {
		return nil, apperr.Validation("unknown stage %q", query.Stage).With("stage", string(query.Stage))
	}

	items, err := h.repo.ListChecklistItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist: %w", err)
	}
	records, err := h.repo.ListRecords(ctx, query.JobID, query.Stage)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspection records: %w", err)
	}

	status := domain.EvaluateStage(query.JobID, query.Stage, items, records)
	return &status, nil
}

// ListRevisionsHandler returns the edit history of a job's inspection records
type ListRevisionsHandler struct {
	repo domain.InspectionRepository
}

// NewListRevisionsHandler creates a new list revisions handler
func NewListRevisionsHandler(repo domain.InspectionRepository) *ListRevisionsHandler {
	return &ListRevisionsHandler{repo: repo}
}

// Handle executes the list revisions query
func (h *ListRevisionsHandler) Handle(ctx context.Context, jobID uint) ([]domain.Revision, error) {
	if jobID == 0 {
		return nil, apperr.Validation("job_id is required")
	}
	revisions, err := h.repo.ListRevisions(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	return revisions, nil
}

// ListChecklistHandler returns the configured checklist
type ListChecklistHandler struct {
	repo domain.InspectionRepository
}

// NewListChecklistHandler creates a new list checklist handler
func NewListChecklistHandler(repo domain.InspectionRepository) *ListChecklistHandler {
	return &ListChecklistHandler{repo: repo}
}

// Handle executes the list checklist query
func (h *ListChecklistHandler) Handle(ctx context.Context) ([]domain.ChecklistItem, error) {
	items, err := h.repo.ListChecklistItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist: %w", err)
	}
	return items, nil
}
