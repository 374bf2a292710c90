package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/requisition/domain"
)

// ListRequisitionsQuery represents the query to list requisitions
type ListRequisitionsQuery struct {
	JobID        uint
	TechnicianID uint
	Status       domain.Status
	Limit        int
	Offset       int
}

// ListRequisitionsHandler handles list requisitions query
type ListRequisitionsHandler struct {
	repo domain.RequisitionRepository
}

// NewListRequisitionsHandler creates a new list requisitions handler
func NewListRequisitionsHandler(repo domain.RequisitionRepository) *ListRequisitionsHandler {
	return &ListRequisitionsHandler{repo: repo}
}

// Handle executes the list requisitions query
func (h *ListRequisitionsHandler) Handle(ctx context.Context, query ListRequisitionsQuery) ([]domain.Requisition, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	requisitions, err := h.repo.FindAll(ctx, domain.Filter{
		JobID:        query.JobID,
		TechnicianID: query.TechnicianID,
		Status:       query.Status,
		Limit:        query.Limit,
		Offset:       query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list requisitions: %w", err)
	}

	return requisitions, nil
}
