package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
)

// GetInventoryQuery represents the query to get an inventory record
type GetInventoryQuery struct {
	ID uint
}

// GetInventoryHandler handles get inventory query
type GetInventoryHandler struct {
	repo domain.InventoryRepository
}

// NewGetInventoryHandler creates a new get inventory handler
func NewGetInventoryHandler(repo domain.InventoryRepository) *GetInventoryHandler {
	return &GetInventoryHandler{repo: repo}
}

// Handle executes the get inventory query
func (h *GetInventoryHandler) Handle(ctx context.Context, query GetInventoryQuery) (*domain.InventoryRecord, error) {
	if query.ID == 0 {
		return nil, apperr.Validation("id is required")
	}

	record, err := h.repo.FindRecordByID(ctx, query.ID)
	if err != nil {
		return nil, fmt.Errorf("inventory not found: %w", err)
	}

	return record, nil
}
