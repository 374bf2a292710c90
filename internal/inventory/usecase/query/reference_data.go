package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
)

// ListLocationsHandler lists stock locations
type ListLocationsHandler struct {
	repo domain.InventoryRepository
}

// NewListLocationsHandler creates a new list locations handler
func NewListLocationsHandler(repo domain.InventoryRepository) *ListLocationsHandler {
	return &ListLocationsHandler{repo: repo}
}

// Handle executes the list locations query
func (h *ListLocationsHandler) Handle(ctx context.Context) ([]domain.Location, error) {
	locations, err := h.repo.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// ListBatchesQuery represents the query to list a product's batches
type ListBatchesQuery struct {
	ProductID uint
}

// ListBatchesHandler lists batches oldest receipt first
type ListBatchesHandler struct {
	repo domain.InventoryRepository
}

// NewListBatchesHandler creates a new list batches handler
func NewListBatchesHandler(repo domain.InventoryRepository) *ListBatchesHandler {
	return &ListBatchesHandler{repo: repo}
}

// Handle executes the list batches query
func (h *ListBatchesHandler) Handle(ctx context.Context, query ListBatchesQuery) ([]domain.Batch, error) {
	if query.ProductID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	batches, err := h.repo.ListBatches(ctx, query.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// ListMovementsQuery represents the query to list ledger movements, newest first
type ListMovementsQuery struct {
	ProductID uint
	Reference string
	Limit     int
}

// ListMovementsHandler handles list movements query
type ListMovementsHandler struct {
	repo domain.InventoryRepository
}

// NewListMovementsHandler creates a new list movements handler
func NewListMovementsHandler(repo domain.InventoryRepository) *ListMovementsHandler {
	return &ListMovementsHandler{repo: repo}
}

// Handle executes the list movements query
func (h *ListMovementsHandler) Handle(ctx context.Context, query ListMovementsQuery) ([]domain.StockMovement, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	movements, err := h.repo.ListMovements(ctx, domain.MovementFilter{
		ProductID: query.ProductID,
		Reference: query.Reference,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}
