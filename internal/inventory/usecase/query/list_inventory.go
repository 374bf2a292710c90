package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/inventory/domain"
)

// ListInventoryQuery represents the query to list inventory records
type ListInventoryQuery struct {
	ProductID uint
	BatchID   uint
	Location  string
	Limit     int
	Offset    int
}

// ListInventoryHandler handles list inventory query
type ListInventoryHandler struct {
	repo domain.InventoryRepository
}

// NewListInventoryHandler creates a new list inventory handler
func NewListInventoryHandler(repo domain.InventoryRepository) *ListInventoryHandler {
	return &ListInventoryHandler{repo: repo}
}

// Handle executes the list inventory query
func (h *ListInventoryHandler) Handle(ctx context.Context, query ListInventoryQuery) ([]domain.InventoryRecord, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	records, err := h.repo.ListRecords(ctx, domain.RecordFilter{
		ProductID: query.ProductID,
		BatchID:   query.BatchID,
		Location:  query.Location,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}

	return records, nil
}
