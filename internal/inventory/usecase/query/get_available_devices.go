package query

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
)

// GetAvailableDevicesQuery lists devices that can still be issued
type GetAvailableDevicesQuery struct {
	ProductID uint
	BatchID   *uint
	Location  string
}

// GetAvailableDevicesHandler handles get available devices query
type GetAvailableDevicesHandler struct {
	repo domain.InventoryRepository
}

// NewGetAvailableDevicesHandler creates a new get available devices handler
func NewGetAvailableDevicesHandler(repo domain.InventoryRepository) *GetAvailableDevicesHandler {
	return &GetAvailableDevicesHandler{repo: repo}
}

// Handle executes the get available devices query
func (h *GetAvailableDevicesHandler) Handle(ctx context.Context, query GetAvailableDevicesQuery) ([]domain.Device, error) {
	if query.ProductID == 0 {
		return nil, apperr.Validation("product_id is required")
	}

	filter := domain.DeviceFilter{
		ProductID: query.ProductID,
		Location:  query.Location,
		Status:    domain.DeviceAvailable,
	}
	if query.BatchID != nil {
		filter.BatchID = *query.BatchID
	}

	devices, err := h.repo.ListDevices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if devices == nil {
		devices = []domain.Device{}
	}

	return devices, nil
}
