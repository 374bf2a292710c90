package command

import (
	"context"
	"strings"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/logger"
)

// SaveLocationCommand creates or renames a stock location
type SaveLocationCommand struct {
	Code string
	Name string
	Kind domain.LocationKind
}

// SaveLocationHandler handles save location command
type SaveLocationHandler struct {
	repo domain.InventoryRepository
}

// NewSaveLocationHandler creates a new save location handler
func NewSaveLocationHandler(repo domain.InventoryRepository) *SaveLocationHandler {
	return &SaveLocationHandler{repo: repo}
}

// Handle executes the save location command
func (h *SaveLocationHandler) Handle(ctx context.Context, cmd SaveLocationCommand) (*domain.Location, error) {
	cmd.Code = strings.ToUpper(strings.TrimSpace(cmd.Code))
	if cmd.Code == "" {
		return nil, apperr.Validation("code is required")
	}
	if cmd.Name == "" {
		cmd.Name = cmd.Code
	}
	switch cmd.Kind {
	case "":
		cmd.Kind = domain.LocationWarehouse
	case domain.LocationWarehouse, domain.LocationVan, domain.LocationSite:
	default:
		return nil, apperr.Validation("unknown location kind %q", cmd.Kind).With("kind", string(cmd.Kind))
	}

	location := &domain.Location{Code: cmd.Code, Name: cmd.Name, Kind: cmd.Kind}
	if err := h.repo.SaveLocation(ctx, location); err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("code", location.Code).Str("kind", string(location.Kind)).Msg("Location saved")
	return location, nil
}
