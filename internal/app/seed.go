package app

import (
	"context"
	"fmt"

	"github.com/tair/field-service/internal/config"
	inspdomain "github.com/tair/field-service/internal/inspection/domain"
	inspcommand "github.com/tair/field-service/internal/inspection/usecase/command"
	invdomain "github.com/tair/field-service/internal/inventory/domain"
	invcommand "github.com/tair/field-service/internal/inventory/usecase/command"
	"github.com/tair/field-service/pkg/logger"
)

// Seed applies configured locations and checklist items. Both are upserts, so seeding
// on every start is safe.
func Seed(ctx context.Context, repos Repositories, seed config.SeedConfig) error {
	saveLocation := invcommand.NewSaveLocationHandler(repos.Inventory)
	for _, l := range seed.Locations {
		if _, err := saveLocation.Handle(ctx, invcommand.SaveLocationCommand{
			Code: l.Code,
			Name: l.Name,
			Kind: invdomain.LocationKind(l.Kind),
		}); err != nil {
			return fmt.Errorf("failed to seed location %s: %w", l.Code, err)
		}
	}

	saveItem := inspcommand.NewSaveChecklistItemHandler(repos.Inspections)
	for _, item := range seed.Checklist {
		stages := make([]inspdomain.Stage, 0, len(item.Stages))
		for _, s := range item.Stages {
			stages = append(stages, inspdomain.Stage(s))
		}
		if _, err := saveItem.Handle(ctx, inspcommand.SaveChecklistItemCommand{
			ID:        item.ID,
			Name:      item.Name,
			Stages:    stages,
			Active:    true,
			SortOrder: item.SortOrder,
		}); err != nil {
			return fmt.Errorf("failed to seed checklist item %q: %w", item.Name, err)
		}
	}

	logger.Info(ctx).
		Int("locations", len(seed.Locations)).
		Int("checklist_items", len(seed.Checklist)).
		Msg("Reference data seeded")
	return nil
}
