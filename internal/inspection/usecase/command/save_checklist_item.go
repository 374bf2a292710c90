package command

import (
	"context"
	"strings"

	"github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/pkg/apperr"
)

// SaveChecklistItemCommand creates or updates a checklist item
type SaveChecklistItemCommand struct {
	ID        uint
	Name      string
	Stages    []domain.Stage
	Active    bool
	SortOrder int
}

// SaveChecklistItemHandler handles save checklist item command
type SaveChecklistItemHandler struct {
	repo domain.InspectionRepository
}

// NewSaveChecklistItemHandler creates a new save checklist item handler
func NewSaveChecklistItemHandler(repo domain.InspectionRepository) *SaveChecklistItemHandler {
	return &SaveChecklistItemHandler{repo: repo}
}

// Handle executes the save checklist item command
func (h *SaveChecklistItemHandler) Handle(ctx context.Context, cmd SaveChecklistItemCommand) (*domain.ChecklistItem, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(cmd.Stages) == 0 {
		return nil, apperr.Validation("at least one stage is required")
	}
	for _, s := range cmd.Stages {
		if !s.Valid() {
			return nil, apperr.Validation("unknown stage %q", s).With("stage", string(s))
		}
	}

	item := &domain.ChecklistItem{
		ID:        cmd.ID,
		Name:      name,
		Stages:    cmd.Stages,
		Active:    cmd.Active,
		SortOrder: cmd.SortOrder,
	}
	if err := h.repo.SaveChecklistItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
