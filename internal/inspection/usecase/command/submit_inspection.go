package command

import (
	"context"
	"errors"
	"time"

	"github.com/tair/field-service/internal/inspection/domain"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
)

// ItemResult is the outcome of one checklist item
type ItemResult struct {
	ChecklistItemID uint
	Status          domain.ItemStatus
	Notes           string
	PhotoURL        string
}

// SubmitInspectionCommand records checklist results for a job stage.
// Without EditMode an item can only be recorded once; in EditMode the prior values are kept
// as a revision before the record is overwritten.
type SubmitInspectionCommand struct {
	JobID        uint
	VehicleID    *uint
	Stage        domain.Stage
	Items        []ItemResult
	TechnicianID uint
	EditMode     bool
}

// SubmitInspectionHandler handles submit inspection command
type SubmitInspectionHandler struct {
	repo    domain.InspectionRepository
	jobs    jobdomain.JobRepository
	retrier *database.Retrier
}

// NewSubmitInspectionHandler creates a new submit inspection handler
func NewSubmitInspectionHandler(repo domain.InspectionRepository, jobs jobdomain.JobRepository, retrier *database.Retrier) *SubmitInspectionHandler {
	return &SubmitInspectionHandler{repo: repo, jobs: jobs, retrier: retrier}
}

// Handle executes the submit inspection command
func (h *SubmitInspectionHandler) Handle(ctx context.Context, cmd SubmitInspectionCommand) ([]domain.Record, error) {
	if cmd.JobID == 0 {
		return nil, apperr.Validation("job_id is required")
	}
	if !cmd.Stage.Valid() {
		return nil, apperr.Validation("unknown stage %q", cmd.Stage).With("stage", string(cmd.Stage))
	}
	if len(cmd.Items) == 0 {
		return nil, apperr.Validation("at least one checklist item is required")
	}
	seen := make(map[uint]bool, len(cmd.Items))
	for _, item := range cmd.Items {
		if !item.Status.Valid() {
			return nil, apperr.Validation("unknown item status %q", item.Status).
				With("checklist_item_id", item.ChecklistItemID)
		}
		if seen[item.ChecklistItemID] {
			return nil, apperr.Validation("checklist item submitted twice").
				With("checklist_item_id", item.ChecklistItemID)
		}
		seen[item.ChecklistItemID] = true
	}

	var records []domain.Record
	err := h.retrier.Run(ctx, "submit inspection", func(ctx context.Context) error {
		records = nil
		job, err := h.jobs.FindByID(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		// completion is gated on the recorded checklist, so closed jobs take no new values or edits
		if job.Status.Closed() {
			return apperr.New(apperr.KindInvalidTransition, "job no longer accepts inspections").
				With("job_id", job.ID).
				With("current", string(job.Status))
		}
		vehicleID := cmd.VehicleID
		if vehicleID == nil {
			vehicleID = job.VehicleID
		}

		checklist, err := h.repo.ListChecklistItems(ctx)
		if err != nil {
			return err
		}
		byID := make(map[uint]domain.ChecklistItem, len(checklist))
		for _, c := range checklist {
			byID[c.ID] = c
		}

		now := time.Now()
		for _, item := range cmd.Items {
			c, ok := byID[item.ChecklistItemID]
			if !ok {
				return apperr.NotFound("checklist_item", item.ChecklistItemID)
			}
			if !c.Active || !c.AppliesTo(cmd.Stage) {
				return apperr.Validation("checklist item does not apply to stage").
					With("checklist_item_id", c.ID).
					With("stage", string(cmd.Stage))
			}

			rec, err := h.save(ctx, cmd, item, vehicleID, now)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("job_id", cmd.JobID).
			Str("stage", string(cmd.Stage)).
			Msg("Inspection submission rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", cmd.JobID).
		Str("stage", string(cmd.Stage)).
		Int("items", len(records)).
		Bool("edit", cmd.EditMode).
		Msg("Inspection recorded")
	return records, nil
}

func (h *SubmitInspectionHandler) save(ctx context.Context, cmd SubmitInspectionCommand, item ItemResult, vehicleID *uint, now time.Time) (*domain.Record, error) {
	existing, err := h.repo.FindRecord(ctx, cmd.JobID, cmd.Stage, item.ChecklistItemID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		rec := &domain.Record{
			JobID:           cmd.JobID,
			Stage:           cmd.Stage,
			ChecklistItemID: item.ChecklistItemID,
			VehicleID:       vehicleID,
			Status:          item.Status,
			Notes:           item.Notes,
			PhotoURL:        item.PhotoURL,
			TechnicianID:    cmd.TechnicianID,
			CheckedAt:       now,
			Revision:        1,
		}
		if err := h.repo.CreateRecord(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if !cmd.EditMode {
		return nil, apperr.Validation("checklist item already recorded; resubmit in edit mode").
			With("checklist_item_id", item.ChecklistItemID).
			With("stage", string(cmd.Stage))
	}

	if err := h.repo.CreateRevision(ctx, domain.RevisionOf(existing, cmd.TechnicianID)); err != nil {
		return nil, err
	}
	existing.Status = item.Status
	existing.Notes = item.Notes
	existing.PhotoURL = item.PhotoURL
	existing.TechnicianID = cmd.TechnicianID
	existing.VehicleID = vehicleID
	existing.CheckedAt = now
	existing.Revision++
	if err := h.repo.UpdateRecord(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}
