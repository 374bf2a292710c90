package command

import (
	"context"
	"time"

	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
)

// AssignTechniciansCommand adds technicians to a job
type AssignTechniciansCommand struct {
	JobID         uint
	TechnicianIDs []uint
	PrimaryFirst  bool
	ActorID       uint
}

// RemoveTechnicianCommand drops a technician from a job
type RemoveTechnicianCommand struct {
	JobID        uint
	TechnicianID uint
	NewPrimaryID *uint
	ActorID      uint
}

// SetPrimaryTechnicianCommand redesignates the primary technician
type SetPrimaryTechnicianCommand struct {
	JobID        uint
	TechnicianID uint
	ActorID      uint
}

// TechnicianHandler handles the technician roster commands
type TechnicianHandler struct {
	repo      domain.JobRepository
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewTechnicianHandler creates a new technician handler
func NewTechnicianHandler(repo domain.JobRepository, retrier *database.Retrier, publisher kafka.EventPublisher) *TechnicianHandler {
	return &TechnicianHandler{repo: repo, retrier: retrier, publisher: publisher}
}

// Assign appends technicians; a PENDING job advances to ASSIGNED
func (h *TechnicianHandler) Assign(ctx context.Context, cmd AssignTechniciansCommand) (*domain.Job, error) {
	var assigned bool
	job, err := h.mutate(ctx, cmd.JobID, "assign technicians", func(ctx context.Context, job *domain.Job) error {
		if err := job.AssignTechnicians(cmd.TechnicianIDs, cmd.PrimaryFirst, time.Now()); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, job); err != nil {
			return err
		}
		var err error
		assigned, err = autoAssign(ctx, h.repo, job, cmd.ActorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", job.ID).
		Interface("technicians", job.TechnicianIDs()).
		Msg("Technicians assigned")
	if assigned {
		publishStatusChange(ctx, h.publisher, job, domain.StatusPending, domain.TransitionContext{ActorID: cmd.ActorID})
	}
	return job, nil
}

// Remove drops a technician, promoting the next one when the primary leaves
func (h *TechnicianHandler) Remove(ctx context.Context, cmd RemoveTechnicianCommand) (*domain.Job, error) {
	job, err := h.mutate(ctx, cmd.JobID, "remove technician", func(ctx context.Context, job *domain.Job) error {
		if err := job.RemoveTechnician(cmd.TechnicianID, cmd.NewPrimaryID); err != nil {
			return err
		}
		return h.repo.Update(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", job.ID).
		Uint("technician_id", cmd.TechnicianID).
		Msg("Technician removed")
	return job, nil
}

// SetPrimary redesignates the primary technician
func (h *TechnicianHandler) SetPrimary(ctx context.Context, cmd SetPrimaryTechnicianCommand) (*domain.Job, error) {
	job, err := h.mutate(ctx, cmd.JobID, "set primary technician", func(ctx context.Context, job *domain.Job) error {
		if err := job.SetPrimaryTechnician(cmd.TechnicianID); err != nil {
			return err
		}
		return h.repo.Update(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", job.ID).
		Uint("technician_id", cmd.TechnicianID).
		Msg("Primary technician changed")
	return job, nil
}

// mutate loads an open job and runs fn under retry
func (h *TechnicianHandler) mutate(ctx context.Context, jobID uint, operation string, fn func(ctx context.Context, job *domain.Job) error) (*domain.Job, error) {
	var job *domain.Job
	err := h.retrier.Run(ctx, operation, func(ctx context.Context) error {
		j, err := h.repo.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		if j.Status.Closed() {
			return closedJob(j)
		}
		if err := fn(ctx, j); err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("job_id", jobID).Str("operation", operation).Msg("Job update rejected")
		return nil, err
	}
	return job, nil
}

func closedJob(job *domain.Job) *apperr.Error {
	return apperr.New(apperr.KindInvalidTransition, "job is closed").
		With("job_id", job.ID).
		With("current", string(job.Status))
}
