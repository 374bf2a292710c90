package command

import (
	"context"
	"time"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/numbering"
)

// CreateJobCommand represents the command to create a job
type CreateJobCommand struct {
	CustomerID         uint
	VehicleID          *uint
	Type               domain.Type
	RequiredProductIDs []uint
	TechnicianIDs      []uint
	ScheduledDate      *time.Time
	ActorID            uint
}

// CreateJobHandler handles create job command
type CreateJobHandler struct {
	repo      domain.JobRepository
	catalog   catalog.Catalog
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewCreateJobHandler creates a new create job handler
func NewCreateJobHandler(repo domain.JobRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *CreateJobHandler {
	return &CreateJobHandler{repo: repo, catalog: cat, retrier: retrier, publisher: publisher}
}

// Handle executes the create job command. A job created with technicians starts ASSIGNED.
func (h *CreateJobHandler) Handle(ctx context.Context, cmd CreateJobCommand) (*domain.Job, error) {
	if cmd.CustomerID == 0 {
		return nil, apperr.Validation("customer_id is required")
	}
	if !cmd.Type.Valid() {
		return nil, apperr.Validation("unknown job type %q", cmd.Type).With("type", string(cmd.Type))
	}
	for _, id := range cmd.RequiredProductIDs {
		if _, err := h.catalog.GetProduct(ctx, id); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	job := &domain.Job{
		Number:             numbering.New(numbering.Job),
		CustomerID:         cmd.CustomerID,
		VehicleID:          cmd.VehicleID,
		Type:               cmd.Type,
		Status:             domain.StatusPending,
		RequiredProductIDs: cmd.RequiredProductIDs,
		ScheduledDate:      cmd.ScheduledDate,
	}
	if len(cmd.TechnicianIDs) > 0 {
		if err := job.AssignTechnicians(cmd.TechnicianIDs, true, now); err != nil {
			return nil, err
		}
	}

	assigned := false
	err := h.retrier.Run(ctx, "create job", func(ctx context.Context) error {
		job.ID, job.Version = 0, 0
		job.Status = domain.StatusPending
		if err := h.repo.Create(ctx, job); err != nil {
			return err
		}
		var err error
		assigned, err = autoAssign(ctx, h.repo, job, cmd.ActorID)
		return err
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("customer_id", cmd.CustomerID).Msg("Job creation rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", job.ID).
		Str("number", job.Number).
		Str("type", string(job.Type)).
		Str("status", string(job.Status)).
		Msg("Job created")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType: kafka.EventTypeJobCreated,
		JobID:     job.ID,
		ActorID:   cmd.ActorID,
		To:        string(domain.StatusPending),
		Data:      map[string]interface{}{"number": job.Number, "customer_id": job.CustomerID},
		Timestamp: now,
	})
	if assigned {
		publishStatusChange(ctx, h.publisher, job, domain.StatusPending, domain.TransitionContext{ActorID: cmd.ActorID})
	}
	return job, nil
}

// autoAssign moves a PENDING job with technicians to ASSIGNED
func autoAssign(ctx context.Context, repo domain.JobRepository, job *domain.Job, actorID uint) (bool, error) {
	if job.Status != domain.StatusPending || len(job.Technicians) == 0 {
		return false, nil
	}
	tc := domain.TransitionContext{ActorID: actorID}
	if err := domain.CheckTransition(job, domain.StatusAssigned, tc, domain.GuardFacts{}); err != nil {
		return false, err
	}
	if err := transition(ctx, repo, job, domain.StatusAssigned, tc); err != nil {
		return false, err
	}
	return true, nil
}
