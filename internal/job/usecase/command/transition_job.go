package command

import (
	"context"
	"time"

	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/metrics"
)

// TransitionJobCommand requests a job status change
type TransitionJobCommand struct {
	JobID   uint
	To      domain.Status
	Context domain.TransitionContext
}

// TransitionJobHandler handles transition job command
type TransitionJobHandler struct {
	repo      domain.JobRepository
	facts     *FactLoader
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewTransitionJobHandler creates a new transition job handler
func NewTransitionJobHandler(repo domain.JobRepository, facts *FactLoader, retrier *database.Retrier, publisher kafka.EventPublisher) *TransitionJobHandler {
	return &TransitionJobHandler{repo: repo, facts: facts, retrier: retrier, publisher: publisher}
}

// Handle executes the transition job command. Requesting the current status returns the job
// unchanged without writing history or publishing an event.
func (h *TransitionJobHandler) Handle(ctx context.Context, cmd TransitionJobCommand) (*domain.Job, error) {
	var (
		job     *domain.Job
		from    domain.Status
		changed bool
	)

	err := h.retrier.Run(ctx, "transition job", func(ctx context.Context) error {
		j, err := h.repo.FindByID(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		from = j.Status

		facts, err := h.facts.Load(ctx, j.ID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(j, cmd.To, cmd.Context, facts); err != nil {
			return err
		}
		if j.Status == cmd.To {
			job, changed = j, false
			return nil
		}

		if err := transition(ctx, h.repo, j, cmd.To, cmd.Context); err != nil {
			return err
		}
		job, changed = j, true
		return nil
	})
	metrics.JobTransitions.WithLabelValues(string(from), string(cmd.To), metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("job_id", cmd.JobID).
			Str("from", string(from)).
			Str("to", string(cmd.To)).
			Msg("Job transition rejected")
		return nil, err
	}

	if changed {
		logger.Info(ctx).
			Uint("job_id", job.ID).
			Str("from", string(from)).
			Str("to", string(job.Status)).
			Uint("actor_id", cmd.Context.ActorID).
			Msg("Job transitioned")
		publishStatusChange(ctx, h.publisher, job, from, cmd.Context)
	}
	return job, nil
}

// transition applies an already checked move and writes the history row
func transition(ctx context.Context, repo domain.JobRepository, job *domain.Job, to domain.Status, tc domain.TransitionContext) error {
	from := job.Status
	domain.Apply(job, to, tc, time.Now())
	if err := repo.Update(ctx, job); err != nil {
		return err
	}
	return repo.AddStatusChange(ctx, &domain.StatusChange{
		JobID:   job.ID,
		From:    from,
		To:      to,
		ActorID: tc.ActorID,
		Reason:  tc.Reason,
	})
}

func publishStatusChange(ctx context.Context, p kafka.EventPublisher, job *domain.Job, from domain.Status, tc domain.TransitionContext) {
	data := map[string]interface{}{"number": job.Number}
	if job.Installation != nil && len(job.Installation.DeviceIMEIs) > 0 {
		data["device_imeis"] = job.Installation.DeviceIMEIs
	}
	if tc.Reason != "" {
		data["reason"] = tc.Reason
	}

	kafka.Emit(ctx, p, kafka.Event{
		EventType: kafka.EventTypeJobStatusChanged,
		JobID:     job.ID,
		ActorID:   tc.ActorID,
		From:      string(from),
		To:        string(job.Status),
		Data:      data,
		Timestamp: time.Now(),
	})
}
