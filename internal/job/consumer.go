// Package job wires the job state machine to requisition events so jobs advance on their
// own when the requisition workflow satisfies the next guard.
package job

import (
	"context"
	"errors"

	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/job/usecase/command"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/logger"
)

// Registrar accepts event handlers; both the Kafka consumer and the local bus satisfy it
type Registrar interface {
	RegisterHandler(eventType string, handler kafka.EventHandler)
}

// Advancer moves jobs forward in response to requisition events
type Advancer struct {
	jobs       domain.JobRepository
	transition *command.TransitionJobHandler
}

// NewAdvancer creates a new advancer
func NewAdvancer(jobs domain.JobRepository, transition *command.TransitionJobHandler) *Advancer {
	return &Advancer{jobs: jobs, transition: transition}
}

// Register subscribes the advancer to requisition events
func (a *Advancer) Register(r Registrar) {
	r.RegisterHandler(kafka.EventTypeRequisitionCreated, a.HandleRequisitionEvent)
	r.RegisterHandler(kafka.EventTypeRequisitionApproved, a.HandleRequisitionEvent)
	r.RegisterHandler(kafka.EventTypeRequisitionIssued, a.HandleRequisitionEvent)
}

// HandleRequisitionEvent attempts the next transition for the event's job. Unmet guards are
// expected and are not errors; the job simply stays where it is.
func (a *Advancer) HandleRequisitionEvent(ctx context.Context, event kafka.Event) error {
	if event.JobID == 0 {
		return nil
	}
	job, err := a.jobs.FindByID(ctx, event.JobID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Warn(ctx).Uint("job_id", event.JobID).Str("event_type", event.EventType).Msg("Event for unknown job")
			return nil
		}
		return err
	}

	target, ok := nextStatus(event.EventType, job.Status)
	if !ok {
		return nil
	}

	_, err = a.transition.Handle(ctx, command.TransitionJobCommand{
		JobID:   job.ID,
		To:      target,
		Context: domain.TransitionContext{ActorID: event.ActorID},
	})
	if apperr.KindOf(err) == apperr.KindInvalidTransition {
		logger.Debug(ctx).
			Uint("job_id", job.ID).
			Str("to", string(target)).
			Msg("Job not advanced, guards unmet")
		return nil
	}
	return err
}

func nextStatus(eventType string, current domain.Status) (domain.Status, bool) {
	switch {
	case eventType == kafka.EventTypeRequisitionCreated && current == domain.StatusAssigned:
		return domain.StatusRequisitionPending, true
	case eventType != kafka.EventTypeRequisitionCreated && current == domain.StatusRequisitionPending:
		return domain.StatusRequisitionApproved, true
	}
	return "", false
}
