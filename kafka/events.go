package kafka

import (
	"context"
	"time"

	"github.com/tair/field-service/pkg/logger"
)

// Event is the envelope for every domain event published by the service
type Event struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	JobID         uint                   `json:"job_id,omitempty"`
	RequisitionID uint                   `json:"requisition_id,omitempty"`
	ProductID     uint                   `json:"product_id,omitempty"`
	ActorID       uint                   `json:"actor_id,omitempty"`
	From          string                 `json:"from,omitempty"`
	To            string                 `json:"to,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Event types
const (
	EventTypeJobCreated           = "job.created"
	EventTypeJobStatusChanged     = "job.status_changed"
	EventTypeRequisitionCreated   = "requisition.created"
	EventTypeRequisitionApproved  = "requisition.approved"
	EventTypeRequisitionRejected  = "requisition.rejected"
	EventTypeRequisitionIssued    = "requisition.issued"
	EventTypeInventoryAdjusted    = "inventory.adjusted"
	EventTypeInventoryTransferred = "inventory.transferred"
	EventTypeInventoryReceived    = "inventory.received"
	EventTypeInventoryReturned    = "inventory.returned"
)

// Kafka topics
const (
	TopicJobs         = "field-service.jobs"
	TopicRequisitions = "field-service.requisitions"
	TopicInventory    = "field-service.inventory"
)

// TopicFor routes an event type to its topic
func TopicFor(eventType string) string {
	switch eventType {
	case EventTypeJobCreated, EventTypeJobStatusChanged:
		return TopicJobs
	case EventTypeRequisitionCreated, EventTypeRequisitionApproved,
		EventTypeRequisitionRejected, EventTypeRequisitionIssued:
		return TopicRequisitions
	default:
		return TopicInventory
	}
}

// EventPublisher publishes domain events. Publishing is fire-and-forget for callers:
// a failure is logged and never undoes the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventHandler handles one consumed event
type EventHandler func(ctx context.Context, event Event) error

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Emit publishes an event and logs a failure instead of returning it
func Emit(ctx context.Context, p EventPublisher, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("event_type", event.EventType).
			Msg("Failed to publish event")
	}
}
