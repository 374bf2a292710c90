package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalBus delivers events to in-process handlers. It stands in for Kafka when no
// brokers are configured, so event-driven behavior keeps working on a single instance.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewLocalBus creates an empty bus
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string][]EventHandler)}
}

// RegisterHandler registers an event handler for a specific event type
func (b *LocalBus) RegisterHandler(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs the registered handlers synchronously. Handler errors are logged, not returned.
func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.EventType]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		_ = runHandler(ctx, h, event)
	}
	return nil
}
