package observability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultEventTailSize = 256

// Event is one entry in the append-only audit stream.
type Event struct {
	Type string                 `json:"type"`
	Time time.Time              `json:"time"`
	Data map[string]interface{} `json:"data"`
}

// EventBus implements the ledger's EventPublisher. Every event is logged
// through zap for external indexing and retained in a bounded in-memory
// tail that the backend exposes read-only.
type EventBus struct {
	logger *zap.Logger

	mu   sync.RWMutex
	tail []Event
	max  int
}

// NewEventBus creates an event bus logging through the given logger.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		max:    defaultEventTailSize,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	evt := Event{
		Type: eventType,
		Time: time.Now(),
		Data: data,
	}

	if e.logger != nil {
		fields := make([]zap.Field, 0, len(data)+1)
		fields = append(fields, zap.String("event", eventType))
		if requestID := GetRequestID(ctx); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		for k, v := range data {
			fields = append(fields, zap.Any(k, v))
		}
		e.logger.Info("chain event", fields...)
	}

	e.mu.Lock()
	e.tail = append(e.tail, evt)
	if len(e.tail) > e.max {
		e.tail = e.tail[len(e.tail)-e.max:]
	}
	e.mu.Unlock()
}

// Tail returns up to n most recent events, oldest first.
func (e *EventBus) Tail(n int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if n <= 0 || n > len(e.tail) {
		n = len(e.tail)
	}
	out := make([]Event, n)
	copy(out, e.tail[len(e.tail)-n:])
	return out
}
