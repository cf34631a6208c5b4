package ports

import (
	"context"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// EventPublisher accepts committed lifecycle events for asynchronous delivery.
// Enqueue must not block the caller.
type EventPublisher interface {
	Enqueue(event domain.OrderEvent)
}

// EventSink delivers one event to its destination (broker, log, ...).
type EventSink interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
