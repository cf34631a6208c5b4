package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.EventSink = LogSink{}

// LogSink writes lifecycle events to the log. It is used when no broker is configured.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Publish(_ context.Context, event domain.OrderEvent) error {
	e := s.Log.Info().
		Int64("order_id", event.OrderID).
		Str("type", string(event.Type)).
		Int64("actor_id", event.ActorID).
		Str("status", string(event.Status)).
		Str("payment_status", string(event.PaymentStatus))
	if event.AssignedTo != nil {
		e = e.Int64("assigned_to", *event.AssignedTo)
	}
	e.Time("occurred_at", event.OccurredAt).Msg("order event")
	return nil
}
