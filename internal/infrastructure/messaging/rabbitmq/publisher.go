package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

// DefaultExchange is the topic exchange order events are published to.
const DefaultExchange = "order_events"

var _ ports.EventSink = (*Publisher)(nil)

type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher is an EventSink that writes each event as a persistent JSON
// message with routing key "order.<type>", e.g. "order.payment_confirmed".
type Publisher struct {
	mu       sync.Mutex
	ch       channel
	exchange string
}

// NewPublisher declares exchange on conn and returns a Publisher bound to it.
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	ch, err := DeclareExchange(conn, exchange)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Publish sends event to the exchange. The channel is shared by all
// dispatcher workers, so publishes are serialized.
func (p *Publisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	const op = "rabbitmq.Publish"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		p.exchange,
		RoutingKey(event.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt.UTC().Truncate(time.Second),
			Type:         string(event.Type),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close closes the underlying channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}

// RoutingKey returns the routing key for an event type.
func RoutingKey(t domain.AuditAction) string {
	return "order." + strings.ToLower(string(t))
}
