package domain

import "time"

// OrderEvent describes a committed lifecycle change. Events are published
// after the write succeeds and never influence the request outcome.
type OrderEvent struct {
	OrderID       int64         `json:"order_id"`
	Type          AuditAction   `json:"type"`
	ActorID       int64         `json:"actor_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	AssignedTo    *int64        `json:"assigned_to,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
