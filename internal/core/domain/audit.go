package domain

import "time"

// AuditAction is the code stored on an audit entry.
type AuditAction string

const (
	ActionRegister          AuditAction = "REGISTER"
	ActionLogin             AuditAction = "LOGIN"
	ActionLogout            AuditAction = "LOGOUT"
	ActionOrderCreated      AuditAction = "ORDER_CREATED"
	ActionPaymentConfirmed  AuditAction = "PAYMENT_CONFIRMED"
	ActionPaymentRefused    AuditAction = "PAYMENT_REFUSED"
	ActionOrderAssigned     AuditAction = "ORDER_ASSIGNED"
	ActionStatusChanged     AuditAction = "STATUS_CHANGED"
	ActionFilesDelivered    AuditAction = "FILES_DELIVERED"
	ActionFeedbackSubmitted AuditAction = "FEEDBACK_SUBMITTED"
	ActionPriorityChanged   AuditAction = "PRIORITY_CHANGED"
	ActionUserStatusChanged AuditAction = "USER_STATUS_CHANGED"
)

// AuditEntry is an append-only record of a privileged action.
type AuditEntry struct {
	ID        int64       `json:"id" bson:"_id"`
	UserID    int64       `json:"user_id" bson:"user_id"`
	Action    AuditAction `json:"action" bson:"action"`
	Details   string      `json:"details" bson:"details"`
	OrderID   *int64      `json:"order_id,omitempty" bson:"order_id,omitempty"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}
