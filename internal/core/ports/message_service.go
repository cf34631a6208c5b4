package ports

import (
	"context"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// SendMessageInput carries a new chat entry. SenderID is optional; when set it
// must match the authenticated caller.
type SendMessageInput struct {
	OrderID  int64
	SenderID int64
	Content  string
	Type     domain.MessageType
}

// MessageView is a chat entry joined with its sender.
type MessageView struct {
	*domain.Message
	SenderName string      `json:"sender_name"`
	SenderRole domain.Role `json:"sender_role"`
}

// MessageService runs the per-order chat.
type MessageService interface {
	Send(ctx context.Context, actor *domain.User, in SendMessageInput) (*domain.Message, error)
	List(ctx context.Context, actor *domain.User, orderID int64) ([]MessageView, error)
}
