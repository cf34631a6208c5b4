package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/policy"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

const maxMessageLength = 4000

var _ ports.MessageService = (*MessageService)(nil)

// MessageService runs the chat thread attached to each order.
type MessageService struct {
	messages ports.MessageRepository
	orders   ports.OrderRepository
	users    ports.UserRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func NewMessageService(
	messages ports.MessageRepository,
	orders ports.OrderRepository,
	users ports.UserRepository,
	logger zerolog.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		orders:   orders,
		users:    users,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send appends a message to the order thread. The sender is always the
// authenticated actor; a differing sender id in the input is rejected.
func (s *MessageService) Send(ctx context.Context, actor *domain.User, in ports.SendMessageInput) (*domain.Message, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.SenderID != 0 && in.SenderID != actor.ID {
		return nil, fmt.Errorf("%w: sender_id must be the authenticated user", domain.ErrForbidden)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", domain.ErrValidation)
	}
	if len(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, maxMessageLength)
	}
	msgType := in.Type
	if msgType == "" {
		msgType = domain.MessageText
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, msgType)
	}

	if err := s.authorize(ctx, actor, in.OrderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		OrderID:   in.OrderID,
		SenderID:  actor.ID,
		Content:   content,
		Type:      msgType,
		CreatedAt: s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Error().Err(err).Int64("order_id", in.OrderID).Msg("failed to store message")
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.logger.Info().Int64("order_id", in.OrderID).Int64("sender_id", actor.ID).Str("type", string(msgType)).Msg("message sent")
	return msg, nil
}

// List returns the thread in ascending order with each sender's name and role.
func (s *MessageService) List(ctx context.Context, actor *domain.User, orderID int64) ([]ports.MessageView, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := s.authorize(ctx, actor, orderID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	senders, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list messages: resolve senders: %w", err)
	}

	views := make([]ports.MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := ports.MessageView{Message: m}
		if u, ok := senders[m.SenderID]; ok {
			v.SenderName = u.Name
			v.SenderRole = u.Role
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *MessageService) authorize(ctx context.Context, actor *domain.User, orderID int64) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order %d: %w", orderID, err)
	}
	if !policy.CanPerform(actor, policy.Message, order) {
		return fmt.Errorf("%w: not a participant of order %d", domain.ErrForbidden, orderID)
	}
	return nil
}
