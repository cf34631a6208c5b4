package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/policy"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.WorkspaceService = (*WorkspaceService)(nil)

// WorkspaceService manages the staff roster and availability.
type WorkspaceService struct {
	users  ports.UserRepository
	audit  ports.AuditRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewWorkspaceService(users ports.UserRepository, audit ports.AuditRepository, logger zerolog.Logger) *WorkspaceService {
	return &WorkspaceService{
		users:  users,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Employees lists every employee and admin with their availability.
func (s *WorkspaceService) Employees(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !policy.CanPerform(actor, policy.ViewWorkspace, nil) {
		return nil, fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	staff, err := s.users.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return nonNil(staff), nil
}

// SetAvailability updates a user's status. Users change their own; admins
// may change anyone's.
func (s *WorkspaceService) SetAvailability(ctx context.Context, actor *domain.User, userID int64, status domain.UserStatus) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !policy.CanActOnUser(actor, policy.ChangeUserStatus, userID) {
		return fmt.Errorf("%w: cannot change status of user %d", domain.ErrForbidden, userID)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}

	entry := &domain.AuditEntry{
		UserID:    actor.ID,
		Action:    domain.ActionUserStatusChanged,
		Details:   fmt.Sprintf("User #%d is now %s", userID, status),
		CreatedAt: s.now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to append audit entry")
		return fmt.Errorf("append audit %s: %w", entry.Action, err)
	}

	s.logger.Info().Int64("user_id", userID).Int64("actor_id", actor.ID).Str("status", string(status)).Msg("availability changed")
	return nil
}
