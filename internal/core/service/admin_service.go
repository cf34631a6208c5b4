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

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
	statsWindow       = 30 * 24 * time.Hour
)

var _ ports.AdminService = (*AdminService)(nil)

// AdminService builds the admin dashboard reports.
type AdminService struct {
	stats  ports.StatsRepository
	audit  ports.AuditRepository
	users  ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAdminService(stats ports.StatsRepository, audit ports.AuditRepository, users ports.UserRepository, logger zerolog.Logger) *AdminService {
	return &AdminService{
		stats:  stats,
		audit:  audit,
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Stats aggregates revenue, volume and client figures. Revenue only counts
// orders whose payment was confirmed.
func (s *AdminService) Stats(ctx context.Context, actor *domain.User) (*ports.StatsReport, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	now := s.now()
	since := now.Add(-statsWindow)

	revenue, err := s.stats.RevenueTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: revenue: %w", err)
	}
	total, err := s.stats.CountOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: order count: %w", err)
	}
	byStatus, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: by status: %w", err)
	}
	byService, err := s.stats.RevenueByService(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: by service: %w", err)
	}
	daily, err := s.stats.DailyRevenue(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("stats: daily revenue: %w", err)
	}
	clients, err := s.stats.ClientTotals(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("stats: clients: %w", err)
	}

	return &ports.StatsReport{
		Summary: ports.StatsSummary{
			TotalRevenue: revenue,
			TotalOrders:  total,
			NewClients:   clients.NewClients,
		},
		OrdersByStatus:  nonNil(byStatus),
		OrdersByService: nonNil(byService),
		RevenueOverTime: nonNil(daily),
		ClientStats:     clients,
		GeneratedAt:     now,
	}, nil
}

// AuditLogs returns the latest audit entries, newest first, with the acting
// user's name. A non-positive limit means the default of 100.
func (s *AdminService) AuditLogs(ctx context.Context, actor *domain.User, limit int) ([]ports.AuditView, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := s.audit.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("audit logs: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("audit logs: resolve users: %w", err)
	}

	views := make([]ports.AuditView, 0, len(entries))
	for _, e := range entries {
		v := ports.AuditView{AuditEntry: e}
		if u, ok := users[e.UserID]; ok {
			v.UserName = u.Name
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *AdminService) authorize(actor *domain.User) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !policy.CanPerform(actor, policy.ViewAdmin, nil) {
		return fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
