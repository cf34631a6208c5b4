package ports

import (
	"context"
	"time"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// RevenueTotals sums confirmed revenue per currency.
type RevenueTotals struct {
	USD float64 `json:"usd"`
	HTG float64 `json:"htg"`
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status domain.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

// ServiceRevenue is the confirmed business per service.
type ServiceRevenue struct {
	ServiceID string  `json:"service_id"`
	Count     int64   `json:"count"`
	Revenue   float64 `json:"revenue"`
}

// DailyRevenue is one point of the revenue series, Date formatted YYYY-MM-DD.
type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// ClientTotals summarises the client base.
type ClientTotals struct {
	TotalClients     int64 `json:"total_clients"`
	RecurringClients int64 `json:"recurring_clients"`
	NewClients       int64 `json:"new_clients"`
}

// StatsSummary is the headline block of the report.
type StatsSummary struct {
	TotalRevenue RevenueTotals `json:"total_revenue"`
	TotalOrders  int64         `json:"total_orders"`
	NewClients   int64         `json:"new_clients"`
}

// StatsReport is the admin dashboard payload.
type StatsReport struct {
	Summary         StatsSummary     `json:"summary"`
	OrdersByStatus  []StatusCount    `json:"orders_by_status"`
	OrdersByService []ServiceRevenue `json:"orders_by_service"`
	RevenueOverTime []DailyRevenue   `json:"revenue_over_time"`
	ClientStats     ClientTotals     `json:"client_stats"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// AuditView is an audit entry joined with the acting user's name.
type AuditView struct {
	*domain.AuditEntry
	UserName string `json:"user_name"`
}

// AdminService exposes the admin-only reports.
type AdminService interface {
	Stats(ctx context.Context, actor *domain.User) (*StatsReport, error)
	AuditLogs(ctx context.Context, actor *domain.User, limit int) ([]AuditView, error)
}

// WorkspaceService exposes the staff roster and availability.
type WorkspaceService interface {
	Employees(ctx context.Context, actor *domain.User) ([]*domain.User, error)
	SetAvailability(ctx context.Context, actor *domain.User, userID int64, status domain.UserStatus) error
}
