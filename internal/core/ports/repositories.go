package ports

import (
	"context"
	"time"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create assigns the user an id and stores it. A taken email yields domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByIDs returns the users that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	ListStaff(ctx context.Context) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id int64, status domain.UserStatus) error
}

// ListOrdersFilter carries the query parameters for listing orders.
// Zero values mean "no filter".
type ListOrdersFilter struct {
	UserID     int64
	Status     domain.OrderStatus
	AssignedTo *int64
	// VisibleTo restricts the result to orders assigned to this staff member
	// or not assigned at all (the employee queue).
	VisibleTo *int64
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create assigns the order an id and version 1 and stores it.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	// Update writes every mutable field in one statement, only if the stored
	// version still equals order.Version. On success order.Version is bumped;
	// a lost race yields domain.ErrStaleOrder.
	Update(ctx context.Context, order *domain.Order) error
	// List returns matching orders, newest first.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, error)
}

// MessageRepository stores order chat threads.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByOrder returns the thread in ascending time order.
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Message, error)
}

// AuditRepository is the append-only audit trail.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	// Latest returns at most limit entries, newest first.
	Latest(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

// StatsRepository runs the aggregate queries behind the admin dashboard.
// Revenue only counts orders whose payment was confirmed.
type StatsRepository interface {
	RevenueTotals(ctx context.Context) (RevenueTotals, error)
	CountOrders(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	RevenueByService(ctx context.Context) ([]ServiceRevenue, error)
	DailyRevenue(ctx context.Context, since time.Time) ([]DailyRevenue, error)
	ClientTotals(ctx context.Context, newSince time.Time) (ClientTotals, error)
}

// SessionStore keeps server-side sessions alive for their TTL.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error
	// Lookup returns the user bound to sessionID or domain.ErrSessionExpired.
	Lookup(ctx context.Context, sessionID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// IdempotencyStore guards order creation with a client's Idempotency-Key. A
// claimed key holds a pending marker until the order it produced is bound.
type IdempotencyStore interface {
	// Reserve claims key for clientID. When the key is already taken,
	// reserved is false and orderID is the bound order, or 0 while the first
	// request is still in flight.
	Reserve(ctx context.Context, clientID int64, key string) (orderID int64, reserved bool, err error)
	// Complete binds a reserved key to the order it created.
	Complete(ctx context.Context, clientID int64, key string, orderID int64) error
	// Release frees a reserved key whose create failed.
	Release(ctx context.Context, clientID int64, key string) error
}

// Transactor runs fn so that the store writes made with the context it
// receives commit or roll back together.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
