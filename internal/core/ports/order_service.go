package ports

import (
	"context"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// CreateOrderInput carries everything the client chose in the funnel.
type CreateOrderInput struct {
	Selection      domain.Selection
	Brief          domain.Brief
	Payment        domain.Payment
	IdempotencyKey string
}

// CreateOrderResult is returned by CreateOrder.
type CreateOrderResult struct {
	Order *domain.Order
	// AlreadyExisted is true when the Idempotency-Key matched an earlier order.
	AlreadyExisted bool
}

// FeedbackInput is the client's rating of a delivered order.
type FeedbackInput struct {
	Rating  int
	Comment string
}

// OrderPatch holds the fields of a partial order update. Nil/empty fields are
// not touched.
type OrderPatch struct {
	PaymentStatus *domain.PaymentStatus
	AssignedTo    *int64
	DeliveryFiles []domain.DeliveryFile
	Status        *domain.OrderStatus
	Priority      *domain.Priority
	Feedback      *FeedbackInput
}

// Empty reports whether no recognised field is set.
func (p OrderPatch) Empty() bool {
	return p.PaymentStatus == nil && p.AssignedTo == nil && len(p.DeliveryFiles) == 0 &&
		p.Status == nil && p.Priority == nil && p.Feedback == nil
}

// StaffOrderFilter carries the staff queue query parameters.
type StaffOrderFilter struct {
	Status     domain.OrderStatus
	AssignedTo *int64
}

// OrderView is an order joined with the names of the people involved.
type OrderView struct {
	*domain.Order
	ClientName   string `json:"client_name"`
	EmployeeName string `json:"employee_name,omitempty"`
}

// OrderService is the order lifecycle engine.
type OrderService interface {
	CreateOrder(ctx context.Context, actor *domain.User, in CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, actor *domain.User, id int64) (*domain.Order, error)
	ListForStaff(ctx context.Context, actor *domain.User, filter StaffOrderFilter) ([]OrderView, error)
	ListForClient(ctx context.Context, actor *domain.User, clientID int64) ([]*domain.Order, error)

	RecordPaymentDecision(ctx context.Context, actor *domain.User, id int64, decision domain.PaymentStatus) (*domain.Order, error)
	Assign(ctx context.Context, actor *domain.User, id, staffID int64) (*domain.Order, error)
	SetStatus(ctx context.Context, actor *domain.User, id int64, status domain.OrderStatus) (*domain.Order, error)
	DeliverFiles(ctx context.Context, actor *domain.User, id int64, files []domain.DeliveryFile) (*domain.Order, error)
	SubmitFeedback(ctx context.Context, actor *domain.User, id int64, in FeedbackInput) (*domain.Order, error)
	SetPriority(ctx context.Context, actor *domain.User, id int64, priority domain.Priority) (*domain.Order, error)
	// Patch applies several of the operations above as one all-or-nothing write.
	Patch(ctx context.Context, actor *domain.User, id int64, patch OrderPatch) (*domain.Order, error)
}
