package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/policy"
	"github.com/nextlevel/order-desk/internal/core/ports"
	"github.com/nextlevel/order-desk/internal/metrics"
)

var _ ports.OrderService = (*OrderService)(nil)

// OrderService is the order lifecycle engine. Every mutation is checked
// against the access policy, applied to a copy of the stored order, and
// persisted with one version-checked write in the same transaction as its
// audit entries.
type OrderService struct {
	orders ports.OrderRepository
	users  ports.UserRepository
	audit  ports.AuditRepository
	idem   ports.IdempotencyStore
	events ports.EventPublisher
	tx     ports.Transactor

	catalog   domain.Catalog
	lifecycle domain.LifecyclePolicy
	logger    zerolog.Logger
	now       func() time.Time
}

// OrderOption customises an OrderService.
type OrderOption func(*OrderService)

// WithIdempotency enables Idempotency-Key handling on CreateOrder.
func WithIdempotency(store ports.IdempotencyStore) OrderOption {
	return func(s *OrderService) { s.idem = store }
}

// WithTransactor makes each order write commit together with its audit
// entries.
func WithTransactor(tx ports.Transactor) OrderOption {
	return func(s *OrderService) { s.tx = tx }
}

// WithEvents publishes a lifecycle event after every committed change.
func WithEvents(pub ports.EventPublisher) OrderOption {
	return func(s *OrderService) { s.events = pub }
}

// WithLifecyclePolicy sets the assignment and refusal switches.
func WithLifecyclePolicy(p domain.LifecyclePolicy) OrderOption {
	return func(s *OrderService) { s.lifecycle = p }
}

// WithCatalog replaces the default catalog used for pricing.
func WithCatalog(c domain.Catalog) OrderOption {
	return func(s *OrderService) { s.catalog = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(
	orders ports.OrderRepository,
	users ports.UserRepository,
	audit ports.AuditRepository,
	logger zerolog.Logger,
	opts ...OrderOption,
) *OrderService {
	s := &OrderService{
		orders:  orders,
		users:   users,
		audit:   audit,
		tx:      directTx{},
		catalog: domain.DefaultCatalog(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder prices the client's selection and stores a new order. A client
// reusing an Idempotency-Key gets the order the key already produced and
// nothing is written; a reuse while that first request is still running is a
// conflict.
func (s *OrderService) CreateOrder(ctx context.Context, actor *domain.User, in ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !policy.CanPerform(actor, policy.CreateOrder, &domain.Order{UserID: actor.ID}) {
		return nil, s.reject(fmt.Errorf("%w: only clients can place orders", domain.ErrForbidden))
	}

	order, err := domain.PlaceOrder(s.catalog, actor, in.Selection, in.Brief, in.Payment, s.now())
	if err != nil {
		return nil, s.reject(err)
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if s.idem == nil {
		key = ""
	}
	if key != "" {
		existing, err := s.reserveKey(ctx, actor, key)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	entry := s.auditEntry(actor, order, domain.ActionOrderCreated, "")
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID := order.ID
		entry.OrderID = &orderID
		entry.Details = fmt.Sprintf("Order #%d placed for %s", order.ID, order.PackageName)
		return s.appendAudit(ctx, entry)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", actor.ID).Msg("failed to create order")
		if key != "" {
			if rerr := s.idem.Release(ctx, actor.ID, key); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if key != "" {
		if err := s.idem.Complete(ctx, actor.ID, key, order.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", key).Int64("order_id", order.ID).Msg("failed to bind idempotency key")
		}
	}

	metrics.OrdersCreatedTotal.WithLabelValues(order.ServiceID).Inc()
	s.publish(actor, order, domain.ActionOrderCreated)

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", actor.ID).
		Str("package_id", order.PackageID).
		Str("priority", string(order.Priority)).
		Msg("order created")

	return &ports.CreateOrderResult{Order: order}, nil
}

// reserveKey claims an Idempotency-Key for a new order. It returns the
// earlier result when the key was already used, or nil when the caller now
// owns the key and must create the order.
func (s *OrderService) reserveKey(ctx context.Context, actor *domain.User, key string) (*ports.CreateOrderResult, error) {
	existingID, reserved, err := s.idem.Reserve(ctx, actor.ID, key)
	if err != nil {
		s.logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency reservation failed")
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if reserved {
		return nil, nil
	}
	if existingID == 0 {
		return nil, s.reject(fmt.Errorf("%w: a request with this Idempotency-Key is still in progress", domain.ErrConflict))
	}

	existing, err := s.orders.FindByID(ctx, existingID)
	if err != nil {
		return nil, fmt.Errorf("load order %d for idempotent replay: %w", existingID, err)
	}
	if existing.UserID != actor.ID {
		return nil, s.reject(fmt.Errorf("%w: Idempotency-Key belongs to another order", domain.ErrConflict))
	}
	s.logger.Info().Str("idempotency_key", key).Int64("order_id", existing.ID).Msg("idempotent replay")
	return &ports.CreateOrderResult{Order: existing, AlreadyExisted: true}, nil
}

// GetOrder returns one order if the actor may view it.
func (s *OrderService) GetOrder(ctx context.Context, actor *domain.User, id int64) (*domain.Order, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !policy.CanPerform(actor, policy.ViewOrder, order) {
		return nil, fmt.Errorf("%w: cannot view order %d", domain.ErrForbidden, id)
	}
	return order, nil
}

// ListForStaff returns the staff queue joined with client and employee names.
// Employees only see orders assigned to them or not assigned at all.
func (s *OrderService) ListForStaff(ctx context.Context, actor *domain.User, filter ports.StaffOrderFilter) ([]ports.OrderView, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !policy.CanPerform(actor, policy.ViewWorkspace, nil) {
		return nil, fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}

	q := ports.ListOrdersFilter{Status: filter.Status, AssignedTo: filter.AssignedTo}
	if actor.Role == domain.RoleEmployee {
		id := actor.ID
		q.VisibleTo = &id
	}

	orders, err := s.orders.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	ids := make([]int64, 0, len(orders)*2)
	for _, o := range orders {
		ids = append(ids, o.UserID)
		if o.AssignedTo != nil {
			ids = append(ids, *o.AssignedTo)
		}
	}
	people, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list orders: resolve names: %w", err)
	}

	views := make([]ports.OrderView, 0, len(orders))
	for _, o := range orders {
		v := ports.OrderView{Order: o}
		if u, ok := people[o.UserID]; ok {
			v.ClientName = u.Name
		}
		if o.AssignedTo != nil {
			if u, ok := people[*o.AssignedTo]; ok {
				v.EmployeeName = u.Name
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// ListForClient returns one client's orders, newest first.
func (s *OrderService) ListForClient(ctx context.Context, actor *domain.User, clientID int64) ([]*domain.Order, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !policy.CanActOnUser(actor, policy.ListClientOrders, clientID) {
		return nil, fmt.Errorf("%w: cannot list orders of user %d", domain.ErrForbidden, clientID)
	}
	orders, err := s.orders.List(ctx, ports.ListOrdersFilter{UserID: clientID})
	if err != nil {
		return nil, fmt.Errorf("list client orders: %w", err)
	}
	return orders, nil
}

// RecordPaymentDecision confirms or refuses the pending payment.
func (s *OrderService) RecordPaymentDecision(ctx context.Context, actor *domain.User, id int64, decision domain.PaymentStatus) (*domain.Order, error) {
	return s.apply(ctx, actor, id, s.paymentStep(decision))
}

// Assign hands the order to staffID. Admins may assign anyone; an employee
// may only claim the order for themself.
func (s *OrderService) Assign(ctx context.Context, actor *domain.User, id, staffID int64) (*domain.Order, error) {
	return s.apply(ctx, actor, id, s.assignStep(actor, staffID))
}

// SetStatus moves the order forward.
func (s *OrderService) SetStatus(ctx context.Context, actor *domain.User, id int64, status domain.OrderStatus) (*domain.Order, error) {
	return s.apply(ctx, actor, id, s.statusStep(status))
}

// DeliverFiles appends the delivered files and completes the order.
func (s *OrderService) DeliverFiles(ctx context.Context, actor *domain.User, id int64, files []domain.DeliveryFile) (*domain.Order, error) {
	return s.apply(ctx, actor, id, s.deliverStep(files))
}

// SubmitFeedback stores the owning client's rating of a completed order.
func (s *OrderService) SubmitFeedback(ctx context.Context, actor *domain.User, id int64, in ports.FeedbackInput) (*domain.Order, error) {
	return s.apply(ctx, actor, id, s.feedbackStep(in))
}

// SetPriority changes the queue priority.
func (s *OrderService) SetPriority(ctx context.Context, actor *domain.User, id int64, priority domain.Priority) (*domain.Order, error) {
	return s.apply(ctx, actor, id, s.priorityStep(priority))
}

// Patch applies the set fields in a fixed order: payment decision, assignment,
// delivery, status, priority, feedback. Either all of them are written or none.
func (s *OrderService) Patch(ctx context.Context, actor *domain.User, id int64, patch ports.OrderPatch) (*domain.Order, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no updatable field provided", domain.ErrValidation)
	}

	var steps []step
	if patch.PaymentStatus != nil {
		steps = append(steps, s.paymentStep(*patch.PaymentStatus))
	}
	if patch.AssignedTo != nil {
		steps = append(steps, s.assignStep(actor, *patch.AssignedTo))
	}
	if len(patch.DeliveryFiles) > 0 {
		steps = append(steps, s.deliverStep(patch.DeliveryFiles))
	}
	if patch.Status != nil {
		steps = append(steps, s.statusStep(*patch.Status))
	}
	if patch.Priority != nil {
		steps = append(steps, s.priorityStep(*patch.Priority))
	}
	if patch.Feedback != nil {
		steps = append(steps, s.feedbackStep(*patch.Feedback))
	}
	return s.apply(ctx, actor, id, steps...)
}

// step is one guarded lifecycle operation.
type step struct {
	action policy.Action
	audit  domain.AuditAction
	// run mutates the working copy and returns the audit details.
	run func(ctx context.Context, o *domain.Order) (string, error)
}

func (s *OrderService) paymentStep(decision domain.PaymentStatus) step {
	code := domain.ActionPaymentConfirmed
	if decision == domain.PaymentRefused {
		code = domain.ActionPaymentRefused
	}
	return step{
		action: policy.PaymentDecision,
		audit:  code,
		run: func(_ context.Context, o *domain.Order) (string, error) {
			if err := o.DecidePayment(decision, s.lifecycle, s.now()); err != nil {
				return "", err
			}
			return fmt.Sprintf("Payment %s for order #%d", decision, o.ID), nil
		},
	}
}

func (s *OrderService) assignStep(actor *domain.User, staffID int64) step {
	action := policy.AssignStaff
	if actor != nil && actor.Role == domain.RoleEmployee && actor.ID == staffID {
		action = policy.ClaimOrder
	}
	return step{
		action: action,
		audit:  domain.ActionOrderAssigned,
		run: func(ctx context.Context, o *domain.Order) (string, error) {
			if staffID <= 0 {
				return "", fmt.Errorf("%w: assigned_to must be a user id", domain.ErrValidation)
			}
			staff, err := s.users.FindByID(ctx, staffID)
			if err != nil {
				return "", fmt.Errorf("assign: %w", err)
			}
			if err := o.AssignTo(staff, s.lifecycle, s.now()); err != nil {
				return "", err
			}
			return fmt.Sprintf("Order #%d assigned to %s", o.ID, staff.Name), nil
		},
	}
}

func (s *OrderService) statusStep(status domain.OrderStatus) step {
	return step{
		action: policy.ChangeStatus,
		audit:  domain.ActionStatusChanged,
		run: func(_ context.Context, o *domain.Order) (string, error) {
			from := o.Status
			if err := o.AdvanceStatus(status, s.now()); err != nil {
				return "", err
			}
			return fmt.Sprintf("Order #%d status %s -> %s", o.ID, from, status), nil
		},
	}
}

func (s *OrderService) deliverStep(files []domain.DeliveryFile) step {
	return step{
		action: policy.DeliverFiles,
		audit:  domain.ActionFilesDelivered,
		run: func(_ context.Context, o *domain.Order) (string, error) {
			if err := o.Deliver(files, s.now()); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d file(s) delivered for order #%d", len(files), o.ID), nil
		},
	}
}

func (s *OrderService) feedbackStep(in ports.FeedbackInput) step {
	return step{
		action: policy.SubmitFeedback,
		audit:  domain.ActionFeedbackSubmitted,
		run: func(_ context.Context, o *domain.Order) (string, error) {
			if err := o.RecordFeedback(in.Rating, strings.TrimSpace(in.Comment), s.now()); err != nil {
				return "", err
			}
			return fmt.Sprintf("Feedback %d/5 on order #%d", in.Rating, o.ID), nil
		},
	}
}

func (s *OrderService) priorityStep(p domain.Priority) step {
	return step{
		action: policy.SetPriority,
		audit:  domain.ActionPriorityChanged,
		run: func(_ context.Context, o *domain.Order) (string, error) {
			if err := o.ChangePriority(p, s.now()); err != nil {
				return "", err
			}
			return fmt.Sprintf("Order #%d priority set to %s", o.ID, p), nil
		},
	}
}

// apply runs steps against one copy of the order. Permissions are checked
// against the stored state before anything is changed.
func (s *OrderService) apply(ctx context.Context, actor *domain.User, id int64, steps ...step) (*domain.Order, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}

	for _, st := range steps {
		if !policy.CanPerform(actor, st.action, current) {
			return nil, s.reject(fmt.Errorf("%w: %s may not %s on order %d", domain.ErrForbidden, actor.Role, st.action, id))
		}
	}

	working := current.Clone()
	entries := make([]*domain.AuditEntry, 0, len(steps))
	for _, st := range steps {
		details, err := st.run(ctx, working)
		if err != nil {
			return nil, s.reject(err)
		}
		entries = append(entries, s.auditEntry(actor, working, st.audit, details))
	}

	version := working.Version
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		// A retried transaction starts again from the loaded version.
		working.Version = version
		if err := s.orders.Update(ctx, working); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.appendAudit(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStaleOrder) {
			return nil, s.reject(err)
		}
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to commit order change")
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	for _, e := range entries {
		metrics.OrderTransitionsTotal.WithLabelValues(string(e.Action)).Inc()
		switch e.Action {
		case domain.ActionPaymentConfirmed:
			metrics.PaymentDecisionsTotal.WithLabelValues(string(domain.PaymentConfirmed)).Inc()
		case domain.ActionPaymentRefused:
			metrics.PaymentDecisionsTotal.WithLabelValues(string(domain.PaymentRefused)).Inc()
		}
		s.publish(actor, working, e.Action)
	}

	s.logger.Info().
		Int64("order_id", working.ID).
		Int64("actor_id", actor.ID).
		Int("operations", len(entries)).
		Str("status", string(working.Status)).
		Str("payment_status", string(working.PaymentStatus)).
		Msg("order updated")

	return working, nil
}

func (s *OrderService) auditEntry(actor *domain.User, o *domain.Order, action domain.AuditAction, details string) *domain.AuditEntry {
	orderID := o.ID
	return &domain.AuditEntry{
		UserID:    actor.ID,
		Action:    action,
		Details:   details,
		OrderID:   &orderID,
		CreatedAt: s.now(),
	}
}

func (s *OrderService) appendAudit(ctx context.Context, e *domain.AuditEntry) error {
	if err := s.audit.Append(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("action", string(e.Action)).Msg("failed to append audit entry")
		return fmt.Errorf("append audit %s: %w", e.Action, err)
	}
	return nil
}

func (s *OrderService) publish(actor *domain.User, o *domain.Order, action domain.AuditAction) {
	if s.events == nil {
		return
	}
	ev := domain.OrderEvent{
		OrderID:       o.ID,
		Type:          action,
		ActorID:       actor.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		OccurredAt:    s.now(),
	}
	if o.AssignedTo != nil {
		id := *o.AssignedTo
		ev.AssignedTo = &id
	}
	s.events.Enqueue(ev)
}

// reject counts a refused operation and returns err unchanged.
func (s *OrderService) reject(err error) error {
	metrics.OrderRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrStaleOrder):
		return "stale"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "other"
}

// directTx runs fn without a transaction.
type directTx struct{}

func (directTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
