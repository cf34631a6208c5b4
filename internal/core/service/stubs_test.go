package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[int64]*domain.User
	nextID int64
	err    error // if set, every call returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

// add stores u directly, bypassing email checks, and returns its id.
func (r *stubUserRepo) add(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	if u.Status == "" {
		u.Status = domain.UserActive
	}
	r.byID[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = r.nextID
	r.byID[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[int64]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListStaff(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.User
	for _, u := range r.byID {
		if u.Role.IsStaff() {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id int64, status domain.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	return nil
}

type stubOrderRepo struct {
	mu        sync.Mutex
	byID      map[int64]*domain.Order
	nextID    int64
	createErr error
	updateErr error
	updates   int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{byID: make(map[int64]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	o.ID = r.nextID
	o.Version = 1
	r.byID[o.ID] = o.Clone()
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Update mirrors the version-checked write of the real repository.
func (r *stubOrderRepo) Update(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.byID[o.ID]
	if !ok || stored.Version != o.Version {
		return domain.ErrStaleOrder
	}
	o.Version++
	r.byID[o.ID] = o.Clone()
	r.updates++
	return nil
}

func (r *stubOrderRepo) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.byID {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.AssignedTo != nil && !o.IsAssignedTo(*f.AssignedTo) {
			continue
		}
		if f.VisibleTo != nil && o.AssignedTo != nil && !o.IsAssignedTo(*f.VisibleTo) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *stubOrderRepo) stored(id int64) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Clone()
}

type stubAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.AuditEntry
	appendErr error
}

func (r *stubAuditRepo) Append(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	e.ID = int64(len(r.entries) + 1)
	clone := *e
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *stubAuditRepo) Latest(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		clone := *r.entries[i]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *stubAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubMessageRepo struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (r *stubMessageRepo) Create(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = int64(len(r.msgs) + 1)
	clone := *m
	r.msgs = append(r.msgs, &clone)
	return nil
}

func (r *stubMessageRepo) ListByOrder(_ context.Context, orderID int64) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.msgs {
		if m.OrderID == orderID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]int64
	ttls     map[string]time.Duration
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]int64), ttls: make(map[string]time.Duration)}
}

func (s *stubSessionStore) Save(_ context.Context, sid string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = userID
	s.ttls[sid] = ttl
	return nil
}

func (s *stubSessionStore) Lookup(_ context.Context, sid string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[sid]
	if !ok {
		return 0, domain.ErrSessionExpired
	}
	return id, nil
}

func (s *stubSessionStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

// stubIdempotencyStore keeps reserved keys; 0 marks a key still pending.
type stubIdempotencyStore struct {
	mu         sync.Mutex
	keys       map[string]int64
	reserveErr error
	releases   int
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: make(map[string]int64)}
}

func idemKey(clientID int64, key string) string {
	return fmt.Sprintf("%d:%s", clientID, key)
}

func (s *stubIdempotencyStore) Reserve(_ context.Context, clientID int64, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return 0, false, s.reserveErr
	}
	k := idemKey(clientID, key)
	if id, ok := s.keys[k]; ok {
		return id, false, nil
	}
	s.keys[k] = 0
	return 0, true, nil
}

func (s *stubIdempotencyStore) Complete(_ context.Context, clientID int64, key string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[idemKey(clientID, key)] = orderID
	return nil
}

func (s *stubIdempotencyStore) Release(_ context.Context, clientID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, idemKey(clientID, key))
	s.releases++
	return nil
}

// rollbackTransactor restores the order repository when fn fails, the way a
// database transaction would.
type rollbackTransactor struct {
	orders *stubOrderRepo
	runs   int
}

func (tx *rollbackTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.runs++
	tx.orders.mu.Lock()
	saved := make(map[int64]*domain.Order, len(tx.orders.byID))
	for id, o := range tx.orders.byID {
		saved[id] = o.Clone()
	}
	nextID, updates := tx.orders.nextID, tx.orders.updates
	tx.orders.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		tx.orders.mu.Lock()
		tx.orders.byID, tx.orders.nextID, tx.orders.updates = saved, nextID, updates
		tx.orders.mu.Unlock()
	}
	return err
}

// gatedOrderRepo holds Create until the test lets it continue.
type gatedOrderRepo struct {
	*stubOrderRepo
	entered chan struct{}
	release chan struct{}
}

func (r *gatedOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.entered <- struct{}{}
	<-r.release
	return r.stubOrderRepo.Create(ctx, o)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Enqueue(ev domain.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

type stubStatsRepo struct {
	revenue  ports.RevenueTotals
	total    int64
	byStatus []ports.StatusCount
	clients  ports.ClientTotals
	since    time.Time
	newSince time.Time
	err      error
}

func (r *stubStatsRepo) RevenueTotals(context.Context) (ports.RevenueTotals, error) {
	return r.revenue, r.err
}

func (r *stubStatsRepo) CountOrders(context.Context) (int64, error) { return r.total, r.err }

func (r *stubStatsRepo) CountByStatus(context.Context) ([]ports.StatusCount, error) {
	return r.byStatus, r.err
}

func (r *stubStatsRepo) RevenueByService(context.Context) ([]ports.ServiceRevenue, error) {
	return nil, r.err
}

func (r *stubStatsRepo) DailyRevenue(_ context.Context, since time.Time) ([]ports.DailyRevenue, error) {
	r.since = since
	return nil, r.err
}

func (r *stubStatsRepo) ClientTotals(_ context.Context, newSince time.Time) (ports.ClientTotals, error) {
	r.newSince = newSince
	return r.clients, r.err
}
