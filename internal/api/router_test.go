package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/api/handler"
	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var (
	client   = &domain.User{ID: 1, Name: "Client A", Role: domain.RoleClient}
	employee = &domain.User{ID: 2, Name: "Employee E", Role: domain.RoleEmployee}
	admin    = &domain.User{ID: 3, Name: "Admin", Role: domain.RoleAdmin}
)

// fakeAuth accepts "tok-<id>" for the three fixture users.
type fakeAuth struct {
	registerErr error
	authErr     error
}

func (f *fakeAuth) Register(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: 10, Email: in.Email, Name: in.Name, Role: domain.RoleClient}, nil
}

func (f *fakeAuth) Login(context.Context, string, string) (*ports.LoginResult, error) {
	return nil, domain.ErrInvalidCredentials
}

func (f *fakeAuth) Logout(context.Context, *domain.User, string) error { return nil }

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	for _, u := range []*domain.User{client, employee, admin} {
		if token == fmt.Sprintf("tok-%d", u.ID) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: bad token", domain.ErrUnauthenticated)
}

// fakeOrders returns patchErr from Patch and empty results elsewhere.
type fakeOrders struct {
	ports.OrderService
	patchErr error
}

func (f *fakeOrders) Patch(context.Context, *domain.User, int64, ports.OrderPatch) (*domain.Order, error) {
	return &domain.Order{}, f.patchErr
}

func (f *fakeOrders) ListForStaff(context.Context, *domain.User, ports.StaffOrderFilter) ([]ports.OrderView, error) {
	return []ports.OrderView{}, nil
}

type fakeAdmin struct{ ports.AdminService }

func (fakeAdmin) Stats(context.Context, *domain.User) (*ports.StatsReport, error) {
	return &ports.StatsReport{}, nil
}

func newTestRouter(t *testing.T, auth *fakeAuth, orders *fakeOrders, rateLimit float64) *echo.Echo {
	t.Helper()
	if auth == nil {
		auth = &fakeAuth{}
	}
	if orders == nil {
		orders = &fakeOrders{}
	}
	return NewRouter(Deps{
		Auth:          auth,
		Orders:        orders,
		Admin:         fakeAdmin{},
		Catalog:       domain.DefaultCatalog(),
		Checks:        map[string]handler.CheckFunc{"mongodb": func(context.Context) error { return nil }},
		Logger:        zerolog.Nop(),
		CORSOrigins:   []string{"*"},
		AuthRateLimit: rateLimit,
		Registry:      prometheus.NewRegistry(),
	})
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestRouter_PublicRoutes(t *testing.T) {
	e := newTestRouter(t, nil, nil, 100)

	for _, path := range []string{"/health", "/health/ready", "/catalog", "/metrics", "/swagger/doc.json"} {
		rec := do(e, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := do(e, http.MethodGet, "/swagger/doc.json", "", "")
	if !strings.Contains(rec.Body.String(), "Order Desk API") {
		t.Errorf("swagger document not served: %q", rec.Body.String())
	}
}

func TestRouter_Authentication(t *testing.T) {
	e := newTestRouter(t, nil, nil, 100)

	rec := do(e, http.MethodGet, "/orders", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/orders", "forged", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/orders", "tok-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("employee: expected 200, got %d", rec.Code)
	}
}

func TestRouter_ExpiredSession(t *testing.T) {
	e := newTestRouter(t, &fakeAuth{authErr: domain.ErrSessionExpired}, nil, 100)
	rec := do(e, http.MethodGet, "/auth/me", "tok-1", "")
	if rec.Code != http.StatusUnauthorized || errorMessage(t, rec) != "session expired" {
		t.Fatalf("expected 401 session expired, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	e := newTestRouter(t, nil, nil, 100)

	tests := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/orders", "tok-1", http.StatusForbidden},
		{http.MethodPost, "/orders", "tok-2", http.StatusForbidden},
		{http.MethodPost, "/orders", "tok-3", http.StatusForbidden},
		{http.MethodGet, "/admin/stats/advanced", "tok-2", http.StatusForbidden},
		{http.MethodGet, "/admin/stats/advanced", "tok-1", http.StatusForbidden},
		{http.MethodGet, "/admin/stats/advanced", "tok-3", http.StatusOK},
		{http.MethodGet, "/workspace/employees", "tok-1", http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := do(e, tt.method, tt.path, tt.token, "")
		if rec.Code != tt.want {
			t.Errorf("%s %s as %s: expected %d, got %d", tt.method, tt.path, tt.token, tt.want, rec.Code)
		}
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("%w: no updatable field provided", domain.ErrValidation), http.StatusBadRequest, "validation failed: no updatable field provided"},
		{fmt.Errorf("%w: admin only", domain.ErrForbidden), http.StatusForbidden, "access forbidden"},
		{fmt.Errorf("load order 9: %w", domain.ErrOrderNotFound), http.StatusNotFound, "order not found"},
		{domain.ErrStaleOrder, http.StatusConflict, "order was modified concurrently"},
		{fmt.Errorf("%w: completed → paid", domain.ErrInvalidTransition), http.StatusConflict, "invalid status transition: completed → paid"},
		{fmt.Errorf("payment: %w: already decided", domain.ErrConflict), http.StatusConflict, "conflict: already decided"},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		e := newTestRouter(t, nil, &fakeOrders{patchErr: tt.err}, 100)
		rec := do(e, http.MethodPatch, "/orders/9", "tok-3", `{"status":"paid"}`)
		if rec.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
			continue
		}
		if got := errorMessage(t, rec); got != tt.msg {
			t.Errorf("%v: expected message %q, got %q", tt.err, tt.msg, got)
		}
	}
}

func TestRouter_RegisterDuplicateIsBadRequest(t *testing.T) {
	e := newTestRouter(t, &fakeAuth{registerErr: domain.ErrEmailTaken}, nil, 100)
	rec := do(e, http.MethodPost, "/auth/register", "", `{"email":"a@b.io","password":"secret1","name":"A"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_LoginFailureIsUnauthorized(t *testing.T) {
	e := newTestRouter(t, nil, nil, 100)
	rec := do(e, http.MethodPost, "/auth/login", "", `{"email":"a@b.io","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized || errorMessage(t, rec) != "invalid credentials" {
		t.Fatalf("expected 401 invalid credentials, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	e := newTestRouter(t, nil, nil, 2)
	body := `{"email":"a@b.io","password":"wrong"}`

	for i := 0; i < 2; i++ {
		if rec := do(e, http.MethodPost, "/auth/login", "", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	if rec := do(e, http.MethodPost, "/auth/login", "", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	// Other routes are not limited.
	if rec := do(e, http.MethodGet, "/catalog", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("catalog: expected 200, got %d", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	e := newTestRouter(t, nil, nil, 100)
	rec := do(e, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFromKind(t *testing.T) {
	err := fmt.Errorf("create order: %w", fmt.Errorf("%w: unknown service \"x\"", domain.ErrValidation))
	if got := fromKind(err, domain.ErrValidation); got != `validation failed: unknown service "x"` {
		t.Fatalf("unexpected message %q", got)
	}
	if got := fromKind(domain.ErrConflict, domain.ErrConflict); got != "conflict" {
		t.Fatalf("unexpected message %q", got)
	}
}
