package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/api/middleware"
	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var (
	testClient   = &domain.User{ID: 1, Name: "Client A", Role: domain.RoleClient, Status: domain.UserActive}
	testEmployee = &domain.User{ID: 2, Name: "Employee E", Role: domain.RoleEmployee, Status: domain.UserActive}
	testAdmin    = &domain.User{ID: 3, Name: "Admin", Role: domain.RoleAdmin, Status: domain.UserActive}
)

// newContext builds an echo context with the validator wired, an optional
// JSON body and an optional authenticated actor.
func newContext(method, target, body string, actor *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.ActorKey, actor)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	logoutFn   func(ctx context.Context, actor *domain.User, token string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, actor *domain.User, token string) error {
	return s.logoutFn(ctx, actor, token)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUnauthenticated
}

type stubOrderService struct {
	createFn        func(ctx context.Context, actor *domain.User, in ports.CreateOrderInput) (*ports.CreateOrderResult, error)
	getFn           func(ctx context.Context, actor *domain.User, id int64) (*domain.Order, error)
	listForStaffFn  func(ctx context.Context, actor *domain.User, f ports.StaffOrderFilter) ([]ports.OrderView, error)
	listForClientFn func(ctx context.Context, actor *domain.User, clientID int64) ([]*domain.Order, error)
	patchFn         func(ctx context.Context, actor *domain.User, id int64, p ports.OrderPatch) (*domain.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, actor *domain.User, in ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubOrderService) GetOrder(ctx context.Context, actor *domain.User, id int64) (*domain.Order, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubOrderService) ListForStaff(ctx context.Context, actor *domain.User, f ports.StaffOrderFilter) ([]ports.OrderView, error) {
	return s.listForStaffFn(ctx, actor, f)
}

func (s *stubOrderService) ListForClient(ctx context.Context, actor *domain.User, clientID int64) ([]*domain.Order, error) {
	return s.listForClientFn(ctx, actor, clientID)
}

func (s *stubOrderService) Patch(ctx context.Context, actor *domain.User, id int64, p ports.OrderPatch) (*domain.Order, error) {
	return s.patchFn(ctx, actor, id, p)
}

// The single-operation methods are reached through Patch over HTTP.
func (s *stubOrderService) RecordPaymentDecision(context.Context, *domain.User, int64, domain.PaymentStatus) (*domain.Order, error) {
	panic("not used")
}

func (s *stubOrderService) Assign(context.Context, *domain.User, int64, int64) (*domain.Order, error) {
	panic("not used")
}

func (s *stubOrderService) SetStatus(context.Context, *domain.User, int64, domain.OrderStatus) (*domain.Order, error) {
	panic("not used")
}

func (s *stubOrderService) DeliverFiles(context.Context, *domain.User, int64, []domain.DeliveryFile) (*domain.Order, error) {
	panic("not used")
}

func (s *stubOrderService) SubmitFeedback(context.Context, *domain.User, int64, ports.FeedbackInput) (*domain.Order, error) {
	panic("not used")
}

func (s *stubOrderService) SetPriority(context.Context, *domain.User, int64, domain.Priority) (*domain.Order, error) {
	panic("not used")
}

type stubMessageService struct {
	sendFn func(ctx context.Context, actor *domain.User, in ports.SendMessageInput) (*domain.Message, error)
	listFn func(ctx context.Context, actor *domain.User, orderID int64) ([]ports.MessageView, error)
}

func (s *stubMessageService) Send(ctx context.Context, actor *domain.User, in ports.SendMessageInput) (*domain.Message, error) {
	return s.sendFn(ctx, actor, in)
}

func (s *stubMessageService) List(ctx context.Context, actor *domain.User, orderID int64) ([]ports.MessageView, error) {
	return s.listFn(ctx, actor, orderID)
}

type stubAdminService struct {
	auditFn func(ctx context.Context, actor *domain.User, limit int) ([]ports.AuditView, error)
}

func (s *stubAdminService) Stats(context.Context, *domain.User) (*ports.StatsReport, error) {
	return &ports.StatsReport{}, nil
}

func (s *stubAdminService) AuditLogs(ctx context.Context, actor *domain.User, limit int) ([]ports.AuditView, error) {
	return s.auditFn(ctx, actor, limit)
}

type stubWorkspaceService struct {
	setFn func(ctx context.Context, actor *domain.User, userID int64, status domain.UserStatus) error
}

func (s *stubWorkspaceService) Employees(context.Context, *domain.User) ([]*domain.User, error) {
	return []*domain.User{testEmployee, testAdmin}, nil
}

func (s *stubWorkspaceService) SetAvailability(ctx context.Context, actor *domain.User, userID int64, status domain.UserStatus) error {
	return s.setFn(ctx, actor, userID, status)
}
