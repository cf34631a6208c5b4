package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

func TestMessageHandler_Send(t *testing.T) {
	var got ports.SendMessageInput
	stub := &stubMessageService{
		sendFn: func(_ context.Context, actor *domain.User, in ports.SendMessageInput) (*domain.Message, error) {
			if actor.ID != testEmployee.ID {
				t.Fatalf("unexpected actor %d", actor.ID)
			}
			got = in
			return &domain.Message{ID: 1}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/orders/4/messages", `{"content":"Draft attached","type":"file","sender_id":2}`, testEmployee)
	if err := NewMessageHandler(stub).Send(withID(c, "4")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.OrderID != 4 || got.SenderID != 2 || got.Content != "Draft attached" || got.Type != domain.MessageFile {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestMessageHandler_Send_Validation(t *testing.T) {
	stub := &stubMessageService{
		sendFn: func(context.Context, *domain.User, ports.SendMessageInput) (*domain.Message, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	for _, body := range []string{`{}`, `{"content":"hi","type":"video"}`} {
		c, _ := newContext(http.MethodPost, "/orders/4/messages", body, testClient)
		if err := NewMessageHandler(stub).Send(withID(c, "4")); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}

func TestMessageHandler_List(t *testing.T) {
	stub := &stubMessageService{
		listFn: func(_ context.Context, _ *domain.User, orderID int64) ([]ports.MessageView, error) {
			return []ports.MessageView{{
				Message:    &domain.Message{ID: 1, OrderID: orderID, SenderID: 1, Content: "hello", Type: domain.MessageText},
				SenderName: "Client A",
				SenderRole: domain.RoleClient,
			}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/orders/4/messages", "", testClient)
	if err := NewMessageHandler(stub).List(withID(c, "4")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var msgs []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil || len(msgs) != 1 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if msgs[0]["content"] != "hello" || msgs[0]["sender_name"] != "Client A" || msgs[0]["sender_role"] != "client" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestAdminHandler_AuditLogs_Limit(t *testing.T) {
	var gotLimit int
	stub := &stubAdminService{
		auditFn: func(_ context.Context, _ *domain.User, limit int) ([]ports.AuditView, error) {
			gotLimit = limit
			return []ports.AuditView{}, nil
		},
	}
	h := NewAdminHandler(stub)

	c, _ := newContext(http.MethodGet, "/admin/audit-logs", "", testAdmin)
	if err := h.AuditLogs(c); err != nil || gotLimit != 0 {
		t.Fatalf("default limit: err=%v limit=%d", err, gotLimit)
	}

	c, _ = newContext(http.MethodGet, "/admin/audit-logs?limit=20", "", testAdmin)
	if err := h.AuditLogs(c); err != nil || gotLimit != 20 {
		t.Fatalf("explicit limit: err=%v limit=%d", err, gotLimit)
	}

	c, _ = newContext(http.MethodGet, "/admin/audit-logs?limit=-1", "", testAdmin)
	if code := httpCode(t, h.AuditLogs(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestWorkspaceHandler_SetStatus(t *testing.T) {
	var gotID int64
	var gotStatus domain.UserStatus
	stub := &stubWorkspaceService{
		setFn: func(_ context.Context, _ *domain.User, userID int64, status domain.UserStatus) error {
			gotID, gotStatus = userID, status
			return nil
		},
	}
	h := NewWorkspaceHandler(stub)

	c, rec := newContext(http.MethodPatch, "/users/2/status", `{"status":"busy"}`, testEmployee)
	if err := h.SetStatus(withID(c, "2")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotID != 2 || gotStatus != domain.UserBusy {
		t.Fatalf("unexpected result: code=%d id=%d status=%s", rec.Code, gotID, gotStatus)
	}

	c, _ = newContext(http.MethodPatch, "/users/2/status", `{"status":"away"}`, testEmployee)
	if err := h.SetStatus(withID(c, "2")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWorkspaceHandler_Employees(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/workspace/employees", "", testAdmin)
	if err := NewWorkspaceHandler(&stubWorkspaceService{}).Employees(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var staff []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &staff); err != nil || len(staff) != 2 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestCatalogHandler_Get(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/catalog", "", nil)
	if err := NewCatalogHandler(domain.DefaultCatalog()).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var cat domain.Catalog
	if err := json.Unmarshal(rec.Body.Bytes(), &cat); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := cat.Addon(domain.ExpressAddonID); !ok {
		t.Fatalf("express add-on missing from catalog")
	}
	if _, ok := cat.Service("logo"); !ok {
		t.Fatalf("logo service missing from catalog")
	}
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewHealthHandler(map[string]CheckFunc{"mongodb": ok, "redis": ok})
	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)
	if err := h.Readiness(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d (%v)", rec.Code, err)
	}

	h = NewHealthHandler(map[string]CheckFunc{"mongodb": ok, "redis": down})
	c, rec = newContext(http.MethodGet, "/health/ready", "", nil)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}

	c, rec = newContext(http.MethodGet, "/health", "", nil)
	if err := h.Liveness(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d (%v)", rec.Code, err)
	}
}
