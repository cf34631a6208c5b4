package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/api/middleware"
	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "alice@example.com" || in.Name != "Alice" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 9, Email: in.Email, Name: in.Name, Role: domain.RoleClient, PasswordHash: "hash"}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"secret1","name":"Alice"}`, nil)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var user map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user["email"] != "alice@example.com" || user["role"] != "client" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_DuplicateIsBadRequest(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, fmt.Errorf("register: %w", domain.ErrEmailTaken)
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/register", `{"email":"bob@example.com","password":"secret1","name":"Bob"}`, nil)

	err := NewAuthHandler(stub).Register(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/auth/register", "not-json", nil)
	if code := httpCode(t, h.Register(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}

	for _, body := range []string{
		`{"email":"nope","password":"secret1","name":"A"}`,
		`{"email":"a@b.io","password":"123","name":"A"}`,
		`{"email":"a@b.io","password":"secret1"}`,
	} {
		c, _ := newContext(http.MethodPost, "/auth/register", body, nil)
		if err := h.Register(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	expires := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{Token: "token123", ExpiresAt: expires, User: testAdmin}, nil
		},
	}

	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret1"}`, nil)
	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expires_at"`
		User      domain.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || !resp.ExpiresAt.Equal(expires) || resp.User.ID != testAdmin.ID {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`, nil)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var gotToken string
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, actor *domain.User, token string) error {
			if actor.ID != testClient.ID {
				t.Fatalf("unexpected actor %d", actor.ID)
			}
			gotToken = token
			return nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/logout", "", testClient)
	c.Set(middleware.TokenKey, "tok-1")

	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotToken != "tok-1" {
		t.Fatalf("token not forwarded: %q", gotToken)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/auth/me", "", testEmployee)
	if err := NewAuthHandler(&stubAuthService{}).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user.ID != testEmployee.ID || user.Role != domain.RoleEmployee {
		t.Fatalf("unexpected user: %+v", user)
	}

	c, _ = newContext(http.MethodGet, "/auth/me", "", nil)
	if code := httpCode(t, NewAuthHandler(&stubAuthService{}).Me(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", code)
	}
}
