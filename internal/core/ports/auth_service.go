package ports

import (
	"context"
	"time"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// SessionClaims is what a verified session token carries.
type SessionClaims struct {
	SessionID string
	UserID    int64
	ExpiresAt time.Time
}

// TokenManager signs and verifies session tokens.
type TokenManager interface {
	Issue(user *domain.User, sessionID string) (token string, expiresAt time.Time, err error)
	Parse(token string) (*SessionClaims, error)
	TTL() time.Duration
}

// RegisterInput carries the self-registration form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// StaffSeed describes a staff account created at startup when missing.
type StaffSeed struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService handles registration, login and session validation.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, actor *domain.User, token string) error
	// Authenticate resolves a session token to the current user record.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
