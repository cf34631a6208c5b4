package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager("secret", "order-desk", time.Hour)
	user := &domain.User{ID: 42, Role: domain.RoleEmployee}

	token, expiresAt, err := tm.Issue(user, "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", expiresAt)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("secret", "order-desk", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := tm.Issue(&domain.User{ID: 1, Role: domain.RoleClient}, "sess")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tm.now = time.Now
	if _, err := tm.Parse(token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret", "order-desk", time.Hour)
	verifier := NewTokenManager("other", "order-desk", time.Hour)

	token, _, _ := issuer.Issue(&domain.User{ID: 1, Role: domain.RoleClient}, "sess")
	if _, err := verifier.Parse(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	tm := NewTokenManager("secret", "order-desk", time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sid": "sess", "sub": "1", "iss": "order-desk",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := tm.Parse(unsigned); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	token, _, _ := NewTokenManager("secret", "someone-else", time.Hour).
		Issue(&domain.User{ID: 1, Role: domain.RoleClient}, "sess")

	if _, err := NewTokenManager("secret", "order-desk", time.Hour).Parse(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
