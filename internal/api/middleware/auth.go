package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// Context keys set by Auth.
const (
	ActorKey = "actor"
	TokenKey = "token"
)

// Authenticator resolves a session token to the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Auth validates the bearer session token and injects the authenticated user
// into the context. The user is reloaded on every request, so role and status
// changes apply immediately.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			token := strings.TrimSpace(parts[1])

			user, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrSessionExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
				case domain.IsPermission(err):
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set(ActorKey, user)
			c.Set(TokenKey, token)
			return next(c)
		}
	}
}

// Actor returns the user injected by Auth, or nil.
func Actor(c echo.Context) *domain.User {
	u, _ := c.Get(ActorKey).(*domain.User)
	return u
}
