package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorRule maps one error kind to a status. An empty message means the
// wrapped error text is shown from the kind onward.
type errorRule struct {
	kind    error
	code    int
	message string
}

// errorRules is checked in order, so specific kinds come before the general
// kinds they wrap. Permission failures use fixed messages.
var errorRules = []errorRule{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "session expired"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrNotFound, http.StatusNotFound, "not found"},
	{domain.ErrStaleOrder, http.StatusConflict, "order was modified concurrently"},
	{domain.ErrInvalidTransition, http.StatusConflict, ""},
	{domain.ErrConflict, http.StatusConflict, ""},
	{domain.ErrEmailTaken, http.StatusConflict, "email already exists"},
	{domain.ErrDuplicate, http.StatusConflict, ""},
	{domain.ErrValidation, http.StatusBadRequest, ""},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Errors with no
// rule are logged and answered with a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, r := range errorRules {
		if !errors.Is(err, r.kind) {
			continue
		}
		if r.message != "" {
			return r.code, r.message
		}
		return r.code, fromKind(err, r.kind)
	}
	return http.StatusInternalServerError, "internal server error"
}

// fromKind drops the operation prefixes that wrapping added in front of the
// error kind: "create order: validation failed: x" becomes "validation failed: x".
func fromKind(err, kind error) string {
	msg := err.Error()
	if i := strings.Index(msg, kind.Error()); i > 0 {
		return msg[i:]
	}
	return msg
}
