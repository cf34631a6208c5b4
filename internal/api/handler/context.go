package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/api/middleware"
	"github.com/nextlevel/order-desk/internal/core/domain"
)

// actorFrom returns the user injected by the Auth middleware. Its absence
// means the route was mounted without authentication, so fail closed.
func actorFrom(c echo.Context) (*domain.User, error) {
	actor := middleware.Actor(c)
	if actor == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return actor, nil
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the struct
// validator. Validation failures are reported as domain validation errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}

type successResponse struct {
	Success bool `json:"success"`
}

var successOK = successResponse{Success: true}
