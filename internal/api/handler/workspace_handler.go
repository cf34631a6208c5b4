package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

type WorkspaceHandler struct {
	service ports.WorkspaceService
}

func NewWorkspaceHandler(service ports.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

// Employees handles GET /workspace/employees.
//
// @Summary      Staff roster
// @Tags         workspace
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  errorResponse
// @Router       /workspace/employees [get]
func (h *WorkspaceHandler) Employees(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	staff, err := h.service.Employees(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staff)
}

// SetStatus handles PATCH /users/:id/status.
//
// @Summary      Update availability
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      userStatusRequest  true  "New status"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/status [patch]
func (h *WorkspaceHandler) SetStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req userStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetAvailability(c.Request().Context(), actor, userID, domain.UserStatus(req.Status)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successOK)
}
