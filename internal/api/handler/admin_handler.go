package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/core/ports"
)

type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Stats handles GET /admin/stats/advanced.
//
// @Summary      Business statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.StatsReport
// @Failure      403  {object}  errorResponse
// @Router       /admin/stats/advanced [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	report, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// AuditLogs handles GET /admin/audit-logs.
//
// @Summary      Latest audit entries
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 100, max 500)"
// @Success      200    {array}   ports.AuditView
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /admin/audit-logs [get]
func (h *AdminHandler) AuditLogs(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	entries, err := h.service.AuditLogs(c.Request().Context(), actor, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
