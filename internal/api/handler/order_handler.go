package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

// HeaderIdempotencyKey lets a client retry order creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /orders.
//
// @Summary      Place an order
// @Description  Prices the selection against the catalog. A repeated Idempotency-Key returns the original order with 200, or 409 while the first request is still running.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Client-chosen retry key"
// @Param        body             body      createOrderRequest  true   "Order"
// @Success      201              {object}  createOrderResponse
// @Success      200              {object}  createOrderResponse
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.CreateOrder(c.Request().Context(), actor,
		toCreateOrderInput(req, c.Request().Header.Get(HeaderIdempotencyKey)))
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	c.Response().Header().Set(echo.HeaderLocation, "/orders/"+strconv.FormatInt(res.Order.ID, 10))
	return c.JSON(status, createOrderResponse{ID: res.Order.ID})
}

// Get handles GET /orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order id"
// @Success      200  {object}  domain.Order
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.service.GetOrder(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// List handles GET /orders, the staff queue.
//
// @Summary      List orders (staff)
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Filter by status"
// @Param        assigned_to  query     int     false  "Filter by assignee"
// @Success      200          {array}   ports.OrderView
// @Failure      400          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Router       /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	filter := ports.StaffOrderFilter{Status: domain.OrderStatus(c.QueryParam("status"))}
	if raw := c.QueryParam("assigned_to"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid assigned_to")
		}
		filter.AssignedTo = &id
	}

	views, err := h.service.ListForStaff(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// ListForUser handles GET /orders/user/:id.
//
// @Summary      List a client's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Client id"
// @Success      200  {array}   domain.Order
// @Failure      403  {object}  errorResponse
// @Router       /orders/user/{id} [get]
func (h *OrderHandler) ListForUser(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	clientID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	orders, err := h.service.ListForClient(c.Request().Context(), actor, clientID)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

// Patch handles PATCH /orders/:id. All fields present in the body are
// applied together or not at all.
//
// @Summary      Update an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Order id"
// @Param        body  body      patchOrderRequest  true  "Fields to change"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /orders/{id} [patch]
func (h *OrderHandler) Patch(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req patchOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.service.Patch(c.Request().Context(), actor, id, toOrderPatch(req)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successOK)
}
