package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

// MessageHandler serves the per-order chat thread.
type MessageHandler struct {
	service ports.MessageService
}

func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// List handles GET /orders/:id/messages.
//
// @Summary      Order chat thread
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order id"
// @Success      200  {array}   ports.MessageView
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /orders/{id}/messages [get]
func (h *MessageHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	msgs, err := h.service.List(c.Request().Context(), actor, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// Send handles POST /orders/:id/messages.
//
// @Summary      Post to an order's chat
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Order id"
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      201   {object}  successResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /orders/{id}/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err = h.service.Send(c.Request().Context(), actor, ports.SendMessageInput{
		OrderID:  orderID,
		SenderID: req.SenderID,
		Content:  req.Content,
		Type:     domain.MessageType(req.Type),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, successOK)
}
