package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/services"
	"github.com/movescrow/movescrow-backend/internal/storage"
)

// OrderHandler serves the restaurant-side order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetOrder handles GET /orders/:id?session=
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Order ID is required",
		})
	}
	session := c.Query("session")
	if session == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session token is required",
		})
	}

	order, _, err := h.orders.Authorize(session, id)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(order)
}

// GetMessages handles GET /orders/:id/messages?session=
func (h *OrderHandler) GetMessages(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Order ID is required",
		})
	}
	session := c.Query("session")
	if session == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session token is required",
		})
	}

	messages, err := h.orders.Messages(session, id)
	if err != nil {
		return orderError(c, err)
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"messages": messages,
	})
}

// Act handles POST /orders/:id with an action field of accept, reject, or
// set-price.
func (h *OrderHandler) Act(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Order ID is required",
		})
	}

	var req struct {
		Action    string  `json:"action"`
		Session   string  `json:"session"`
		Reason    string  `json:"reason"`
		Price     float64 `json:"price"`
		ReadyTime int     `json:"ready_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Session == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session token is required",
		})
	}

	switch req.Action {
	case services.ActionAccept:
		order, err := h.orders.Accept(req.Session, id)
		if err != nil {
			return orderError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Order accepted. Set the price to continue.",
			"order":   order,
		})

	case services.ActionReject:
		if req.Reason == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Rejection reason is required",
			})
		}
		if err := h.orders.Reject(req.Session, id, req.Reason); err != nil {
			return orderError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Order rejected. Customer has been notified.",
		})

	case services.ActionSetPrice:
		if req.Price <= 0 || req.ReadyTime <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Price and ready_time are required",
			})
		}
		breakdown, err := h.orders.SetPrice(req.Session, id, req.Price, req.ReadyTime)
		if err != nil {
			return orderError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Price set successfully. Customer has been notified.",
			"order":   breakdown,
		})

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid action",
		})
	}
}

// orderError maps service errors to HTTP statuses.
func orderError(c *fiber.Ctx, err error) error {
	var transition *services.TransitionError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired session token",
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": transition.Error(),
		})
	default:
		log.Printf("Order operation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
