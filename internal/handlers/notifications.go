package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/movescrow/movescrow-backend/internal/services"
	"github.com/movescrow/movescrow-backend/internal/storage"
)

// NotificationHandler serves the order-alert relay endpoint.
type NotificationHandler struct {
	notifier *services.Notifier
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notifier *services.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// SendOrder handles POST /notifications/send-order
func (h *NotificationHandler) SendOrder(c *fiber.Ctx) error {
	var req struct {
		RestaurantID string `json:"restaurantId"`
		OrderID      string `json:"orderId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.RestaurantID == "" || req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Restaurant ID and Order ID are required",
		})
	}

	result, err := h.notifier.SendOrderNotification(c.Context(), req.RestaurantID, req.OrderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Restaurant or order not found",
			})
		}
		log.Printf("Error in send-order: %v", err)
		// The session row (and therefore the magic link) persists even when
		// delivery failed; surface both so operators can diagnose providers.
		response := fiber.Map{
			"error":   "Failed to send notification",
			"details": err.Error(),
		}
		if result != nil && result.MagicLink != "" {
			response["magicLink"] = result.MagicLink
		}
		return c.Status(fiber.StatusInternalServerError).JSON(response)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Notification sent",
		"magicLink": result.MagicLink,
		"method":    result.Method,
	})
}
