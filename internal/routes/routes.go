package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/movescrow/movescrow-backend/internal/handlers"
	"github.com/movescrow/movescrow-backend/internal/middleware"
)

// Handlers bundles everything SetupRoutes needs to wire.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Orders        *handlers.OrderHandler
	Notifications *handlers.NotificationHandler
	WhatsApp      *handlers.WhatsAppHandler
	Pickups       *handlers.PickupHandler

	// WhatsAppAppSecret enables webhook signature validation when set.
	WhatsAppAppSecret string
}

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, h Handlers) {
	auth := app.Group("/auth")
	auth.Post("/send-otp", h.Auth.SendOTP)
	auth.Post("/verify-otp", h.Auth.VerifyOTP)
	auth.Post("/magic-link", h.Auth.MagicLink)
	auth.Get("/verify-token", h.Auth.VerifyToken)
	auth.Post("/flow-session", h.Auth.FlowSession)

	orders := app.Group("/orders")
	orders.Get("/:id", h.Orders.GetOrder)
	orders.Get("/:id/messages", h.Orders.GetMessages)
	orders.Post("/:id", h.Orders.Act)

	app.Post("/notifications/send-order", h.Notifications.SendOrder)

	whatsapp := app.Group("/whatsapp")
	whatsapp.Get("/webhook", h.WhatsApp.VerifyWebhook)
	whatsapp.Post("/webhook", middleware.ValidateWebhookSignature(h.WhatsAppAppSecret), h.WhatsApp.ReceiveWebhook)
	whatsapp.Post("/send-message", h.WhatsApp.SendMessage)

	pickups := app.Group("/pickups")
	pickups.Post("/request-otp", h.Pickups.RequestOTP)
	pickups.Post("/verify-otp", h.Pickups.VerifyOTP)
}
