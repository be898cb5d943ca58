package handlers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/services"
	"github.com/movescrow/movescrow-backend/internal/storage"
)

// WhatsAppHandler serves the Cloud API webhook and the outbound relay.
type WhatsAppHandler struct {
	store       storage.Store
	client      *services.WhatsAppClient
	verifyToken string
}

// NewWhatsAppHandler creates a new WhatsApp handler. client may be nil when
// the Cloud API is not configured.
func NewWhatsAppHandler(store storage.Store, client *services.WhatsAppClient, verifyToken string) *WhatsAppHandler {
	return &WhatsAppHandler{
		store:       store,
		client:      client,
		verifyToken: verifyToken,
	}
}

// WebhookPayload is the Cloud API webhook envelope.
type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []IncomingMessage `json:"messages"`
				Statuses []MessageStatus   `json:"statuses"`
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// IncomingMessage is one inbound message in a webhook delivery.
type IncomingMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// MessageStatus is one delivery-status update in a webhook delivery.
type MessageStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"` // sent, delivered, read, failed
}

// VerifyWebhook handles GET /whatsapp/webhook, the Meta verification
// handshake: echo the challenge when the verify token matches.
func (h *WhatsAppHandler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		log.Println("Webhook verified")
		return c.SendString(challenge)
	}
	log.Println("Webhook verification failed")
	return c.Status(fiber.StatusForbidden).SendString("Forbidden")
}

// ReceiveWebhook handles POST /whatsapp/webhook. Message and status
// bookkeeping are side effects: failures are logged and never fail the
// acknowledgement.
func (h *WhatsAppHandler) ReceiveWebhook(c *fiber.Ctx) error {
	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}
	if payload.Object != "whatsapp_business_account" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook object",
		})
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				h.handleIncomingMessage(msg)
			}
			for _, status := range change.Value.Statuses {
				if err := h.store.UpdateChatMessageStatus(status.ID, status.Status); err != nil {
					log.Printf("Failed to update message %s status: %v", status.ID, err)
				}
			}
		}
	}

	return c.SendString("OK")
}

// handleIncomingMessage links an inbound message to the sender's active
// order and records it on the thread.
func (h *WhatsAppHandler) handleIncomingMessage(msg IncomingMessage) {
	from := "+" + msg.From
	log.Printf("📱 WhatsApp message from %s: %s", from, msg.Text.Body)

	// Restaurants also message this number; their traffic carries no order
	// context here, so it is only logged.
	if restaurant, err := h.store.GetRestaurantByPhone(from); err == nil {
		log.Printf("Message from restaurant %s", restaurant.ID)
		return
	}

	order, err := h.store.GetActiveOrderByCustomerPhone(from)
	if err != nil {
		log.Printf("No active order found for %s", from)
		return
	}

	receivedAt := time.Now()
	if secs, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
		receivedAt = time.Unix(secs, 0)
	}

	// The thread records phone numbers on both ends; prefer the restaurant's
	// WhatsApp number, falling back to its login phone.
	toNumber := ""
	if owner, err := h.store.GetRestaurant(order.RestaurantID); err == nil {
		toNumber = owner.WhatsAppPhone
		if toNumber == "" {
			toNumber = owner.Phone
		}
	}

	chat := &models.ChatMessage{
		OrderID:           order.ID,
		FromNumber:        from,
		ToNumber:          toNumber,
		MessageText:       msg.Text.Body,
		MessageType:       "text",
		WhatsAppMessageID: msg.ID,
		Direction:         models.MessageInbound,
	}
	if err := h.store.CreateChatMessage(chat); err != nil {
		log.Printf("Failed to save chat message: %v", err)
	}
	if err := h.store.TouchOrderMessage(order.ID, receivedAt); err != nil {
		log.Printf("Failed to bump order %s message stamp: %v", order.ID, err)
	}
}

// SendMessage handles POST /whatsapp/send-message
func (h *WhatsAppHandler) SendMessage(c *fiber.Ctx) error {
	var req struct {
		To      string `json:"to"`
		Message string `json:"message"`
		OrderID string `json:"orderId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.To == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Recipient and message are required",
		})
	}
	if h.client == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "WhatsApp API not configured",
		})
	}

	messageID, err := h.client.SendText(c.Context(), req.To, req.Message)
	if err != nil {
		var apiErr *services.WhatsAppAPIError
		if errors.As(err, &apiErr) {
			// Pass the provider's status through to the caller.
			return c.Status(apiErr.StatusCode).JSON(fiber.Map{
				"error":   "Failed to send message",
				"details": apiErr.Body,
			})
		}
		log.Printf("Error in send-message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send message",
		})
	}

	if req.OrderID != "" && messageID != "" {
		chat := &models.ChatMessage{
			OrderID:           req.OrderID,
			ToNumber:          req.To,
			MessageText:       req.Message,
			MessageType:       "text",
			WhatsAppMessageID: messageID,
			Direction:         models.MessageOutbound,
		}
		if err := h.store.CreateChatMessage(chat); err != nil {
			log.Printf("Failed to save outbound chat message: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"messageId": messageID,
	})
}
