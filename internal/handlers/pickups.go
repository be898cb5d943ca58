package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/movescrow/movescrow-backend/internal/services"
)

// PickupHandler serves the hand-off OTP endpoints.
type PickupHandler struct {
	pickups *services.PickupService
}

// NewPickupHandler creates a new pickup handler.
func NewPickupHandler(pickups *services.PickupService) *PickupHandler {
	return &PickupHandler{pickups: pickups}
}

// RequestOTP handles POST /pickups/request-otp
func (h *PickupHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		PickupID string `json:"pickup_id"`
		Contact  string `json:"contact"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PickupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Pickup ID is required",
		})
	}

	expiresAt, err := h.pickups.Request(c.Context(), req.PickupID, req.Contact)
	if err != nil {
		log.Printf("Error in pickup request-otp: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"expires_at": expiresAt.Format(time.RFC3339),
		"message":    "OTP sent to releaser",
	})
}

// VerifyOTP handles POST /pickups/verify-otp
func (h *PickupHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		PickupID string `json:"pickup_id"`
		OTP      string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PickupID == "" || req.OTP == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Pickup ID and OTP are required",
		})
	}

	if err := h.pickups.Verify(req.PickupID, req.OTP); err != nil {
		switch {
		case errors.Is(err, services.ErrOTPNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "OTP not found. Please request a new OTP.",
			})
		case errors.Is(err, services.ErrOTPExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "OTP expired. Please request a new one.",
			})
		case errors.Is(err, services.ErrOTPMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid OTP",
			})
		default:
			log.Printf("Error in pickup verify-otp: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Pickup verified",
	})
}
