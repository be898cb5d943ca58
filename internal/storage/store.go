package storage

import (
	"errors"
	"time"

	"github.com/movescrow/movescrow-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations the services depend on. The GORM
// store backs production; the memory store backs tests and USE_MEMORY_STORE.
type Store interface {
	// Restaurant operations
	CreateRestaurant(restaurant *models.Restaurant) (*models.Restaurant, error)
	GetRestaurant(id string) (*models.Restaurant, error)
	GetRestaurantByPhone(phone string) (*models.Restaurant, error)
	UpdateRestaurant(restaurant *models.Restaurant) error

	// OTP challenge operations; at most one challenge per phone (upsert)
	UpsertOTPChallenge(phone, code string, expiresAt time.Time) error
	GetOTPChallenge(phone string) (*models.OTPChallenge, error)
	ClearOTPChallenge(phone string) error
	DeleteExpiredOTPChallenges() error

	// Session operations
	CreateSession(session *models.RestaurantSession) error
	GetSessionByToken(tok string) (*models.RestaurantSession, error)
	DeleteSession(tok string) error

	// Order operations
	CreateOrder(order *models.Order) (*models.Order, error)
	GetOrder(id string) (*models.Order, error)
	// UpdateOrderIfStatus applies updates only when the order's status still
	// equals expected, reporting whether a row was changed. This is the
	// conditional write that closes the read-then-write race on transitions.
	UpdateOrderIfStatus(id, expected string, updates map[string]interface{}) (bool, error)
	// GetActiveOrderByCustomerPhone finds the newest order in an open status
	// for the customer's WhatsApp number, for linking inbound chat messages.
	GetActiveOrderByCustomerPhone(phone string) (*models.Order, error)
	TouchOrderMessage(id string, at time.Time) error

	// Pickup OTP operations; at most one code per pickup (upsert)
	UpsertPickupOTP(pickupID, code string, expiresAt time.Time) error
	GetPickupOTP(pickupID string) (*models.PickupOTP, error)
	MarkPickupOTPUsed(pickupID string, at time.Time) error
	DeleteExpiredPickupOTPs() error

	// Chat message operations; writes are non-critical side effects
	CreateChatMessage(msg *models.ChatMessage) error
	ListChatMessages(orderID string) ([]*models.ChatMessage, error)
	UpdateChatMessageStatus(whatsappMessageID, status string) error
}
