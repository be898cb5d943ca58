package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses. The restaurant side only drives the first four; paid and
// later stages are advanced by the payment flow.
const (
	OrderStatusPending        = "pending"
	OrderStatusAccepted       = "accepted"
	OrderStatusRejected       = "rejected"
	OrderStatusPaymentPending = "payment_pending"
	OrderStatusPaid           = "paid"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusCompleted      = "completed"
)

// Order is a customer order owned by exactly one restaurant. Status is only
// mutated through the order service's transition table.
type Order struct {
	ID           string `json:"id" gorm:"primaryKey"`
	RestaurantID string `json:"restaurant_id" gorm:"index;not null"`
	OrderRef     string `json:"order_ref"`

	CustomerCode     string `json:"customer_code"`
	CustomerWhatsApp string `json:"customer_whatsapp" gorm:"index"`

	Status          string  `json:"status" gorm:"default:pending"`
	RejectionReason string  `json:"rejection_reason"`
	TotalAmount     float64 `json:"total_amount"`
	PlatformFee     float64 `json:"platform_fee"`
	DeliveryFee     float64 `json:"delivery_fee"`
	ReadyTime       int     `json:"ready_time"` // minutes until ready

	LastMessageAt       *time.Time `json:"last_message_at"`
	UnreadMessagesCount int        `json:"unread_messages_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}
