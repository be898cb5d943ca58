package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification preference values for a restaurant.
const (
	NotifyBySMS      = "sms"
	NotifyByWhatsApp = "whatsapp"
)

// Restaurant represents a restaurant account, keyed by phone number.
// Created lazily on the first successful OTP login.
type Restaurant struct {
	ID            string `json:"id" gorm:"primaryKey"`
	Name          string `json:"name"`
	Phone         string `json:"phone" gorm:"uniqueIndex;not null"`
	WhatsAppPhone string `json:"whatsapp_phone"`
	Address       string `json:"address"`

	NotificationPreference string `json:"notification_preference" gorm:"default:sms"`
	Status                 string `json:"status" gorm:"default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID and a placeholder name derived from the phone suffix.
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Name == "" {
		r.Name = PlaceholderName(r.Phone)
	}
	if r.NotificationPreference == "" {
		r.NotificationPreference = NotifyBySMS
	}
	return nil
}

// PlaceholderName builds the default display name from the last 4 phone digits.
func PlaceholderName(phone string) string {
	digits := strings.TrimSpace(phone)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return fmt.Sprintf("Restaurant %s", digits)
}
