package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPChallenge is the outstanding login code for a phone number. At most one
// challenge exists per phone; requesting a new code overwrites the old one.
// The code is cleared on successful verification (single-use).
type OTPChallenge struct {
	gorm.Model
	Phone     string    `gorm:"uniqueIndex;not null"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

// Consumed reports whether the challenge has already been used.
func (c *OTPChallenge) Consumed() bool {
	return c.Code == ""
}

// PickupOTP is the hand-off verification code for a pickup. Same single-use
// semantics as OTPChallenge with a 5 minute window.
type PickupOTP struct {
	gorm.Model
	PickupID  string    `gorm:"uniqueIndex;not null"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
}
