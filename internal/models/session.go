package models

import (
	"time"

	"gorm.io/gorm"
)

// RestaurantSession is the server-side record of an issued session token.
// The token itself carries its own expiry; this row is the revocation point
// and must agree with the embedded expiry at issuance. Expired rows are
// deleted lazily when found during verification.
type RestaurantSession struct {
	gorm.Model
	RestaurantID string    `json:"restaurant_id" gorm:"index;not null"`
	Token        string    `json:"token" gorm:"uniqueIndex;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
}

// Expired reports whether the session's authoritative expiry has passed.
func (s *RestaurantSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
