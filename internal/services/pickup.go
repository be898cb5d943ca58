package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/movescrow/movescrow-backend/internal/storage"
	"github.com/movescrow/movescrow-backend/internal/utils"
)

// PickupOTPTTL is the hand-off verification window, deliberately narrower
// than the login OTP's.
const PickupOTPTTL = 5 * time.Minute

// PickupService issues and verifies the physical hand-off codes. Same
// single-use and expiry invariants as the login OTP.
type PickupService struct {
	store storage.Store
	sms   *SMSSender
}

func NewPickupService(store storage.Store, sms *SMSSender) *PickupService {
	return &PickupService{store: store, sms: sms}
}

// Request generates a pickup code, upserts it (superseding any outstanding
// code for the pickup), and texts it to the releaser contact. Delivery
// failure is logged but does not invalidate the persisted code.
func (s *PickupService) Request(ctx context.Context, pickupID, contact string) (time.Time, error) {
	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to generate OTP: %w", err)
	}

	expiresAt := time.Now().Add(PickupOTPTTL)
	if err := s.store.UpsertPickupOTP(pickupID, code, expiresAt); err != nil {
		return time.Time{}, err
	}

	if contact != "" && s.sms.Configured() {
		sendCtx, cancel := context.WithTimeout(ctx, providerTimeout)
		defer cancel()
		message := fmt.Sprintf("Your Movescrow pickup OTP: %s. Valid for 5 minutes.", code)
		if err := s.sms.Send(sendCtx, contact, message); err != nil {
			log.Printf("❌ Pickup OTP delivery to %s failed: %v", contact, err)
		}
	}
	return expiresAt, nil
}

// Verify checks a submitted pickup code and stamps it used on success.
func (s *PickupService) Verify(pickupID, submitted string) error {
	otp, err := s.store.GetPickupOTP(pickupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrOTPNotFound
		}
		return err
	}

	if time.Now().After(otp.ExpiresAt) {
		return ErrOTPExpired
	}
	if otp.UsedAt != nil || otp.Code == "" || otp.Code != submitted {
		return ErrOTPMismatch
	}

	return s.store.MarkPickupOTPUsed(pickupID, time.Now())
}
