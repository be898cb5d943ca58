package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the session token is missing, malformed, or expired.
	ErrUnauthorized = errors.New("invalid or expired session token")
	// ErrForbidden means the session is valid but the restaurant does not own
	// the target order.
	ErrForbidden = errors.New("unauthorized")

	// OTP verification outcomes.
	ErrOTPNotFound = errors.New("OTP not found")
	ErrOTPExpired  = errors.New("OTP expired")
	ErrOTPMismatch = errors.New("invalid OTP")
)

// TransitionError reports an order action attempted from the wrong status.
// The message names the status the order is actually in.
type TransitionError struct {
	Action string
	Status string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %q", e.Action, e.Status)
}
