package services

import (
	"errors"
	"log"
	"time"

	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/storage"
	"github.com/movescrow/movescrow-backend/internal/token"
)

// SessionTTLHours is the lifetime of login and magic-link sessions.
const SessionTTLHours = 24

// SessionService correlates self-contained session tokens with server-side
// session records. The token answers "is this structurally fresh" without a
// database hit; the record is the authoritative expiry and revocation point.
type SessionService struct {
	store storage.Store
	codec *token.Codec
}

func NewSessionService(store storage.Store, codec *token.Codec) *SessionService {
	return &SessionService{store: store, codec: codec}
}

// Issue mints a session token for the restaurant, optionally scoped to one
// order, and persists the matching record. The record's expires_at is the
// exact expiry embedded in the token.
func (s *SessionService) Issue(restaurant *models.Restaurant, orderID string, ttlHours int) (string, time.Time, error) {
	tok, expiresAt, err := s.codec.Issue(restaurant.Phone, orderID, ttlHours)
	if err != nil {
		return "", time.Time{}, err
	}

	session := &models.RestaurantSession{
		RestaurantID: restaurant.ID,
		Token:        tok,
		ExpiresAt:    expiresAt,
	}
	if err := s.store.CreateSession(session); err != nil {
		return "", time.Time{}, err
	}
	return tok, expiresAt, nil
}

// Lookup resolves a token against the session table. An expired record is
// deleted on the spot (lazy cleanup; there is no background sweep). Returns
// storage.ErrNotFound for unknown tokens and ErrUnauthorized for expired ones.
func (s *SessionService) Lookup(tok string) (*models.RestaurantSession, *models.Restaurant, error) {
	session, err := s.store.GetSessionByToken(tok)
	if err != nil {
		return nil, nil, err
	}

	if session.Expired(time.Now()) {
		if err := s.store.DeleteSession(tok); err != nil {
			log.Printf("Failed to delete expired session: %v", err)
		}
		return nil, nil, ErrUnauthorized
	}

	restaurant, err := s.store.GetRestaurant(session.RestaurantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, storage.ErrNotFound
		}
		return nil, nil, err
	}
	return session, restaurant, nil
}
