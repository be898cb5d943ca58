package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movescrow/movescrow-backend/internal/storage"
)

func TestOTPSingleUse(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, false)

	require.NoError(t, store.UpsertOTPChallenge("+2348011111111", "654321", time.Now().Add(OTPTTL)))

	require.NoError(t, svc.Verify("+2348011111111", "654321"))

	// The code was cleared; the same submission must now fail.
	err := svc.Verify("+2348011111111", "654321")
	assert.ErrorIs(t, err, ErrOTPMismatch)
}

func TestOTPExpired(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, false)

	require.NoError(t, store.UpsertOTPChallenge("+2348011111111", "654321", time.Now().Add(-time.Second)))

	err := svc.Verify("+2348011111111", "654321")
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestOTPNotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, false)

	err := svc.Verify("+2348011111111", "654321")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPMismatch(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, false)

	require.NoError(t, store.UpsertOTPChallenge("+2348011111111", "654321", time.Now().Add(OTPTTL)))

	err := svc.Verify("+2348011111111", "111111")
	assert.ErrorIs(t, err, ErrOTPMismatch)

	// A wrong guess does not consume the challenge.
	require.NoError(t, svc.Verify("+2348011111111", "654321"))
}

func TestOTPSentinelAcceptedInTestMode(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, true)

	// No challenge stored at all; sentinel short-circuits the lookup.
	require.NoError(t, svc.Verify("+2348011111111", SentinelOTP))
}

func TestOTPSentinelMissFallsThroughToLookup(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, true)

	// A real code issued despite test mode must still verify.
	require.NoError(t, store.UpsertOTPChallenge("+2348011111111", "654321", time.Now().Add(OTPTTL)))
	require.NoError(t, svc.Verify("+2348011111111", "654321"))
}

func TestOTPRequestTestMode(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, true)

	result, err := svc.Request(context.Background(), "+2348011111111")
	require.NoError(t, err)
	assert.True(t, result.TestMode)
	assert.True(t, result.Persisted)
	assert.False(t, result.Delivered)
	assert.Equal(t, 600, result.ExpiresIn)

	challenge, err := store.GetOTPChallenge("+2348011111111")
	require.NoError(t, err)
	assert.Equal(t, SentinelOTP, challenge.Code)
}

func TestOTPRequestSupersedesPriorCode(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &SMSSender{}, true)

	_, err := svc.Request(context.Background(), "+2348011111111")
	require.NoError(t, err)
	_, err = svc.Request(context.Background(), "+2348011111111")
	require.NoError(t, err)

	// Upsert by phone: still exactly one challenge, the latest.
	challenge, err := store.GetOTPChallenge("+2348011111111")
	require.NoError(t, err)
	assert.False(t, challenge.Consumed())
}
