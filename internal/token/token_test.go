package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movescrow/movescrow-backend/internal/token"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := token.New("")

	tok, expiresAt, err := codec.Issue("+2348012345678", "order-42", 24)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	payload, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "+2348012345678", payload.Phone)
	assert.Equal(t, "order-42", payload.OrderID)
	assert.Equal(t, token.PurposeRestaurantSession, payload.Type)
	assert.Equal(t, expiresAt.Unix(), payload.Exp)
}

func TestIssueWithoutOrderScope(t *testing.T) {
	codec := token.New("")

	tok, _, err := codec.Issue("+2348012345678", "", 1)
	require.NoError(t, err)

	payload, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Empty(t, payload.OrderID)
}

func TestVerifyRejectsZeroTTL(t *testing.T) {
	codec := token.New("")

	tok, _, err := codec.Issue("+2348012345678", "", 0)
	require.NoError(t, err)

	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsNegativeTTL(t *testing.T) {
	codec := token.New("")

	tok, _, err := codec.Issue("+2348012345678", "order-1", -1)
	require.NoError(t, err)

	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	codec := token.New("")

	for _, tok := range []string{
		"",
		"not-base64!!!",
		"aGVsbG8gd29ybGQ=", // valid base64, not JSON
		"e30=",             // {} - structurally incomplete
	} {
		_, err := codec.Verify(tok)
		assert.ErrorIs(t, err, token.ErrTokenInvalid, "token %q", tok)
	}
}

func TestSignedRoundTrip(t *testing.T) {
	codec := token.New("test-secret")

	tok, expiresAt, err := codec.Issue("+2348012345678", "order-9", 24)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	payload, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "+2348012345678", payload.Phone)
	assert.Equal(t, "order-9", payload.OrderID)
}

func TestSignedRejectsTampering(t *testing.T) {
	codec := token.New("test-secret")

	tok, _, err := codec.Issue("+2348012345678", "", 24)
	require.NoError(t, err)

	other := token.New("different-secret")
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestSignedCodecStillAcceptsUnsignedTokens(t *testing.T) {
	unsigned := token.New("")
	tok, _, err := unsigned.Issue("+2348012345678", "", 24)
	require.NoError(t, err)

	signed := token.New("test-secret")
	payload, err := signed.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "+2348012345678", payload.Phone)
}

func TestStrictCodecRejectsUnsignedTokens(t *testing.T) {
	unsigned := token.New("")
	tok, _, err := unsigned.Issue("+2348012345678", "", 24)
	require.NoError(t, err)

	strict := token.NewStrict("test-secret")
	_, err = strict.Verify(tok)
	assert.ErrorIs(t, err, token.ErrTokenInvalid)

	// Its own signed tokens still verify.
	signedTok, _, err := strict.Issue("+2348012345678", "order-3", 24)
	require.NoError(t, err)
	payload, err := strict.Verify(signedTok)
	require.NoError(t, err)
	assert.Equal(t, "order-3", payload.OrderID)
}

func TestSignedExpiry(t *testing.T) {
	codec := token.New("test-secret")

	tok, _, err := codec.Issue("+2348012345678", "", -1)
	require.NoError(t, err)

	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
}
