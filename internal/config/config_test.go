package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TERMII_API_KEY", "TERMII_SENDER_ID",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER",
		"WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_APP_SECRET",
		"OTP_TEST_MODE", "WHATSAPP_VERIFY_TOKEN", "SESSION_TOKEN_SECRET",
		"SESSION_TOKEN_STRICT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg := Load()
	assert.Equal(t, DefaultVerifyToken, cfg.VerifyToken)
	assert.Nil(t, cfg.Termii)
	assert.Nil(t, cfg.Twilio)
	assert.Nil(t, cfg.WhatsApp)
	assert.False(t, cfg.SMSConfigured())

	// No SMS provider means the sentinel OTP is active regardless of the
	// explicit test-mode flag.
	assert.True(t, cfg.OTPSentinelMode())
}

func TestLoadTokenStrict(t *testing.T) {
	clearProviderEnv(t)

	cfg := Load()
	assert.False(t, cfg.TokenStrict)

	t.Setenv("SESSION_TOKEN_SECRET", "secret")
	t.Setenv("SESSION_TOKEN_STRICT", "true")
	cfg = Load()
	assert.Equal(t, "secret", cfg.TokenSecret)
	assert.True(t, cfg.TokenStrict)
}

func TestLoadTermii(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TERMII_API_KEY", "key-123")

	cfg := Load()
	require.NotNil(t, cfg.Termii)
	assert.Equal(t, "key-123", cfg.Termii.APIKey)
	assert.Equal(t, "Movescrow", cfg.Termii.SenderID)
	assert.True(t, cfg.SMSConfigured())
	assert.False(t, cfg.OTPSentinelMode())
}

func TestLoadTwilioRequiresAllThree(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")

	cfg := Load()
	assert.Nil(t, cfg.Twilio)

	t.Setenv("TWILIO_PHONE_NUMBER", "+15550001111")
	cfg = Load()
	require.NotNil(t, cfg.Twilio)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
}

func TestExplicitTestModeOverridesProviders(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TERMII_API_KEY", "key-123")
	t.Setenv("OTP_TEST_MODE", "true")

	cfg := Load()
	assert.True(t, cfg.SMSConfigured())
	assert.True(t, cfg.OTPSentinelMode())
}

func TestLoadWhatsApp(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")

	// Phone number ID is mandatory for the Cloud API.
	cfg := Load()
	assert.Nil(t, cfg.WhatsApp)

	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
	t.Setenv("WHATSAPP_APP_SECRET", "secret")
	cfg = Load()
	require.NotNil(t, cfg.WhatsApp)
	assert.Equal(t, "secret", cfg.WhatsApp.AppSecret)
}
