package config

import "os"

// DefaultVerifyToken is accepted by the WhatsApp webhook verification handshake
// when WHATSAPP_VERIFY_TOKEN is unset. Override it in any real deployment.
const DefaultVerifyToken = "movescrow00secret"

// TermiiConfig holds credentials for the Termii SMS API.
type TermiiConfig struct {
	APIKey   string
	SenderID string
}

// TwilioConfig holds credentials for the Twilio SMS API.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// WhatsAppConfig holds credentials for the WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	AppSecret     string
}

// Config is the resolved process configuration. Provider capabilities are
// pointers: nil means the provider is not configured, and nothing downstream
// re-reads the environment to find out.
type Config struct {
	Port           string
	DatabaseURL    string
	UseMemoryStore bool

	AppURL      string
	TokenSecret string
	// TokenStrict rejects legacy unsigned tokens once a secret is in use.
	TokenStrict bool
	OTPTestMode bool

	VerifyToken string

	Termii   *TermiiConfig
	Twilio   *TwilioConfig
	WhatsApp *WhatsAppConfig
}

// Load resolves all recognized environment options once at startup.
func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		UseMemoryStore: os.Getenv("USE_MEMORY_STORE") == "true",
		AppURL:         getEnv("APP_URL", "https://movescrow.com"),
		TokenSecret:    os.Getenv("SESSION_TOKEN_SECRET"),
		TokenStrict:    os.Getenv("SESSION_TOKEN_STRICT") == "true",
		OTPTestMode:    os.Getenv("OTP_TEST_MODE") == "true",
		VerifyToken:    getEnv("WHATSAPP_VERIFY_TOKEN", DefaultVerifyToken),
	}

	if key := os.Getenv("TERMII_API_KEY"); key != "" {
		cfg.Termii = &TermiiConfig{
			APIKey:   key,
			SenderID: getEnv("TERMII_SENDER_ID", "Movescrow"),
		}
	}

	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")
	if sid != "" && authToken != "" && from != "" {
		cfg.Twilio = &TwilioConfig{AccountSID: sid, AuthToken: authToken, FromNumber: from}
	}

	waToken := os.Getenv("WHATSAPP_ACCESS_TOKEN")
	waPhoneID := os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
	if waToken != "" && waPhoneID != "" {
		cfg.WhatsApp = &WhatsAppConfig{
			AccessToken:   waToken,
			PhoneNumberID: waPhoneID,
			AppSecret:     os.Getenv("WHATSAPP_APP_SECRET"),
		}
	}

	return cfg
}

// SMSConfigured reports whether at least one SMS provider has credentials.
func (c Config) SMSConfigured() bool {
	return c.Termii != nil || c.Twilio != nil
}

// OTPSentinelMode reports whether login OTPs use the fixed test code instead
// of random codes and outbound delivery.
func (c Config) OTPSentinelMode() bool {
	return c.OTPTestMode || !c.SMSConfigured()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
