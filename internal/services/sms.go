package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/movescrow/movescrow-backend/internal/config"
)

// Outbound provider calls are bounded rather than left to hang; a stuck
// provider falls through to the next one in the chain.
const providerTimeout = 2 * time.Second

const termiiSendURL = "https://api.ng.termii.com/api/sms/send"

// SMSProvider is one delivery strategy in the fallback chain.
type SMSProvider interface {
	Name() string
	Send(ctx context.Context, to, message string) error
}

// SMSSender walks an ordered list of providers and stops at the first
// success. Failure reasons are aggregated so operators can see which stages
// broke.
type SMSSender struct {
	providers []SMSProvider
}

// NewSMSSender builds the provider chain from resolved configuration:
// Termii first, Twilio as fallback. Either may be absent.
func NewSMSSender(cfg config.Config) *SMSSender {
	var providers []SMSProvider
	if cfg.Termii != nil {
		providers = append(providers, &TermiiProvider{
			apiKey:   cfg.Termii.APIKey,
			senderID: cfg.Termii.SenderID,
			client:   &http.Client{Timeout: providerTimeout},
			url:      termiiSendURL,
		})
	}
	if cfg.Twilio != nil {
		providers = append(providers, NewTwilioProvider(*cfg.Twilio))
	}
	return &SMSSender{providers: providers}
}

// Configured reports whether at least one provider is available.
func (s *SMSSender) Configured() bool {
	return len(s.providers) > 0
}

// Send tries each provider in order. The returned error aggregates every
// provider's failure when all of them fail.
func (s *SMSSender) Send(ctx context.Context, to, message string) error {
	if len(s.providers) == 0 {
		return fmt.Errorf("no SMS provider configured")
	}

	var failures []string
	for _, p := range s.providers {
		err := p.Send(ctx, to, message)
		if err == nil {
			log.Printf("✅ SMS sent to %s via %s", to, p.Name())
			return nil
		}
		log.Printf("❌ SMS via %s failed: %v", p.Name(), err)
		failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
	}
	return fmt.Errorf("all SMS providers failed: %s", strings.Join(failures, "; "))
}

// TermiiProvider sends SMS through the Termii REST API. Termii has no Go SDK,
// so this is a plain HTTP client.
type TermiiProvider struct {
	apiKey   string
	senderID string
	client   *http.Client
	url      string
}

func (p *TermiiProvider) Name() string { return "termii" }

func (p *TermiiProvider) Send(ctx context.Context, to, message string) error {
	payload := map[string]string{
		"to":      to,
		"from":    p.senderID,
		"sms":     message,
		"type":    "plain",
		"channel": "generic",
		"api_key": p.apiKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("termii API error: %d - %s", resp.StatusCode, string(detail))
	}
	return nil
}

// TwilioProvider sends SMS through the Twilio REST client.
type TwilioProvider struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioProvider constructs the shared Twilio client once; it is reused
// across requests.
func NewTwilioProvider(cfg config.TwilioConfig) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioProvider{client: client, from: cfg.FromNumber}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) Send(ctx context.Context, to, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(p.from)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := p.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}
	return nil
}
