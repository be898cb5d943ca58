package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/movescrow/movescrow-backend/internal/config"
)

const graphAPIBase = "https://graph.facebook.com/v18.0"

// WhatsAppAPIError carries the Cloud API's status code and body so the relay
// endpoint can pass the provider status through.
type WhatsAppAPIError struct {
	StatusCode int
	Body       string
}

func (e *WhatsAppAPIError) Error() string {
	return fmt.Sprintf("whatsapp API error: %d - %s", e.StatusCode, e.Body)
}

// WhatsAppClient talks to the Meta WhatsApp Cloud API. One instance is
// constructed at startup and shared by every handler.
type WhatsAppClient struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	client        *http.Client
}

// NewWhatsAppClient returns nil when WhatsApp credentials are absent; callers
// receive the capability or nothing, and report misconfiguration themselves.
func NewWhatsAppClient(cfg *config.WhatsAppConfig) *WhatsAppClient {
	if cfg == nil {
		return nil
	}
	return &WhatsAppClient{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       graphAPIBase,
		client:        &http.Client{Timeout: providerTimeout},
	}
}

// SendText sends a plain text message and returns the provider message id.
func (w *WhatsAppClient) SendText(ctx context.Context, to, message string) (string, error) {
	// International format without "+" or spaces
	formatted := strings.ReplaceAll(strings.TrimPrefix(to, "+"), " ", "")

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                formatted,
		"type":              "text",
		"text":              map[string]string{"body": message},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.accessToken)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return "", &WhatsAppAPIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// Send delivers a message within the standard provider timeout. It satisfies
// the same attempt contract as the SMS providers so the notification
// dispatcher can chain channels uniformly.
func (w *WhatsAppClient) Send(to, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()
	_, err := w.SendText(ctx, to, message)
	return err
}
