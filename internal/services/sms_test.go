package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(ctx context.Context, to, message string) error {
	f.calls++
	return f.err
}

func TestSendStopsAtFirstSuccess(t *testing.T) {
	first := &fakeProvider{name: "termii"}
	second := &fakeProvider{name: "twilio"}
	sender := &SMSSender{providers: []SMSProvider{first, second}}

	require.NoError(t, sender.Send(context.Background(), "+2348010000001", "hello"))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestSendFallsThroughOnFailure(t *testing.T) {
	first := &fakeProvider{name: "termii", err: errors.New("rate limited")}
	second := &fakeProvider{name: "twilio"}
	sender := &SMSSender{providers: []SMSProvider{first, second}}

	require.NoError(t, sender.Send(context.Background(), "+2348010000001", "hello"))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestSendAggregatesAllFailures(t *testing.T) {
	first := &fakeProvider{name: "termii", err: errors.New("rate limited")}
	second := &fakeProvider{name: "twilio", err: errors.New("auth failed")}
	sender := &SMSSender{providers: []SMSProvider{first, second}}

	err := sender.Send(context.Background(), "+2348010000001", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "termii: rate limited")
	assert.Contains(t, err.Error(), "twilio: auth failed")
}

func TestSendWithNoProviders(t *testing.T) {
	sender := &SMSSender{}

	assert.False(t, sender.Configured())
	assert.Error(t, sender.Send(context.Background(), "+2348010000001", "hello"))
}

func TestTermiiProviderSendsPayload(t *testing.T) {
	var gotPath string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := &TermiiProvider{
		apiKey:   "key",
		senderID: "Movescrow",
		client:   server.Client(),
		url:      server.URL + "/api/sms/send",
	}

	require.NoError(t, p.Send(context.Background(), "+2348010000001", "hello"))
	assert.Equal(t, "/api/sms/send", gotPath)
	assert.Equal(t, "application/json", gotContentType)
}

func TestTermiiProviderSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	p := &TermiiProvider{
		client: server.Client(),
		url:    server.URL,
	}

	err := p.Send(context.Background(), "+2348010000001", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}
