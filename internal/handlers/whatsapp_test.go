package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movescrow/movescrow-backend/internal/models"
)

func TestWebhookVerificationHandshake(t *testing.T) {
	app, _ := newTestApp(t)

	q := url.Values{}
	q.Set("hub.mode", "subscribe")
	q.Set("hub.verify_token", "movescrow00secret")
	q.Set("hub.challenge", "challenge-123")

	req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?"+q.Encode(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Equal(t, "challenge-123", body)
}

func TestWebhookVerificationWrongToken(t *testing.T) {
	app, _ := newTestApp(t)

	q := url.Values{}
	q.Set("hub.mode", "subscribe")
	q.Set("hub.verify_token", "wrong")
	q.Set("hub.challenge", "challenge-123")

	req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?"+q.Encode(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebhookRejectsUnknownObject(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := postJSON(t, app, "/whatsapp/webhook", map[string]interface{}{
		"object": "page",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid webhook object", body["error"])
}

func TestWebhookLinksInboundMessageToActiveOrder(t *testing.T) {
	app, store := newTestApp(t)

	restaurant, err := store.CreateRestaurant(&models.Restaurant{Phone: "+2348010000001"})
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{
		RestaurantID:     restaurant.ID,
		CustomerWhatsApp: "+2348099990000",
		Status:           models.OrderStatusPaid,
	})
	require.NoError(t, err)

	payload := map[string]interface{}{
		"object": "whatsapp_business_account",
		"entry": []map[string]interface{}{{
			"changes": []map[string]interface{}{{
				"value": map[string]interface{}{
					"messages": []map[string]interface{}{{
						"from":      "2348099990000",
						"id":        "wamid.1",
						"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
						"text":      map[string]string{"body": "Where is my food?"},
					}},
				},
			}},
		}},
	}

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/whatsapp/webhook", payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageAt)
	assert.Equal(t, 1, got.UnreadMessagesCount)
}

func TestOrderMessagesThread(t *testing.T) {
	app, store := newTestApp(t)

	// Owner logs in; their restaurant record gets a WhatsApp number.
	_, body := postJSON(t, app, "/auth/verify-otp", map[string]string{
		"phone": "+2348010000001",
		"otp":   "123456",
	})
	tok := body["token"].(string)

	owner, err := store.GetRestaurantByPhone("+2348010000001")
	require.NoError(t, err)
	owner.WhatsAppPhone = "+2348010000002"
	require.NoError(t, store.UpdateRestaurant(owner))

	order, err := store.CreateOrder(&models.Order{
		RestaurantID:     owner.ID,
		CustomerWhatsApp: "+2348099990000",
		Status:           models.OrderStatusPaid,
	})
	require.NoError(t, err)

	payload := map[string]interface{}{
		"object": "whatsapp_business_account",
		"entry": []map[string]interface{}{{
			"changes": []map[string]interface{}{{
				"value": map[string]interface{}{
					"messages": []map[string]interface{}{{
						"from": "2348099990000",
						"id":   "wamid.thread-1",
						"text": map[string]string{"body": "Where is my food?"},
					}},
				},
			}},
		}},
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/whatsapp/webhook", payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = getJSON(t, app, "/orders/"+order.ID+"/messages?session="+url.QueryEscape(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	messages := body["messages"].([]interface{})
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "Where is my food?", msg["message_text"])
	assert.Equal(t, "+2348099990000", msg["from_number"])
	// The thread records the restaurant's contact number, not its id.
	assert.Equal(t, "+2348010000002", msg["to_number"])
	assert.Equal(t, models.MessageInbound, msg["direction"])

	// A different restaurant's session cannot read the thread.
	_, body = postJSON(t, app, "/auth/verify-otp", map[string]string{
		"phone": "+2348010000009",
		"otp":   "123456",
	})
	otherTok := body["token"].(string)
	resp, _ = getJSON(t, app, "/orders/"+order.ID+"/messages?session="+url.QueryEscape(otherTok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOrderMessagesEmptyThread(t *testing.T) {
	app, store := newTestApp(t)

	_, body := postJSON(t, app, "/auth/verify-otp", map[string]string{
		"phone": "+2348010000001",
		"otp":   "123456",
	})
	tok := body["token"].(string)

	owner, err := store.GetRestaurantByPhone("+2348010000001")
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{RestaurantID: owner.ID})
	require.NoError(t, err)

	resp, body := getJSON(t, app, "/orders/"+order.ID+"/messages?session="+url.QueryEscape(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	messages, ok := body["messages"].([]interface{})
	require.True(t, ok, "messages must be a JSON array, got %T", body["messages"])
	assert.Empty(t, messages)
}

func TestWebhookIgnoresMessageWithoutActiveOrder(t *testing.T) {
	app, _ := newTestApp(t)

	payload := map[string]interface{}{
		"object": "whatsapp_business_account",
		"entry": []map[string]interface{}{{
			"changes": []map[string]interface{}{{
				"value": map[string]interface{}{
					"messages": []map[string]interface{}{{
						"from": "2348099990000",
						"id":   "wamid.2",
						"text": map[string]string{"body": "hello"},
					}},
				},
			}},
		}},
	}

	// Unmatched traffic is still acknowledged; Meta retries on anything else.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/whatsapp/webhook", payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSendMessageWithoutClient(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := postJSON(t, app, "/whatsapp/send-message", map[string]string{
		"to":      "+2348099990000",
		"message": "hello",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "WhatsApp API not configured", body["error"])
}

func TestSendMessageValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := postJSON(t, app, "/whatsapp/send-message", map[string]string{
		"to": "+2348099990000",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Recipient and message are required", body["error"])
}
