package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/storage"
	"github.com/movescrow/movescrow-backend/internal/token"
)

func TestMagicLinkFormat(t *testing.T) {
	n := &Notifier{appURL: "https://app.example.com"}

	link := n.MagicLink("tok+with=padding", "order-1")
	assert.Equal(t, "https://app.example.com/restaurant/auth.html?token=tok%2Bwith%3Dpadding&order=order-1", link)

	link = n.MagicLink("plain", "")
	assert.Equal(t, "https://app.example.com/restaurant/auth.html?token=plain", link)
}

func TestSendOrderNotificationSessionSurvivesDeliveryFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	codec := token.New("")
	sessions := NewSessionService(store, codec)

	// No SMS providers and no WhatsApp client: every channel is unavailable.
	n := NewNotifier(store, &SMSSender{}, nil, sessions, "https://app.example.com")

	restaurant, err := store.CreateRestaurant(&models.Restaurant{Phone: "+2348010000001"})
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{RestaurantID: restaurant.ID, OrderRef: "MOV-001"})
	require.NoError(t, err)

	result, err := n.SendOrderNotification(context.Background(), restaurant.ID, order.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no delivery channel configured")
	require.NotNil(t, result)
	require.NotEmpty(t, result.MagicLink)

	// The magic link's token must resolve to a live session even though no
	// message went out.
	parsed, err := url.Parse(result.MagicLink)
	require.NoError(t, err)
	tok := parsed.Query().Get("token")
	require.NotEmpty(t, tok)

	session, sessionRestaurant, err := sessions.Lookup(tok)
	require.NoError(t, err)
	assert.Equal(t, restaurant.ID, session.RestaurantID)
	assert.Equal(t, restaurant.ID, sessionRestaurant.ID)
}

func TestSendOrderNotificationUnknownRestaurant(t *testing.T) {
	store := storage.NewMemoryStore()
	sessions := NewSessionService(store, token.New(""))
	n := NewNotifier(store, &SMSSender{}, nil, sessions, "https://app.example.com")

	_, err := n.SendOrderNotification(context.Background(), "missing", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChannelOrderFollowsPreference(t *testing.T) {
	store := storage.NewMemoryStore()
	sessions := NewSessionService(store, token.New(""))

	sms := &SMSSender{providers: []SMSProvider{&fakeProvider{name: "termii"}}}
	wa := &WhatsAppClient{}
	n := NewNotifier(store, sms, wa, sessions, "https://app.example.com")

	restaurant := &models.Restaurant{
		Phone:                  "+2348010000001",
		WhatsAppPhone:          "+2348010000001",
		NotificationPreference: models.NotifyByWhatsApp,
	}
	attempts := n.channels(restaurant, "hello")
	require.Len(t, attempts, 2)
	assert.Equal(t, models.NotifyByWhatsApp, attempts[0].name)
	assert.Equal(t, models.NotifyBySMS, attempts[1].name)

	restaurant.NotificationPreference = models.NotifyBySMS
	attempts = n.channels(restaurant, "hello")
	require.Len(t, attempts, 2)
	assert.Equal(t, models.NotifyBySMS, attempts[0].name)
}
