package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/storage"
)

// channelAttempt is one delivery strategy for an order notification.
type channelAttempt struct {
	name string
	send func() error
}

// NotificationResult reports how an order alert went out and the deep link it
// carried.
type NotificationResult struct {
	MagicLink string
	Method    string
}

// Notifier delivers order alerts to restaurants over their preferred channel,
// falling back to the other channel, with a magic link into the order view.
type Notifier struct {
	store    storage.Store
	sms      *SMSSender
	whatsapp *WhatsAppClient
	sessions *SessionService
	appURL   string
}

func NewNotifier(store storage.Store, sms *SMSSender, whatsapp *WhatsAppClient, sessions *SessionService, appURL string) *Notifier {
	return &Notifier{
		store:    store,
		sms:      sms,
		whatsapp: whatsapp,
		sessions: sessions,
		appURL:   appURL,
	}
}

// MagicLink builds the authenticated deep link for a session token, optionally
// landing on a specific order.
func (n *Notifier) MagicLink(tok, orderID string) string {
	link := fmt.Sprintf("%s/restaurant/auth.html?token=%s", n.appURL, url.QueryEscape(tok))
	if orderID != "" {
		link += "&order=" + url.QueryEscape(orderID)
	}
	return link
}

// SendOrderNotification creates a magic-link session for the restaurant and
// pushes the alert through its channels. The session row persists even when
// every delivery attempt fails; delivery failures are aggregated into the
// returned error for diagnostics.
func (n *Notifier) SendOrderNotification(ctx context.Context, restaurantID, orderID string) (*NotificationResult, error) {
	restaurant, err := n.store.GetRestaurant(restaurantID)
	if err != nil {
		return nil, err
	}
	order, err := n.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	tok, _, err := n.sessions.Issue(restaurant, orderID, SessionTTLHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	magicLink := n.MagicLink(tok, orderID)

	message := fmt.Sprintf(
		"Movescrow: You have a new order!\n\nOrder: %s\nCustomer: Order %s\nAmount: ₦%.0f\n\nView: %s",
		order.OrderRef, order.CustomerCode, order.TotalAmount, magicLink)

	result := &NotificationResult{MagicLink: magicLink}

	var failures []string
	for _, attempt := range n.channels(restaurant, message) {
		if err := attempt.send(); err != nil {
			log.Printf("❌ %s notification to restaurant %s failed: %v", attempt.name, restaurant.ID, err)
			failures = append(failures, fmt.Sprintf("%s: %v", attempt.name, err))
			continue
		}
		result.Method = attempt.name
		return result, nil
	}

	if len(failures) == 0 {
		failures = append(failures, "no delivery channel configured for restaurant")
	}
	return result, fmt.Errorf("failed to send notification: %s", strings.Join(failures, "; "))
}

// channels builds the ordered strategy list for a restaurant: preferred
// channel first, then the other one as fallback.
func (n *Notifier) channels(restaurant *models.Restaurant, message string) []channelAttempt {
	var smsAttempt, waAttempt *channelAttempt

	if restaurant.Phone != "" && n.sms.Configured() {
		smsAttempt = &channelAttempt{
			name: models.NotifyBySMS,
			send: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
				defer cancel()
				return n.sms.Send(ctx, restaurant.Phone, message+"\n\nReply STOP to opt out")
			},
		}
	}
	if restaurant.WhatsAppPhone != "" && n.whatsapp != nil {
		waAttempt = &channelAttempt{
			name: models.NotifyByWhatsApp,
			send: func() error {
				return n.whatsapp.Send(restaurant.WhatsAppPhone, message)
			},
		}
	}

	var attempts []channelAttempt
	if restaurant.NotificationPreference == models.NotifyByWhatsApp {
		for _, a := range []*channelAttempt{waAttempt, smsAttempt} {
			if a != nil {
				attempts = append(attempts, *a)
			}
		}
	} else {
		for _, a := range []*channelAttempt{smsAttempt, waAttempt} {
			if a != nil {
				attempts = append(attempts, *a)
			}
		}
	}
	return attempts
}
