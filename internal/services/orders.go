package services

import (
	"errors"
	"math"

	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/storage"
	"github.com/movescrow/movescrow-backend/internal/token"
)

// Restaurant-side order actions.
const (
	ActionAccept   = "accept"
	ActionReject   = "reject"
	ActionSetPrice = "set-price"
)

// Fee policy: 5% platform fee on the food amount plus a fixed delivery fee in
// minor currency units.
const (
	PlatformFeeRate = 0.05
	DeliveryFee     = 500.0
)

// transitions is the single table of legal restaurant-side moves:
// current status -> action -> next status. Adding a transition means adding a
// row here, not touching handlers.
var transitions = map[string]map[string]string{
	models.OrderStatusPending: {
		ActionAccept: models.OrderStatusAccepted,
		ActionReject: models.OrderStatusRejected,
	},
	models.OrderStatusAccepted: {
		ActionSetPrice: models.OrderStatusPaymentPending,
	},
}

// nextStatus validates an action against the transition table.
func nextStatus(current, action string) (string, error) {
	if next, ok := transitions[current][action]; ok {
		return next, nil
	}
	return "", &TransitionError{Action: action, Status: current}
}

// PriceBreakdown is returned to the caller so the notification layer renders
// exactly what was stored, with no recomputation drift.
type PriceBreakdown struct {
	FoodAmount  float64 `json:"food_amount"`
	PlatformFee float64 `json:"platform_fee"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
	ReadyTime   int     `json:"ready_time"`
}

// OrderService guards every order mutation with ownership verification and
// the transition table. Status writes are conditional on the status the
// precondition saw, so a concurrent transition loses cleanly instead of
// overwriting.
type OrderService struct {
	store storage.Store
	codec *token.Codec
}

func NewOrderService(store storage.Store, codec *token.Codec) *OrderService {
	return &OrderService{store: store, codec: codec}
}

// Authorize resolves the session token to a phone, the phone to a restaurant,
// and requires that restaurant to own the order. Returns ErrUnauthorized for
// a bad token, storage.ErrNotFound for a missing order, ErrForbidden for an
// ownership mismatch.
func (s *OrderService) Authorize(sessionToken, orderID string) (*models.Order, *models.Restaurant, error) {
	payload, err := s.codec.Verify(sessionToken)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}

	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, nil, err
	}

	restaurant, err := s.store.GetRestaurantByPhone(payload.Phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrForbidden
		}
		return nil, nil, err
	}
	if restaurant.ID != order.RestaurantID {
		return nil, nil, ErrForbidden
	}
	return order, restaurant, nil
}

// Accept moves a pending order to accepted. Amount fields are untouched.
func (s *OrderService) Accept(sessionToken, orderID string) (*models.Order, error) {
	order, _, err := s.Authorize(sessionToken, orderID)
	if err != nil {
		return nil, err
	}

	next, err := nextStatus(order.Status, ActionAccept)
	if err != nil {
		return nil, err
	}

	if err := s.apply(order, ActionAccept, next, map[string]interface{}{
		"status": next,
	}); err != nil {
		return nil, err
	}
	return s.store.GetOrder(orderID)
}

// Reject moves a pending order to rejected, recording the mandatory reason.
// Reason presence is validated by the handler; this layer only guards state.
func (s *OrderService) Reject(sessionToken, orderID, reason string) error {
	order, _, err := s.Authorize(sessionToken, orderID)
	if err != nil {
		return err
	}

	next, err := nextStatus(order.Status, ActionReject)
	if err != nil {
		return err
	}

	return s.apply(order, ActionReject, next, map[string]interface{}{
		"status":           next,
		"rejection_reason": reason,
	})
}

// SetPrice prices an accepted order and parks it in payment_pending. The
// computed breakdown is persisted and returned.
func (s *OrderService) SetPrice(sessionToken, orderID string, price float64, readyTime int) (*PriceBreakdown, error) {
	order, _, err := s.Authorize(sessionToken, orderID)
	if err != nil {
		return nil, err
	}

	next, err := nextStatus(order.Status, ActionSetPrice)
	if err != nil {
		return nil, err
	}

	platformFee := math.Round(price * PlatformFeeRate)
	breakdown := &PriceBreakdown{
		FoodAmount:  price,
		PlatformFee: platformFee,
		DeliveryFee: DeliveryFee,
		Total:       price + platformFee + DeliveryFee,
		ReadyTime:   readyTime,
	}

	if err := s.apply(order, ActionSetPrice, next, map[string]interface{}{
		"status":       next,
		"total_amount": price,
		"platform_fee": platformFee,
		"delivery_fee": DeliveryFee,
		"ready_time":   readyTime,
	}); err != nil {
		return nil, err
	}
	return breakdown, nil
}

// Messages returns the order's chat thread, oldest first. Same ownership
// requirement as every other order read.
func (s *OrderService) Messages(sessionToken, orderID string) ([]*models.ChatMessage, error) {
	if _, _, err := s.Authorize(sessionToken, orderID); err != nil {
		return nil, err
	}
	return s.store.ListChatMessages(orderID)
}

// apply performs the conditional status write. When the row no longer matches
// the status the precondition saw, the current status is re-read and reported
// as the transition failure.
func (s *OrderService) apply(order *models.Order, action, next string, updates map[string]interface{}) error {
	applied, err := s.store.UpdateOrderIfStatus(order.ID, order.Status, updates)
	if err != nil {
		return err
	}
	if !applied {
		current, readErr := s.store.GetOrder(order.ID)
		if readErr != nil {
			return readErr
		}
		return &TransitionError{Action: action, Status: current.Status}
	}
	return nil
}
