package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/movescrow/movescrow-backend/internal/models"
)

// MemoryStore holds all data in memory. Used by tests and when
// USE_MEMORY_STORE=true (not for production).
type MemoryStore struct {
	mu sync.RWMutex

	restaurants map[string]*models.Restaurant // by id
	challenges  map[string]*models.OTPChallenge
	sessions    map[string]*models.RestaurantSession
	orders      map[string]*models.Order
	pickupOTPs  map[string]*models.PickupOTP
	messages    []*models.ChatMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		restaurants: make(map[string]*models.Restaurant),
		challenges:  make(map[string]*models.OTPChallenge),
		sessions:    make(map[string]*models.RestaurantSession),
		orders:      make(map[string]*models.Order),
		pickupOTPs:  make(map[string]*models.PickupOTP),
	}
}

// Restaurant operations

func (m *MemoryStore) CreateRestaurant(restaurant *models.Restaurant) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if restaurant.ID == "" {
		restaurant.ID = uuid.NewString()
	}
	if restaurant.Name == "" {
		restaurant.Name = models.PlaceholderName(restaurant.Phone)
	}
	if restaurant.NotificationPreference == "" {
		restaurant.NotificationPreference = models.NotifyBySMS
	}
	if restaurant.Status == "" {
		restaurant.Status = "active"
	}
	restaurant.CreatedAt = time.Now()
	restaurant.UpdatedAt = restaurant.CreatedAt

	m.restaurants[restaurant.ID] = restaurant
	return restaurant, nil
}

func (m *MemoryStore) GetRestaurant(id string) (*models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	restaurant, ok := m.restaurants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return restaurant, nil
}

func (m *MemoryStore) GetRestaurantByPhone(phone string) (*models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, restaurant := range m.restaurants {
		if restaurant.Phone == phone {
			return restaurant, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateRestaurant(restaurant *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.restaurants[restaurant.ID]; !ok {
		return ErrNotFound
	}
	restaurant.UpdatedAt = time.Now()
	m.restaurants[restaurant.ID] = restaurant
	return nil
}

// OTP challenge operations

func (m *MemoryStore) UpsertOTPChallenge(phone, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.challenges[phone] = &models.OTPChallenge{
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *MemoryStore) GetOTPChallenge(phone string) (*models.OTPChallenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	challenge, ok := m.challenges[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return challenge, nil
}

func (m *MemoryStore) ClearOTPChallenge(phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if challenge, ok := m.challenges[phone]; ok {
		challenge.Code = ""
	}
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPChallenges() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for phone, challenge := range m.challenges {
		if now.After(challenge.ExpiresAt) {
			delete(m.challenges, phone)
		}
	}
	return nil
}

// Session operations

func (m *MemoryStore) CreateSession(session *models.RestaurantSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.Token] = session
	return nil
}

func (m *MemoryStore) GetSessionByToken(tok string) (*models.RestaurantSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[tok]
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

func (m *MemoryStore) DeleteSession(tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, tok)
	return nil
}

// Order operations

func (m *MemoryStore) CreateOrder(order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	m.orders[order.ID] = order
	return order, nil
}

func (m *MemoryStore) GetOrder(id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order, nil
}

func (m *MemoryStore) UpdateOrderIfStatus(id, expected string, updates map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok || order.Status != expected {
		return false, nil
	}

	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(string)
		case "rejection_reason":
			order.RejectionReason = value.(string)
		case "total_amount":
			order.TotalAmount = value.(float64)
		case "platform_fee":
			order.PlatformFee = value.(float64)
		case "delivery_fee":
			order.DeliveryFee = value.(float64)
		case "ready_time":
			order.ReadyTime = value.(int)
		}
	}
	order.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryStore) GetActiveOrderByCustomerPhone(phone string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := map[string]bool{
		models.OrderStatusPending:        true,
		models.OrderStatusPaymentPending: true,
		models.OrderStatusPaid:           true,
		models.OrderStatusPreparing:      true,
	}

	var newest *models.Order
	for _, order := range m.orders {
		if order.CustomerWhatsApp != phone || !open[order.Status] {
			continue
		}
		if newest == nil || order.CreatedAt.After(newest.CreatedAt) {
			newest = order
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	return newest, nil
}

func (m *MemoryStore) TouchOrderMessage(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.LastMessageAt = &at
	order.UnreadMessagesCount++
	return nil
}

// Pickup OTP operations

func (m *MemoryStore) UpsertPickupOTP(pickupID, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pickupOTPs[pickupID] = &models.PickupOTP{
		PickupID:  pickupID,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *MemoryStore) GetPickupOTP(pickupID string) (*models.PickupOTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	otp, ok := m.pickupOTPs[pickupID]
	if !ok {
		return nil, ErrNotFound
	}
	return otp, nil
}

func (m *MemoryStore) MarkPickupOTPUsed(pickupID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	otp, ok := m.pickupOTPs[pickupID]
	if !ok {
		return ErrNotFound
	}
	otp.Code = ""
	otp.UsedAt = &at
	return nil
}

func (m *MemoryStore) DeleteExpiredPickupOTPs() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, otp := range m.pickupOTPs {
		if now.After(otp.ExpiresAt) {
			delete(m.pickupOTPs, id)
		}
	}
	return nil
}

// Chat message operations

func (m *MemoryStore) CreateChatMessage(msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MemoryStore) ListChatMessages(orderID string) ([]*models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Appended in creation order, so this is already oldest-first.
	var messages []*models.ChatMessage
	for _, msg := range m.messages {
		if msg.OrderID == orderID {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (m *MemoryStore) UpdateChatMessageStatus(whatsappMessageID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.messages {
		if msg.WhatsAppMessageID == whatsappMessageID {
			msg.MessageStatus = status
		}
	}
	return nil
}
