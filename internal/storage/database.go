package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/movescrow/movescrow-backend/internal/models"
)

// Statuses in which an inbound customer message still belongs to the order.
var openOrderStatuses = []string{
	models.OrderStatusPending,
	models.OrderStatusPaymentPending,
	models.OrderStatusPaid,
	models.OrderStatusPreparing,
}

// DatabaseStore implements Store on top of GORM/PostgreSQL.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Restaurant operations

func (s *DatabaseStore) CreateRestaurant(restaurant *models.Restaurant) (*models.Restaurant, error) {
	if err := s.db.Create(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (s *DatabaseStore) GetRestaurant(id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (s *DatabaseStore) GetRestaurantByPhone(phone string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, "phone = ?", phone).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (s *DatabaseStore) UpdateRestaurant(restaurant *models.Restaurant) error {
	return s.db.Save(restaurant).Error
}

// OTP challenge operations

func (s *DatabaseStore) UpsertOTPChallenge(phone, code string, expiresAt time.Time) error {
	challenge := models.OTPChallenge{
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "updated_at"}),
	}).Create(&challenge).Error
}

func (s *DatabaseStore) GetOTPChallenge(phone string) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	if err := s.db.First(&challenge, "phone = ?", phone).Error; err != nil {
		return nil, translate(err)
	}
	return &challenge, nil
}

func (s *DatabaseStore) ClearOTPChallenge(phone string) error {
	return s.db.Model(&models.OTPChallenge{}).
		Where("phone = ?", phone).
		Update("code", "").Error
}

func (s *DatabaseStore) DeleteExpiredOTPChallenges() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.OTPChallenge{}).Error
}

// Session operations

func (s *DatabaseStore) CreateSession(session *models.RestaurantSession) error {
	return s.db.Create(session).Error
}

func (s *DatabaseStore) GetSessionByToken(tok string) (*models.RestaurantSession, error) {
	var session models.RestaurantSession
	if err := s.db.First(&session, "token = ?", tok).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *DatabaseStore) DeleteSession(tok string) error {
	return s.db.Where("token = ?", tok).Delete(&models.RestaurantSession{}).Error
}

// Order operations

func (s *DatabaseStore) CreateOrder(order *models.Order) (*models.Order, error) {
	if err := s.db.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *DatabaseStore) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *DatabaseStore) UpdateOrderIfStatus(id, expected string, updates map[string]interface{}) (bool, error) {
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *DatabaseStore) GetActiveOrderByCustomerPhone(phone string) (*models.Order, error) {
	var order models.Order
	err := s.db.
		Where("customer_whats_app = ? AND status IN ?", phone, openOrderStatuses).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *DatabaseStore) TouchOrderMessage(id string, at time.Time) error {
	return s.db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at":       at,
			"unread_messages_count": gorm.Expr("unread_messages_count + 1"),
		}).Error
}

// Pickup OTP operations

func (s *DatabaseStore) UpsertPickupOTP(pickupID, code string, expiresAt time.Time) error {
	otp := models.PickupOTP{
		PickupID:  pickupID,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pickup_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "used_at", "updated_at"}),
	}).Create(&otp).Error
}

func (s *DatabaseStore) GetPickupOTP(pickupID string) (*models.PickupOTP, error) {
	var otp models.PickupOTP
	if err := s.db.First(&otp, "pickup_id = ?", pickupID).Error; err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (s *DatabaseStore) MarkPickupOTPUsed(pickupID string, at time.Time) error {
	return s.db.Model(&models.PickupOTP{}).
		Where("pickup_id = ?", pickupID).
		Updates(map[string]interface{}{"code": "", "used_at": at}).Error
}

func (s *DatabaseStore) DeleteExpiredPickupOTPs() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.PickupOTP{}).Error
}

// Chat message operations

func (s *DatabaseStore) CreateChatMessage(msg *models.ChatMessage) error {
	return s.db.Create(msg).Error
}

func (s *DatabaseStore) ListChatMessages(orderID string) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	err := s.db.
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *DatabaseStore) UpdateChatMessageStatus(whatsappMessageID, status string) error {
	return s.db.Model(&models.ChatMessage{}).
		Where("whats_app_message_id = ?", whatsappMessageID).
		Update("message_status", status).Error
}
