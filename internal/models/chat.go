package models

import "gorm.io/gorm"

// Message directions and delivery statuses reported by the WhatsApp API.
const (
	MessageInbound  = "inbound"
	MessageOutbound = "outbound"
)

// ChatMessage is one WhatsApp message exchanged on an order's thread.
// Writing these is a side effect of the webhook and relay endpoints and must
// never fail the primary operation.
type ChatMessage struct {
	gorm.Model
	OrderID           string `json:"order_id" gorm:"index;not null"`
	FromNumber        string `json:"from_number"`
	ToNumber          string `json:"to_number"`
	MessageText       string `json:"message_text"`
	MessageType       string `json:"message_type" gorm:"default:text"`
	WhatsAppMessageID string `json:"whatsapp_message_id" gorm:"index"`
	Direction         string `json:"direction"`
	MessageStatus     string `json:"message_status"`
}
