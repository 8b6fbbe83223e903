package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification event types.
const (
	TypeOrderCreated     = "order_created"
	TypeOrderStatus      = "order_status_update"
	TypePaymentConfirmed = "payment_confirmed"
	TypeOrderCancelled   = "order_cancelled"
	TypeUserRegistered   = "user_registered"
)

// Notification channels.
const (
	ChannelEmail = "email"
)

// Notification delivery statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// NotificationLog records every delivery attempt. Delivery is best-effort;
// the triggering workflow never sees these rows.
type NotificationLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Recipient string    `gorm:"type:varchar(255);not null" json:"recipient"`
	Type      string    `gorm:"type:varchar(40);not null" json:"type"`
	Channel   string    `gorm:"type:varchar(20);not null" json:"channel"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// OrderEvent is published to SNS whenever an order changes in a way other
// systems care about.
type OrderEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// PaymentEvent is the shape consumed from the payment events queue.
type PaymentEvent struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
}
