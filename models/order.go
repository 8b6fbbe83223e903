package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order status values. Cancellation is only reachable from pending and
// processing; delivered and cancelled are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment status values, an axis independent of order status.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order is the persisted order header. Line items are snapshotted at
// creation time and never follow later product changes.
type Order struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus   string         `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod   string         `gorm:"type:varchar(40)" json:"payment_method,omitempty"`
	PaymentIntentID string         `gorm:"type:varchar(64)" json:"payment_intent_id,omitempty"`
	ShippingMethod  string         `gorm:"type:varchar(40)" json:"shipping_method,omitempty"`
	ShippingCost    float64        `gorm:"not null;default:0" json:"shipping_cost"`
	TaxAmount       float64        `gorm:"not null;default:0" json:"tax_amount"`
	DiscountAmount  float64        `gorm:"not null;default:0" json:"discount_amount"`
	TotalAmount     float64        `gorm:"not null" json:"total_amount"`
	CouponCode      string         `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	BillingAddress  string         `gorm:"type:text" json:"billing_address"`
	CustomerNotes   string         `gorm:"type:text" json:"customer_notes,omitempty"`
	ShippedAt       *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	CanceledAt      *time.Time     `json:"canceled_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems      []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is a point-in-time snapshot of a purchased product line.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductSKU  string    `gorm:"type:varchar(64);not null" json:"product_sku"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unit_price"`
}

// Subtotal returns the sum of line price times quantity.
func (o *Order) Subtotal() float64 {
	var total float64
	for _, item := range o.OrderItems {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// CanBeCancelled reports whether the order may still be cancelled.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// CreateOrderRequest is the payload for converting the caller's cart into an
// order.
type CreateOrderRequest struct {
	ShippingAddress string  `json:"shipping_address" binding:"required"`
	BillingAddress  string  `json:"billing_address"`
	PaymentMethod   string  `json:"payment_method" binding:"required"`
	ShippingMethod  string  `json:"shipping_method"`
	ShippingCost    float64 `json:"shipping_cost" binding:"gte=0"`
	CouponCode      string  `json:"coupon_code"`
	Notes           string  `json:"notes"`
}

// OrderItemInput is one explicit line for CreateOrderFromItems.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderFromItemsRequest creates an order from an explicit item list
// instead of the stored cart.
type CreateOrderFromItemsRequest struct {
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress string           `json:"shipping_address" binding:"required"`
	BillingAddress  string           `json:"billing_address"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	ShippingMethod  string           `json:"shipping_method"`
	ShippingCost    float64          `json:"shipping_cost" binding:"gte=0"`
	CouponCode      string           `json:"coupon_code"`
	Notes           string           `json:"notes"`
}

// UpdateOrderStatusRequest is the payload for admin status transitions.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest is the payload for payment status transitions.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// CancelOrderRequest carries the cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderFilter describes listing filters for admin and user order queries.
type OrderFilter struct {
	UserID        *uuid.UUID
	Status        string
	PaymentStatus string
	Search        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	SortBy        string
	SortDir       string
	Page          int
	Limit         int
}
