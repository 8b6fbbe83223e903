package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is owned by either a registered user or an anonymous session, never
// both. It is created lazily on the first mutation.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	SessionID *string    `gorm:"type:varchar(128);uniqueIndex" json:"session_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CartItem holds one product line. UnitPrice is captured when the item is
// first added and is not refreshed on later quantity changes.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Subtotal returns the sum of unit price times quantity over all items.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// CartOwner identifies the cart of either a user or an anonymous session.
// Exactly one field is set.
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID *string
}

// OwnerForUser builds a CartOwner for a registered user.
func OwnerForUser(userID uuid.UUID) CartOwner {
	return CartOwner{UserID: &userID}
}

// OwnerForSession builds a CartOwner for an anonymous session.
func OwnerForSession(sessionID string) CartOwner {
	return CartOwner{SessionID: &sessionID}
}

// AddCartItemRequest is the payload for adding a product to the cart.
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest is the payload for changing a line quantity.
// A quantity of zero removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"gte=0"`
}

// CartResponse is the cart view returned to clients.
type CartResponse struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Items    []CartItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Count    int        `json:"count"`
}
