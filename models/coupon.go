package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponType represents the type of discount a coupon provides.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixed        CouponType = "fixed"
	CouponTypeFreeShipping CouponType = "free_shipping"
)

// Coupon represents a code-activated promotional discount stored in Postgres.
// Codes are unique case-insensitively; they are uppercased on create.
type Coupon struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                 string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name                 string         `gorm:"type:varchar(128)" json:"name,omitempty"`
	Description          string         `gorm:"type:text" json:"description,omitempty"`
	Type                 CouponType     `gorm:"type:varchar(20);not null" json:"type"`
	Value                float64        `gorm:"not null" json:"value"`
	MinOrderAmount       float64        `gorm:"not null;default:0" json:"min_order_amount"`
	MaxDiscountAmount    *float64       `json:"max_discount_amount,omitempty"`
	IsActive             bool           `gorm:"not null;default:true" json:"is_active"`
	SingleUse            bool           `gorm:"not null;default:false" json:"single_use"`
	MaxUses              *int           `json:"max_uses,omitempty"`
	UsedCount            int            `gorm:"not null;default:0" json:"used_count"`
	StartsAt             *time.Time     `gorm:"index" json:"starts_at,omitempty"`
	EndsAt               *time.Time     `gorm:"index" json:"ends_at,omitempty"`
	FirstTimeOnly        bool           `gorm:"not null;default:false" json:"first_time_only"`
	ApplicableProducts   UUIDList       `gorm:"type:text" json:"applicable_products"`
	ExcludedProducts     UUIDList       `gorm:"type:text" json:"excluded_products"`
	ApplicableCategories UUIDList       `gorm:"type:text" json:"applicable_categories"`
	ExcludedCategories   UUIDList       `gorm:"type:text" json:"excluded_categories"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsWithinWindow reports whether now falls inside the validity window.
// A nil bound is open-ended.
func (c *Coupon) IsWithinWindow(now time.Time) bool {
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	return true
}

// IsExhausted reports whether the global usage cap has been reached.
func (c *Coupon) IsExhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// CouponUsage records one application of a coupon to an order. The unique
// index over (coupon_id, user_id, order_id) makes RecordUsage idempotent
// under concurrent retries.
type CouponUsage struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CouponID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_user_order" json:"coupon_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_user_order" json:"user_id"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_user_order" json:"order_id"`
	DiscountAmount float64   `gorm:"not null" json:"discount_amount"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CreateCouponRequest is the payload for creating a coupon (admin only).
type CreateCouponRequest struct {
	Code                 string      `json:"code" binding:"required,min=3,max=64"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Type                 CouponType  `json:"type" binding:"required,oneof=percentage fixed free_shipping"`
	Value                float64     `json:"value" binding:"required,gte=0"`
	MinOrderAmount       float64     `json:"min_order_amount" binding:"gte=0"`
	MaxDiscountAmount    *float64    `json:"max_discount_amount" binding:"omitempty,gte=0"`
	SingleUse            bool        `json:"single_use"`
	MaxUses              *int        `json:"max_uses" binding:"omitempty,gte=1"`
	StartsAt             *time.Time  `json:"starts_at"`
	EndsAt               *time.Time  `json:"ends_at"`
	FirstTimeOnly        bool        `json:"first_time_only"`
	ApplicableProducts   []uuid.UUID `json:"applicable_products"`
	ExcludedProducts     []uuid.UUID `json:"excluded_products"`
	ApplicableCategories []uuid.UUID `json:"applicable_categories"`
	ExcludedCategories   []uuid.UUID `json:"excluded_categories"`
}

// ValidateCouponRequest is the payload for validating a coupon against an
// order context.
type ValidateCouponRequest struct {
	Code        string      `json:"code" binding:"required"`
	OrderAmount float64     `json:"order_amount" binding:"required,gt=0"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// ValidateCouponResponse is the response after validating a coupon.
type ValidateCouponResponse struct {
	Valid          bool       `json:"valid"`
	Code           string     `json:"code"`
	Type           CouponType `json:"type,omitempty"`
	DiscountAmount float64    `json:"discount_amount"`
	Message        string     `json:"message,omitempty"`
}
