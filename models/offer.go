package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offer is an automatically-applied promotional discount. It is scoped to a
// single product, a single category, or neither (store-wide) — never both.
type Offer struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(128);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	DiscountPercent float64         `gorm:"not null" json:"discount_percent"`
	ProductID       *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	CategoryID      *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	MaxUses         *int            `json:"max_uses,omitempty"`
	UsedCount       int             `gorm:"not null;default:0" json:"used_count"`
	StartsAt        *time.Time      `gorm:"index" json:"starts_at,omitempty"`
	EndsAt          *time.Time      `gorm:"index" json:"ends_at,omitempty"`
	Conditions      json.RawMessage `gorm:"type:text" json:"conditions,omitempty"`
	ImageURL        string          `gorm:"type:varchar(512)" json:"image_url,omitempty"`
	BannerText      string          `gorm:"type:varchar(255)" json:"banner_text,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AppliesTo reports whether the offer's scope touches the given product and
// category. Store-wide offers match everything.
func (o *Offer) AppliesTo(productID uuid.UUID, categoryID *uuid.UUID) bool {
	if o.ProductID != nil {
		return *o.ProductID == productID
	}
	if o.CategoryID != nil {
		return categoryID != nil && *o.CategoryID == *categoryID
	}
	return true
}

// CreateOfferRequest is the payload for creating an offer (admin only).
type CreateOfferRequest struct {
	Name            string          `json:"name" binding:"required,min=2,max=128"`
	Description     string          `json:"description"`
	DiscountPercent float64         `json:"discount_percent" binding:"required,gt=0,lte=100"`
	ProductID       *uuid.UUID      `json:"product_id"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	MaxUses         *int            `json:"max_uses" binding:"omitempty,gte=1"`
	StartsAt        *time.Time      `json:"starts_at"`
	EndsAt          *time.Time      `json:"ends_at"`
	Conditions      json.RawMessage `json:"conditions"`
	ImageURL        string          `json:"image_url"`
	BannerText      string          `json:"banner_text"`
}
