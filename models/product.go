package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringList stores a JSON-encoded list of strings in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
}

// UUIDList stores a JSON-encoded list of UUIDs in a text column.
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *UUIDList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for UUIDList: %T", src)
	}
}

// Contains reports whether id is present in the list.
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Category represents a product category.
type Category struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(128);not null" json:"name"`
	Slug        string         `gorm:"type:varchar(160);uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	ParentID    *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product represents a catalog product stored in Postgres.
type Product struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug              string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	SKU               string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	Price             float64        `gorm:"not null" json:"price"`
	ComparePrice      *float64       `json:"compare_price,omitempty"`
	StockQuantity     int            `gorm:"not null;default:0" json:"stock_quantity"`
	LowStockThreshold int            `gorm:"not null;default:5" json:"low_stock_threshold"`
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`
	IsFeatured        bool           `gorm:"not null;default:false" json:"is_featured"`
	CategoryID        *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Brand             string         `gorm:"type:varchar(128)" json:"brand,omitempty"`
	Images            StringList     `gorm:"type:text" json:"images"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsLowStock reports whether the product is at or below its low-stock threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// CreateProductRequest is the payload for creating a product (admin only).
type CreateProductRequest struct {
	Name              string     `json:"name" binding:"required,min=2,max=255"`
	Slug              string     `json:"slug" binding:"required,min=2,max=255"`
	SKU               string     `json:"sku" binding:"required,min=2,max=64"`
	Description       string     `json:"description"`
	Price             float64    `json:"price" binding:"required,gte=0"`
	ComparePrice      *float64   `json:"compare_price" binding:"omitempty,gte=0"`
	StockQuantity     int        `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold int        `json:"low_stock_threshold" binding:"gte=0"`
	IsActive          *bool      `json:"is_active"`
	IsFeatured        *bool      `json:"is_featured"`
	CategoryID        *uuid.UUID `json:"category_id"`
	Brand             string     `json:"brand"`
	Images            []string   `json:"images"`
}

// UpdateProductRequest is the payload for updating a product. All fields optional.
type UpdateProductRequest struct {
	Name              *string    `json:"name" binding:"omitempty,min=2,max=255"`
	Description       *string    `json:"description"`
	Price             *float64   `json:"price" binding:"omitempty,gte=0"`
	ComparePrice      *float64   `json:"compare_price" binding:"omitempty,gte=0"`
	LowStockThreshold *int       `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	IsActive          *bool      `json:"is_active"`
	IsFeatured        *bool      `json:"is_featured"`
	CategoryID        *uuid.UUID `json:"category_id"`
	Brand             *string    `json:"brand"`
	Images            []string   `json:"images"`
}

// AdjustStockRequest is the payload for manual stock adjustments (admin only).
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}
