package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles, derived from the two staff flags for backward compatibility
// with the existing user table.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User represents a registered account.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username      string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName     string         `gorm:"type:varchar(64)" json:"first_name,omitempty"`
	LastName      string         `gorm:"type:varchar(64)" json:"last_name,omitempty"`
	Phone         string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	IsStaff       bool           `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser   bool           `gorm:"not null;default:false" json:"is_superuser"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Role maps the legacy boolean flags onto a single role string.
func (u *User) Role() string {
	switch {
	case u.IsSuperuser:
		return RoleAdmin
	case u.IsStaff:
		return RoleStaff
	default:
		return RoleCustomer
	}
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=64"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// LoginRequest is the payload for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
