package models

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a staff account able to sign in.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    string         `gorm:"column:first_name;not null"`
	LastName     string         `gorm:"column:last_name;not null"`
	Role         enums.UserRole `gorm:"column:role;not null"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// Guide is the operator profile that owns sessions, promo codes, and the deposit policy.
type Guide struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	DisplayName   string            `gorm:"column:display_name;not null"`
	DepositKind   enums.DepositKind `gorm:"column:deposit_kind;not null;default:'none'"`
	DepositAmount decimal.Decimal   `gorm:"column:deposit_amount;type:numeric(12,2);not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Guide) TableName() string { return "guides" }

// Reseller is a partner agency that books on behalf of clients for a commission.
type Reseller struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               *uuid.UUID      `gorm:"column:user_id;type:uuid"`
	Name                 string          `gorm:"column:name;not null"`
	Email                *string         `gorm:"column:email"`
	CommissionPercentage decimal.Decimal `gorm:"column:commission_percentage;type:numeric(5,2);not null"`
	Active               bool            `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Reseller) TableName() string { return "resellers" }
