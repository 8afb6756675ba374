package models

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoCode is a reusable guide-defined discount code.
type PromoCode struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string             `gorm:"column:code;not null;uniqueIndex"`
	GuideID    *uuid.UUID         `gorm:"column:guide_id;type:uuid"`
	Kind       enums.DiscountKind `gorm:"column:kind;not null"`
	Amount     decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Active     bool               `gorm:"column:active;not null;default:true"`
	ValidFrom  *time.Time         `gorm:"column:valid_from"`
	ValidUntil *time.Time         `gorm:"column:valid_until"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (PromoCode) TableName() string { return "promo_codes" }

// IsValid reports whether the promo can be applied at the given instant.
func (p PromoCode) IsValid(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

// GiftVoucher is a capped-use discount code verified before use.
type GiftVoucher struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;not null;uniqueIndex"`
	Kind          enums.DiscountKind `gorm:"column:kind;not null"`
	Amount        decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	MaxUses       int                `gorm:"column:max_uses;not null;default:1"`
	UsedCount     int                `gorm:"column:used_count;not null;default:0"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	PurchaserName *string            `gorm:"column:purchaser_name"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (GiftVoucher) TableName() string { return "gift_vouchers" }
