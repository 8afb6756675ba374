package models

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a bookable activity with its rate table.
type Product struct {
	ID                   uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string                 `gorm:"column:name;not null"`
	Category             enums.ActivityCategory `gorm:"column:category;not null"`
	Description          *string                `gorm:"column:description"`
	PriceIndividual      decimal.Decimal        `gorm:"column:price_individual;type:numeric(12,2);not null"`
	GroupMinParticipants *int                   `gorm:"column:group_min_participants"`
	GroupPrice           *decimal.Decimal       `gorm:"column:group_price;type:numeric(12,2)"`
	MaxCapacity          int                    `gorm:"column:max_capacity;not null"`
	Tags                 pq.StringArray         `gorm:"column:tags;type:text[]"`
	Active               bool                   `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	AddOns []ProductAddOn `gorm:"foreignKey:ProductID;references:ID"`
}

func (Product) TableName() string { return "products" }

// HasGroupRate reports whether both halves of the group rate are configured.
func (p Product) HasGroupRate() bool {
	return p.GroupMinParticipants != nil && p.GroupPrice != nil
}

// ProductAddOn is an optional per-participant extra such as shoe or wetsuit rental.
type ProductAddOn struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitFee   decimal.Decimal `gorm:"column:unit_fee;type:numeric(12,2);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ProductAddOn) TableName() string { return "product_add_ons" }
