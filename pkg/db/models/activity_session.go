package models

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
)

// ActivitySession is one scheduled run of a product led by a guide.
type ActivitySession struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	GuideID   *uuid.UUID          `gorm:"column:guide_id;type:uuid"`
	StartsAt  time.Time           `gorm:"column:starts_at;not null"`
	Capacity  int                 `gorm:"column:capacity;not null"`
	Status    enums.SessionStatus `gorm:"column:status;not null;default:'scheduled'"`
	Notes     *string             `gorm:"column:notes"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID"`
}

func (ActivitySession) TableName() string { return "activity_sessions" }
