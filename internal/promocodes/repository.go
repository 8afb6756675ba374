package promocodes

import (
	"context"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/repo"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, promo *models.PromoCode) error {
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	return r.DB(ctx).Create(promo).Error
}

// FindByCode returns nil when no promo carries code. Codes are stored normalized.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	return repo.FirstOrNil[models.PromoCode](r.DB(ctx), "code = ?", code)
}

// ListActive returns promos that can be selected at now, optionally narrowed to a guide.
// Promos without a guide are offered on every session.
func (r *Repository) ListActive(ctx context.Context, now time.Time, guideID *uuid.UUID) ([]models.PromoCode, error) {
	q := r.DB(ctx).
		Where("active = ?", true).
		Where("valid_from IS NULL OR valid_from <= ?", now).
		Where("valid_until IS NULL OR valid_until >= ?", now)
	if guideID != nil {
		q = q.Where("guide_id IS NULL OR guide_id = ?", *guideID)
	}
	var rows []models.PromoCode
	if err := q.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
