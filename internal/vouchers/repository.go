package vouchers

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

func (r *Repository) Create(ctx context.Context, voucher *models.GiftVoucher) error {
	if voucher.ID == uuid.Nil {
		voucher.ID = uuid.New()
	}
	return r.DB(ctx).Create(voucher).Error
}

// FindByCode returns nil when no voucher carries code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.GiftVoucher, error) {
	return repo.FirstOrNil[models.GiftVoucher](r.DB(ctx), "code = ?", code)
}

// Redeem consumes one use of code. It reports false when the voucher is inactive,
// expired or used up, leaving the row untouched.
func (r *Repository) Redeem(ctx context.Context, code string, now time.Time) (bool, error) {
	res := r.DB(ctx).Model(&models.GiftVoucher{}).
		Where("code = ? AND active = ? AND used_count < max_uses", code, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release gives back one use of code, e.g. when a booking carrying it is cancelled.
func (r *Repository) Release(ctx context.Context, code string, now time.Time) error {
	return r.DB(ctx).Model(&models.GiftVoucher{}).
		Where("code = ? AND used_count > 0", code).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count - 1"),
			"updated_at": now,
		}).Error
}

// ListExpired returns active vouchers whose expiry is at or before now.
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.GiftVoucher, error) {
	var rows []models.GiftVoucher
	err := r.DB(ctx).
		Where("active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.DB(ctx).Model(&models.GiftVoucher{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": false, "updated_at": now}).Error
}
