package guides

import (
	"context"

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

// FindByID returns nil when the guide does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Guide, error) {
	return repo.FirstOrNil[models.Guide](r.DB(ctx), "id = ?", id)
}

// FindByUserID returns nil when the user has no guide profile.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Guide, error) {
	return repo.FirstOrNil[models.Guide](r.DB(ctx), "user_id = ?", userID)
}

func (r *Repository) UpdateDepositPolicy(ctx context.Context, id uuid.UUID, guide *models.Guide) error {
	return r.DB(ctx).Model(&models.Guide{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deposit_kind":   guide.DepositKind,
			"deposit_amount": guide.DepositAmount,
		}).Error
}
