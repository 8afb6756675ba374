package resellers

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

func (r *Repository) Create(ctx context.Context, reseller *models.Reseller) error {
	if reseller.ID == uuid.Nil {
		reseller.ID = uuid.New()
	}
	return r.DB(ctx).Create(reseller).Error
}

// FindByID returns nil when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reseller, error) {
	return repo.FirstOrNil[models.Reseller](r.DB(ctx), "id = ?", id)
}

// FindByUserID returns the agency a reseller login belongs to, or nil.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Reseller, error) {
	return repo.FirstOrNil[models.Reseller](r.DB(ctx), "user_id = ?", userID)
}

func (r *Repository) ListActive(ctx context.Context) ([]models.Reseller, error) {
	var rows []models.Reseller
	err := r.DB(ctx).Where("active = ?", true).Order("name ASC").Find(&rows).Error
	return rows, err
}
