package products

import (
	"context"

	"github.com/angelmondragon/canyonbook-backend/internal/repo"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Category   *enums.ActivityCategory
	ActiveOnly bool
}

// Repository persists products and their add-on catalog.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts the product and its add-ons.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.AddOns {
		if product.AddOns[i].ID == uuid.Nil {
			product.AddOns[i].ID = uuid.New()
		}
		product.AddOns[i].ProductID = product.ID
	}
	return r.DB(ctx).Create(product).Error
}

// FindByID loads a product with its active add-ons. It returns gorm.ErrRecordNotFound when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("AddOns", "active = ?", true).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.DB(ctx).Preload("AddOns", "active = ?", true).Order("name ASC, id ASC")
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var rows []models.Product
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
