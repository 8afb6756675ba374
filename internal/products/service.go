package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Service exposes the activity catalog.
type Service interface {
	List(ctx context.Context, input ListInput) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
}

type ListInput struct {
	Category        string
	IncludeInactive bool
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name                 string
	Category             enums.ActivityCategory
	Description          *string
	PriceIndividual      decimal.Decimal
	GroupMinParticipants *int
	GroupPrice           *decimal.Decimal
	MaxCapacity          int
	Tags                 []string
	AddOns               []AddOnInput
}

type AddOnInput struct {
	Name    string
	UnitFee decimal.Decimal
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]ProductDTO, error) {
	filter := ListFilter{ActiveOnly: !input.IncludeInactive}
	if raw := strings.TrimSpace(input.Category); raw != "" {
		category, err := enums.ParseActivityCategory(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filter.Category = &category
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:                 strings.TrimSpace(input.Name),
		Category:             input.Category,
		Description:          input.Description,
		PriceIndividual:      input.PriceIndividual,
		GroupMinParticipants: input.GroupMinParticipants,
		MaxCapacity:          input.MaxCapacity,
		Tags:                 pq.StringArray(normalizeTags(input.Tags)),
		Active:               true,
	}
	if input.GroupPrice != nil {
		product.GroupPrice = decimalPtr(*input.GroupPrice)
	}
	for _, a := range input.AddOns {
		product.AddOns = append(product.AddOns, models.ProductAddOn{
			Name:    strings.TrimSpace(a.Name),
			UnitFee: a.UnitFee,
			Active:  true,
		})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	return s.Get(ctx, product.ID)
}

func validateCreate(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.PriceIndividual.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "priceIndividual must be >= 0")
	}
	if input.MaxCapacity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "maxCapacity must be > 0")
	}
	if (input.GroupMinParticipants == nil) != (input.GroupPrice == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "group rate needs both minParticipants and price")
	}
	if input.GroupMinParticipants != nil {
		if *input.GroupMinParticipants < 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "group minParticipants must be >= 2")
		}
		if input.GroupPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "group price must be >= 0")
		}
	}
	for _, a := range input.AddOns {
		if strings.TrimSpace(a.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "add-on name is required")
		}
		if a.UnitFee.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "add-on fee must be >= 0")
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

var errNilProduct = errors.New("product required")
