package guides

import (
	"context"
	"fmt"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuideDTO is the guide profile returned to staff.
type GuideDTO struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	DisplayName   string    `json:"displayName"`
	DepositPolicy PolicyDTO `json:"depositPolicy"`
}

type PolicyDTO struct {
	Kind   enums.DepositKind `json:"kind"`
	Amount string            `json:"amount"`
}

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*GuideDTO, error)
	UpdateDepositPolicy(ctx context.Context, id uuid.UUID, kind enums.DepositKind, amount decimal.Decimal) (*GuideDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("guide repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*GuideDTO, error) {
	guide, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guide")
	}
	if guide == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guide not found")
	}
	return toDTO(guide), nil
}

func (s *service) UpdateDepositPolicy(ctx context.Context, id uuid.UUID, kind enums.DepositKind, amount decimal.Decimal) (*GuideDTO, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid deposit kind")
	}
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit amount must be >= 0")
	}
	if kind == enums.DepositKindPercentage && amount.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit percentage must be <= 100")
	}
	if kind == enums.DepositKindNone {
		amount = decimal.Zero
	}

	guide, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guide")
	}
	if guide == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guide not found")
	}
	guide.DepositKind = kind
	guide.DepositAmount = amount
	if err := s.repo.UpdateDepositPolicy(ctx, id, guide); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update deposit policy")
	}
	return toDTO(guide), nil
}

// Policy converts a guide profile into the deposit rule used at booking time.
// Sessions without a guide take no deposit.
func Policy(guide *models.Guide) pricing.DepositPolicy {
	if guide == nil {
		return pricing.DepositPolicy{Kind: enums.DepositKindNone}
	}
	return pricing.DepositPolicy{Kind: guide.DepositKind, Amount: guide.DepositAmount}
}

func toDTO(g *models.Guide) *GuideDTO {
	return &GuideDTO{
		ID:          g.ID,
		UserID:      g.UserID,
		DisplayName: g.DisplayName,
		DepositPolicy: PolicyDTO{
			Kind:   g.DepositKind,
			Amount: g.DepositAmount.StringFixed(2),
		},
	}
}
