package promocodes

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoCodeDTO is what the booking form lists in its promo selector.
type PromoCodeDTO struct {
	ID         uuid.UUID          `json:"id"`
	Code       string             `json:"code"`
	GuideID    *uuid.UUID         `json:"guideId,omitempty"`
	Kind       enums.DiscountKind `json:"kind"`
	Amount     string             `json:"amount"`
	ValidFrom  *time.Time         `json:"validFrom,omitempty"`
	ValidUntil *time.Time         `json:"validUntil,omitempty"`
}

type CreateInput struct {
	Code       string
	GuideID    *uuid.UUID
	Kind       enums.DiscountKind
	Amount     decimal.Decimal
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

type Service interface {
	ListActive(ctx context.Context, guideID *uuid.UUID) ([]PromoCodeDTO, error)
	Create(ctx context.Context, input CreateInput) (*PromoCodeDTO, error)
	Lookup(ctx context.Context, code string, guideID *uuid.UUID) (pricing.Discount, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo code repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListActive(ctx context.Context, guideID *uuid.UUID) ([]PromoCodeDTO, error) {
	rows, err := s.repo.ListActive(ctx, s.now().UTC(), guideID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	out := make([]PromoCodeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PromoCodeDTO, error) {
	code := pricing.NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount kind")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be > 0")
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validUntil must not precede validFrom")
	}

	promo := &models.PromoCode{
		Code:       code,
		GuideID:    input.GuideID,
		Kind:       input.Kind,
		Amount:     input.Amount,
		Active:     true,
		ValidFrom:  utcPtr(input.ValidFrom),
		ValidUntil: utcPtr(input.ValidUntil),
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "promo code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert promo code")
	}
	dto := toDTO(promo)
	return &dto, nil
}

// Lookup resolves a promo for a session led by guideID. Unknown, inactive, out-of-window
// and other-guide promos are all reported as a validation error.
func (s *service) Lookup(ctx context.Context, code string, guideID *uuid.UUID) (pricing.Discount, error) {
	normalized := pricing.NormalizeCode(code)
	if normalized == "" {
		return pricing.Discount{}, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	promo, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		return pricing.Discount{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	if promo == nil || !promo.IsValid(s.now().UTC()) || !appliesTo(promo, guideID) {
		return pricing.Discount{}, pkgerrors.New(pkgerrors.CodeValidation, "promo code is not valid").
			WithDetails(map[string]string{"promoCode": "promo code is not valid for this session"})
	}
	return pricing.PromoCode(promo.Code, promo.Kind, promo.Amount), nil
}

func appliesTo(promo *models.PromoCode, guideID *uuid.UUID) bool {
	if promo.GuideID == nil {
		return true
	}
	return guideID != nil && *guideID == *promo.GuideID
}

func toDTO(p *models.PromoCode) PromoCodeDTO {
	return PromoCodeDTO{
		ID:         p.ID,
		Code:       p.Code,
		GuideID:    p.GuideID,
		Kind:       p.Kind,
		Amount:     p.Amount.StringFixed(2),
		ValidFrom:  p.ValidFrom,
		ValidUntil: p.ValidUntil,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
