package resellers

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
)

// ResellerDTO feeds the reseller selector of the booking form.
type ResellerDTO struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Email                *string   `json:"email,omitempty"`
	CommissionPercentage string    `json:"commissionPercentage"`
}

type Service interface {
	List(ctx context.Context) ([]ResellerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ResellerDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reseller repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]ResellerDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list resellers")
	}
	out := make([]ResellerDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ResellerDTO{
			ID:                   r.ID,
			Name:                 r.Name,
			Email:                r.Email,
			CommissionPercentage: r.CommissionPercentage.StringFixed(2),
		})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ResellerDTO, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reseller")
	}
	if r == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reseller not found")
	}
	return &ResellerDTO{
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		CommissionPercentage: r.CommissionPercentage.StringFixed(2),
	}, nil
}
