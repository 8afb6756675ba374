package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/pagination"
	"github.com/google/uuid"
)

// SessionDTO is a scheduled session with its live capacity.
type SessionDTO struct {
	ID                uuid.UUID           `json:"id"`
	ProductID         uuid.UUID           `json:"productId"`
	ProductName       string              `json:"productName"`
	GuideID           *uuid.UUID          `json:"guideId,omitempty"`
	StartsAt          time.Time           `json:"startsAt"`
	Capacity          int                 `json:"capacity"`
	Booked            int                 `json:"booked"`
	RemainingCapacity int                 `json:"remainingCapacity"`
	Status            enums.SessionStatus `json:"status"`
	Notes             *string             `json:"notes,omitempty"`
}

type ListInput struct {
	From    *time.Time
	To      *time.Time
	GuideID *uuid.UUID
	pagination.Params
}

type CreateInput struct {
	ProductID uuid.UUID
	GuideID   *uuid.UUID
	StartsAt  time.Time
	Capacity  int
	Notes     *string
}

type Service interface {
	List(ctx context.Context, input ListInput) (*pagination.Page[SessionDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*SessionDTO, error)
	Create(ctx context.Context, input CreateInput) (*SessionDTO, error)
}

type service struct {
	repo     *Repository
	products *products.Repository
	guides   *guides.Repository
}

func NewService(repo *Repository, productRepo *products.Repository, guideRepo *guides.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if guideRepo == nil {
		return nil, fmt.Errorf("guide repository required")
	}
	return &service{repo: repo, products: productRepo, guides: guideRepo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*pagination.Page[SessionDTO], error) {
	if input.From != nil && input.To != nil && !input.To.After(*input.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListFilter{
		From:    input.From,
		To:      input.To,
		GuideID: input.GuideID,
		Cursor:  cursor,
		Limit:   input.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sessions")
	}

	page := pagination.Trim(rows, input.Limit, func(s models.ActivitySession) pagination.Cursor {
		return pagination.Cursor{At: s.StartsAt, ID: s.ID}
	})
	ids := make([]uuid.UUID, 0, len(page.Items))
	for _, row := range page.Items {
		ids = append(ids, row.ID)
	}
	seats, err := s.repo.BookedSeats(ctx, ids, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count booked seats")
	}

	out := &pagination.Page[SessionDTO]{Items: make([]SessionDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, toDTO(&page.Items[i], seats[page.Items[i].ID]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	seats, err := s.repo.BookedSeats(ctx, []uuid.UUID{id}, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count booked seats")
	}
	dto := toDTO(session, seats[id])
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*SessionDTO, error) {
	if input.StartsAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "startsAt is required")
	}
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not active")
	}

	capacity := input.Capacity
	if capacity == 0 {
		capacity = product.MaxCapacity
	}
	if capacity < 0 || capacity > product.MaxCapacity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("capacity must be between 1 and %d", product.MaxCapacity))
	}

	if input.GuideID != nil {
		guide, err := s.guides.FindByID(ctx, *input.GuideID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guide")
		}
		if guide == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guide does not exist")
		}
	}

	session := &models.ActivitySession{
		ProductID: product.ID,
		GuideID:   input.GuideID,
		StartsAt:  input.StartsAt.UTC(),
		Capacity:  capacity,
		Status:    enums.SessionStatusScheduled,
		Notes:     trimmed(input.Notes),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert session")
	}
	return s.Get(ctx, session.ID)
}

// ErrSessionClosed is returned when booking on a cancelled session.
var ErrSessionClosed = errors.New("session is cancelled")

// EnsureBookable checks the session still accepts bookings.
func EnsureBookable(session *models.ActivitySession) error {
	if session.Status == enums.SessionStatusCancelled {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrSessionClosed, "session is not bookable")
	}
	return nil
}

func toDTO(s *models.ActivitySession, booked int) SessionDTO {
	dto := SessionDTO{
		ID:                s.ID,
		ProductID:         s.ProductID,
		GuideID:           s.GuideID,
		StartsAt:          s.StartsAt,
		Capacity:          s.Capacity,
		Booked:            booked,
		RemainingCapacity: remaining(s.Capacity, booked),
		Status:            s.Status,
		Notes:             s.Notes,
	}
	if s.Product != nil {
		dto.ProductName = s.Product.Name
	}
	return dto
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
