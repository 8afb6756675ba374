package sessions

import (
	"context"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/repo"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/angelmondragon/canyonbook-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter bounds the schedule listing. From is inclusive, To exclusive.
type ListFilter struct {
	From    *time.Time
	To      *time.Time
	GuideID *uuid.UUID
	Cursor  *pagination.Cursor
	Limit   int
}

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, session *models.ActivitySession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return r.DB(ctx).Omit(clause.Associations).Create(session).Error
}

// FindByID loads the session with its product. It returns gorm.ErrRecordNotFound when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ActivitySession, error) {
	var session models.ActivitySession
	if err := r.DB(ctx).Preload("Product").First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// LockForUpdate loads the session row with a write lock so concurrent bookings on it
// serialize. Must run inside a transaction.
func (r *Repository) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.ActivitySession, error) {
	var session models.ActivitySession
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns sessions ordered by start time, fetching one row past the limit.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.ActivitySession, error) {
	q := r.DB(ctx).Preload("Product").Order("starts_at ASC, id ASC")
	if filter.From != nil {
		q = q.Where("starts_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("starts_at < ?", filter.To.UTC())
	}
	if filter.GuideID != nil {
		q = q.Where("guide_id = ?", *filter.GuideID)
	}
	if filter.Cursor != nil {
		at := filter.Cursor.At.UTC()
		q = q.Where("starts_at > ? OR (starts_at = ? AND id > ?)", at, at, filter.Cursor.ID)
	}
	var rows []models.ActivitySession
	if err := q.Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type seatCount struct {
	SessionID uuid.UUID
	Seats     int
}

// BookedSeats sums participants of capacity-holding bookings per session. Only bookings
// on the session's own product count. exclude skips one booking, used when re-pricing it.
func (r *Repository) BookedSeats(ctx context.Context, sessionIDs []uuid.UUID, exclude *uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	q := r.DB(ctx).
		Table("bookings AS b").
		Select("b.session_id AS session_id, COALESCE(SUM(b.number_of_people), 0) AS seats").
		Joins("JOIN activity_sessions s ON s.id = b.session_id AND s.product_id = b.product_id").
		Where("b.session_id IN ? AND b.status <> ?", sessionIDs, enums.BookingStatusCancelled).
		Group("b.session_id")
	if exclude != nil {
		q = q.Where("b.id <> ?", *exclude)
	}
	var rows []seatCount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SessionID] = row.Seats
	}
	return out, nil
}

// RemainingCapacity is capacity minus seats held by other bookings, floored at zero.
func (r *Repository) RemainingCapacity(ctx context.Context, session *models.ActivitySession, exclude *uuid.UUID) (int, error) {
	seats, err := r.BookedSeats(ctx, []uuid.UUID{session.ID}, exclude)
	if err != nil {
		return 0, err
	}
	return remaining(session.Capacity, seats[session.ID]), nil
}

func remaining(capacity, booked int) int {
	if booked >= capacity {
		return 0
	}
	return capacity - booked
}
