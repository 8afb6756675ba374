package bookings

import (
	"context"

	"github.com/angelmondragon/canyonbook-backend/internal/repo"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists bookings with their add-on lines and payments.
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

// Create inserts the booking and its add-on lines.
func (r *Repository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if err := r.DB(ctx).Omit(clause.Associations).Create(booking).Error; err != nil {
		return err
	}
	return r.insertAddOns(ctx, booking.ID, booking.AddOns)
}

// FindByID loads a booking with add-ons and payments. It returns gorm.ErrRecordNotFound when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.DB(ctx).
		Preload("AddOns").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// LockByID reloads the booking row with a write lock. Must run inside a transaction.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("AddOns").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Save writes every column of the booking row. Add-ons and payments are left alone.
func (r *Repository) Save(ctx context.Context, booking *models.Booking) error {
	return r.DB(ctx).Omit(clause.Associations).Save(booking).Error
}

// ReplaceAddOns swaps the add-on lines of a booking.
func (r *Repository) ReplaceAddOns(ctx context.Context, bookingID uuid.UUID, lines []models.BookingAddOn) error {
	if err := r.DB(ctx).Where("booking_id = ?", bookingID).Delete(&models.BookingAddOn{}).Error; err != nil {
		return err
	}
	return r.insertAddOns(ctx, bookingID, lines)
}

func (r *Repository) InsertPayment(ctx context.Context, payment *models.BookingPayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return r.DB(ctx).Create(payment).Error
}

// ListBySession returns every booking on a session, cancelled ones included, oldest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.DB(ctx).
		Preload("AddOns").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) insertAddOns(ctx context.Context, bookingID uuid.UUID, lines []models.BookingAddOn) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].BookingID = bookingID
	}
	return r.DB(ctx).Create(&lines).Error
}
