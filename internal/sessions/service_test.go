package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/dbtest"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dayOne = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	svc     Service
	repo    *Repository
	product *models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Schema...)
	productRepo := products.NewRepository(conn)
	product := &models.Product{
		Name:            "Gorgas Negras",
		Category:        enums.ActivityCanyoning,
		PriceIndividual: decimal.NewFromInt(60),
		MaxCapacity:     10,
		Active:          true,
	}
	require.NoError(t, productRepo.Create(context.Background(), product))

	repo := NewRepository(conn)
	svc, err := NewService(repo, productRepo, guides.NewRepository(conn))
	require.NoError(t, err)
	return fixture{db: conn, svc: svc, repo: repo, product: product}
}

func (f fixture) book(t *testing.T, sessionID, productID uuid.UUID, people int, status enums.BookingStatus) {
	t.Helper()
	booking := &models.Booking{
		ID:             uuid.New(),
		Reference:      "CB-" + uuid.NewString()[:8],
		SessionID:      sessionID,
		ProductID:      productID,
		FirstName:      "Ana",
		LastName:       "Lopez",
		NumberOfPeople: people,
		Status:         status,
		DiscountType:   enums.DiscountModeNone,
		PaymentStatus:  enums.PaymentStatusUnpaid,
	}
	require.NoError(t, f.db.Create(booking).Error)
}

func TestCreateDefaultsCapacityToProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, CreateInput{ProductID: f.product.ID, StartsAt: dayOne})
	require.NoError(t, err)
	assert.Equal(t, 10, dto.Capacity)
	assert.Equal(t, 10, dto.RemainingCapacity)
	assert.Equal(t, "Gorgas Negras", dto.ProductName)
	assert.Equal(t, enums.SessionStatusScheduled, dto.Status)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ghost := uuid.New()

	_, err := f.svc.Create(ctx, CreateInput{ProductID: f.product.ID, StartsAt: dayOne, Capacity: 11})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, CreateInput{ProductID: uuid.New(), StartsAt: dayOne})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, CreateInput{ProductID: f.product.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, CreateInput{ProductID: f.product.ID, StartsAt: dayOne, GuideID: &ghost})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRemainingCapacityIgnoresCancelledAndForeignBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, CreateInput{ProductID: f.product.ID, StartsAt: dayOne, Capacity: 8})
	require.NoError(t, err)

	f.book(t, dto.ID, f.product.ID, 3, enums.BookingStatusConfirmed)
	f.book(t, dto.ID, f.product.ID, 2, enums.BookingStatusCompleted)
	f.book(t, dto.ID, f.product.ID, 4, enums.BookingStatusCancelled)
	f.book(t, dto.ID, uuid.New(), 5, enums.BookingStatusConfirmed)

	got, err := f.svc.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Booked)
	assert.Equal(t, 3, got.RemainingCapacity)

	session, err := f.repo.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	left, err := f.repo.RemainingCapacity(ctx, session, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, left)
}

func TestRemainingCapacityFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0, remaining(4, 6))
	assert.Equal(t, 4, remaining(4, 0))
}

func TestListPaginatesWithinWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, CreateInput{ProductID: f.product.ID, StartsAt: dayOne.Add(time.Duration(i) * 24 * time.Hour)})
		require.NoError(t, err)
	}
	from := dayOne.Add(24 * time.Hour)
	to := dayOne.Add(4 * 24 * time.Hour)

	first, err := f.svc.List(ctx, ListInput{From: &from, To: &to, Params: paginationParams(2, "")})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].StartsAt.Equal(from))

	second, err := f.svc.List(ctx, ListInput{From: &from, To: &to, Params: paginationParams(2, first.NextCursor)})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.True(t, second.Items[0].StartsAt.Equal(dayOne.Add(3*24*time.Hour)))

	_, err = f.svc.List(ctx, ListInput{Params: paginationParams(2, "%%%")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.List(ctx, ListInput{From: &to, To: &from})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEnsureBookable(t *testing.T) {
	assert.NoError(t, EnsureBookable(&models.ActivitySession{Status: enums.SessionStatusScheduled}))
	err := EnsureBookable(&models.ActivitySession{Status: enums.SessionStatusCancelled})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func paginationParams(limit int, cursor string) pagination.Params {
	return pagination.Params{Limit: limit, Cursor: cursor}
}
