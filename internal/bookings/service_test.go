package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/internal/promocodes"
	"github.com/angelmondragon/canyonbook-backend/internal/resellers"
	"github.com/angelmondragon/canyonbook-backend/internal/sessions"
	"github.com/angelmondragon/canyonbook-backend/internal/vouchers"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/dbtest"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *service
	conn     *gorm.DB
	product  models.Product
	shoes    models.ProductAddOn
	session  models.ActivitySession
	guide    models.Guide
	reseller models.Reseller
	admin    Actor
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Schema...)
	client := db.NewFromGorm(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logger.Nop())

	groupMin := 6
	groupPrice := dec(45)
	f := fixture{conn: conn, admin: Actor{UserID: uuid.New(), Role: enums.RoleAdmin}}
	f.product = models.Product{
		ID:                   uuid.New(),
		Name:                 "Gorges du Verdon",
		Category:             enums.ActivityCanyoning,
		PriceIndividual:      dec(50),
		GroupMinParticipants: &groupMin,
		GroupPrice:           &groupPrice,
		MaxCapacity:          10,
		Active:               true,
	}
	require.NoError(t, conn.Create(&f.product).Error)
	f.shoes = models.ProductAddOn{ID: uuid.New(), ProductID: f.product.ID, Name: "Canyoning shoes", UnitFee: dec(5), Active: true}
	require.NoError(t, conn.Create(&f.shoes).Error)

	f.guide = models.Guide{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		DisplayName:   "Lucie",
		DepositKind:   enums.DepositKindPercentage,
		DepositAmount: dec(20),
	}
	require.NoError(t, conn.Create(&f.guide).Error)

	f.session = models.ActivitySession{
		ID:        uuid.New(),
		ProductID: f.product.ID,
		GuideID:   &f.guide.ID,
		StartsAt:  fixedNow.Add(48 * time.Hour),
		Capacity:  8,
		Status:    enums.SessionStatusScheduled,
	}
	require.NoError(t, conn.Create(&f.session).Error)

	f.reseller = models.Reseller{ID: uuid.New(), Name: "Alpes Aventure", CommissionPercentage: dec(10), Active: true}
	require.NoError(t, conn.Create(&f.reseller).Error)

	promos, err := promocodes.NewService(promocodes.NewRepository(conn))
	require.NoError(t, err)
	voucherSvc, err := vouchers.NewService(vouchers.ServiceParams{
		Repo:   vouchers.NewRepository(conn),
		DB:     client,
		Outbox: emitter,
		Logger: logger.Nop(),
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:        client,
		Repo:      NewRepository(conn),
		Sessions:  sessions.NewRepository(conn),
		Products:  products.NewRepository(conn),
		Guides:    guides.NewRepository(conn),
		Resellers: resellers.NewRepository(conn),
		Promos:    promos,
		Vouchers:  voucherSvc,
		Outbox:    emitter,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	f.svc = svc.(*service)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f fixture) promo(t *testing.T, code string, kind enums.DiscountKind, amount int64) {
	t.Helper()
	require.NoError(t, f.conn.Create(&models.PromoCode{ID: uuid.New(), Code: code, Kind: kind, Amount: dec(amount), Active: true}).Error)
}

func (f fixture) voucher(t *testing.T, code string, kind enums.DiscountKind, amount int64) {
	t.Helper()
	require.NoError(t, f.conn.Create(&models.GiftVoucher{ID: uuid.New(), Code: code, Kind: kind, Amount: dec(amount), MaxUses: 1, Active: true}).Error)
}

func (f fixture) usedCount(t *testing.T, code string) int {
	t.Helper()
	var v models.GiftVoucher
	require.NoError(t, f.conn.First(&v, "code = ?", code).Error)
	return v.UsedCount
}

func (f fixture) events(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", eventType).Find(&rows).Error)
	return rows
}

func (f fixture) input(participants int) CreateInput {
	return CreateInput{
		SessionID:    f.session.ID,
		FirstName:    "Ana",
		LastName:     "Ruiz",
		Email:        "Ana@Example.com",
		Participants: participants,
	}
}

func (f fixture) create(t *testing.T, in CreateInput) *BookingDTO {
	t.Helper()
	dto, err := f.svc.Create(context.Background(), f.admin, in)
	require.NoError(t, err)
	return dto
}

func TestQuoteGroupRateYieldsToPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.promo(t, "SUMMER30", enums.DiscountKindFixed, 30)

	q, err := f.svc.Quote(ctx, f.admin, QuoteInput{SessionID: f.session.ID, Participants: 6})
	require.NoError(t, err)
	assert.True(t, q.GroupRateApplied)
	assert.Equal(t, "270.00", q.TotalPrice)
	assert.Equal(t, "54.00", q.DepositAmount)
	assert.Equal(t, 8, q.RemainingSeats)

	q, err = f.svc.Quote(ctx, f.admin, QuoteInput{SessionID: f.session.ID, Participants: 6, PromoCode: "summer30"})
	require.NoError(t, err)
	assert.False(t, q.GroupRateApplied)
	assert.Equal(t, "300.00", q.BaseAmount)
	assert.Equal(t, "30.00", q.DiscountAmount)
	assert.Equal(t, "270.00", q.TotalPrice)
	require.NotNil(t, q.Discount)
	assert.Equal(t, enums.DiscountModePromo, q.Discount.Source)
}

func TestQuoteReportsInvalidVoucherWithoutFailing(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Quote(context.Background(), f.admin, QuoteInput{SessionID: f.session.ID, Participants: 2, VoucherCode: "GV-NOPE"})
	require.NoError(t, err)
	assert.Nil(t, q.Discount)
	assert.Equal(t, "100.00", q.TotalPrice)
	assert.NotEmpty(t, q.VoucherMessage)
}

func TestQuoteRejectsTwoDiscounts(t *testing.T) {
	f := newFixture(t)
	f.promo(t, "SUMMER30", enums.DiscountKindFixed, 30)

	_, err := f.svc.Quote(context.Background(), f.admin, QuoteInput{
		SessionID:    f.session.ID,
		Participants: 2,
		PromoCode:    "SUMMER30",
		VoucherCode:  "GV-ABC",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreatePersistsPricingAndEmits(t *testing.T) {
	f := newFixture(t)

	in := f.input(4)
	in.AddOns = []products.Selection{{AddOnID: f.shoes.ID}}
	dto := f.create(t, in)

	assert.Regexp(t, `^CB-[A-Z2-9]{6}$`, dto.Reference)
	assert.Equal(t, enums.BookingStatusConfirmed, dto.Status)
	assert.Equal(t, "200.00", dto.BaseAmount)
	assert.Equal(t, "20.00", dto.AddOnsAmount)
	assert.Equal(t, "220.00", dto.TotalPrice)
	assert.Equal(t, "44.00", dto.DepositAmount)
	assert.Equal(t, enums.PaymentStatusUnpaid, dto.PaymentStatus)
	require.Len(t, dto.AddOns, 1)
	assert.Equal(t, 4, dto.AddOns[0].Quantity)
	require.NotNil(t, dto.Email)
	assert.Equal(t, "ana@example.com", *dto.Email)

	events := f.events(t, enums.EventBookingCreated)
	require.Len(t, events, 1)
	assert.Equal(t, dto.ID, events[0].AggregateID)
}

func TestCreateRejectsOverCapacity(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.input(6))

	_, err := f.svc.Create(context.Background(), f.admin, f.input(3))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCapacity))
	assert.Len(t, f.events(t, enums.EventBookingCreated), 1)
}

func TestCreateValidatesDraft(t *testing.T) {
	f := newFixture(t)
	in := f.input(2)
	in.FirstName = " "
	in.Email = "not-an-email"

	_, err := f.svc.Create(context.Background(), f.admin, in)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	fields, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "firstName")
	assert.Contains(t, fields, "email")
}

func TestCreateWithVoucherRedeemsSingleUse(t *testing.T) {
	f := newFixture(t)
	f.voucher(t, "GV-GIFT0001", enums.DiscountKindFixed, 30)

	in := f.input(2)
	in.VoucherCode = "gv-gift0001"
	dto := f.create(t, in)
	assert.Equal(t, enums.DiscountModeVoucher, dto.DiscountType)
	assert.Equal(t, "70.00", dto.TotalPrice)
	require.NotNil(t, dto.VoucherCode)
	assert.Equal(t, "GV-GIFT0001", *dto.VoucherCode)
	assert.Equal(t, 1, f.usedCount(t, "GV-GIFT0001"))

	_, err := f.svc.Create(context.Background(), f.admin, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 1, f.usedCount(t, "GV-GIFT0001"))
}

func TestCreateWithResellerComputesCommission(t *testing.T) {
	f := newFixture(t)
	in := f.input(2)
	in.ResellerID = &f.reseller.ID

	dto := f.create(t, in)
	assert.Equal(t, "10.00", dto.CommissionAmount)

	require.NoError(t, f.conn.Model(&models.Reseller{}).Where("id = ?", f.reseller.ID).Update("active", false).Error)
	_, err := f.svc.Create(context.Background(), f.admin, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestResellerOnlySeesOwnBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agent := Actor{UserID: uuid.New(), Role: enums.RoleReseller, ResellerID: &f.reseller.ID}

	own, err := f.svc.Create(ctx, agent, f.input(2))
	require.NoError(t, err)
	require.NotNil(t, own.ResellerID)
	assert.Equal(t, f.reseller.ID, *own.ResellerID)

	direct := f.create(t, f.input(1))
	_, err = f.svc.Get(ctx, agent, direct.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	view, err := f.svc.ListBySession(ctx, agent, f.session.ID)
	require.NoError(t, err)
	require.Len(t, view.Bookings, 1)
	assert.Equal(t, own.ID, view.Bookings[0].ID)

	_, err = f.svc.SetManualPrice(ctx, agent, own.ID, ManualPriceInput{TotalPrice: decimalPtr(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestApplyDiscountRefusesSecondDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.voucher(t, "GV-GIFT0002", enums.DiscountKindPercentage, 10)
	f.promo(t, "SUMMER30", enums.DiscountKindFixed, 30)

	in := f.input(2)
	in.VoucherCode = "GV-GIFT0002"
	dto := f.create(t, in)

	_, err := f.svc.ApplyDiscount(ctx, f.admin, dto.ID, ApplyDiscountInput{PromoCode: "SUMMER30"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDiscountConflict))

	got, err := f.svc.Get(ctx, f.admin, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "90.00", got.TotalPrice)
}

func TestApplyDiscountDropsGroupRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.promo(t, "SUMMER30", enums.DiscountKindFixed, 30)

	in := f.input(6)
	in.AddOns = []products.Selection{{AddOnID: f.shoes.ID, Quantity: 2}}
	dto := f.create(t, in)
	assert.Equal(t, "45.00", dto.UnitPrice)
	assert.Equal(t, "280.00", dto.TotalPrice)

	got, err := f.svc.ApplyDiscount(ctx, f.admin, dto.ID, ApplyDiscountInput{PromoCode: "SUMMER30"})
	require.NoError(t, err)
	assert.Equal(t, enums.DiscountModePromo, got.DiscountType)
	assert.Equal(t, "50.00", got.UnitPrice)
	assert.Equal(t, "300.00", got.BaseAmount)
	assert.Equal(t, "30.00", got.DiscountAmount)
	assert.Equal(t, "280.00", got.TotalPrice)
	assert.Equal(t, "56.00", got.DepositAmount)
	assert.Len(t, f.events(t, enums.EventBookingDiscountApplied), 1)

	same := []products.Selection{{AddOnID: f.shoes.ID, Quantity: 2}}
	got, err = f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{AddOns: &same})
	require.NoError(t, err)
	assert.Equal(t, "280.00", got.TotalPrice)

	view, err := f.svc.ListBySession(ctx, f.admin, f.session.ID)
	require.NoError(t, err)
	require.Len(t, view.Bookings, 1)
	assert.False(t, view.Bookings[0].PriceMismatch)
	assert.Equal(t, "280.00", view.Bookings[0].ComputedTotal)

	more := []products.Selection{{AddOnID: f.shoes.ID, Quantity: 3}}
	got, err = f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{AddOns: &more})
	require.NoError(t, err)
	assert.Equal(t, "50.00", got.UnitPrice)
	assert.Equal(t, "285.00", got.TotalPrice)
}

func TestUpdateWithIdenticalAddOnsKeepsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input(2)
	in.AddOns = []products.Selection{{AddOnID: f.shoes.ID}}
	dto := f.create(t, in)
	assert.Equal(t, "110.00", dto.TotalPrice)

	same := []products.Selection{{AddOnID: f.shoes.ID, Quantity: 1}, {AddOnID: f.shoes.ID, Quantity: 1}}
	notes := "bring wetsuits"
	got, err := f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{AddOns: &same, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "110.00", got.TotalPrice)

	updates := f.events(t, enums.EventBookingUpdated)
	require.Len(t, updates, 1)
	assert.Contains(t, string(updates[0].Payload), "notes")
	assert.NotContains(t, string(updates[0].Payload), "addOns")

	bad := []products.Selection{{AddOnID: f.shoes.ID, Quantity: 3}, {AddOnID: f.shoes.ID, Quantity: -1}}
	_, err = f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{AddOns: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestManualPercentageAboveHundredClampsToZero(t *testing.T) {
	f := newFixture(t)
	dto := f.create(t, f.input(2))
	kind := enums.DiscountKindPercentage

	got, err := f.svc.SetManualPrice(context.Background(), f.admin, dto.ID, ManualPriceInput{Kind: &kind, Amount: decimalPtr(150)})
	require.NoError(t, err)
	assert.Equal(t, enums.DiscountModeManual, got.DiscountType)
	assert.Equal(t, "0.00", got.TotalPrice)
	assert.Equal(t, "100.00", got.DiscountAmount)
	assert.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)
}

func TestManualAbsolutePriceReleasesVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.voucher(t, "GV-GIFT0003", enums.DiscountKindFixed, 20)

	in := f.input(2)
	in.VoucherCode = "GV-GIFT0003"
	dto := f.create(t, in)
	require.Equal(t, 1, f.usedCount(t, "GV-GIFT0003"))

	got, err := f.svc.SetManualPrice(ctx, f.admin, dto.ID, ManualPriceInput{TotalPrice: decimalPtr(75)})
	require.NoError(t, err)
	assert.True(t, got.ManualPrice)
	assert.Equal(t, enums.DiscountModeManual, got.DiscountType)
	assert.Nil(t, got.VoucherCode)
	assert.Equal(t, "75.00", got.TotalPrice)
	assert.Equal(t, "25.00", got.DiscountAmount)
	assert.Equal(t, 0, f.usedCount(t, "GV-GIFT0003"))

	_, err = f.svc.SetManualPrice(ctx, f.admin, dto.ID, ManualPriceInput{TotalPrice: decimalPtr(75), Amount: decimalPtr(5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateRepricesWithRestoredDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.promo(t, "SUMMER30", enums.DiscountKindFixed, 30)

	in := f.input(4)
	in.PromoCode = "SUMMER30"
	dto := f.create(t, in)
	assert.Equal(t, "170.00", dto.TotalPrice)

	six := 6
	phone := "+33 6 12 34 56 78"
	got, err := f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{Participants: &six, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, 6, got.NumberOfPeople)
	assert.Equal(t, enums.DiscountModePromo, got.DiscountType)
	assert.Equal(t, "270.00", got.TotalPrice)
	require.NotNil(t, got.Phone)
	assert.Equal(t, phone, *got.Phone)

	updates := f.events(t, enums.EventBookingUpdated)
	require.Len(t, updates, 1)
	assert.Contains(t, string(updates[0].Payload), "numberOfPeople")
}

func TestUpdateKeepsAbsoluteManualPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dto := f.create(t, f.input(2))

	_, err := f.svc.SetManualPrice(ctx, f.admin, dto.ID, ManualPriceInput{TotalPrice: decimalPtr(80)})
	require.NoError(t, err)

	three := 3
	got, err := f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{Participants: &three})
	require.NoError(t, err)
	assert.Equal(t, "80.00", got.TotalPrice)
	assert.Equal(t, "150.00", got.BaseAmount)
	assert.Equal(t, "70.00", got.DiscountAmount)
}

func TestUpdateChecksCapacityExcludingItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dto := f.create(t, f.input(6))

	eight := 8
	_, err := f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{Participants: &eight})
	require.NoError(t, err)

	nine := 9
	_, err = f.svc.Update(ctx, f.admin, dto.ID, UpdateInput{Participants: &nine})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCapacity))
}

func TestRecordPaymentTracksStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dto := f.create(t, f.input(2))

	got, err := f.svc.RecordPayment(ctx, f.admin, dto.ID, PaymentInput{Method: enums.PaymentMethodCash, Amount: dec(20)})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusDepositPaid, got.PaymentStatus)
	assert.Equal(t, "80.00", got.AmountDue)

	_, err = f.svc.RecordPayment(ctx, f.admin, dto.ID, PaymentInput{Method: enums.PaymentMethodCard, Amount: dec(81)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err = f.svc.RecordPayment(ctx, f.admin, dto.ID, PaymentInput{Method: enums.PaymentMethodCard, Amount: dec(80), Reference: "TPE-4411"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)
	assert.Len(t, got.Payments, 2)
	assert.Len(t, f.events(t, enums.EventBookingPaymentRecorded), 2)
}

func TestCancelReleasesSeatsAndVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.voucher(t, "GV-GIFT0004", enums.DiscountKindFixed, 10)

	in := f.input(8)
	in.VoucherCode = "GV-GIFT0004"
	dto := f.create(t, in)

	_, err := f.svc.Create(ctx, f.admin, f.input(1))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCapacity))

	got, err := f.svc.Cancel(ctx, f.admin, dto.ID, "weather")
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
	assert.Equal(t, 0, f.usedCount(t, "GV-GIFT0004"))

	_, err = f.svc.Cancel(ctx, f.admin, dto.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	f.create(t, f.input(1))
}

func TestListBySessionTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, f.input(2))
	f.create(t, f.input(3))
	cancelled := f.create(t, f.input(1))
	_, err := f.svc.Cancel(ctx, f.admin, cancelled.ID, "")
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.admin, a.ID, PaymentInput{Method: enums.PaymentMethodCash, Amount: dec(100)})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Booking{}).Where("id = ?", a.ID).Update("total_price", "95").Error)

	view, err := f.svc.ListBySession(ctx, f.admin, f.session.ID)
	require.NoError(t, err)
	assert.Len(t, view.Bookings, 3)
	assert.Equal(t, 2, view.Totals.Bookings)
	assert.Equal(t, 5, view.Totals.Participants)
	assert.Equal(t, "250.00", view.Totals.TotalPrice)
	assert.Equal(t, "100.00", view.Totals.AmountPaid)
	assert.Equal(t, "150.00", view.Totals.Outstanding)

	for _, row := range view.Bookings {
		assert.Equal(t, row.ID == a.ID, row.PriceMismatch, row.Reference)
	}
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
