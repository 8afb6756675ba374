package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/canyonbook-backend/api/middleware"
	"github.com/angelmondragon/canyonbook-backend/internal/bookings"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookingService struct {
	quoteFn       func(ctx context.Context, actor bookings.Actor, input bookings.QuoteInput) (*bookings.QuoteDTO, error)
	createFn      func(ctx context.Context, actor bookings.Actor, input bookings.CreateInput) (*bookings.BookingDTO, error)
	updateFn      func(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.UpdateInput) (*bookings.BookingDTO, error)
	manualPriceFn func(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.ManualPriceInput) (*bookings.BookingDTO, error)
	paymentFn     func(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.PaymentInput) (*bookings.BookingDTO, error)
	cancelFn      func(ctx context.Context, actor bookings.Actor, id uuid.UUID, reason string) (*bookings.BookingDTO, error)
	calls         int
}

func (s *stubBookingService) Quote(ctx context.Context, actor bookings.Actor, input bookings.QuoteInput) (*bookings.QuoteDTO, error) {
	s.calls++
	if s.quoteFn != nil {
		return s.quoteFn(ctx, actor, input)
	}
	return &bookings.QuoteDTO{}, nil
}

func (s *stubBookingService) Create(ctx context.Context, actor bookings.Actor, input bookings.CreateInput) (*bookings.BookingDTO, error) {
	s.calls++
	if s.createFn != nil {
		return s.createFn(ctx, actor, input)
	}
	return &bookings.BookingDTO{}, nil
}

func (s *stubBookingService) Get(ctx context.Context, actor bookings.Actor, id uuid.UUID) (*bookings.BookingDTO, error) {
	s.calls++
	return &bookings.BookingDTO{ID: id}, nil
}

func (s *stubBookingService) Update(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.UpdateInput) (*bookings.BookingDTO, error) {
	s.calls++
	if s.updateFn != nil {
		return s.updateFn(ctx, actor, id, input)
	}
	return &bookings.BookingDTO{ID: id}, nil
}

func (s *stubBookingService) ApplyDiscount(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.ApplyDiscountInput) (*bookings.BookingDTO, error) {
	s.calls++
	return &bookings.BookingDTO{ID: id}, nil
}

func (s *stubBookingService) SetManualPrice(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.ManualPriceInput) (*bookings.BookingDTO, error) {
	s.calls++
	if s.manualPriceFn != nil {
		return s.manualPriceFn(ctx, actor, id, input)
	}
	return &bookings.BookingDTO{ID: id}, nil
}

func (s *stubBookingService) RecordPayment(ctx context.Context, actor bookings.Actor, id uuid.UUID, input bookings.PaymentInput) (*bookings.BookingDTO, error) {
	s.calls++
	if s.paymentFn != nil {
		return s.paymentFn(ctx, actor, id, input)
	}
	return &bookings.BookingDTO{ID: id}, nil
}

func (s *stubBookingService) Cancel(ctx context.Context, actor bookings.Actor, id uuid.UUID, reason string) (*bookings.BookingDTO, error) {
	s.calls++
	if s.cancelFn != nil {
		return s.cancelFn(ctx, actor, id, reason)
	}
	return &bookings.BookingDTO{ID: id}, nil
}

func (s *stubBookingService) ListBySession(ctx context.Context, actor bookings.Actor, sessionID uuid.UUID) (*bookings.SessionBookingsDTO, error) {
	s.calls++
	return &bookings.SessionBookingsDTO{SessionID: sessionID}, nil
}

func guideSession() middleware.AppSession {
	guideID := uuid.New()
	return middleware.AppSession{UserID: uuid.New(), Role: enums.RoleGuide, GuideID: &guideID, AccessID: "jti"}
}

func TestCreateBookingRequiresSession(t *testing.T) {
	svc := &stubBookingService{}
	req := newRequest(http.MethodPost, "/api/v1/bookings", `{}`)
	rec := httptest.NewRecorder()

	CreateBooking(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestCreateBookingMapsFormPayload(t *testing.T) {
	sess := guideSession()
	sessionID := uuid.New()
	addOnID := uuid.New()
	var got bookings.CreateInput
	var gotActor bookings.Actor
	svc := &stubBookingService{
		createFn: func(_ context.Context, actor bookings.Actor, input bookings.CreateInput) (*bookings.BookingDTO, error) {
			gotActor = actor
			got = input
			return &bookings.BookingDTO{ID: uuid.New(), Reference: "CB-ABC123", TotalPrice: "180.00"}, nil
		},
	}

	body := `{"sessionId":"` + sessionID.String() + `","firstName":"Ana","lastName":"Ruiz","email":"ana@example.com",` +
		`"numberOfPeople":4,"addOns":[{"addOnId":"` + addOnID.String() + `","quantity":2}],` +
		`"voucherCode":" gv-1234 ","manualDiscount":{"kind":"percentage","amount":"10"}}`
	req := withSession(newRequest(http.MethodPost, "/api/v1/bookings", body), sess)
	rec := httptest.NewRecorder()

	CreateBooking(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, sess.UserID, gotActor.UserID)
	assert.Equal(t, enums.RoleGuide, gotActor.Role)
	assert.Equal(t, sess.GuideID, gotActor.GuideID)
	assert.Equal(t, sessionID, got.SessionID)
	assert.Equal(t, 4, got.Participants)
	assert.Equal(t, "gv-1234", got.VoucherCode)
	require.Len(t, got.AddOns, 1)
	assert.Equal(t, addOnID, got.AddOns[0].AddOnID)
	assert.Equal(t, 2, got.AddOns[0].Quantity)
	require.NotNil(t, got.Manual)
	assert.Equal(t, enums.DiscountKindPercentage, got.Manual.Kind)
	assert.True(t, got.Manual.Amount.Equal(decimal.NewFromInt(10)))

	var dto bookings.BookingDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, "CB-ABC123", dto.Reference)
	assert.Equal(t, "180.00", dto.TotalPrice)
}

func TestCreateBookingValidatesBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing first name", body: `{"sessionId":"` + uuid.NewString() + `","lastName":"Ruiz","numberOfPeople":2}`},
		{name: "zero participants", body: `{"sessionId":"` + uuid.NewString() + `","firstName":"Ana","lastName":"Ruiz","numberOfPeople":0}`},
		{name: "bad manual kind", body: `{"sessionId":"` + uuid.NewString() + `","firstName":"Ana","lastName":"Ruiz","numberOfPeople":2,"manualDiscount":{"kind":"bogus","amount":5}}`},
		{name: "unknown field", body: `{"sessionId":"` + uuid.NewString() + `","firstName":"Ana","lastName":"Ruiz","numberOfPeople":2,"price":1}`},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubBookingService{}
			req := withSession(newRequest(http.MethodPost, "/api/v1/bookings", tt.body), guideSession())
			rec := httptest.NewRecorder()

			CreateBooking(svc, testLogger())(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Error.Code)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestCreateBookingSurfacesCapacityConflict(t *testing.T) {
	svc := &stubBookingService{
		createFn: func(context.Context, bookings.Actor, bookings.CreateInput) (*bookings.BookingDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeCapacity, "only 2 places left in this session")
		},
	}
	body := `{"sessionId":"` + uuid.NewString() + `","firstName":"Ana","lastName":"Ruiz","numberOfPeople":6}`
	req := withSession(newRequest(http.MethodPost, "/api/v1/bookings", body), guideSession())
	rec := httptest.NewRecorder()

	CreateBooking(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeCapacity), errBody.Error.Code)
	assert.Equal(t, "only 2 places left in this session", errBody.Error.Message)
}

func TestQuoteBookingAllowsZeroParticipants(t *testing.T) {
	var got bookings.QuoteInput
	svc := &stubBookingService{
		quoteFn: func(_ context.Context, _ bookings.Actor, input bookings.QuoteInput) (*bookings.QuoteDTO, error) {
			got = input
			return &bookings.QuoteDTO{TotalPrice: "0.00"}, nil
		},
	}
	sessionID := uuid.New()
	body := `{"sessionId":"` + sessionID.String() + `","numberOfPeople":0,"promoCode":"SUMMER"}`
	req := withSession(newRequest(http.MethodPost, "/api/v1/bookings/quote", body), guideSession())
	rec := httptest.NewRecorder()

	QuoteBooking(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, sessionID, got.SessionID)
	assert.Zero(t, got.Participants)
	assert.Equal(t, "SUMMER", got.PromoCode)
	assert.Nil(t, got.Manual)
}

func TestUpdateBookingClearsAddOnsWithEmptyList(t *testing.T) {
	bookingID := uuid.New()
	var got bookings.UpdateInput
	svc := &stubBookingService{
		updateFn: func(_ context.Context, _ bookings.Actor, id uuid.UUID, input bookings.UpdateInput) (*bookings.BookingDTO, error) {
			require.Equal(t, bookingID, id)
			got = input
			return &bookings.BookingDTO{ID: id}, nil
		},
	}
	req := withSession(newRequest(http.MethodPut, "/api/v1/bookings/"+bookingID.String(), `{"numberOfPeople":3,"addOns":[]}`), guideSession())
	req = withURLParams(req, "bookingID", bookingID.String())
	rec := httptest.NewRecorder()

	UpdateBooking(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, got.Participants)
	assert.Equal(t, 3, *got.Participants)
	require.NotNil(t, got.AddOns)
	assert.Empty(t, *got.AddOns)
	assert.Nil(t, got.FirstName)
	assert.Nil(t, got.SessionID)
}

func TestUpdateBookingRejectsBadPathID(t *testing.T) {
	svc := &stubBookingService{}
	req := withSession(newRequest(http.MethodPut, "/api/v1/bookings/nope", `{}`), guideSession())
	req = withURLParams(req, "bookingID", "nope")
	rec := httptest.NewRecorder()

	UpdateBooking(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestSetBookingManualPriceAbsoluteTotal(t *testing.T) {
	bookingID := uuid.New()
	var got bookings.ManualPriceInput
	svc := &stubBookingService{
		manualPriceFn: func(_ context.Context, _ bookings.Actor, _ uuid.UUID, input bookings.ManualPriceInput) (*bookings.BookingDTO, error) {
			got = input
			return &bookings.BookingDTO{ID: bookingID, ManualPrice: true}, nil
		},
	}
	req := withSession(newRequest(http.MethodPost, "/", `{"totalPrice":"150.50"}`), guideSession())
	req = withURLParams(req, "bookingID", bookingID.String())
	rec := httptest.NewRecorder()

	SetBookingManualPrice(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, got.Kind)
	assert.Nil(t, got.Amount)
	require.NotNil(t, got.TotalPrice)
	assert.Equal(t, "150.5", got.TotalPrice.String())
}

func TestRecordBookingPaymentMapsMethod(t *testing.T) {
	bookingID := uuid.New()
	var got bookings.PaymentInput
	svc := &stubBookingService{
		paymentFn: func(_ context.Context, _ bookings.Actor, _ uuid.UUID, input bookings.PaymentInput) (*bookings.BookingDTO, error) {
			got = input
			return &bookings.BookingDTO{ID: bookingID}, nil
		},
	}
	req := withSession(newRequest(http.MethodPost, "/", `{"method":"card","amount":50,"reference":"pos-7"}`), guideSession())
	req = withURLParams(req, "bookingID", bookingID.String())
	rec := httptest.NewRecorder()

	RecordBookingPayment(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, enums.PaymentMethodCard, got.Method)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "pos-7", got.Reference)

	bad := withSession(newRequest(http.MethodPost, "/", `{"method":"cheque","amount":50}`), guideSession())
	bad = withURLParams(bad, "bookingID", bookingID.String())
	rec = httptest.NewRecorder()
	RecordBookingPayment(svc, testLogger())(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingAcceptsEmptyBody(t *testing.T) {
	bookingID := uuid.New()
	reason := "unset"
	svc := &stubBookingService{
		cancelFn: func(_ context.Context, _ bookings.Actor, _ uuid.UUID, r string) (*bookings.BookingDTO, error) {
			reason = r
			return &bookings.BookingDTO{ID: bookingID, Status: enums.BookingStatusCancelled}, nil
		},
	}
	req := withSession(newRequest(http.MethodPost, "/", ""), guideSession())
	req = withURLParams(req, "bookingID", bookingID.String())
	rec := httptest.NewRecorder()

	CancelBooking(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "", reason)
}

func TestListSessionBookingsPassesActor(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubBookingService{}
	req := withSession(newRequest(http.MethodGet, "/", ""), guideSession())
	req = withURLParams(req, "sessionID", sessionID.String())
	rec := httptest.NewRecorder()

	ListSessionBookings(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view bookings.SessionBookingsDTO
	decodeData(t, rec, &view)
	assert.Equal(t, sessionID, view.SessionID)
}
