package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/api/responses"
	"github.com/angelmondragon/canyonbook-backend/api/validators"
	"github.com/angelmondragon/canyonbook-backend/internal/bookings"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type addOnSelectionRequest struct {
	AddOnID  uuid.UUID `json:"addOnId" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=0,lte=100"`
}

type manualDiscountRequest struct {
	Kind   string          `json:"kind" validate:"required,oneof=percentage fixed"`
	Amount decimal.Decimal `json:"amount"`
}

type quoteRequest struct {
	SessionID      uuid.UUID               `json:"sessionId" validate:"required"`
	NumberOfPeople int                     `json:"numberOfPeople" validate:"gte=0"`
	AddOns         []addOnSelectionRequest `json:"addOns" validate:"omitempty,max=20,dive"`
	PromoCode      string                  `json:"promoCode" validate:"max=40"`
	VoucherCode    string                  `json:"voucherCode" validate:"max=40"`
	Manual         *manualDiscountRequest  `json:"manualDiscount"`
}

type createBookingRequest struct {
	SessionID      uuid.UUID               `json:"sessionId" validate:"required"`
	FirstName      string                  `json:"firstName" validate:"required,max=80"`
	LastName       string                  `json:"lastName" validate:"required,max=80"`
	Email          string                  `json:"email" validate:"omitempty,email,max=254"`
	Phone          string                  `json:"phone" validate:"max=40"`
	NumberOfPeople int                     `json:"numberOfPeople" validate:"gt=0"`
	ResellerID     *uuid.UUID              `json:"resellerId"`
	Notes          string                  `json:"notes" validate:"max=2000"`
	AddOns         []addOnSelectionRequest `json:"addOns" validate:"omitempty,max=20,dive"`
	PromoCode      string                  `json:"promoCode" validate:"max=40"`
	VoucherCode    string                  `json:"voucherCode" validate:"max=40"`
	Manual         *manualDiscountRequest  `json:"manualDiscount"`
}

type updateBookingRequest struct {
	SessionID      *uuid.UUID               `json:"sessionId"`
	FirstName      *string                  `json:"firstName" validate:"omitempty,max=80"`
	LastName       *string                  `json:"lastName" validate:"omitempty,max=80"`
	Email          *string                  `json:"email" validate:"omitempty,max=254"`
	Phone          *string                  `json:"phone" validate:"omitempty,max=40"`
	NumberOfPeople *int                     `json:"numberOfPeople" validate:"omitempty,gt=0"`
	Notes          *string                  `json:"notes" validate:"omitempty,max=2000"`
	AddOns         *[]addOnSelectionRequest `json:"addOns"`
}

type applyDiscountRequest struct {
	PromoCode   string `json:"promoCode" validate:"max=40"`
	VoucherCode string `json:"voucherCode" validate:"max=40"`
}

type manualPriceRequest struct {
	Kind       *string          `json:"kind" validate:"omitempty,oneof=percentage fixed"`
	Amount     *decimal.Decimal `json:"amount"`
	TotalPrice *decimal.Decimal `json:"totalPrice"`
}

type paymentRequest struct {
	Method    string          `json:"method" validate:"required,oneof=cash card stripe"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"max=120"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func selections(in []addOnSelectionRequest) []products.Selection {
	if len(in) == 0 {
		return nil
	}
	out := make([]products.Selection, 0, len(in))
	for _, sel := range in {
		out = append(out, products.Selection{AddOnID: sel.AddOnID, Quantity: sel.Quantity})
	}
	return out
}

func (m *manualDiscountRequest) toInput() *bookings.ManualDiscount {
	if m == nil {
		return nil
	}
	return &bookings.ManualDiscount{Kind: enums.DiscountKind(m.Kind), Amount: m.Amount}
}

func (req updateBookingRequest) toInput() bookings.UpdateInput {
	input := bookings.UpdateInput{
		SessionID:    req.SessionID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Participants: req.NumberOfPeople,
		Notes:        req.Notes,
	}
	if req.AddOns != nil {
		sel := selections(*req.AddOns)
		if sel == nil {
			sel = []products.Selection{}
		}
		input.AddOns = &sel
	}
	return input
}

// QuoteBooking prices a prospective booking for the live form preview.
func QuoteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), actor, bookings.QuoteInput{
			SessionID:    body.SessionID,
			Participants: body.NumberOfPeople,
			AddOns:       selections(body.AddOns),
			PromoCode:    strings.TrimSpace(body.PromoCode),
			VoucherCode:  strings.TrimSpace(body.VoucherCode),
			Manual:       body.Manual.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createBookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), actor, bookings.CreateInput{
			SessionID:    body.SessionID,
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			Phone:        body.Phone,
			Participants: body.NumberOfPeople,
			ResellerID:   body.ResellerID,
			Notes:        body.Notes,
			AddOns:       selections(body.AddOns),
			PromoCode:    strings.TrimSpace(body.PromoCode),
			VoucherCode:  strings.TrimSpace(body.VoucherCode),
			Manual:       body.Manual.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, booking)
	}
}

func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, id, err := bookingTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func UpdateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, id, err := bookingTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateBookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.AddOns != nil {
			for _, sel := range *body.AddOns {
				if err := validators.Struct(sel); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}

		booking, err := svc.Update(r.Context(), actor, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// ApplyBookingDiscount attaches a promo code or gift voucher to an existing booking.
func ApplyBookingDiscount(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, id, err := bookingTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.ApplyDiscount(r.Context(), actor, id, bookings.ApplyDiscountInput{
			PromoCode:   strings.TrimSpace(body.PromoCode),
			VoucherCode: strings.TrimSpace(body.VoucherCode),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// SetBookingManualPrice applies a staff discount or overrides the total outright.
func SetBookingManualPrice(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, id, err := bookingTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body manualPriceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := bookings.ManualPriceInput{Amount: body.Amount, TotalPrice: body.TotalPrice}
		if body.Kind != nil {
			kind := enums.DiscountKind(*body.Kind)
			input.Kind = &kind
		}

		booking, err := svc.SetManualPrice(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func RecordBookingPayment(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, id, err := bookingTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.RecordPayment(r.Context(), actor, id, bookings.PaymentInput{
			Method:    enums.PaymentMethod(body.Method),
			Amount:    body.Amount,
			Reference: body.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, booking)
	}
}

func CancelBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actor, id, err := bookingTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The reason is optional, so an empty body is accepted.
		var body cancelBookingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		booking, err := svc.Cancel(r.Context(), actor, id, strings.TrimSpace(body.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func bookingTarget(r *http.Request) (bookings.Actor, uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return bookings.Actor{}, uuid.Nil, err
	}
	id, err := validators.ParseUUIDParam(r, "bookingID")
	if err != nil {
		return bookings.Actor{}, uuid.Nil, err
	}
	return actor, id, nil
}
