package bookings

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingDTO is a persisted booking. Money is rendered with two decimals.
type BookingDTO struct {
	ID               uuid.UUID           `json:"id"`
	Reference        string              `json:"reference"`
	SessionID        uuid.UUID           `json:"sessionId"`
	ProductID        uuid.UUID           `json:"productId"`
	FirstName        string              `json:"firstName"`
	LastName         string              `json:"lastName"`
	Email            *string             `json:"email,omitempty"`
	Phone            *string             `json:"phone,omitempty"`
	NumberOfPeople   int                 `json:"numberOfPeople"`
	Status           enums.BookingStatus `json:"status"`
	UnitPrice        string              `json:"unitPrice"`
	BaseAmount       string              `json:"baseAmount"`
	DiscountType     enums.DiscountMode  `json:"discountType"`
	DiscountKind     *enums.DiscountKind `json:"discountKind,omitempty"`
	DiscountValue    *string             `json:"discountValue,omitempty"`
	DiscountAmount   string              `json:"discountAmount"`
	VoucherCode      *string             `json:"voucherCode,omitempty"`
	AddOnsAmount     string              `json:"addOnsAmount"`
	TotalPrice       string              `json:"totalPrice"`
	ManualPrice      bool                `json:"manualPrice"`
	DepositAmount    string              `json:"depositAmount"`
	AmountPaid       string              `json:"amountPaid"`
	AmountDue        string              `json:"amountDue"`
	PaymentStatus    enums.PaymentStatus `json:"paymentStatus"`
	ResellerID       *uuid.UUID          `json:"resellerId,omitempty"`
	CommissionAmount string              `json:"commissionAmount"`
	Notes            *string             `json:"notes,omitempty"`
	AddOns           []AddOnLineDTO      `json:"addOns"`
	Payments         []PaymentDTO        `json:"payments,omitempty"`
	CancelledAt      *time.Time          `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type AddOnLineDTO struct {
	AddOnID  uuid.UUID `json:"addOnId"`
	Name     string    `json:"name"`
	UnitFee  string    `json:"unitFee"`
	Quantity int       `json:"quantity"`
}

type PaymentDTO struct {
	ID        uuid.UUID           `json:"id"`
	Method    enums.PaymentMethod `json:"method"`
	Amount    string              `json:"amount"`
	Reference *string             `json:"reference,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// SessionBookingDTO is one row of the session bulk view. ComputedTotal is the price the
// calculator derives from the product's rate table, the stored add-ons and the stored
// discount; PriceMismatch flags rows where it disagrees with the stored total.
type SessionBookingDTO struct {
	BookingDTO
	ComputedTotal string `json:"computedTotal"`
	PriceMismatch bool   `json:"priceMismatch"`
}

// SessionTotalsDTO sums the capacity-holding bookings of a session.
type SessionTotalsDTO struct {
	Bookings     int    `json:"bookings"`
	Participants int    `json:"participants"`
	TotalPrice   string `json:"totalPrice"`
	AmountPaid   string `json:"amountPaid"`
	Outstanding  string `json:"outstanding"`
	Commission   string `json:"commission"`
}

type SessionBookingsDTO struct {
	SessionID uuid.UUID           `json:"sessionId"`
	Bookings  []SessionBookingDTO `json:"bookings"`
	Totals    SessionTotalsDTO    `json:"totals"`
}

// QuoteDTO answers the price preview endpoint.
type QuoteDTO struct {
	Participants     int          `json:"participants"`
	UnitPrice        string       `json:"unitPrice"`
	GroupRateApplied bool         `json:"groupRateApplied"`
	BaseAmount       string       `json:"baseAmount"`
	DiscountAmount   string       `json:"discountAmount"`
	AddOnsAmount     string       `json:"addOnsAmount"`
	TotalPrice       string       `json:"totalPrice"`
	DepositAmount    string       `json:"depositAmount"`
	Discount         *DiscountDTO `json:"discount,omitempty"`
	VoucherMessage   string       `json:"voucherMessage,omitempty"`
	RemainingSeats   int          `json:"remainingCapacity"`
	Currency         string       `json:"currency,omitempty"`
}

type DiscountDTO struct {
	Source enums.DiscountMode `json:"source"`
	Code   string             `json:"code,omitempty"`
	Kind   enums.DiscountKind `json:"kind"`
	Amount string             `json:"amount"`
}

func money(d decimal.Decimal) string {
	return pricing.Round(d).StringFixed(2)
}

func NewBookingDTO(b *models.Booking) *BookingDTO {
	dto := &BookingDTO{
		ID:               b.ID,
		Reference:        b.Reference,
		SessionID:        b.SessionID,
		ProductID:        b.ProductID,
		FirstName:        b.FirstName,
		LastName:         b.LastName,
		Email:            b.Email,
		Phone:            b.Phone,
		NumberOfPeople:   b.NumberOfPeople,
		Status:           b.Status,
		UnitPrice:        money(b.UnitPrice),
		BaseAmount:       money(b.BaseAmount),
		DiscountType:     b.DiscountType,
		DiscountKind:     b.DiscountKind,
		DiscountAmount:   money(b.DiscountAmount),
		VoucherCode:      b.VoucherCode,
		AddOnsAmount:     money(b.AddOnsAmount),
		TotalPrice:       money(b.TotalPrice),
		ManualPrice:      b.ManualPrice,
		DepositAmount:    money(b.DepositAmount),
		AmountPaid:       money(b.AmountPaid),
		AmountDue:        money(decimal.Max(b.TotalPrice.Sub(b.AmountPaid), decimal.Zero)),
		PaymentStatus:    b.PaymentStatus,
		ResellerID:       b.ResellerID,
		CommissionAmount: money(b.CommissionAmount),
		Notes:            b.Notes,
		AddOns:           make([]AddOnLineDTO, 0, len(b.AddOns)),
		CancelledAt:      b.CancelledAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.DiscountValue != nil {
		v := money(*b.DiscountValue)
		dto.DiscountValue = &v
	}
	for _, a := range b.AddOns {
		dto.AddOns = append(dto.AddOns, AddOnLineDTO{AddOnID: a.AddOnID, Name: a.Name, UnitFee: money(a.UnitFee), Quantity: a.Quantity})
	}
	for _, p := range b.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{ID: p.ID, Method: p.Method, Amount: money(p.Amount), Reference: p.Reference, CreatedAt: p.CreatedAt})
	}
	return dto
}

func newQuoteDTO(q pricing.Quote, deposit decimal.Decimal) *QuoteDTO {
	r := q.Rounded()
	dto := &QuoteDTO{
		Participants:     r.Participants,
		UnitPrice:        r.UnitPrice.StringFixed(2),
		GroupRateApplied: r.GroupRateApplied,
		BaseAmount:       r.Base.StringFixed(2),
		DiscountAmount:   r.DiscountAmount.StringFixed(2),
		AddOnsAmount:     r.AddOnsTotal.StringFixed(2),
		TotalPrice:       r.Total.StringFixed(2),
		DepositAmount:    money(deposit),
	}
	if r.Discount != nil {
		dto.Discount = &DiscountDTO{
			Source: r.Discount.Source,
			Code:   r.Discount.Code,
			Kind:   r.Discount.Kind,
			Amount: r.Discount.Amount.String(),
		}
	}
	return dto
}
