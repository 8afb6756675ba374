package payloads

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
)

// BookingCreatedEvent announces a new confirmed booking.
type BookingCreatedEvent struct {
	BookingID      uuid.UUID          `json:"booking_id"`
	Reference      string             `json:"reference"`
	SessionID      uuid.UUID          `json:"session_id"`
	ProductID      uuid.UUID          `json:"product_id"`
	GuideID        *uuid.UUID         `json:"guide_id,omitempty"`
	ResellerID     *uuid.UUID         `json:"reseller_id,omitempty"`
	CustomerName   string             `json:"customer_name"`
	CustomerEmail  *string            `json:"customer_email,omitempty"`
	NumberOfPeople int                `json:"number_of_people"`
	DiscountType   enums.DiscountMode `json:"discount_type"`
	TotalPrice     string             `json:"total_price"`
	DepositAmount  string             `json:"deposit_amount"`
	StartsAt       time.Time          `json:"starts_at"`
}

// BookingUpdatedEvent is emitted when customer details or the party size change.
type BookingUpdatedEvent struct {
	BookingID      uuid.UUID  `json:"booking_id"`
	Reference      string     `json:"reference"`
	GuideID        *uuid.UUID `json:"guide_id,omitempty"`
	NumberOfPeople int        `json:"number_of_people"`
	TotalPrice     string     `json:"total_price"`
	ChangedFields  []string   `json:"changed_fields"`
}

// BookingCancelledEvent releases the booking's seats.
type BookingCancelledEvent struct {
	BookingID      uuid.UUID  `json:"booking_id"`
	Reference      string     `json:"reference"`
	SessionID      uuid.UUID  `json:"session_id"`
	GuideID        *uuid.UUID `json:"guide_id,omitempty"`
	NumberOfPeople int        `json:"number_of_people"`
	Reason         string     `json:"reason,omitempty"`
}

// BookingDiscountAppliedEvent records a discount added after creation.
type BookingDiscountAppliedEvent struct {
	BookingID      uuid.UUID          `json:"booking_id"`
	Reference      string             `json:"reference"`
	GuideID        *uuid.UUID         `json:"guide_id,omitempty"`
	DiscountType   enums.DiscountMode `json:"discount_type"`
	Code           string             `json:"code,omitempty"`
	DiscountAmount string             `json:"discount_amount"`
	TotalPrice     string             `json:"total_price"`
	ManualPrice    bool               `json:"manual_price"`
}

// BookingPaymentRecordedEvent is emitted for every payment collected.
type BookingPaymentRecordedEvent struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	Reference     string              `json:"reference"`
	GuideID       *uuid.UUID          `json:"guide_id,omitempty"`
	PaymentID     uuid.UUID           `json:"payment_id"`
	Method        enums.PaymentMethod `json:"method"`
	Amount        string              `json:"amount"`
	AmountPaid    string              `json:"amount_paid"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// GiftVoucherExpiredEvent is emitted by the expiry job.
type GiftVoucherExpiredEvent struct {
	VoucherID uuid.UUID `json:"voucher_id"`
	Code      string    `json:"code"`
	UsedCount int       `json:"used_count"`
	MaxUses   int       `json:"max_uses"`
	ExpiredAt time.Time `json:"expired_at"`
}

func (e BookingCreatedEvent) BookingRef() string         { return e.Reference }
func (e BookingUpdatedEvent) BookingRef() string         { return e.Reference }
func (e BookingCancelledEvent) BookingRef() string       { return e.Reference }
func (e BookingDiscountAppliedEvent) BookingRef() string { return e.Reference }
func (e BookingPaymentRecordedEvent) BookingRef() string { return e.Reference }
