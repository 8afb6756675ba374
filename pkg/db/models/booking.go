package models

import (
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is a persisted client booking on a session. BaseAmount keeps the undiscounted
// participant price so later discount edits never compound.
type Booking struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference        string              `gorm:"column:reference;not null;uniqueIndex"`
	SessionID        uuid.UUID           `gorm:"column:session_id;type:uuid;not null"`
	ProductID        uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	FirstName        string              `gorm:"column:first_name;not null"`
	LastName         string              `gorm:"column:last_name;not null"`
	Email            *string             `gorm:"column:email"`
	Phone            *string             `gorm:"column:phone"`
	NumberOfPeople   int                 `gorm:"column:number_of_people;not null"`
	Status           enums.BookingStatus `gorm:"column:status;not null;default:'confirmed'"`
	UnitPrice        decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	BaseAmount       decimal.Decimal     `gorm:"column:base_amount;type:numeric(12,2);not null"`
	DiscountType     enums.DiscountMode  `gorm:"column:discount_type;not null;default:'none'"`
	DiscountKind     *enums.DiscountKind `gorm:"column:discount_kind"`
	DiscountValue    *decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2)"`
	DiscountAmount   decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	VoucherCode      *string             `gorm:"column:voucher_code"`
	AddOnsAmount     decimal.Decimal     `gorm:"column:add_ons_amount;type:numeric(12,2);not null"`
	TotalPrice       decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	ManualPrice      bool                `gorm:"column:manual_price;not null;default:false"`
	DepositAmount    decimal.Decimal     `gorm:"column:deposit_amount;type:numeric(12,2);not null"`
	AmountPaid       decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	ResellerID       *uuid.UUID          `gorm:"column:reseller_id;type:uuid"`
	CommissionAmount decimal.Decimal     `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	Notes            *string             `gorm:"column:notes"`
	CreatedBy        *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	AddOns   []BookingAddOn   `gorm:"foreignKey:BookingID;references:ID"`
	Payments []BookingPayment `gorm:"foreignKey:BookingID;references:ID"`
}

func (Booking) TableName() string { return "bookings" }

// HasDiscount reports whether any discount source is recorded on the booking.
func (b Booking) HasDiscount() bool {
	return b.DiscountType != "" && b.DiscountType != enums.DiscountModeNone
}

// BookingAddOn snapshots an add-on at the fee charged when the booking was priced.
type BookingAddOn struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID       `gorm:"column:booking_id;type:uuid;not null"`
	AddOnID   uuid.UUID       `gorm:"column:add_on_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitFee   decimal.Decimal `gorm:"column:unit_fee;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}

func (BookingAddOn) TableName() string { return "booking_add_ons" }

// BookingPayment records money collected against a booking.
type BookingPayment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID  uuid.UUID           `gorm:"column:booking_id;type:uuid;not null"`
	Method     enums.PaymentMethod `gorm:"column:method;not null"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Reference  *string             `gorm:"column:reference"`
	RecordedBy *uuid.UUID          `gorm:"column:recorded_by;type:uuid"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (BookingPayment) TableName() string { return "booking_payments" }
