package bookings

import (
	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// storedDiscount rebuilds the active discount from a persisted booking. Absolute manual
// prices and incomplete rows yield nil.
func storedDiscount(b *models.Booking) *pricing.Discount {
	if !b.HasDiscount() || b.ManualPrice || b.DiscountKind == nil || b.DiscountValue == nil {
		return nil
	}
	var d pricing.Discount
	switch b.DiscountType {
	case enums.DiscountModePromo:
		d = pricing.PromoCode(deref(b.VoucherCode), *b.DiscountKind, *b.DiscountValue)
	case enums.DiscountModeVoucher:
		d = pricing.GiftVoucher(deref(b.VoucherCode), *b.DiscountKind, *b.DiscountValue)
	case enums.DiscountModeManual:
		d = pricing.ManualOverride(*b.DiscountKind, *b.DiscountValue)
	default:
		return nil
	}
	return &d
}

// repriceStored prices the booking's stored participants and add-on snapshot against rate.
// Every reprice of an existing booking goes through here, so a discount always drops the
// group rate the same way it does at creation.
func repriceStored(b *models.Booking, rate pricing.Product, d *pricing.Discount) pricing.Quote {
	return pricing.ComputeTotal(rate, b.NumberOfPeople, d, products.Charges(storedLines(b))...).Rounded()
}

// recomputedTotal is what the calculator would charge for b today. Absolute manual prices
// are taken as entered.
func recomputedTotal(b *models.Booking, rate pricing.Product) decimal.Decimal {
	if b.ManualPrice {
		return pricing.Round(b.TotalPrice)
	}
	return repriceStored(b, rate, storedDiscount(b)).Total
}

// applyQuote copies a rounded quote onto the booking's price columns.
func applyQuote(b *models.Booking, q pricing.Quote) {
	b.UnitPrice = q.UnitPrice
	b.BaseAmount = q.Base
	b.DiscountAmount = q.DiscountAmount
	b.AddOnsAmount = q.AddOnsTotal
	b.TotalPrice = q.Total
	setDiscount(b, q.Discount)
}

// setDiscount records d as the booking's single discount; nil clears it.
func setDiscount(b *models.Booking, d *pricing.Discount) {
	b.ManualPrice = false
	if d == nil {
		b.DiscountType = enums.DiscountModeNone
		b.DiscountKind = nil
		b.DiscountValue = nil
		b.VoucherCode = nil
		return
	}
	kind := d.Kind
	value := d.Amount
	b.DiscountType = d.Source
	b.DiscountKind = &kind
	b.DiscountValue = &value
	b.VoucherCode = nil
	if d.Source != enums.DiscountModeManual && d.Code != "" {
		code := d.Code
		b.VoucherCode = &code
	}
}

// applyDiscount reprices b with d, keeping add-ons at full rate.
func applyDiscount(b *models.Booking, rate pricing.Product, d pricing.Discount) {
	applyQuote(b, repriceStored(b, rate, &d))
}

// applyAbsolutePrice overrides the calculator with a staff-entered total. The price columns
// must already hold an undiscounted quote.
func applyAbsolutePrice(b *models.Booking, total decimal.Decimal) {
	setDiscount(b, nil)
	b.DiscountType = enums.DiscountModeManual
	b.ManualPrice = true
	b.TotalPrice = pricing.Round(total)
	gross := b.BaseAmount.Add(b.AddOnsAmount)
	b.DiscountAmount = pricing.Round(decimal.Max(gross.Sub(b.TotalPrice), decimal.Zero))
}

// settle derives the deposit, commission and payment status from the current total.
func settle(b *models.Booking, policy pricing.DepositPolicy, commissionPct decimal.Decimal) {
	b.DepositAmount = pricing.Round(pricing.Deposit(b.TotalPrice, policy))
	b.CommissionAmount = pricing.Round(pricing.Commission(b.TotalPrice, commissionPct))
	b.PaymentStatus = pricing.PaymentStatusFor(b.TotalPrice, b.DepositAmount, b.AmountPaid)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
