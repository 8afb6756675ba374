package pricing

import (
	"errors"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ErrDiscountAlreadyApplied is returned when a second discount would stack on a booking.
var ErrDiscountAlreadyApplied = errors.New("discount already applied")

var hundred = decimal.NewFromInt(100)

// Discount is the single active discount on a quote. Source is promo, voucher, or manual;
// Code is empty for manual overrides.
type Discount struct {
	Source enums.DiscountMode
	Code   string
	Kind   enums.DiscountKind
	Amount decimal.Decimal
}

func PromoCode(code string, kind enums.DiscountKind, amount decimal.Decimal) Discount {
	return Discount{Source: enums.DiscountModePromo, Code: normalizeCode(code), Kind: kind, Amount: amount}
}

func GiftVoucher(code string, kind enums.DiscountKind, amount decimal.Decimal) Discount {
	return Discount{Source: enums.DiscountModeVoucher, Code: normalizeCode(code), Kind: kind, Amount: amount}
}

func ManualOverride(kind enums.DiscountKind, amount decimal.Decimal) Discount {
	return Discount{Source: enums.DiscountModeManual, Kind: kind, Amount: amount}
}

func (d Discount) valid() bool {
	return d.Kind.IsValid() && !d.Amount.IsNegative()
}

// ApplyDiscount reduces base by the discount and never goes below zero.
// The returned amount is what was actually taken off, so a fixed discount larger
// than base reports base, not its nominal value.
func ApplyDiscount(base decimal.Decimal, d *Discount) (total, amount decimal.Decimal) {
	if d == nil || base.IsNegative() {
		return decimal.Max(base, decimal.Zero), decimal.Zero
	}

	switch d.Kind {
	case enums.DiscountKindPercentage:
		total = base.Mul(hundred.Sub(d.Amount)).Div(hundred)
	case enums.DiscountKindFixed:
		total = base.Sub(d.Amount)
	default:
		return base, decimal.Zero
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total, base.Sub(total)
}

// EnsureNoDiscount rejects stacking a promo or voucher on a booking that already
// carries a voucher code or a discount of any source.
func EnsureNoDiscount(existingCode string, existingMode enums.DiscountMode) error {
	if strings.TrimSpace(existingCode) != "" {
		return ErrDiscountAlreadyApplied
	}
	if existingMode != "" && existingMode != enums.DiscountModeNone {
		return ErrDiscountAlreadyApplied
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeCode is the canonical form codes are stored and compared in.
func NormalizeCode(code string) string {
	return normalizeCode(code)
}
