package pricing

import (
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// DepositPolicy is a guide's partial-payment rule, applied to the final total and
// independent of any discount.
type DepositPolicy struct {
	Kind   enums.DepositKind
	Amount decimal.Decimal
}

// Deposit returns the amount due at booking time, capped at total.
func Deposit(total decimal.Decimal, policy DepositPolicy) decimal.Decimal {
	if !total.IsPositive() || policy.Amount.IsNegative() {
		return decimal.Zero
	}

	var due decimal.Decimal
	switch policy.Kind {
	case enums.DepositKindPercentage:
		due = total.Mul(policy.Amount).Div(hundred)
	case enums.DepositKindFixed:
		due = policy.Amount
	default:
		return decimal.Zero
	}
	return decimal.Min(due, total)
}

// Commission is the reseller's share of a booking total.
func Commission(total, percentage decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() || !percentage.IsPositive() {
		return decimal.Zero
	}
	return total.Mul(percentage).Div(hundred)
}

// PaymentStatusFor derives the payment status from what has been collected so far.
func PaymentStatusFor(total, deposit, paid decimal.Decimal) enums.PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total) && total.IsPositive():
		return enums.PaymentStatusPaid
	case paid.IsPositive() && deposit.IsPositive() && paid.GreaterThanOrEqual(deposit):
		return enums.PaymentStatusDepositPaid
	case total.IsZero():
		return enums.PaymentStatusPaid
	default:
		return enums.PaymentStatusUnpaid
	}
}
