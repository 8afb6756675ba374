package enums

import "fmt"

// PaymentStatus summarises how much of a booking's total has been collected.
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "unpaid"
	PaymentStatusDepositPaid PaymentStatus = "deposit_paid"
	PaymentStatusPaid        PaymentStatus = "paid"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusDepositPaid,
	PaymentStatusPaid,
}

func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// PaymentMethod is how a payment was collected.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodStripe PaymentMethod = "stripe"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodStripe,
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// DepositKind is the per-guide deposit policy type.
type DepositKind string

const (
	DepositKindNone       DepositKind = "none"
	DepositKindPercentage DepositKind = "percentage"
	DepositKindFixed      DepositKind = "fixed"
)

// IsValid reports whether the value is a known DepositKind.
func (k DepositKind) IsValid() bool {
	switch k {
	case DepositKindNone, DepositKindPercentage, DepositKindFixed:
		return true
	}
	return false
}

// ParseDepositKind converts raw input into a DepositKind. Empty input maps to none.
func ParseDepositKind(value string) (DepositKind, error) {
	if value == "" {
		return DepositKindNone, nil
	}
	k := DepositKind(value)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid deposit kind %q", value)
	}
	return k, nil
}
