package enums

import (
	"fmt"
	"strings"
)

// DiscountKind selects how a discount amount is applied to a base price.
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "percentage"
	DiscountKindFixed      DiscountKind = "fixed"
)

var validDiscountKinds = []DiscountKind{
	DiscountKindPercentage,
	DiscountKindFixed,
}

func (k DiscountKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known DiscountKind.
func (k DiscountKind) IsValid() bool {
	for _, candidate := range validDiscountKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDiscountKind converts raw input into a DiscountKind.
func ParseDiscountKind(value string) (DiscountKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDiscountKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount kind %q", value)
}

// DiscountMode is the single source of truth for which discount input is active on a booking.
type DiscountMode string

const (
	DiscountModeNone    DiscountMode = "none"
	DiscountModePromo   DiscountMode = "promo"
	DiscountModeVoucher DiscountMode = "voucher"
	DiscountModeManual  DiscountMode = "manual"
)

var validDiscountModes = []DiscountMode{
	DiscountModeNone,
	DiscountModePromo,
	DiscountModeVoucher,
	DiscountModeManual,
}

func (m DiscountMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known DiscountMode.
func (m DiscountMode) IsValid() bool {
	for _, candidate := range validDiscountModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDiscountMode converts raw input into a DiscountMode. Empty input maps to none.
func ParseDiscountMode(value string) (DiscountMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return DiscountModeNone, nil
	}
	for _, candidate := range validDiscountModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount mode %q", value)
}
