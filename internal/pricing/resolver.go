package pricing

import (
	"errors"

	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ErrInputDisabled is returned when a discount input is changed while another source owns the mode.
var ErrInputDisabled = errors.New("discount input disabled")

// VoucherVerification is the answer to a voucher lookup, tagged with the code it was issued for.
type VoucherVerification struct {
	Code    string
	Valid   bool
	Voucher *Discount
	Message string
}

// Resolver holds the discount candidates for one draft and guarantees at most one is active.
// A single DiscountMode drives both which candidate Resolve returns and which input is enabled.
// It is not safe for concurrent use; each draft owns its resolver.
type Resolver struct {
	mode     enums.DiscountMode
	selected *Discount

	voucherInput string
	pending      string
	message      string
}

func NewResolver() *Resolver {
	return &Resolver{mode: enums.DiscountModeNone}
}

// Mode reports which discount source is currently active.
func (r *Resolver) Mode() enums.DiscountMode {
	return r.mode
}

// Message is the last user-facing verification message, if any.
func (r *Resolver) Message() string {
	return r.message
}

// Pending reports the voucher code currently being verified, or "".
func (r *Resolver) Pending() string {
	return r.pending
}

// VoucherInput is the current content of the voucher field.
func (r *Resolver) VoucherInput() string {
	return r.voucherInput
}

// Resolve returns the active discount or nil.
func (r *Resolver) Resolve() *Discount {
	if r.mode == enums.DiscountModeNone || r.selected == nil {
		return nil
	}
	d := *r.selected
	return &d
}

// InputEnabled reports whether the given discount input accepts changes. With no discount
// active every input is open, except while a voucher verification is in flight; otherwise
// only the input owning the current mode is.
func (r *Resolver) InputEnabled(input enums.DiscountMode) bool {
	switch {
	case r.mode == enums.DiscountModeNone && r.pending == "":
		return true
	case r.mode == enums.DiscountModeNone:
		return input == enums.DiscountModeVoucher
	default:
		return r.mode == input
	}
}

// SelectPromo activates a promo code, clearing any voucher or manual override.
func (r *Resolver) SelectPromo(d Discount) {
	d.Source = enums.DiscountModePromo
	d.Code = normalizeCode(d.Code)
	r.voucherInput = ""
	r.pending = ""
	r.message = ""
	r.activate(d)
}

// SetManual activates a staff override, clearing any promo or voucher.
func (r *Resolver) SetManual(kind enums.DiscountKind, amount decimal.Decimal) {
	r.voucherInput = ""
	r.pending = ""
	r.message = ""
	r.activate(ManualOverride(kind, amount))
}

// Clear drops any active discount and any in-flight verification.
func (r *Resolver) Clear() {
	r.mode = enums.DiscountModeNone
	r.selected = nil
	r.voucherInput = ""
	r.pending = ""
	r.message = ""
}

// Restore reinstates a discount already persisted on a booking. It is trusted as-is:
// vouchers are not verified again and no usage is consumed.
func (r *Resolver) Restore(d Discount) {
	r.Clear()
	if !d.Source.IsValid() || d.Source == enums.DiscountModeNone {
		return
	}
	d.Code = normalizeCode(d.Code)
	if d.Source == enums.DiscountModeVoucher {
		r.voucherInput = d.Code
	}
	r.activate(d)
}

// SetVoucherInput records what the user typed in the voucher field. Editing the field
// invalidates a previously applied voucher and any verification issued for another code.
func (r *Resolver) SetVoucherInput(code string) error {
	if !r.InputEnabled(enums.DiscountModeVoucher) {
		return ErrInputDisabled
	}
	normalized := normalizeCode(code)
	if normalized == r.voucherInput {
		return nil
	}
	r.voucherInput = normalized
	r.message = ""
	if r.mode == enums.DiscountModeVoucher {
		r.mode = enums.DiscountModeNone
		r.selected = nil
	}
	if r.pending != normalized {
		r.pending = ""
	}
	return nil
}

// BeginVoucherVerification tags a verification request with the current voucher input.
// The returned code must be echoed back in the VoucherVerification.
func (r *Resolver) BeginVoucherVerification() (string, error) {
	if r.voucherInput == "" {
		return "", errors.New("voucher code required")
	}
	if !r.InputEnabled(enums.DiscountModeVoucher) {
		return "", ErrInputDisabled
	}
	r.pending = r.voucherInput
	r.message = ""
	return r.pending, nil
}

// CompleteVoucherVerification applies a verification result. Responses for a code that
// no longer matches the voucher field are discarded and false is returned. A failed
// verification leaves the resolver with no discount and a message; the user may retry.
func (r *Resolver) CompleteVoucherVerification(res VoucherVerification) bool {
	code := normalizeCode(res.Code)
	if code == "" || code != r.voucherInput || code != r.pending {
		return false
	}
	r.pending = ""

	if !res.Valid || res.Voucher == nil || !res.Voucher.valid() {
		r.mode = enums.DiscountModeNone
		r.selected = nil
		r.message = res.Message
		if r.message == "" {
			r.message = "invalid voucher code"
		}
		return true
	}

	d := *res.Voucher
	d.Source = enums.DiscountModeVoucher
	d.Code = code
	r.message = res.Message
	r.activate(d)
	return true
}

func (r *Resolver) activate(d Discount) {
	r.mode = d.Source
	r.selected = &d
}
