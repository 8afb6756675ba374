package bookingform

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var (
	ErrNotEditing     = errors.New("booking form is not editable in its current state")
	ErrNotRetryable   = errors.New("booking form has not failed")
	ErrNoVerifier     = errors.New("voucher verifier not configured")
	ErrNoSubmitter    = errors.New("booking submitter not configured")
	errAlreadySuccess = fmt.Errorf("booking form already submitted: %w", ErrNotEditing)
)

// Submission is what the form hands to the persistence layer once validation passes.
type Submission struct {
	Draft    Draft
	Quote    pricing.Quote
	Discount *pricing.Discount
}

// Submitter persists a validated draft. It returns the booking id.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (string, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) (string, error)

func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) (string, error) {
	return f(ctx, sub)
}

// VoucherVerifier looks a gift voucher up. The returned verification is matched against
// the code the request was issued for before it is applied.
type VoucherVerifier interface {
	Verify(ctx context.Context, code string) (pricing.VoucherVerification, error)
}

// Controller drives one booking form: it owns the draft, reprices it on every change and
// walks Editing -> Validating -> Submitting -> Success|Failed. It is not safe for concurrent use.
type Controller struct {
	state    State
	draft    Draft
	target   *Target
	resolver *pricing.Resolver
	quote    pricing.Quote

	submitter Submitter
	verifier  VoucherVerifier

	fieldErrors map[string]string
	lastError   error
	bookingID   string
}

type Options struct {
	Submitter Submitter
	Verifier  VoucherVerifier
	// Existing preloads the form when editing a persisted booking.
	Existing *Draft
	// Discount restores the discount persisted with Existing.
	Discount *pricing.Discount
}

func New(opts Options) *Controller {
	c := &Controller{
		state:     StateEditing,
		resolver:  pricing.NewResolver(),
		submitter: opts.Submitter,
		verifier:  opts.Verifier,
	}
	if opts.Existing != nil {
		c.draft = opts.Existing.clone()
	}
	if opts.Discount != nil {
		c.resolver.Restore(*opts.Discount)
	}
	c.recompute()
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Draft() Draft {
	return c.draft.clone()
}

// Quote is the current full-precision price of the draft.
func (c *Controller) Quote() pricing.Quote {
	return c.quote
}

func (c *Controller) FieldErrors() map[string]string {
	return c.fieldErrors
}

func (c *Controller) LastError() error {
	return c.lastError
}

func (c *Controller) BookingID() string {
	return c.bookingID
}

func (c *Controller) DiscountMode() enums.DiscountMode {
	return c.resolver.Mode()
}

// InputEnabled reports whether the given discount input currently accepts changes.
func (c *Controller) InputEnabled(input enums.DiscountMode) bool {
	return c.state == StateEditing && c.resolver.InputEnabled(input)
}

// VoucherMessage is the last user-facing voucher verification message.
func (c *Controller) VoucherMessage() string {
	return c.resolver.Message()
}

func (c *Controller) SetTarget(t Target) error {
	return c.edit(func() error {
		tt := t
		c.target = &tt
		c.draft.ProductID = t.ProductID
		return nil
	})
}

func (c *Controller) SetCustomer(firstName, lastName, email, phone string) error {
	return c.edit(func() error {
		c.draft.FirstName = firstName
		c.draft.LastName = lastName
		c.draft.Email = email
		c.draft.Phone = phone
		return nil
	})
}

func (c *Controller) SetParticipants(n int) error {
	return c.edit(func() error {
		c.draft.Participants = n
		return nil
	})
}

func (c *Controller) SetReseller(enabled bool, resellerID string) error {
	return c.edit(func() error {
		c.draft.ResellerBooking = enabled
		c.draft.ResellerID = ""
		if enabled {
			c.draft.ResellerID = resellerID
		}
		return nil
	})
}

func (c *Controller) SetAddOns(addOns []pricing.AddOn) error {
	return c.edit(func() error {
		c.draft.AddOns = append([]pricing.AddOn(nil), addOns...)
		return nil
	})
}

func (c *Controller) SetNotes(notes string) error {
	return c.edit(func() error {
		c.draft.Notes = notes
		return nil
	})
}

func (c *Controller) SelectPromo(promo pricing.Discount) error {
	return c.edit(func() error {
		if !c.resolver.InputEnabled(enums.DiscountModePromo) {
			return pricing.ErrInputDisabled
		}
		c.resolver.SelectPromo(promo)
		return nil
	})
}

func (c *Controller) SetManualDiscount(kind enums.DiscountKind, amount decimal.Decimal) error {
	return c.edit(func() error {
		if !c.resolver.InputEnabled(enums.DiscountModeManual) {
			return pricing.ErrInputDisabled
		}
		c.resolver.SetManual(kind, amount)
		return nil
	})
}

func (c *Controller) ClearDiscount() error {
	return c.edit(func() error {
		c.resolver.Clear()
		return nil
	})
}

func (c *Controller) SetVoucherInput(code string) error {
	return c.edit(func() error {
		return c.resolver.SetVoucherInput(code)
	})
}

// BeginVoucherVerification tags an outgoing verification with the current voucher input.
func (c *Controller) BeginVoucherVerification() (string, error) {
	if err := c.editable(); err != nil {
		return "", err
	}
	return c.resolver.BeginVoucherVerification()
}

// ApplyVoucherVerification applies a verification response. It returns false when the
// response was stale and discarded.
func (c *Controller) ApplyVoucherVerification(res pricing.VoucherVerification) bool {
	if c.state != StateEditing {
		return false
	}
	applied := c.resolver.CompleteVoucherVerification(res)
	if applied {
		c.recompute()
	}
	return applied
}

// VerifyVoucher runs a full verification round-trip against the configured verifier.
// Transport errors leave the form in "no discount" with a message and are not fatal.
func (c *Controller) VerifyVoucher(ctx context.Context) (bool, error) {
	if c.verifier == nil {
		return false, ErrNoVerifier
	}
	code, err := c.BeginVoucherVerification()
	if err != nil {
		return false, err
	}
	res, err := c.verifier.Verify(ctx, code)
	if err != nil {
		res = pricing.VoucherVerification{Code: code, Valid: false, Message: "voucher could not be verified, try again"}
	}
	if !c.ApplyVoucherVerification(res) {
		return false, nil
	}
	return c.resolver.Mode() == enums.DiscountModeVoucher, nil
}

// Submit validates the draft and, when it is clean, hands it to the submitter.
// Validation failures return the form to Editing with field errors and a *ValidationError.
// Submitter failures leave the form Failed; Retry returns it to Editing with the draft intact.
func (c *Controller) Submit(ctx context.Context) error {
	if err := c.editable(); err != nil {
		return err
	}
	if c.submitter == nil {
		return ErrNoSubmitter
	}

	c.state = StateValidating
	c.draft.normalize()
	c.recompute()
	if fields := validateDraft(c.draft, c.target); fields != nil {
		c.fieldErrors = fields
		c.state = StateEditing
		return &ValidationError{Fields: fields}
	}
	c.fieldErrors = nil

	c.state = StateSubmitting
	id, err := c.submitter.Submit(ctx, Submission{
		Draft:    c.draft.clone(),
		Quote:    c.quote.Rounded(),
		Discount: c.resolver.Resolve(),
	})
	if err != nil {
		c.state = StateFailed
		c.lastError = err
		return fmt.Errorf("submit booking: %w", err)
	}

	c.state = StateSuccess
	c.lastError = nil
	c.bookingID = id
	return nil
}

// Retry moves a failed form back to Editing without touching the draft.
func (c *Controller) Retry() error {
	if c.state != StateFailed {
		return ErrNotRetryable
	}
	c.state = StateEditing
	return nil
}

func (c *Controller) editable() error {
	switch {
	case c.state.Terminal():
		return errAlreadySuccess
	case c.state != StateEditing:
		return ErrNotEditing
	}
	return nil
}

func (c *Controller) edit(mutate func() error) error {
	if err := c.editable(); err != nil {
		return err
	}
	if err := mutate(); err != nil {
		return err
	}
	c.recompute()
	return nil
}

func (c *Controller) recompute() {
	if c.target == nil {
		c.quote = pricing.ComputeTotal(pricing.Product{}, 0, nil)
		return
	}
	c.quote = pricing.ComputeTotal(c.target.Product, c.draft.Participants, c.resolver.Resolve(), c.draft.AddOns...)
}
