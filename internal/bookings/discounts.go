package bookings

import (
	"context"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/internal/products"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplyDiscountInput names exactly one code to apply to an undiscounted booking.
type ApplyDiscountInput struct {
	PromoCode   string
	VoucherCode string
}

// ManualPriceInput is either a manual discount (Kind with Amount) or an absolute TotalPrice.
type ManualPriceInput struct {
	Kind       *enums.DiscountKind
	Amount     *decimal.Decimal
	TotalPrice *decimal.Decimal
}

func (in ManualPriceInput) validate() error {
	fields := map[string]string{}
	switch {
	case in.TotalPrice != nil && (in.Kind != nil || in.Amount != nil):
		fields["totalPrice"] = "send either totalPrice or discountType with discountValue"
	case in.TotalPrice != nil:
		if in.TotalPrice.IsNegative() {
			fields["totalPrice"] = "must not be negative"
		}
	case in.Kind == nil || in.Amount == nil:
		fields["discountType"] = "discountType and discountValue are required"
	default:
		if !in.Kind.IsValid() {
			fields["discountType"] = "must be percentage or fixed"
		}
		if in.Amount.IsNegative() {
			fields["discountValue"] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid manual price").WithDetails(fields)
	}
	return nil
}

func (s *service) ApplyDiscount(ctx context.Context, actor Actor, id uuid.UUID, input ApplyDiscountInput) (*BookingDTO, error) {
	booking, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == enums.BookingStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled bookings cannot be discounted")
	}
	if err := ensureNoDiscount(booking); err != nil {
		return nil, s.reject(err)
	}

	promo := strings.TrimSpace(input.PromoCode)
	voucher := strings.TrimSpace(input.VoucherCode)
	if (promo == "") == (voucher == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of promoCode or voucherCode is required")
	}

	session, err := s.sessions.FindByID(ctx, booking.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	var discount pricing.Discount
	if promo != "" {
		discount, err = s.promos.Lookup(ctx, promo, session.GuideID)
		if err != nil {
			return nil, s.reject(err)
		}
	} else {
		res, err := s.vouchers.Verify(ctx, voucher)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify gift voucher")
		}
		if !res.Valid || res.Voucher == nil {
			return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "invalid gift voucher").
				WithDetails(map[string]string{"voucherCode": res.Message}))
		}
		discount = *res.Voucher
	}

	err = s.mutate(ctx, actor, id, func(tx *gorm.DB, b *models.Booking, session *models.ActivitySession) error {
		if err := ensureNoDiscount(b); err != nil {
			return err
		}
		if discount.Source == enums.DiscountModeVoucher {
			if err := s.vouchers.Redeem(ctx, tx, discount.Code); err != nil {
				return err
			}
		}
		rate, err := s.rateTable(ctx, tx, b.ProductID)
		if err != nil {
			return err
		}
		applyDiscount(b, rate, discount)
		if err := s.resettle(ctx, tx, b, session); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Save(ctx, b); err != nil {
			return err
		}
		return s.emitDiscount(ctx, tx, actor, b, session)
	})
	if err != nil {
		return nil, s.reject(err)
	}
	return s.Get(ctx, actor, id)
}

// SetManualPrice lets staff override the price. It replaces whatever discount was recorded;
// a replaced gift voucher gets its use back.
func (s *service) SetManualPrice(ctx context.Context, actor Actor, id uuid.UUID, input ManualPriceInput) (*BookingDTO, error) {
	if err := actor.requireStaff("manual pricing"); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, actor, id, func(tx *gorm.DB, b *models.Booking, session *models.ActivitySession) error {
		if b.Status == enums.BookingStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled bookings cannot be repriced")
		}
		released := ""
		if b.DiscountType == enums.DiscountModeVoucher {
			released = deref(b.VoucherCode)
		}

		rate, err := s.rateTable(ctx, tx, b.ProductID)
		if err != nil {
			return err
		}
		if input.TotalPrice != nil {
			applyQuote(b, repriceStored(b, rate, nil))
			applyAbsolutePrice(b, *input.TotalPrice)
		} else {
			applyDiscount(b, rate, pricing.ManualOverride(*input.Kind, *input.Amount))
		}

		if released != "" {
			if err := s.vouchers.Release(ctx, tx, released); err != nil {
				return err
			}
		}
		if err := s.resettle(ctx, tx, b, session); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Save(ctx, b); err != nil {
			return err
		}
		return s.emitDiscount(ctx, tx, actor, b, session)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// mutate locks the booking and its session, then runs fn in the same transaction.
func (s *service) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(tx *gorm.DB, b *models.Booking, session *models.ActivitySession) error) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.repo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return err
		}
		if !actor.canSee(booking) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		session, err := s.sessions.WithTx(tx).FindByID(ctx, booking.SessionID)
		if err != nil {
			return err
		}
		return fn(tx, booking, session)
	})
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
}

func (s *service) rateTable(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (pricing.Product, error) {
	product, err := s.products.WithTx(tx).FindByID(ctx, productID)
	if err != nil {
		return pricing.Product{}, err
	}
	return products.RateTable(product), nil
}

func (s *service) resettle(ctx context.Context, tx *gorm.DB, b *models.Booking, session *models.ActivitySession) error {
	policy, err := s.depositPolicy(ctx, tx, session.GuideID)
	if err != nil {
		return err
	}
	pct := decimal.Zero
	if b.ResellerID != nil {
		reseller, err := s.resellers.WithTx(tx).FindByID(ctx, *b.ResellerID)
		if err != nil {
			return err
		}
		if reseller != nil {
			pct = reseller.CommissionPercentage
		}
	}
	settle(b, policy, pct)
	return nil
}

func ensureNoDiscount(b *models.Booking) error {
	if err := pricing.EnsureNoDiscount(deref(b.VoucherCode), b.DiscountType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDiscountConflict, err, "a discount is already applied to this booking").
			WithDetails(map[string]string{
				"discountType": string(b.DiscountType),
				"voucherCode":  deref(b.VoucherCode),
			})
	}
	return nil
}
