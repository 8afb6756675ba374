package bookings

import (
	"context"
	"strings"

	"github.com/angelmondragon/canyonbook-backend/internal/pricing"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentInput struct {
	Method    enums.PaymentMethod
	Amount    decimal.Decimal
	Reference string
}

func (s *service) RecordPayment(ctx context.Context, actor Actor, id uuid.UUID, input PaymentInput) (*BookingDTO, error) {
	if err := actor.requireStaff("recording payments"); err != nil {
		return nil, err
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]string{"method": "must be cash, card or stripe"})
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive").
			WithDetails(map[string]string{"amount": "must be greater than zero"})
	}
	amount := pricing.Round(input.Amount)

	err := s.mutate(ctx, actor, id, func(tx *gorm.DB, b *models.Booking, session *models.ActivitySession) error {
		if b.Status == enums.BookingStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot take payments on a cancelled booking")
		}
		outstanding := decimal.Max(b.TotalPrice.Sub(b.AmountPaid), decimal.Zero)
		if amount.GreaterThan(outstanding) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds the outstanding balance").
				WithDetails(map[string]string{"outstanding": money(outstanding)})
		}

		payment := &models.BookingPayment{
			ID:         uuid.New(),
			BookingID:  b.ID,
			Method:     input.Method,
			Amount:     amount,
			Reference:  strPtr(strings.TrimSpace(input.Reference)),
			RecordedBy: actor.userPtr(),
		}
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.InsertPayment(ctx, payment); err != nil {
			return err
		}
		b.AmountPaid = b.AmountPaid.Add(amount)
		b.PaymentStatus = pricing.PaymentStatusFor(b.TotalPrice, b.DepositAmount, b.AmountPaid)
		if err := txRepo.Save(ctx, b); err != nil {
			return err
		}
		return s.emitPayment(ctx, tx, actor, b, session, payment)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// Cancel frees the booking's seats. A redeemed gift voucher gets its use back.
func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*BookingDTO, error) {
	err := s.mutate(ctx, actor, id, func(tx *gorm.DB, b *models.Booking, session *models.ActivitySession) error {
		if b.Status == enums.BookingStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already cancelled")
		}
		now := s.now().UTC()
		b.Status = enums.BookingStatusCancelled
		b.CancelledAt = &now
		if b.DiscountType == enums.DiscountModeVoucher && b.VoucherCode != nil {
			if err := s.vouchers.Release(ctx, tx, *b.VoucherCode); err != nil {
				return err
			}
		}
		if err := s.repo.WithTx(tx).Save(ctx, b); err != nil {
			return err
		}
		return s.emitCancelled(ctx, tx, actor, b, session, strings.TrimSpace(reason))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}
