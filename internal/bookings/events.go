package bookings

import (
	"context"

	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/payloads"
	"gorm.io/gorm"
)

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor Actor, eventType enums.OutboxEventType, b *models.Booking, data any) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBooking,
		AggregateID:   b.ID,
		Actor:         actor.ref(),
		Data:          data,
		OccurredAt:    s.now().UTC(),
	})
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, actor Actor, b *models.Booking, session *models.ActivitySession) error {
	return s.emit(ctx, tx, actor, enums.EventBookingCreated, b, payloads.BookingCreatedEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		SessionID:      b.SessionID,
		ProductID:      b.ProductID,
		GuideID:        session.GuideID,
		ResellerID:     b.ResellerID,
		CustomerName:   b.FirstName + " " + b.LastName,
		CustomerEmail:  b.Email,
		NumberOfPeople: b.NumberOfPeople,
		DiscountType:   b.DiscountType,
		TotalPrice:     money(b.TotalPrice),
		DepositAmount:  money(b.DepositAmount),
		StartsAt:       session.StartsAt,
	})
}

func (s *service) emitUpdated(ctx context.Context, tx *gorm.DB, actor Actor, b *models.Booking, session *models.ActivitySession, changed []string) error {
	if changed == nil {
		changed = []string{}
	}
	return s.emit(ctx, tx, actor, enums.EventBookingUpdated, b, payloads.BookingUpdatedEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		GuideID:        session.GuideID,
		NumberOfPeople: b.NumberOfPeople,
		TotalPrice:     money(b.TotalPrice),
		ChangedFields:  changed,
	})
}

func (s *service) emitDiscount(ctx context.Context, tx *gorm.DB, actor Actor, b *models.Booking, session *models.ActivitySession) error {
	return s.emit(ctx, tx, actor, enums.EventBookingDiscountApplied, b, payloads.BookingDiscountAppliedEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		GuideID:        session.GuideID,
		DiscountType:   b.DiscountType,
		Code:           deref(b.VoucherCode),
		DiscountAmount: money(b.DiscountAmount),
		TotalPrice:     money(b.TotalPrice),
		ManualPrice:    b.ManualPrice,
	})
}

func (s *service) emitPayment(ctx context.Context, tx *gorm.DB, actor Actor, b *models.Booking, session *models.ActivitySession, p *models.BookingPayment) error {
	return s.emit(ctx, tx, actor, enums.EventBookingPaymentRecorded, b, payloads.BookingPaymentRecordedEvent{
		BookingID:     b.ID,
		Reference:     b.Reference,
		GuideID:       session.GuideID,
		PaymentID:     p.ID,
		Method:        p.Method,
		Amount:        money(p.Amount),
		AmountPaid:    money(b.AmountPaid),
		PaymentStatus: b.PaymentStatus,
	})
}

func (s *service) emitCancelled(ctx context.Context, tx *gorm.DB, actor Actor, b *models.Booking, session *models.ActivitySession, reason string) error {
	return s.emit(ctx, tx, actor, enums.EventBookingCancelled, b, payloads.BookingCancelledEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		SessionID:      b.SessionID,
		GuideID:        session.GuideID,
		NumberOfPeople: b.NumberOfPeople,
		Reason:         reason,
	})
}
