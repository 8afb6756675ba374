package notifications

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/resellers"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/registry"
	"github.com/google/uuid"
)

const bookingNotificationConsumer = "booking-notifications"

type writer interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type decoder interface {
	DecodeMessage(eventType string, body []byte) (*registry.ResolvedEvent, error)
}

// RecipientResolver maps booking parties to the staff users that should hear about them.
type RecipientResolver interface {
	GuideUser(ctx context.Context, guideID uuid.UUID) (*uuid.UUID, error)
	ResellerUser(ctx context.Context, resellerID uuid.UUID) (*uuid.UUID, error)
}

// Recipients resolves users from the guide and reseller tables.
type Recipients struct {
	Guides    *guides.Repository
	Resellers *resellers.Repository
}

func (r Recipients) GuideUser(ctx context.Context, guideID uuid.UUID) (*uuid.UUID, error) {
	guide, err := r.Guides.FindByID(ctx, guideID)
	if err != nil || guide == nil {
		return nil, err
	}
	id := guide.UserID
	return &id, nil
}

func (r Recipients) ResellerUser(ctx context.Context, resellerID uuid.UUID) (*uuid.UUID, error) {
	reseller, err := r.Resellers.FindByID(ctx, resellerID)
	if err != nil || reseller == nil {
		return nil, err
	}
	return reseller.UserID, nil
}

// Consumer turns booking domain events into in-app notifications for guides and resellers.
type Consumer struct {
	repo         writer
	events       decoder
	recipients   RecipientResolver
	subscription *pubsub.Subscriber
	guard        *idempotency.Guard
	logg         *logger.Logger
}

type ConsumerParams struct {
	Repo         writer
	Registry     decoder
	Recipients   RecipientResolver
	Subscription *pubsub.Subscriber
	Guard        *idempotency.Guard
	Logger       *logger.Logger
}

// NewConsumer builds a booking notification consumer.
func NewConsumer(p ConsumerParams) (*Consumer, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("notifications repository required")
	case p.Registry == nil:
		return nil, fmt.Errorf("event registry required")
	case p.Recipients == nil:
		return nil, fmt.Errorf("recipient resolver required")
	case p.Subscription == nil:
		return nil, fmt.Errorf("domain subscription required")
	case p.Guard == nil:
		return nil, fmt.Errorf("idempotency guard required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         p.Repo,
		events:       p.Registry,
		recipients:   p.Recipients,
		subscription: p.Subscription,
		guard:        p.Guard,
		logg:         p.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	resolved, err := c.events.DecodeMessage(eventType, msg.Data)
	if err != nil {
		var nonRetryable registry.NonRetryableError
		if errors.As(err, &nonRetryable) {
			c.logg.Warn(logCtx, "dropping undecodable event: "+err.Error())
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "failed to decode event", err)
		return processResult{nack: true}
	}

	notes, err := c.build(ctx, resolved.Payload)
	if err != nil {
		c.logg.Error(logCtx, "resolve recipients", err)
		return processResult{nack: true}
	}
	if len(notes) == 0 {
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(resolved.Envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	seen, err := c.guard.Seen(ctx, bookingNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if seen {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	for _, n := range notes {
		n.EventID = &eventID
		if err := c.repo.Create(ctx, n); err != nil {
			c.logg.Error(logCtx, "notification insert failed", err)
			_ = c.guard.Forget(ctx, bookingNotificationConsumer, eventID)
			return processResult{nack: true}
		}
	}
	c.logg.Info(c.logg.WithField(logCtx, "recipients", len(notes)), "notifications created")
	return processResult{ack: true}
}

// build returns the notifications an event produces. Events nobody watches yield none.
func (c *Consumer) build(ctx context.Context, payload any) ([]*models.Notification, error) {
	switch p := payload.(type) {
	case *payloads.BookingCreatedEvent:
		msg := fmt.Sprintf("%s booked %d place(s) for %s (%s).",
			p.CustomerName, p.NumberOfPeople, p.StartsAt.UTC().Format("2 Jan 2006 15:04"), p.Reference)
		users, err := c.users(ctx, p.GuideID, p.ResellerID)
		return fanOut(users, enums.NotificationBookingCreated, "New booking", msg, bookingLink(p.BookingID)), err

	case *payloads.BookingCancelledEvent:
		msg := fmt.Sprintf("Booking %s for %d place(s) was cancelled.", p.Reference, p.NumberOfPeople)
		if p.Reason != "" {
			msg = fmt.Sprintf("Booking %s was cancelled: %s", p.Reference, p.Reason)
		}
		users, err := c.users(ctx, p.GuideID, nil)
		return fanOut(users, enums.NotificationBookingCancelled, "Booking cancelled", msg, bookingLink(p.BookingID)), err

	case *payloads.BookingPaymentRecordedEvent:
		msg := fmt.Sprintf("Payment of %s received by %s on %s. Total paid: %s.", p.Amount, p.Method, p.Reference, p.AmountPaid)
		users, err := c.users(ctx, p.GuideID, nil)
		return fanOut(users, enums.NotificationPaymentRecorded, "Payment recorded", msg, bookingLink(p.BookingID)), err
	}
	return nil, nil
}

func (c *Consumer) users(ctx context.Context, guideID, resellerID *uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if guideID != nil {
		id, err := c.recipients.GuideUser(ctx, *guideID)
		if err != nil {
			return nil, err
		}
		if id != nil {
			out = append(out, *id)
		}
	}
	if resellerID != nil {
		id, err := c.recipients.ResellerUser(ctx, *resellerID)
		if err != nil {
			return nil, err
		}
		if id != nil {
			out = append(out, *id)
		}
	}
	return out, nil
}

func fanOut(users []uuid.UUID, kind enums.NotificationType, title, message, link string) []*models.Notification {
	out := make([]*models.Notification, 0, len(users))
	for _, userID := range users {
		l := link
		out = append(out, &models.Notification{
			UserID:  userID,
			Type:    kind,
			Title:   title,
			Message: message,
			Link:    &l,
		})
	}
	return out
}

func bookingLink(id uuid.UUID) string {
	return "/bookings/" + id.String()
}
