package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	keys map[string]bool
}

func (m *memoryStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryStore) Set(context.Context, string, any, time.Duration) error { return nil }

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

type recordingWriter struct {
	created []*models.Notification
	err     error
}

func (w *recordingWriter) Create(_ context.Context, n *models.Notification) error {
	if w.err != nil {
		return w.err
	}
	w.created = append(w.created, n)
	return nil
}

type staticRecipients struct {
	guides    map[uuid.UUID]uuid.UUID
	resellers map[uuid.UUID]uuid.UUID
}

func (s staticRecipients) GuideUser(_ context.Context, id uuid.UUID) (*uuid.UUID, error) {
	if user, ok := s.guides[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (s staticRecipients) ResellerUser(_ context.Context, id uuid.UUID) (*uuid.UUID, error) {
	if user, ok := s.resellers[id]; ok {
		return &user, nil
	}
	return nil, nil
}

type consumerFixture struct {
	consumer    *Consumer
	writer      *recordingWriter
	guideUser   uuid.UUID
	resellerID  uuid.UUID
	guideID     uuid.UUID
	resellerUsr uuid.UUID
}

func newConsumerFixture(t *testing.T) consumerFixture {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{DomainTopic: "canyonbook-domain-events"})
	require.NoError(t, err)
	guard, err := idempotency.NewGuard(&memoryStore{keys: map[string]bool{}}, time.Hour)
	require.NoError(t, err)

	f := consumerFixture{
		writer:      &recordingWriter{},
		guideID:     uuid.New(),
		guideUser:   uuid.New(),
		resellerID:  uuid.New(),
		resellerUsr: uuid.New(),
	}
	f.consumer = &Consumer{
		repo:   f.writer,
		events: reg,
		recipients: staticRecipients{
			guides:    map[uuid.UUID]uuid.UUID{f.guideID: f.guideUser},
			resellers: map[uuid.UUID]uuid.UUID{f.resellerID: f.resellerUsr},
		},
		guard: guard,
		logg:  logger.Nop(),
	}
	return f
}

func message(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-" + eventID.String(),
		Data:       body,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerNotifiesGuideAndReseller(t *testing.T) {
	f := newConsumerFixture(t)
	eventID := uuid.New()
	bookingID := uuid.New()
	msg := message(t, enums.EventBookingCreated, eventID, payloads.BookingCreatedEvent{
		BookingID:      bookingID,
		Reference:      "CB-7KQ2M9",
		GuideID:        &f.guideID,
		ResellerID:     &f.resellerID,
		CustomerName:   "Ana Ruiz",
		NumberOfPeople: 4,
		StartsAt:       time.Date(2026, 7, 1, 8, 30, 0, 0, time.UTC),
	})

	res := f.consumer.process(context.Background(), msg)
	assert.True(t, res.ack)
	require.Len(t, f.writer.created, 2)
	assert.Equal(t, f.guideUser, f.writer.created[0].UserID)
	assert.Equal(t, f.resellerUsr, f.writer.created[1].UserID)
	assert.Equal(t, enums.NotificationBookingCreated, f.writer.created[0].Type)
	assert.Contains(t, f.writer.created[0].Message, "CB-7KQ2M9")
	require.NotNil(t, f.writer.created[0].EventID)
	assert.Equal(t, eventID, *f.writer.created[0].EventID)
	assert.Equal(t, "/bookings/"+bookingID.String(), *f.writer.created[0].Link)

	res = f.consumer.process(context.Background(), msg)
	assert.True(t, res.ack)
	assert.Len(t, f.writer.created, 2)
}

func TestConsumerIgnoresUnwatchedEvents(t *testing.T) {
	f := newConsumerFixture(t)
	msg := message(t, enums.EventBookingUpdated, uuid.New(), payloads.BookingUpdatedEvent{
		BookingID: uuid.New(),
		GuideID:   &f.guideID,
	})

	res := f.consumer.process(context.Background(), msg)
	assert.True(t, res.ack)
	assert.Empty(t, f.writer.created)
}

func TestConsumerDropsUndecodableMessages(t *testing.T) {
	f := newConsumerFixture(t)
	msg := &pubsub.Message{ID: "bad", Data: []byte("{"), Attributes: map[string]string{"event_type": string(enums.EventBookingCancelled)}}

	res := f.consumer.process(context.Background(), msg)
	assert.True(t, res.ack)
	assert.False(t, res.nack)
}

func TestConsumerRetriesFailedInsert(t *testing.T) {
	f := newConsumerFixture(t)
	f.writer.err = errors.New("db down")
	msg := message(t, enums.EventBookingPaymentRecorded, uuid.New(), payloads.BookingPaymentRecordedEvent{
		BookingID:  uuid.New(),
		Reference:  "CB-7KQ2M9",
		GuideID:    &f.guideID,
		Method:     enums.PaymentMethodCash,
		Amount:     "20.00",
		AmountPaid: "20.00",
	})

	res := f.consumer.process(context.Background(), msg)
	assert.True(t, res.nack)

	f.writer.err = nil
	res = f.consumer.process(context.Background(), msg)
	assert.True(t, res.ack)
	require.Len(t, f.writer.created, 1)
	assert.Equal(t, enums.NotificationPaymentRecorded, f.writer.created[0].Type)
}
