package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateBooking      OutboxAggregateType = "booking"
	AggregateGiftVoucher  OutboxAggregateType = "gift_voucher"
	AggregateSession      OutboxAggregateType = "session"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateGiftVoucher,
	AggregateSession,
	AggregateNotification,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventBookingCreated         OutboxEventType = "booking_created"
	EventBookingUpdated         OutboxEventType = "booking_updated"
	EventBookingCancelled       OutboxEventType = "booking_cancelled"
	EventBookingDiscountApplied OutboxEventType = "booking_discount_applied"
	EventBookingPaymentRecorded OutboxEventType = "booking_payment_recorded"
	EventGiftVoucherExpired     OutboxEventType = "gift_voucher_expired"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingCreated,
	EventBookingUpdated,
	EventBookingCancelled,
	EventBookingDiscountApplied,
	EventBookingPaymentRecorded,
	EventGiftVoucherExpired,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQReason classifies why an event was moved to the dead-letter table.
type OutboxDLQReason string

const (
	DLQReasonMaxAttempts   OutboxDLQReason = "max_attempts"
	DLQReasonDecodeFailure OutboxDLQReason = "decode_failure"
	DLQReasonNonRetryable  OutboxDLQReason = "non_retryable"
)
