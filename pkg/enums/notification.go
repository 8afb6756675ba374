package enums

import "fmt"

// NotificationType identifies what a staff notification is about.
type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "booking_created"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationPaymentRecorded  NotificationType = "payment_recorded"
	NotificationSystem           NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationBookingCreated,
	NotificationBookingCancelled,
	NotificationPaymentRecorded,
	NotificationSystem,
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
