package enums

import "fmt"

// BookingStatus tracks whether a booking still holds capacity on its session.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusConfirmed,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

func (s BookingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookingStatus.
func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// HoldsCapacity reports whether bookings in this status count against session capacity.
func (s BookingStatus) HoldsCapacity() bool {
	return s != BookingStatusCancelled
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}

// SessionStatus tracks a scheduled activity session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) IsValid() bool {
	return s == SessionStatusScheduled || s == SessionStatusCancelled
}

// ActivityCategory groups products on the public listing.
type ActivityCategory string

const (
	ActivityCanyoning  ActivityCategory = "canyoning"
	ActivityViaFerrata ActivityCategory = "via_ferrata"
	ActivityClimbing   ActivityCategory = "climbing"
	ActivityCaving     ActivityCategory = "caving"
)

var validActivityCategories = []ActivityCategory{
	ActivityCanyoning,
	ActivityViaFerrata,
	ActivityClimbing,
	ActivityCaving,
}

// IsValid reports whether the value is a known ActivityCategory.
func (c ActivityCategory) IsValid() bool {
	for _, candidate := range validActivityCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseActivityCategory converts raw input into an ActivityCategory.
func ParseActivityCategory(value string) (ActivityCategory, error) {
	for _, candidate := range validActivityCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity category %q", value)
}
