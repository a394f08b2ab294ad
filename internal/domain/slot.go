package domain

import "time"

// Business day bounds, inclusive, in hours of the slot's location.
const (
	BusinessDayStartHour = 8
	BusinessDayEndHour   = 18
)

// TimeSlot is the instant at which a visit starts.
type TimeSlot struct {
	at time.Time
}

// NewTimeSlot validates a requested instant. Instants are kept at microsecond precision.
func NewTimeSlot(at, now time.Time) (TimeSlot, error) {
	if at.IsZero() {
		return TimeSlot{}, NewValidationError("slot", "required")
	}
	at = at.Truncate(time.Microsecond)
	if at.Before(now) {
		return TimeSlot{}, &PastSlotError{At: at, Now: now}
	}
	return TimeSlot{at: at}, nil
}

// RehydrateTimeSlot rebuilds a stored slot without the past check.
func RehydrateTimeSlot(at time.Time) TimeSlot {
	return TimeSlot{at: at.Truncate(time.Microsecond)}
}

// At returns the instant.
func (s TimeSlot) At() time.Time { return s.at }

// Hour returns the hour of day in the slot's location.
func (s TimeSlot) Hour() int { return s.at.Hour() }

// IsZero reports whether the slot was never set.
func (s TimeSlot) IsZero() bool { return s.at.IsZero() }

// In returns the same instant expressed in loc.
func (s TimeSlot) In(loc *time.Location) TimeSlot {
	if loc == nil {
		return s
	}
	return TimeSlot{at: s.at.In(loc)}
}

// IsWithinBusinessHours reports whether the hour of day lies in [8,18].
func (s TimeSlot) IsWithinBusinessHours() bool {
	h := s.Hour()
	return h >= BusinessDayStartHour && h <= BusinessDayEndHour
}

// ConflictsWith reports whether both slots start at the same instant.
func (s TimeSlot) ConflictsWith(other TimeSlot) bool {
	return s.at.Equal(other.at)
}

func (s TimeSlot) String() string {
	return s.at.Format(time.RFC3339)
}
