package service

import (
	"context"
	"fmt"
	"time"

	"github.com/facilityops/visit-booking/internal/domain"
)

// HourSlot is one whitelisted start hour on a given day.
type HourSlot struct {
	Hour      int
	At        time.Time
	Available bool
	// Taken is set when an active appointment already holds the hour.
	Taken bool
}

// DayAvailability splits a day's whitelisted hours into bookable and unavailable ones.
type DayAvailability struct {
	Category    domain.Category
	Date        time.Time
	Weekend     bool
	Available   []HourSlot
	Unavailable []HourSlot
}

// DayAvailability reports which allowed hours of category can still be booked on the
// calendar day of date, read in the facility location. Weekends yield no hours.
// Hours at or before the current time are unavailable.
func (s *BookingService) DayAvailability(ctx context.Context, category domain.Category, date time.Time) (DayAvailability, error) {
	if !category.Valid() {
		return DayAvailability{}, domain.NewValidationError("category", "unknown category")
	}
	rules := s.validator.Rules()
	loc := rules.Location()
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	out := DayAvailability{
		Category:    category,
		Date:        day,
		Weekend:     rules.IsWeekend(day),
		Available:   []HourSlot{},
		Unavailable: []HourSlot{},
	}
	if out.Weekend {
		return out, nil
	}

	active, err := s.appointments.ListActiveByCategory(ctx, category)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("list active appointments: %w", err)
	}

	now := s.now()
	conflicts := NewConflictCalculator()
	for _, hour := range rules.AllowedHours(category) {
		at := time.Date(y, m, d, hour, 0, 0, 0, loc)
		slot := domain.RehydrateTimeSlot(at)
		hs := HourSlot{
			Hour:  hour,
			At:    at,
			Taken: conflicts.HasConflict(category, slot, active),
		}
		hs.Available = !hs.Taken && at.After(now)
		if hs.Available {
			out.Available = append(out.Available, hs)
		} else {
			out.Unavailable = append(out.Unavailable, hs)
		}
	}
	return out, nil
}
