package service

import "github.com/facilityops/visit-booking/internal/domain"

// AvailabilityValidator decides whether a slot may be booked for a category.
type AvailabilityValidator struct {
	rules     *domain.SlotRules
	conflicts ConflictCalculator
}

// NewAvailabilityValidator constructs the validator. Nil rules fall back to the defaults.
func NewAvailabilityValidator(rules *domain.SlotRules) *AvailabilityValidator {
	if rules == nil {
		rules = domain.DefaultSlotRules()
	}
	return &AvailabilityValidator{rules: rules, conflicts: NewConflictCalculator()}
}

// Validate checks, in order, the hour whitelist, the weekend rule and collisions with active.
func (v *AvailabilityValidator) Validate(slot domain.TimeSlot, category domain.Category, active []*domain.Appointment) error {
	local := slot.In(v.rules.Location())
	if !v.rules.IsHourAllowed(local.Hour(), category) {
		return &domain.SlotNotAllowedError{Category: category, At: local.At(), Reason: domain.ReasonHourNotAllowed}
	}
	if v.rules.IsWeekend(local.At()) {
		return &domain.SlotNotAllowedError{Category: category, At: local.At(), Reason: domain.ReasonWeekend}
	}
	if conflicts := v.conflicts.FindConflicts(category, local, active); len(conflicts) > 0 {
		return &domain.SlotTakenError{Category: category, At: local.At(), ConflictingIDs: appointmentIDs(conflicts)}
	}
	return nil
}

// Rules exposes the rules the validator evaluates.
func (v *AvailabilityValidator) Rules() *domain.SlotRules {
	return v.rules
}
