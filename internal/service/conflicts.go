package service

import "github.com/facilityops/visit-booking/internal/domain"

// ConflictCalculator answers slot collision questions over a set of appointments.
type ConflictCalculator struct{}

// NewConflictCalculator constructs the calculator.
func NewConflictCalculator() ConflictCalculator {
	return ConflictCalculator{}
}

// FindConflicts returns the active candidates of category that start exactly at slot.
func (ConflictCalculator) FindConflicts(category domain.Category, slot domain.TimeSlot, candidates []*domain.Appointment) []*domain.Appointment {
	var out []*domain.Appointment
	for _, a := range candidates {
		if a.Category() == category && a.IsActive() && a.Slot().ConflictsWith(slot) {
			out = append(out, a)
		}
	}
	return out
}

// HasConflict reports whether any candidate collides with slot.
func (c ConflictCalculator) HasConflict(category domain.Category, slot domain.TimeSlot, candidates []*domain.Appointment) bool {
	return len(c.FindConflicts(category, slot, candidates)) > 0
}

// ActiveCountByCategory counts active appointments of category.
func (ConflictCalculator) ActiveCountByCategory(category domain.Category, all []*domain.Appointment) int {
	n := 0
	for _, a := range all {
		if a.Category() == category && a.IsActive() {
			n++
		}
	}
	return n
}

// ActiveForProvider returns the active appointments booked under taxID.
func (ConflictCalculator) ActiveForProvider(taxID string, all []*domain.Appointment) []*domain.Appointment {
	var out []*domain.Appointment
	for _, a := range all {
		if a.Provider().TaxID() == taxID && a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

func appointmentIDs(list []*domain.Appointment) []string {
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID())
	}
	return ids
}
