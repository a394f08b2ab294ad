package domain

import (
	"fmt"
	"slices"
	"time"
)

// DefaultAllowedHours returns the stock hour whitelist per category.
func DefaultAllowedHours() map[Category][]int {
	return map[Category][]int{
		CategoryDelivery: {8, 9, 10, 11, 14, 15, 16},
		CategoryPickup:   {9, 10, 11, 14, 15, 16, 17},
		CategoryImport:   {8, 9, 10, 11},
		CategoryReturn:   {14, 15, 16, 17},
	}
}

// SlotRules holds the permitted start hours per category and the facility location.
// It is immutable once built.
type SlotRules struct {
	hours    map[Category][]int
	location *time.Location
}

// NewSlotRules validates and copies the given whitelist. A nil location means UTC.
func NewSlotRules(hours map[Category][]int, location *time.Location) (*SlotRules, error) {
	if location == nil {
		location = time.UTC
	}
	rules := &SlotRules{hours: make(map[Category][]int, len(hours)), location: location}
	for category, list := range hours {
		if !category.Valid() {
			return nil, fmt.Errorf("slot rules: unknown category %q", category)
		}
		cp := make([]int, 0, len(list))
		for _, h := range list {
			if h < 0 || h > 23 {
				return nil, fmt.Errorf("slot rules: hour %d out of range for %s", h, category)
			}
			cp = append(cp, h)
		}
		slices.Sort(cp)
		rules.hours[category] = slices.Compact(cp)
	}
	return rules, nil
}

// DefaultSlotRules returns the stock whitelist evaluated in UTC.
func DefaultSlotRules() *SlotRules {
	rules, _ := NewSlotRules(DefaultAllowedHours(), time.UTC)
	return rules
}

// AllowedHours returns a sorted copy of the hours permitted for the category.
func (r *SlotRules) AllowedHours(category Category) []int {
	return slices.Clone(r.hours[category])
}

// IsHourAllowed reports whether a visit of the category may start at hour.
func (r *SlotRules) IsHourAllowed(hour int, category Category) bool {
	_, found := slices.BinarySearch(r.hours[category], hour)
	return found
}

// IsWeekend reports whether t falls on Saturday or Sunday at the facility.
func (r *SlotRules) IsWeekend(t time.Time) bool {
	switch t.In(r.location).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// Location returns the facility time zone.
func (r *SlotRules) Location() *time.Location {
	return r.location
}
