package domain

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PastSlotError is returned when a slot instant lies before the current time.
type PastSlotError struct {
	At  time.Time
	Now time.Time
}

func (e *PastSlotError) Error() string {
	return fmt.Sprintf("slot %s is in the past", e.At.Format(time.RFC3339))
}

// Reasons carried by SlotNotAllowedError.
const (
	ReasonOutsideBusinessHours = "outside business hours"
	ReasonHourNotAllowed       = "hour not allowed for category"
	ReasonWeekend              = "weekend"
)

// SlotNotAllowedError is returned when a slot violates the hour rules of a category.
type SlotNotAllowedError struct {
	Category Category
	At       time.Time
	Reason   string
}

func (e *SlotNotAllowedError) Error() string {
	return fmt.Sprintf("slot %s not allowed for %s: %s", e.At.Format(time.RFC3339), e.Category, e.Reason)
}

// SlotTakenError is returned when an active appointment already holds the slot.
type SlotTakenError struct {
	Category       Category
	At             time.Time
	ConflictingIDs []string
}

func (e *SlotTakenError) Error() string {
	msg := fmt.Sprintf("slot %s already taken for %s", e.At.Format(time.RFC3339), e.Category)
	if len(e.ConflictingIDs) > 0 {
		msg += " by " + strings.Join(e.ConflictingIDs, ",")
	}
	return msg
}

// InvalidTransitionError is returned when an operation is not legal from the current status.
type InvalidTransitionError struct {
	Current   Status
	Operation Operation
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s appointment in status %s", e.Operation, e.Current)
}

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
