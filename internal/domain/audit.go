package domain

import (
	"fmt"
	"time"
)

// ChangeKind captures what changed in an audit entry.
type ChangeKind string

const (
	ChangeConfirmation     ChangeKind = "CONFIRMATION"
	ChangeRejection        ChangeKind = "REJECTION"
	ChangeCancellation     ChangeKind = "CANCELLATION"
	ChangeOutcomeDelivered ChangeKind = "OUTCOME_DELIVERED"
	ChangeOutcomeReturned  ChangeKind = "OUTCOME_RETURNED"
	ChangeOutcomeLate      ChangeKind = "OUTCOME_LATE"
)

// IsPrincipal reports whether the kind is a status transition.
func (k ChangeKind) IsPrincipal() bool {
	return k == ChangeConfirmation || k == ChangeRejection || k == ChangeCancellation
}

// IsPostOutcome reports whether the kind records a visit outcome.
func (k ChangeKind) IsPostOutcome() bool {
	return k == ChangeOutcomeDelivered || k == ChangeOutcomeReturned || k == ChangeOutcomeLate
}

// Valid reports whether k is a known kind.
func (k ChangeKind) Valid() bool {
	return k.IsPrincipal() || k.IsPostOutcome()
}

// ChangeKindForStatus maps the status reached by a transition to its kind.
func ChangeKindForStatus(s Status) (ChangeKind, error) {
	switch s {
	case StatusConfirmed:
		return ChangeConfirmation, nil
	case StatusRejected:
		return ChangeRejection, nil
	case StatusCancelled:
		return ChangeCancellation, nil
	}
	return "", fmt.Errorf("no audit change kind for status %s", s)
}

// ChangeKindForOutcome maps an outcome to its kind.
func ChangeKindForOutcome(o PostOutcome) (ChangeKind, error) {
	switch o {
	case OutcomeDelivered:
		return ChangeOutcomeDelivered, nil
	case OutcomeReturned:
		return ChangeOutcomeReturned, nil
	case OutcomeLate:
		return ChangeOutcomeLate, nil
	}
	return "", fmt.Errorf("no audit change kind for outcome %s", o)
}

// AuditEntry is an immutable record of one successful transition.
// Outcome entries have no previous state and no note; NewState holds the outcome.
type AuditEntry struct {
	ID            string
	AppointmentID string
	ActorID       string
	ActorName     string
	ChangeKind    ChangeKind
	PreviousState *string
	NewState      string
	Note          *string
	Timestamp     time.Time
}
