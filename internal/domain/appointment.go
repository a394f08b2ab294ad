package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status enumerates lifecycle states for appointments.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses are the statuses that hold a slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// AllowsModification reports whether the appointment still holds its slot.
func (s Status) AllowsModification() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", NewValidationError("status", "unknown status "+raw)
	}
	return s, nil
}

// PostOutcome records what happened once a confirmed visit took place.
type PostOutcome string

const (
	OutcomeDelivered PostOutcome = "DELIVERED"
	OutcomeReturned  PostOutcome = "RETURNED"
	OutcomeLate      PostOutcome = "LATE"
)

// Valid reports whether o is a known outcome.
func (o PostOutcome) Valid() bool {
	switch o {
	case OutcomeDelivered, OutcomeReturned, OutcomeLate:
		return true
	}
	return false
}

// ParsePostOutcome converts raw input into a PostOutcome.
func ParsePostOutcome(raw string) (PostOutcome, error) {
	o := PostOutcome(strings.ToUpper(strings.TrimSpace(raw)))
	if !o.Valid() {
		return "", NewValidationError("outcome", "unknown outcome "+raw)
	}
	return o, nil
}

// Operation names a mutation of the aggregate.
type Operation string

const (
	OperationConfirm         Operation = "confirm"
	OperationReject          Operation = "reject"
	OperationCancel          Operation = "cancel"
	OperationSetPostOutcome  Operation = "set_post_outcome"
	OperationAddObservations Operation = "add_observations"
)

// allowedFrom lists, per operation, the statuses it may be applied in.
var allowedFrom = map[Operation][]Status{
	OperationConfirm:         {StatusPending},
	OperationReject:          {StatusPending},
	OperationCancel:          {StatusPending, StatusConfirmed},
	OperationSetPostOutcome:  {StatusConfirmed},
	OperationAddObservations: {StatusPending, StatusConfirmed},
}

// CanApply reports whether op is legal from status.
func CanApply(status Status, op Operation) bool {
	for _, candidate := range allowedFrom[op] {
		if candidate == status {
			return true
		}
	}
	return false
}

// Appointment is the aggregate for a booked visit. All writes go through its methods.
type Appointment struct {
	id             string
	category       Category
	provider       ProviderInfo
	transport      Transport
	slot           TimeSlot
	status         Status
	postOutcome    *PostOutcome
	observations   *string
	createdAt      time.Time
	lastModifiedAt time.Time
}

// NewAppointment creates a PENDING appointment.
func NewAppointment(category Category, provider ProviderInfo, transport Transport, slot TimeSlot, now time.Time) (*Appointment, error) {
	if !category.Valid() {
		return nil, NewValidationError("category", "unknown category")
	}
	if provider.IsZero() {
		return nil, NewValidationError("provider", "required")
	}
	if err := transport.Validate(); err != nil {
		return nil, err
	}
	if slot.IsZero() {
		return nil, NewValidationError("slot", "required")
	}
	if !slot.IsWithinBusinessHours() {
		return nil, &SlotNotAllowedError{Category: category, At: slot.At(), Reason: ReasonOutsideBusinessHours}
	}
	now = now.Truncate(time.Microsecond)
	return &Appointment{
		id:             uuid.NewString(),
		category:       category,
		provider:       provider,
		transport:      copyTransport(transport),
		slot:           slot,
		status:         StatusPending,
		createdAt:      now,
		lastModifiedAt: now,
	}, nil
}

func (a *Appointment) ID() string                 { return a.id }
func (a *Appointment) Category() Category         { return a.category }
func (a *Appointment) Provider() ProviderInfo     { return a.provider }
func (a *Appointment) Transport() Transport       { return copyTransport(a.transport) }
func (a *Appointment) Slot() TimeSlot             { return a.slot }
func (a *Appointment) Status() Status             { return a.status }
func (a *Appointment) CreatedAt() time.Time       { return a.createdAt }
func (a *Appointment) LastModifiedAt() time.Time  { return a.lastModifiedAt }
func (a *Appointment) IsActive() bool             { return a.status.AllowsModification() }
func (a *Appointment) CanApply(op Operation) bool { return CanApply(a.status, op) }

// PostOutcome returns the outcome, if one was set.
func (a *Appointment) PostOutcome() (PostOutcome, bool) {
	if a.postOutcome == nil {
		return "", false
	}
	return *a.postOutcome, true
}

// Observations returns the latest note, if any.
func (a *Appointment) Observations() (string, bool) {
	if a.observations == nil {
		return "", false
	}
	return *a.observations, true
}

// Confirm accepts a pending appointment. An empty note clears observations.
func (a *Appointment) Confirm(note string, now time.Time) error {
	if err := a.guard(OperationConfirm); err != nil {
		return err
	}
	a.status = StatusConfirmed
	a.observations = optionalText(note)
	a.touch(now)
	return nil
}

// Reject declines a pending appointment.
func (a *Appointment) Reject(reason string, now time.Time) error {
	if err := a.guard(OperationReject); err != nil {
		return err
	}
	if isBlank(reason) {
		return NewValidationError("reason", "required")
	}
	a.status = StatusRejected
	a.observations = optionalText(reason)
	a.touch(now)
	return nil
}

// Cancel withdraws an active appointment.
func (a *Appointment) Cancel(reason string, now time.Time) error {
	if err := a.guard(OperationCancel); err != nil {
		return err
	}
	if isBlank(reason) {
		return NewValidationError("reason", "required")
	}
	a.status = StatusCancelled
	a.observations = optionalText(reason)
	a.touch(now)
	return nil
}

// AddObservations replaces the note on an active appointment.
func (a *Appointment) AddObservations(text string, now time.Time) error {
	if err := a.guard(OperationAddObservations); err != nil {
		return err
	}
	if isBlank(text) {
		return NewValidationError("observations", "required")
	}
	a.observations = optionalText(text)
	a.touch(now)
	return nil
}

// SetPostOutcome records what happened at a confirmed visit. Status stays CONFIRMED.
func (a *Appointment) SetPostOutcome(outcome PostOutcome, now time.Time) error {
	if err := a.guard(OperationSetPostOutcome); err != nil {
		return err
	}
	if !outcome.Valid() {
		return NewValidationError("outcome", "unknown outcome")
	}
	a.postOutcome = &outcome
	a.touch(now)
	return nil
}

func (a *Appointment) guard(op Operation) error {
	if !CanApply(a.status, op) {
		return &InvalidTransitionError{Current: a.status, Operation: op}
	}
	return nil
}

func (a *Appointment) touch(now time.Time) {
	a.lastModifiedAt = now.Truncate(time.Microsecond)
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func copyTransport(t Transport) Transport {
	out := Transport{Kind: t.Kind}
	if t.Carrier != nil {
		c := *t.Carrier
		out.Carrier = &c
	}
	if t.Private != nil {
		p := *t.Private
		out.Private = &p
	}
	if t.Helper != nil {
		h := *t.Helper
		out.Helper = &h
	}
	return out
}
