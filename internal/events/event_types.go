package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/facilityops/visit-booking/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAppointmentBooked        EventType = "appointment_booked"
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
	EventAppointmentOutcomeSet    EventType = "appointment_outcome_set"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	Actor         *Actor    `json:"actor,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, appt *domain.Appointment, actor *domain.Actor, at time.Time, payload any) Event {
	e := Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AppointmentID: appt.ID(),
		Timestamp:     at,
		Payload:       payload,
	}
	if actor != nil {
		e.Actor = &Actor{ID: actor.ID, Name: actor.Name, Role: actor.Role}
	}
	return e
}

// AppointmentSnapshot is the appointment state carried by events.
type AppointmentSnapshot struct {
	ID                  string          `json:"id"`
	Category            domain.Category `json:"category"`
	CategoryDescription string          `json:"category_description"`
	ProviderName        string          `json:"provider_name"`
	ProviderTaxID       string          `json:"provider_tax_id"`
	ContactName         string          `json:"contact_name"`
	ContactEmail        string          `json:"contact_email"`
	SlotAt              time.Time       `json:"slot_at"`
	Status              domain.Status   `json:"status"`
}

// Snapshot captures the parts of appt that notifications need.
func Snapshot(appt *domain.Appointment) AppointmentSnapshot {
	provider := appt.Provider()
	return AppointmentSnapshot{
		ID:                  appt.ID(),
		Category:            appt.Category(),
		CategoryDescription: appt.Category().Description(),
		ProviderName:        provider.Name(),
		ProviderTaxID:       provider.TaxID(),
		ContactName:         provider.Contact().Name(),
		ContactEmail:        provider.Contact().Email(),
		SlotAt:              appt.Slot().At(),
		Status:              appt.Status(),
	}
}

// AppointmentBookedPayload payload.
type AppointmentBookedPayload struct {
	Appointment AppointmentSnapshot `json:"appointment"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus   domain.Status       `json:"old_status"`
	NewStatus   domain.Status       `json:"new_status"`
	Note        string              `json:"note,omitempty"`
	Appointment AppointmentSnapshot `json:"appointment"`
}

// OutcomeSetPayload payload.
type OutcomeSetPayload struct {
	Outcome     domain.PostOutcome  `json:"outcome"`
	Appointment AppointmentSnapshot `json:"appointment"`
}
