package dto

import (
	"time"

	"github.com/facilityops/visit-booking/internal/domain"
)

// AuditEntryResponse represents one audit trail record.
type AuditEntryResponse struct {
	ID            string            `json:"id"`
	AppointmentID string            `json:"appointment_id"`
	ActorID       string            `json:"actor_id"`
	ActorName     string            `json:"actor_name"`
	ChangeKind    domain.ChangeKind `json:"change_kind"`
	PreviousState *string           `json:"previous_state"`
	NewState      string            `json:"new_state"`
	Note          *string           `json:"note,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

