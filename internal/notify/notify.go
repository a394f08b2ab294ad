package notify

import (
	"context"
	"time"

	"github.com/facilityops/visit-booking/internal/domain"
)

// AppointmentNotification is a rendered message about an appointment status change.
type AppointmentNotification struct {
	AppointmentID string          `json:"appointment_id"`
	Category      domain.Category `json:"category"`
	Status        domain.Status   `json:"status"`
	Recipient     string          `json:"recipient"`
	RecipientName string          `json:"recipient_name"`
	Subject       string          `json:"subject"`
	Body          string          `json:"body"`
	SlotAt        time.Time       `json:"slot_at"`
}

// Notifier delivers notifications over one channel.
type Notifier interface {
	Notify(ctx context.Context, n AppointmentNotification) error
}
