package dto

import (
	"time"

	"github.com/facilityops/visit-booking/internal/domain"
)

// ContactRequest describes the provider's responsible person.
type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ProviderRequest describes the booking provider.
type ProviderRequest struct {
	Name          string         `json:"name"`
	TaxID         string         `json:"tax_id"`
	PurchaseOrder string         `json:"purchase_order"`
	Contact       ContactRequest `json:"contact"`
}

// HelperRequest describes the driver's companion.
type HelperRequest struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TransportRequest carries either carrier or private vehicle fields, chosen by Kind.
type TransportRequest struct {
	Kind          domain.TransportKind `json:"kind"`
	CarrierName   string               `json:"carrier_name,omitempty"`
	WaybillNumber string               `json:"waybill_number,omitempty"`
	DriverName    string               `json:"driver_name,omitempty"`
	DriverID      string               `json:"driver_id,omitempty"`
	VehiclePlate  string               `json:"vehicle_plate,omitempty"`
	Helper        *HelperRequest       `json:"helper,omitempty"`
}

// BookAppointmentRequest payload.
type BookAppointmentRequest struct {
	Category  domain.Category  `json:"category"`
	SlotAt    time.Time        `json:"slot_at"`
	Provider  ProviderRequest  `json:"provider"`
	Transport TransportRequest `json:"transport"`
}

// NoteRequest carries an optional note for confirm and observations.
type NoteRequest struct {
	Note string `json:"note"`
}

// ReasonRequest carries the mandatory reason for reject and cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// OutcomeRequest payload.
type OutcomeRequest struct {
	Outcome domain.PostOutcome `json:"outcome"`
}

// ContactResponse response.
type ContactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ProviderResponse response.
type ProviderResponse struct {
	Name          string          `json:"name"`
	TaxID         string          `json:"tax_id"`
	PurchaseOrder string          `json:"purchase_order"`
	Contact       ContactResponse `json:"contact"`
}

// TransportResponse response.
type TransportResponse struct {
	Kind          domain.TransportKind `json:"kind"`
	CarrierName   string               `json:"carrier_name,omitempty"`
	WaybillNumber string               `json:"waybill_number,omitempty"`
	DriverName    string               `json:"driver_name,omitempty"`
	DriverID      string               `json:"driver_id,omitempty"`
	VehiclePlate  string               `json:"vehicle_plate,omitempty"`
	Helper        *HelperRequest       `json:"helper,omitempty"`
}

// AppointmentSummary response.
type AppointmentSummary struct {
	ID           string              `json:"id"`
	Category     domain.Category     `json:"category"`
	SlotAt       time.Time           `json:"slot_at"`
	Status       domain.Status       `json:"status"`
	ProviderName string              `json:"provider_name"`
	TaxID        string              `json:"tax_id"`
	PostOutcome  *domain.PostOutcome `json:"post_outcome,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Capabilities lists what the caller may still do with an appointment.
type Capabilities struct {
	AdminCanModify    bool `json:"admin_can_modify"`
	ProviderCanCancel bool `json:"provider_can_cancel"`
}

// AppointmentDetailResponse provides full appointment info.
type AppointmentDetailResponse struct {
	ID                  string              `json:"id"`
	Category            domain.Category     `json:"category"`
	CategoryDescription string              `json:"category_description"`
	SlotAt              time.Time           `json:"slot_at"`
	Status              domain.Status       `json:"status"`
	Provider            ProviderResponse    `json:"provider"`
	Transport           TransportResponse   `json:"transport"`
	PostOutcome         *domain.PostOutcome `json:"post_outcome,omitempty"`
	Observations        *string             `json:"observations,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	Capabilities        *Capabilities       `json:"capabilities,omitempty"`
}

// AvailabilityResponse response.
type AvailabilityResponse struct {
	Category  domain.Category `json:"category"`
	SlotAt    time.Time       `json:"slot_at"`
	Available bool            `json:"available"`
}

// HourSlotResponse is one whitelisted hour on a day.
type HourSlotResponse struct {
	Hour      int       `json:"hour"`
	Label     string    `json:"label"`
	SlotAt    time.Time `json:"slot_at"`
	Available bool      `json:"available"`
	Taken     bool      `json:"taken"`
}

// DayAvailabilityResponse splits a day's hours into available and unavailable.
type DayAvailabilityResponse struct {
	Category            domain.Category    `json:"category"`
	CategoryDescription string             `json:"category_description"`
	Date                string             `json:"date"`
	Timezone            string             `json:"timezone"`
	Weekend             bool               `json:"weekend"`
	Available           []HourSlotResponse `json:"available"`
	Unavailable         []HourSlotResponse `json:"unavailable"`
}

// AllowedHoursResponse response.
type AllowedHoursResponse struct {
	Category domain.Category `json:"category"`
	Hours    []int           `json:"hours"`
	Timezone string          `json:"timezone"`
}

// ActiveCountResponse response.
type ActiveCountResponse struct {
	Category domain.Category `json:"category"`
	Active   int             `json:"active"`
}
