package domain

import "time"

// AppointmentRecord is the flat storage form of an Appointment.
type AppointmentRecord struct {
	ID             string
	Category       Category
	ProviderName   string
	ProviderTaxID  string
	PurchaseOrder  string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	Transport      Transport
	SlotAt         time.Time
	Status         Status
	PostOutcome    *PostOutcome
	Observations   *string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// Record flattens the aggregate. The result shares no memory with a.
func (a *Appointment) Record() AppointmentRecord {
	rec := AppointmentRecord{
		ID:             a.id,
		Category:       a.category,
		ProviderName:   a.provider.name,
		ProviderTaxID:  a.provider.taxID,
		PurchaseOrder:  a.provider.purchaseOrder,
		ContactName:    a.provider.contact.name,
		ContactEmail:   a.provider.contact.email,
		ContactPhone:   a.provider.contact.phone,
		Transport:      copyTransport(a.transport),
		SlotAt:         a.slot.At(),
		Status:         a.status,
		CreatedAt:      a.createdAt,
		LastModifiedAt: a.lastModifiedAt,
	}
	if a.postOutcome != nil {
		o := *a.postOutcome
		rec.PostOutcome = &o
	}
	if a.observations != nil {
		s := *a.observations
		rec.Observations = &s
	}
	return rec
}

// RehydrateAppointment rebuilds an aggregate from storage without creation checks.
func RehydrateAppointment(rec AppointmentRecord) *Appointment {
	a := &Appointment{
		id:       rec.ID,
		category: rec.Category,
		provider: ProviderInfo{
			name:          rec.ProviderName,
			taxID:         rec.ProviderTaxID,
			purchaseOrder: rec.PurchaseOrder,
			contact: Contact{
				name:  rec.ContactName,
				email: rec.ContactEmail,
				phone: rec.ContactPhone,
			},
		},
		transport:      copyTransport(rec.Transport),
		slot:           RehydrateTimeSlot(rec.SlotAt),
		status:         rec.Status,
		createdAt:      rec.CreatedAt,
		lastModifiedAt: rec.LastModifiedAt,
	}
	if rec.PostOutcome != nil {
		o := *rec.PostOutcome
		a.postOutcome = &o
	}
	if rec.Observations != nil {
		s := *rec.Observations
		a.observations = &s
	}
	return a
}
