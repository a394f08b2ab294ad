package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/observability"
	"github.com/facilityops/visit-booking/internal/repository"
)

// Monday 2026-10-12 07:00 UTC.
var fixedNow = time.Date(2026, time.October, 12, 7, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func tuesdayAt(hour int) time.Time {
	return time.Date(2026, time.October, 13, hour, 0, 0, 0, time.UTC)
}

func saturdayAt(hour int) time.Time {
	return time.Date(2026, time.October, 17, hour, 0, 0, 0, time.UTC)
}

func testProvider(t *testing.T, taxID string) domain.ProviderInfo {
	t.Helper()
	contact, err := domain.NewContact("Ana Ruiz", "ana@acme.test", "+57 300 000 0000")
	require.NoError(t, err)
	p, err := domain.NewProviderInfo("Acme Logistics", taxID, "PO-1001", contact)
	require.NoError(t, err)
	return p
}

func testCarrier(t *testing.T) domain.Transport {
	t.Helper()
	tr, err := domain.NewCarrierTransport("FastFreight", "WB-77", nil)
	require.NoError(t, err)
	return tr
}

func bookingInput(t *testing.T, category domain.Category, at time.Time) BookingInput {
	t.Helper()
	return BookingInput{
		Category:  category,
		Provider:  testProvider(t, "900123456"),
		Transport: testCarrier(t),
		SlotAt:    at,
	}
}

var adminActor = &domain.Actor{ID: "admin-1", Name: "Dana Admin", Role: domain.RoleAdmin}

type fixture struct {
	appointments repository.AppointmentRepository
	audit        repository.AuditRepository
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	booking      *BookingService
	lifecycle    *LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		appointments: repository.NewMemoryAppointmentRepository(),
		audit:        repository.NewMemoryAuditRepository(),
		dispatcher:   events.NewInMemoryDispatcher(),
		metrics:      observability.NewMetrics(),
	}
	f.booking = NewBookingService(BookingDependencies{
		AppointmentRepo: f.appointments,
		Rules:           domain.DefaultSlotRules(),
		Dispatcher:      f.dispatcher,
		Metrics:         f.metrics,
		Now:             clock,
	})
	f.lifecycle = NewLifecycleService(LifecycleDependencies{
		AppointmentRepo: f.appointments,
		AuditRepo:       f.audit,
		Dispatcher:      f.dispatcher,
		Metrics:         f.metrics,
		Now:             clock,
	})
	return f
}

func (f *fixture) book(t *testing.T, category domain.Category, at time.Time) *domain.Appointment {
	t.Helper()
	appt, err := f.booking.BookAppointment(testContext(t), bookingInput(t, category, at))
	require.NoError(t, err)
	return appt
}
