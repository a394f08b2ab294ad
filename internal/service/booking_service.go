package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/lock"
	"github.com/facilityops/visit-booking/internal/observability"
	"github.com/facilityops/visit-booking/internal/repository"
)

// BookingService books appointments, one category at a time.
type BookingService struct {
	appointments repository.AppointmentRepository
	locker       lock.Locker
	validator    *AvailabilityValidator
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
	now          func() time.Time
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	Locker          lock.Locker
	Rules           *domain.SlotRules
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	Now             func() time.Time
}

// BookingInput describes a booking request.
type BookingInput struct {
	Category  domain.Category
	Provider  domain.ProviderInfo
	Transport domain.Transport
	SlotAt    time.Time
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	s := &BookingService{
		appointments: deps.AppointmentRepo,
		locker:       deps.Locker,
		validator:    NewAvailabilityValidator(deps.Rules),
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		now:          deps.Now,
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLocker()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// BookAppointment validates the request and persists a PENDING appointment.
// Fetch, check and insert run under a per-category lock.
func (s *BookingService) BookAppointment(ctx context.Context, input BookingInput) (*domain.Appointment, error) {
	appt, err := s.book(ctx, input)
	s.metrics.RecordBooking(string(input.Category), bookingResult(err))
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID()),
		zap.String("category", string(appt.Category())),
		zap.Time("slot", appt.Slot().At()),
		zap.String("provider_tax_id", appt.Provider().TaxID()))

	event := events.NewEvent(events.EventAppointmentBooked, appt, nil, appt.CreatedAt(),
		events.AppointmentBookedPayload{Appointment: events.Snapshot(appt)})
	s.publish(ctx, event)
	return appt, nil
}

func (s *BookingService) book(ctx context.Context, input BookingInput) (*domain.Appointment, error) {
	now := s.now()
	if !input.Category.Valid() {
		return nil, domain.NewValidationError("category", "unknown category")
	}
	if input.Provider.IsZero() {
		return nil, domain.NewValidationError("provider", "required")
	}
	if err := input.Transport.Validate(); err != nil {
		return nil, err
	}
	slot, err := domain.NewTimeSlot(input.SlotAt, now)
	if err != nil {
		return nil, err
	}
	slot = slot.In(s.validator.Rules().Location())

	unlock, err := s.locker.Acquire(ctx, bookingLockKey(input.Category))
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			s.logger.Warn("release booking lock failed", zap.String("category", string(input.Category)), zap.Error(err))
		}
	}()

	active, err := s.appointments.ListActiveByCategory(ctx, input.Category)
	if err != nil {
		return nil, fmt.Errorf("list active appointments: %w", err)
	}
	if err := s.validator.Validate(slot, input.Category, active); err != nil {
		return nil, err
	}

	appt, err := domain.NewAppointment(input.Category, input.Provider, input.Transport, slot, now)
	if err != nil {
		return nil, err
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			return nil, s.slotTaken(ctx, input.Category, slot)
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return appt, nil
}

// slotTaken reports a store-level uniqueness violation, naming the holders when they can be read back.
func (s *BookingService) slotTaken(ctx context.Context, category domain.Category, slot domain.TimeSlot) error {
	taken := &domain.SlotTakenError{Category: category, At: slot.At()}
	active, err := s.appointments.ListActiveByCategory(ctx, category)
	if err != nil {
		s.logger.Warn("list slot holders failed", zap.String("category", string(category)), zap.Error(err))
		return taken
	}
	taken.ConflictingIDs = appointmentIDs(NewConflictCalculator().FindConflicts(category, slot, active))
	return taken
}

// CheckAvailability reports whether a slot could be booked right now.
// Only infrastructure failures are returned as errors.
func (s *BookingService) CheckAvailability(ctx context.Context, category domain.Category, at time.Time) (bool, error) {
	if !category.Valid() {
		return false, nil
	}
	slot, err := domain.NewTimeSlot(at, s.now())
	if err != nil {
		return false, nil
	}
	active, err := s.appointments.ListActiveByCategory(ctx, category)
	if err != nil {
		return false, fmt.Errorf("list active appointments: %w", err)
	}
	return s.validator.Validate(slot, category, active) == nil, nil
}

// AllowedHours lists the start hours permitted for category.
func (s *BookingService) AllowedHours(category domain.Category) []int {
	return s.validator.Rules().AllowedHours(category)
}

// Location returns the facility time zone.
func (s *BookingService) Location() *time.Location {
	return s.validator.Rules().Location()
}

func (s *BookingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.metrics.RecordNotificationFailure()
		s.logger.Warn("publish event failed",
			zap.String("event_type", string(event.Type)),
			zap.String("appointment_id", event.AppointmentID),
			zap.Error(err))
	}
}

func bookingLockKey(category domain.Category) string {
	return "booking:" + string(category)
}

func bookingResult(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		validation *domain.ValidationError
		past       *domain.PastSlotError
		notAllowed *domain.SlotNotAllowedError
		taken      *domain.SlotTakenError
	)
	switch {
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &past):
		return "past_slot"
	case errors.As(err, &notAllowed):
		return "not_allowed"
	case errors.As(err, &taken):
		return "taken"
	}
	return "error"
}
