package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/observability"
	"github.com/facilityops/visit-booking/internal/repository"
)

const maxTransitionAttempts = 3

// LifecycleService applies state transitions to booked appointments.
type LifecycleService struct {
	appointments repository.AppointmentRepository
	recorder     *AuditRecorder
	guard        TransitionGuard
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
	now          func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	AuditRepo       repository.AuditRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	Now             func() time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	s := &LifecycleService{
		appointments: deps.AppointmentRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		now:          deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if deps.AuditRepo != nil {
		s.recorder = NewAuditRecorder(deps.AuditRepo, s.now)
	}
	return s
}

// Confirm accepts a pending appointment.
func (s *LifecycleService) Confirm(ctx context.Context, id, note string, actor *domain.Actor) (*domain.Appointment, error) {
	return s.changeStatus(ctx, id, domain.OperationConfirm, note, actor, func(a *domain.Appointment, now time.Time) error {
		return a.Confirm(note, now)
	})
}

// Reject declines a pending appointment. reason is required.
func (s *LifecycleService) Reject(ctx context.Context, id, reason string, actor *domain.Actor) (*domain.Appointment, error) {
	return s.changeStatus(ctx, id, domain.OperationReject, reason, actor, func(a *domain.Appointment, now time.Time) error {
		return a.Reject(reason, now)
	})
}

// Cancel withdraws a pending or confirmed appointment. reason is required.
func (s *LifecycleService) Cancel(ctx context.Context, id, reason string, actor *domain.Actor) (*domain.Appointment, error) {
	return s.changeStatus(ctx, id, domain.OperationCancel, reason, actor, func(a *domain.Appointment, now time.Time) error {
		return a.Cancel(reason, now)
	})
}

// SetPostOutcome records the outcome of a confirmed visit.
func (s *LifecycleService) SetPostOutcome(ctx context.Context, id string, outcome domain.PostOutcome, actor *domain.Actor) (*domain.Appointment, error) {
	appt, _, err := s.apply(ctx, id, domain.OperationSetPostOutcome, func(a *domain.Appointment, now time.Time) error {
		return a.SetPostOutcome(outcome, now)
	})
	if err != nil {
		return nil, err
	}

	if actor != nil && s.recorder != nil {
		if _, err := s.recorder.RecordPostOutcome(ctx, appt, *actor, outcome); err != nil {
			s.auditFailed(appt, domain.OperationSetPostOutcome, err)
		}
	}
	s.publish(ctx, events.NewEvent(events.EventAppointmentOutcomeSet, appt, actor, appt.LastModifiedAt(),
		events.OutcomeSetPayload{Outcome: outcome, Appointment: events.Snapshot(appt)}))
	return appt, nil
}

// AddObservations replaces the note on an active appointment. No audit entry is written.
func (s *LifecycleService) AddObservations(ctx context.Context, id, text string, actor *domain.Actor) (*domain.Appointment, error) {
	appt, _, err := s.apply(ctx, id, domain.OperationAddObservations, func(a *domain.Appointment, now time.Time) error {
		return a.AddObservations(text, now)
	})
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{zap.String("appointment_id", appt.ID())}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID))
	}
	s.logger.Info("appointment observations updated", fields...)
	return appt, nil
}

// CanAdminModify reports whether an administrator may still act on the appointment.
func (s *LifecycleService) CanAdminModify(ctx context.Context, id string) (bool, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return s.guard.CanAdminModify(appt), nil
}

// CanProviderCancel reports whether the provider may still cancel the appointment.
func (s *LifecycleService) CanProviderCancel(ctx context.Context, id string) (bool, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return s.guard.CanProviderCancel(appt), nil
}

func (s *LifecycleService) changeStatus(ctx context.Context, id string, op domain.Operation, note string, actor *domain.Actor, mutate func(*domain.Appointment, time.Time) error) (*domain.Appointment, error) {
	appt, previous, err := s.apply(ctx, id, op, mutate)
	if err != nil {
		return nil, err
	}

	if actor != nil && s.recorder != nil {
		if _, err := s.recorder.Record(ctx, appt, *actor, previous, note); err != nil {
			s.auditFailed(appt, op, err)
		}
	}

	payload := events.StatusChangedPayload{
		OldStatus:   previous,
		NewStatus:   appt.Status(),
		Note:        note,
		Appointment: events.Snapshot(appt),
	}
	s.publish(ctx, events.NewEvent(events.EventAppointmentStatusChanged, appt, actor, appt.LastModifiedAt(), payload))
	return appt, nil
}

// apply runs load, guard, mutate and a conditional save, retrying when another writer won the race.
func (s *LifecycleService) apply(ctx context.Context, id string, op domain.Operation, mutate func(*domain.Appointment, time.Time) error) (*domain.Appointment, domain.Status, error) {
	for attempt := 1; ; attempt++ {
		appt, err := s.load(ctx, id)
		if err != nil {
			return nil, "", err
		}
		if err := s.guard.Check(appt, op); err != nil {
			return nil, "", err
		}
		previous := appt.Status()
		if err := mutate(appt, s.now()); err != nil {
			return nil, "", err
		}

		err = s.appointments.Update(ctx, appt, previous)
		switch {
		case err == nil:
			s.metrics.RecordTransition(string(op))
			s.logger.Info("appointment transition applied",
				zap.String("appointment_id", appt.ID()),
				zap.String("operation", string(op)),
				zap.String("from", string(previous)),
				zap.String("to", string(appt.Status())))
			return appt, previous, nil
		case errors.Is(err, repository.ErrStaleWrite) && attempt < maxTransitionAttempts:
			s.logger.Debug("stale appointment write; retrying",
				zap.String("appointment_id", id),
				zap.Int("attempt", attempt))
			continue
		case errors.Is(err, repository.ErrNotFound):
			return nil, "", &domain.NotFoundError{Resource: "appointment", ID: id}
		default:
			return nil, "", fmt.Errorf("%s appointment %s: %w", op, id, err)
		}
	}
}

func (s *LifecycleService) load(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "appointment", ID: id}
		}
		return nil, fmt.Errorf("load appointment %s: %w", id, err)
	}
	return appt, nil
}

func (s *LifecycleService) auditFailed(appt *domain.Appointment, op domain.Operation, err error) {
	s.metrics.RecordAuditFailure()
	s.logger.Error("audit record failed",
		zap.String("appointment_id", appt.ID()),
		zap.String("operation", string(op)),
		zap.Error(err))
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
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
