package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/repository"
)

type mockAuditRepository struct {
	mock.Mock
}

func (m *mockAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditRepository) GetByID(ctx context.Context, id string) (*domain.AuditEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*domain.AuditEntry)
	return entry, args.Error(1)
}

func (m *mockAuditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, filter)
	entries, _ := args.Get(0).([]domain.AuditEntry)
	return entries, args.Error(1)
}

func (m *mockAuditRepository) Count(ctx context.Context, filter repository.AuditFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// staleOnceRepository fails the first Update as if another writer had won.
type staleOnceRepository struct {
	repository.AppointmentRepository
	mu      sync.Mutex
	tripped bool
	updates int
}

func (r *staleOnceRepository) Update(ctx context.Context, appt *domain.Appointment, expected domain.Status) error {
	r.mu.Lock()
	r.updates++
	if !r.tripped {
		r.tripped = true
		r.mu.Unlock()
		return repository.ErrStaleWrite
	}
	r.mu.Unlock()
	return r.AppointmentRepository.Update(ctx, appt, expected)
}

func auditTrail(t *testing.T, f *fixture, id string) []domain.AuditEntry {
	t.Helper()
	entries, err := f.audit.List(testContext(t), repository.AuditFilter{AppointmentID: &id})
	require.NoError(t, err)
	return entries
}

func TestConfirmRecordsAuditAndNotifies(t *testing.T) {
	f := newFixture(t)
	var changes []events.StatusChangedPayload
	f.dispatcher.Subscribe(events.EventAppointmentStatusChanged, func(_ context.Context, e events.Event) error {
		changes = append(changes, e.Payload.(events.StatusChangedPayload))
		return nil
	})
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	got, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "bring dock pass", adminActor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status())
	obs, ok := got.Observations()
	require.True(t, ok)
	assert.Equal(t, "bring dock pass", obs)

	trail := auditTrail(t, f, appt.ID())
	require.Len(t, trail, 1)
	assert.Equal(t, domain.ChangeConfirmation, trail[0].ChangeKind)
	assert.Equal(t, "admin-1", trail[0].ActorID)
	assert.Equal(t, "Dana Admin", trail[0].ActorName)
	require.NotNil(t, trail[0].PreviousState)
	assert.Equal(t, "PENDING", *trail[0].PreviousState)
	assert.Equal(t, "CONFIRMED", trail[0].NewState)
	require.NotNil(t, trail[0].Note)
	assert.Equal(t, "bring dock pass", *trail[0].Note)

	require.Len(t, changes, 1)
	assert.Equal(t, domain.StatusPending, changes[0].OldStatus)
	assert.Equal(t, domain.StatusConfirmed, changes[0].NewStatus)
	assert.Equal(t, int64(1), f.metrics.Snapshot().Transitions["confirm"])
}

func TestRejectAndCancelRequireReason(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	_, err := f.lifecycle.Reject(testContext(t), appt.ID(), "   ", adminActor)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = f.lifecycle.Cancel(testContext(t), appt.ID(), "", adminActor)
	require.ErrorAs(t, err, &vErr)

	stored, err := f.appointments.GetByID(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status())
	assert.Empty(t, auditTrail(t, f, appt.ID()))
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	_, err := f.lifecycle.Reject(testContext(t), appt.ID(), "no paperwork", adminActor)
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		op   domain.Operation
	}{
		{"confirm rejected", func() error {
			_, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "", adminActor)
			return err
		}, domain.OperationConfirm},
		{"cancel rejected", func() error {
			_, err := f.lifecycle.Cancel(testContext(t), appt.ID(), "late", adminActor)
			return err
		}, domain.OperationCancel},
		{"outcome on rejected", func() error {
			_, err := f.lifecycle.SetPostOutcome(testContext(t), appt.ID(), domain.OutcomeDelivered, adminActor)
			return err
		}, domain.OperationSetPostOutcome},
		{"observations on rejected", func() error {
			_, err := f.lifecycle.AddObservations(testContext(t), appt.ID(), "note", adminActor)
			return err
		}, domain.OperationAddObservations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var iErr *domain.InvalidTransitionError
			require.ErrorAs(t, err, &iErr)
			assert.Equal(t, domain.StatusRejected, iErr.Current)
			assert.Equal(t, tt.op, iErr.Operation)
		})
	}
	assert.Len(t, auditTrail(t, f, appt.ID()), 1)
}

func TestTransitionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.lifecycle.Confirm(testContext(t), "missing", "", adminActor)
	var nErr *domain.NotFoundError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "missing", nErr.ID)

	_, err = f.lifecycle.CanAdminModify(testContext(t), "missing")
	require.ErrorAs(t, err, &nErr)
}

func TestCancelConfirmedThenOutcomeRejected(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryReturn, tuesdayAt(15))
	_, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "", adminActor)
	require.NoError(t, err)

	got, err := f.lifecycle.Cancel(testContext(t), appt.ID(), "provider request", adminActor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status())

	trail := auditTrail(t, f, appt.ID())
	require.Len(t, trail, 2)
	assert.Equal(t, domain.ChangeCancellation, trail[1].ChangeKind)
	assert.Equal(t, "CONFIRMED", *trail[1].PreviousState)
}

func TestSetPostOutcome(t *testing.T) {
	f := newFixture(t)
	var outcomes []events.OutcomeSetPayload
	f.dispatcher.Subscribe(events.EventAppointmentOutcomeSet, func(_ context.Context, e events.Event) error {
		outcomes = append(outcomes, e.Payload.(events.OutcomeSetPayload))
		return nil
	})
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	_, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "", adminActor)
	require.NoError(t, err)

	got, err := f.lifecycle.SetPostOutcome(testContext(t), appt.ID(), domain.OutcomeLate, adminActor)
	require.NoError(t, err)
	outcome, ok := got.PostOutcome()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeLate, outcome)
	assert.Equal(t, domain.StatusConfirmed, got.Status())

	trail := auditTrail(t, f, appt.ID())
	require.Len(t, trail, 2)
	assert.Equal(t, domain.ChangeOutcomeLate, trail[1].ChangeKind)
	assert.Nil(t, trail[1].PreviousState)
	assert.Nil(t, trail[1].Note)
	assert.Equal(t, "LATE", trail[1].NewState)
	require.Len(t, outcomes, 1)

	_, err = f.lifecycle.SetPostOutcome(testContext(t), appt.ID(), domain.PostOutcome("LOST"), adminActor)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestAddObservationsWritesNoAudit(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	got, err := f.lifecycle.AddObservations(testContext(t), appt.ID(), "gate 4", adminActor)
	require.NoError(t, err)
	obs, ok := got.Observations()
	require.True(t, ok)
	assert.Equal(t, "gate 4", obs)
	assert.Empty(t, auditTrail(t, f, appt.ID()))
}

func TestTransitionWithoutActorSkipsAudit(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	_, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, auditTrail(t, f, appt.ID()))
}

func TestAuditFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	audit := &mockAuditRepository{}
	audit.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.ChangeKind == domain.ChangeConfirmation
	})).Return(errors.New("audit table locked")).Once()
	f.lifecycle = NewLifecycleService(LifecycleDependencies{
		AppointmentRepo: f.appointments,
		AuditRepo:       audit,
		Metrics:         f.metrics,
		Now:             clock,
	})
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	got, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "", adminActor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status())

	stored, err := f.appointments.GetByID(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status())
	assert.Equal(t, int64(1), f.metrics.Snapshot().AuditFailures)
	audit.AssertExpectations(t)
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.Subscribe(events.EventAppointmentStatusChanged, func(context.Context, events.Event) error {
		return errors.New("queue full")
	})
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	_, err := f.lifecycle.Reject(testContext(t), appt.ID(), "duplicate request", adminActor)
	require.NoError(t, err)
	assert.Len(t, auditTrail(t, f, appt.ID()), 1)
	assert.Equal(t, int64(1), f.metrics.Snapshot().NotificationFailures)
}

func TestStaleWriteIsRetried(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	stale := &staleOnceRepository{AppointmentRepository: f.appointments}
	f.lifecycle = NewLifecycleService(LifecycleDependencies{AppointmentRepo: stale, AuditRepo: f.audit, Now: clock})

	got, err := f.lifecycle.Confirm(testContext(t), appt.ID(), "", adminActor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status())
	assert.Equal(t, 2, stale.updates)
	assert.Len(t, auditTrail(t, f, appt.ID()), 1)
}

func TestConcurrentConfirmAndReject(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.lifecycle.Confirm(context.Background(), appt.ID(), "", adminActor)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.lifecycle.Reject(context.Background(), appt.ID(), "no dock", adminActor)
	}()
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		var iErr *domain.InvalidTransitionError
		switch {
		case err == nil:
			winners++
		case errors.As(err, &iErr):
			losers++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)
	assert.Len(t, auditTrail(t, f, appt.ID()), 1)
}

func TestCapabilityChecks(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	ok, err := f.lifecycle.CanAdminModify(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.lifecycle.CanProviderCancel(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.lifecycle.Cancel(testContext(t), appt.ID(), "changed plans", adminActor)
	require.NoError(t, err)

	ok, err = f.lifecycle.CanAdminModify(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.lifecycle.CanProviderCancel(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppointmentFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)

	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(10))
	assert.Equal(t, domain.StatusPending, appt.Status())

	confirmed, err := f.lifecycle.Confirm(ctx, appt.ID(), "ok", adminActor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status())
	obs, _ := confirmed.Observations()
	assert.Equal(t, "ok", obs)

	_, err = f.booking.BookAppointment(ctx, bookingInput(t, domain.CategoryDelivery, tuesdayAt(10)))
	var taken *domain.SlotTakenError
	require.ErrorAs(t, err, &taken)

	delivered, err := f.lifecycle.SetPostOutcome(ctx, appt.ID(), domain.OutcomeDelivered, adminActor)
	require.NoError(t, err)
	outcome, ok := delivered.PostOutcome()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeDelivered, outcome)
	assert.Equal(t, domain.StatusConfirmed, delivered.Status())

	cancelled, err := f.lifecycle.Cancel(ctx, appt.ID(), "dock closed", adminActor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status())
	obs, _ = cancelled.Observations()
	assert.Equal(t, "dock closed", obs)

	id := appt.ID()
	entries, err := f.audit.List(ctx, repository.AuditFilter{AppointmentID: &id})
	require.NoError(t, err)
	kinds := make([]domain.ChangeKind, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.ChangeKind)
	}
	assert.Equal(t, []domain.ChangeKind{domain.ChangeConfirmation, domain.ChangeOutcomeDelivered, domain.ChangeCancellation}, kinds)

	ok, err = f.booking.CheckAvailability(ctx, domain.CategoryDelivery, tuesdayAt(10))
	require.NoError(t, err)
	assert.True(t, ok, "cancelling frees the slot")
}
