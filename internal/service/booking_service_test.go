package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/lock"
	"github.com/facilityops/visit-booking/internal/repository"
)

func TestBookAppointmentCreatesPending(t *testing.T) {
	f := newFixture(t)
	var published []events.Event
	f.dispatcher.Subscribe(events.EventAppointmentBooked, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	assert.Equal(t, domain.StatusPending, appt.Status())
	assert.True(t, appt.Slot().At().Equal(tuesdayAt(9)))
	assert.Equal(t, fixedNow, appt.CreatedAt())

	stored, err := f.appointments.GetByID(testContext(t), appt.ID())
	require.NoError(t, err)
	assert.Equal(t, appt.ID(), stored.ID())

	require.Len(t, published, 1)
	assert.Equal(t, appt.ID(), published[0].AppointmentID)
	assert.Nil(t, published[0].Actor)
	assert.Equal(t, int64(1), f.metrics.Snapshot().Bookings["DELIVERY|ok"])
}

func TestBookAppointmentRejections(t *testing.T) {
	tests := []struct {
		name     string
		category domain.Category
		at       time.Time
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unknown category",
			category: domain.Category("PARTY"),
			at:       tuesdayAt(9),
			check: func(t *testing.T, err error) {
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "category", vErr.Field)
			},
		},
		{
			name:     "past slot",
			category: domain.CategoryDelivery,
			at:       fixedNow.Add(-time.Hour),
			check: func(t *testing.T, err error) {
				var pErr *domain.PastSlotError
				require.ErrorAs(t, err, &pErr)
			},
		},
		{
			name:     "hour not allowed",
			category: domain.CategoryImport,
			at:       tuesdayAt(15),
			check: func(t *testing.T, err error) {
				var nErr *domain.SlotNotAllowedError
				require.ErrorAs(t, err, &nErr)
				assert.Equal(t, domain.ReasonHourNotAllowed, nErr.Reason)
			},
		},
		{
			name:     "weekend",
			category: domain.CategoryDelivery,
			at:       saturdayAt(9),
			check: func(t *testing.T, err error) {
				var nErr *domain.SlotNotAllowedError
				require.ErrorAs(t, err, &nErr)
				assert.Equal(t, domain.ReasonWeekend, nErr.Reason)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			appt, err := f.booking.BookAppointment(testContext(t), bookingInput(t, tt.category, tt.at))
			require.Error(t, err)
			assert.Nil(t, appt)
			tt.check(t, err)

			count, err := f.appointments.Count(testContext(t), repository.AppointmentFilter{})
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestBookAppointmentMissingProvider(t *testing.T) {
	f := newFixture(t)
	input := bookingInput(t, domain.CategoryDelivery, tuesdayAt(9))
	input.Provider = domain.ProviderInfo{}

	_, err := f.booking.BookAppointment(testContext(t), input)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "provider", vErr.Field)
}

func TestBookAppointmentSlotTaken(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	_, err := f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryDelivery, tuesdayAt(9)))

	var taken *domain.SlotTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, []string{first.ID()}, taken.ConflictingIDs)
	assert.Equal(t, int64(1), f.metrics.Snapshot().Bookings["DELIVERY|taken"])
}

// staleListRepository hides active appointments from the first listing, as another
// process would when it books between our read and our insert.
type staleListRepository struct {
	repository.AppointmentRepository
	mu     sync.Mutex
	hidden bool
}

func (r *staleListRepository) ListActiveByCategory(ctx context.Context, category domain.Category) ([]*domain.Appointment, error) {
	r.mu.Lock()
	hide := !r.hidden
	r.hidden = true
	r.mu.Unlock()
	if hide {
		return nil, nil
	}
	return r.AppointmentRepository.ListActiveByCategory(ctx, category)
}

func TestBookAppointmentStoreConflictNamesHolder(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	f.booking = NewBookingService(BookingDependencies{
		AppointmentRepo: &staleListRepository{AppointmentRepository: f.appointments},
		Metrics:         f.metrics,
		Now:             clock,
	})

	_, err := f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryDelivery, tuesdayAt(9)))

	var taken *domain.SlotTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, []string{first.ID()}, taken.ConflictingIDs)
}

func TestBookAppointmentOtherCategorySameSlot(t *testing.T) {
	f := newFixture(t)
	f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	appt, err := f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryPickup, tuesdayAt(9)))
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryPickup, appt.Category())
}

func TestBookAppointmentSlotFreedByCancellation(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	_, err := f.lifecycle.Cancel(testContext(t), first.ID(), "truck broke down", adminActor)
	require.NoError(t, err)

	second, err := f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryDelivery, tuesdayAt(9)))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestBookAppointmentConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	const attempts = 16
	input := bookingInput(t, domain.CategoryDelivery, tuesdayAt(10))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		taken   int
		unknown []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.booking.BookAppointment(context.Background(), input)
			mu.Lock()
			defer mu.Unlock()
			var tErr *domain.SlotTakenError
			switch {
			case err == nil:
				booked++
			case errors.As(err, &tErr):
				taken++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 1, booked)
	assert.Equal(t, attempts-1, taken)

	active, err := f.appointments.ListActiveByCategory(testContext(t), domain.CategoryDelivery)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestBookAppointmentLockTimeout(t *testing.T) {
	f := newFixture(t)
	locker := lock.NewLocalLocker()
	f.booking = NewBookingService(BookingDependencies{
		AppointmentRepo: f.appointments,
		Locker:          locker,
		Now:             clock,
	})
	unlock, err := locker.Acquire(testContext(t), bookingLockKey(domain.CategoryDelivery))
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(testContext(t), 20*time.Millisecond)
	defer cancel()
	_, err = f.booking.BookAppointment(ctx, bookingInput(t, domain.CategoryDelivery, tuesdayAt(9)))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBookAppointmentPublishFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.Subscribe(events.EventAppointmentBooked, func(context.Context, events.Event) error {
		return errors.New("broker down")
	})

	appt, err := f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryDelivery, tuesdayAt(9)))
	require.NoError(t, err)
	assert.NotNil(t, appt)
	assert.Equal(t, int64(1), f.metrics.Snapshot().NotificationFailures)
}

func TestBookAppointmentFacilityTimezone(t *testing.T) {
	loc := time.FixedZone("COT", -5*60*60)
	rules, err := domain.NewSlotRules(domain.DefaultAllowedHours(), loc)
	require.NoError(t, err)
	f := newFixture(t)
	f.booking = NewBookingService(BookingDependencies{AppointmentRepo: f.appointments, Rules: rules, Now: clock})

	// 14:00 UTC is 09:00 at the facility.
	appt, err := f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryDelivery, tuesdayAt(14)))
	require.NoError(t, err)
	assert.Equal(t, 9, appt.Slot().Hour())

	// 09:00 UTC is 04:00 at the facility.
	_, err = f.booking.BookAppointment(testContext(t), bookingInput(t, domain.CategoryPickup, tuesdayAt(9)))
	var nErr *domain.SlotNotAllowedError
	require.ErrorAs(t, err, &nErr)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	tests := []struct {
		name     string
		category domain.Category
		at       time.Time
		want     bool
	}{
		{"free slot", domain.CategoryDelivery, tuesdayAt(10), true},
		{"taken slot", domain.CategoryDelivery, tuesdayAt(9), false},
		{"hour not allowed", domain.CategoryDelivery, tuesdayAt(12), false},
		{"weekend", domain.CategoryDelivery, saturdayAt(9), false},
		{"past", domain.CategoryDelivery, fixedNow.Add(-24 * time.Hour), false},
		{"unknown category", domain.Category("X"), tuesdayAt(9), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.booking.CheckAvailability(testContext(t), tt.category, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCheckAvailabilityWeekendAlwaysFalse(t *testing.T) {
	f := newFixture(t)
	sunday := saturdayAt(0).AddDate(0, 0, 1)

	for _, category := range domain.Categories() {
		for hour := 0; hour < 24; hour++ {
			for _, day := range []time.Time{saturdayAt(0), sunday} {
				at := day.Add(time.Duration(hour) * time.Hour)
				ok, err := f.booking.CheckAvailability(testContext(t), category, at)
				require.NoError(t, err)
				assert.False(t, ok, "%s at %s", category, at)
			}
		}
	}
}

func TestCheckAvailabilityIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.book(t, domain.CategoryReturn, tuesdayAt(14))

	for _, category := range domain.Categories() {
		for hour := 7; hour <= 18; hour++ {
			first, err := f.booking.CheckAvailability(testContext(t), category, tuesdayAt(hour))
			require.NoError(t, err)
			second, err := f.booking.CheckAvailability(testContext(t), category, tuesdayAt(hour))
			require.NoError(t, err)
			assert.Equal(t, first, second, "%s at %02d:00", category, hour)
		}
	}

	active, err := f.appointments.ListActiveByCategory(testContext(t), domain.CategoryReturn)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestBookingAllowedHours(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []int{8, 9, 10, 11}, f.booking.AllowedHours(domain.CategoryImport))
}
