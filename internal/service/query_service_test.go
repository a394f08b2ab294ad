package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityops/visit-booking/internal/domain"
)

func TestAppointmentQueries(t *testing.T) {
	f := newFixture(t)
	q := NewAppointmentQueryService(f.appointments, nil)

	a := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	b := f.book(t, domain.CategoryDelivery, tuesdayAt(10))
	c := f.book(t, domain.CategoryPickup, tuesdayAt(9))
	wed := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	d := f.book(t, domain.CategoryImport, wed)
	_, err := f.lifecycle.Confirm(testContext(t), b.ID(), "", adminActor)
	require.NoError(t, err)
	_, err = f.lifecycle.Reject(testContext(t), c.ID(), "no slot", adminActor)
	require.NoError(t, err)

	got, err := q.GetByID(testContext(t), a.ID())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), got.ID())

	_, err = q.GetByID(testContext(t), "nope")
	var nErr *domain.NotFoundError
	require.ErrorAs(t, err, &nErr)

	pending, err := q.ListPending(testContext(t), Page{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID(), d.ID()}, appointmentIDs(pending))

	confirmed, err := q.ListConfirmed(testContext(t), Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID()}, appointmentIDs(confirmed))

	byCatStatus, err := q.ListByCategoryAndStatus(testContext(t), domain.CategoryPickup, domain.StatusRejected, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID()}, appointmentIDs(byCatStatus))

	byProvider, err := q.ListByProvider(testContext(t), "900123456", Page{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, byProvider, 2)

	activeForProvider, err := q.ListActiveForProvider(testContext(t), "900123456")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID(), b.ID(), d.ID()}, appointmentIDs(activeForProvider))

	tuesday, err := q.ListByDay(testContext(t), tuesdayAt(0), nil, Page{})
	require.NoError(t, err)
	assert.Len(t, tuesday, 3)
	importCategory := domain.CategoryImport
	wednesday, err := q.ListByDay(testContext(t), wed, &importCategory, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID()}, appointmentIDs(wednesday))

	from, to := tuesdayAt(9), tuesdayAt(10)
	ranged, err := q.Search(testContext(t), AppointmentQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID(), c.ID()}, appointmentIDs(ranged))

	_, err = q.Search(testContext(t), AppointmentQuery{From: &to, To: &from})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	counts, err := q.CountByStatus(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusPending:   2,
		domain.StatusConfirmed: 1,
		domain.StatusRejected:  1,
		domain.StatusCancelled: 0,
	}, counts)

	n, err := q.ActiveCountByCategory(testContext(t), domain.CategoryDelivery)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	conflicts, err := q.FindConflicts(testContext(t), domain.CategoryDelivery, tuesdayAt(10))
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID()}, appointmentIDs(conflicts))
}

func TestAuditQueries(t *testing.T) {
	f := newFixture(t)
	q := NewAuditQueryService(f.audit)
	other := &domain.Actor{ID: "admin-2", Name: "Lee", Role: domain.RoleAdmin}

	a := f.book(t, domain.CategoryDelivery, tuesdayAt(9))
	b := f.book(t, domain.CategoryDelivery, tuesdayAt(10))
	_, err := f.lifecycle.Confirm(testContext(t), a.ID(), "", adminActor)
	require.NoError(t, err)
	_, err = f.lifecycle.SetPostOutcome(testContext(t), a.ID(), domain.OutcomeDelivered, adminActor)
	require.NoError(t, err)
	_, err = f.lifecycle.Cancel(testContext(t), b.ID(), "weather", other)
	require.NoError(t, err)

	history, err := q.ListByAppointment(testContext(t), a.ID(), Page{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChangeConfirmation, history[0].ChangeKind)
	assert.Equal(t, domain.ChangeOutcomeDelivered, history[1].ChangeKind)

	entry, err := q.GetByID(testContext(t), history[0].ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID(), entry.AppointmentID)
	_, err = q.GetByID(testContext(t), "missing")
	var nErr *domain.NotFoundError
	require.ErrorAs(t, err, &nErr)

	byActor, err := q.ListByActor(testContext(t), "admin-2", Page{})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, b.ID(), byActor[0].AppointmentID)

	cancellations, err := q.ListByChangeKind(testContext(t), domain.ChangeCancellation, Page{})
	require.NoError(t, err)
	assert.Len(t, cancellations, 1)

	_, err = q.ListByChangeKind(testContext(t), domain.ChangeKind("BOGUS"), Page{})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	from, to := fixedNow, fixedNow
	inRange, err := q.Search(testContext(t), AuditQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, inRange, 3)
	later := fixedNow.Add(time.Hour)
	_, err = q.Search(testContext(t), AuditQuery{From: &later, To: &to})
	require.ErrorAs(t, err, &vErr)

	latest, err := q.Latest(testContext(t), 2)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
	_, err = q.Latest(testContext(t), 0)
	require.ErrorAs(t, err, &vErr)

	n, err := q.CountByActor(testContext(t), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = q.CountByAppointment(testContext(t), b.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuditRecorderRejectsPendingTarget(t *testing.T) {
	f := newFixture(t)
	rec := NewAuditRecorder(f.audit, clock)
	appt := f.book(t, domain.CategoryDelivery, tuesdayAt(9))

	_, err := rec.Record(testContext(t), appt, *adminActor, domain.StatusPending, "")
	require.Error(t, err)

	require.NoError(t, appt.Confirm("", fixedNow))
	entry, err := rec.Record(testContext(t), appt, *adminActor, domain.StatusPending, "  ")
	require.NoError(t, err)
	assert.Nil(t, entry.Note)
	assert.Equal(t, fixedNow, entry.Timestamp)
	assert.NotEmpty(t, entry.ID)
}
