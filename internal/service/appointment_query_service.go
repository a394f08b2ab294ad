package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/repository"
)

// Page bounds a listing. Zero values fall back to repository defaults.
type Page struct {
	Limit  int
	Offset int
}

// AppointmentQuery describes a combined appointment search. Slot bounds are [From, To).
type AppointmentQuery struct {
	Categories    []domain.Category
	Statuses      []domain.Status
	ProviderTaxID *string
	From          *time.Time
	To            *time.Time
	Page          Page
}

// AppointmentQueryService serves read-side appointment queries.
type AppointmentQueryService struct {
	appointments repository.AppointmentRepository
	rules        *domain.SlotRules
	conflicts    ConflictCalculator
}

// NewAppointmentQueryService constructs the service.
func NewAppointmentQueryService(repo repository.AppointmentRepository, rules *domain.SlotRules) *AppointmentQueryService {
	if rules == nil {
		rules = domain.DefaultSlotRules()
	}
	return &AppointmentQueryService{appointments: repo, rules: rules, conflicts: NewConflictCalculator()}
}

// GetByID fetches one appointment.
func (s *AppointmentQueryService) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "appointment", ID: id}
		}
		return nil, err
	}
	return appt, nil
}

// Search lists appointments matching query ordered by slot.
func (s *AppointmentQueryService) Search(ctx context.Context, query AppointmentQuery) ([]*domain.Appointment, error) {
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, domain.NewValidationError("from", "must not be after to")
	}
	return s.appointments.List(ctx, repository.AppointmentFilter{
		Categories:    query.Categories,
		Statuses:      query.Statuses,
		ProviderTaxID: query.ProviderTaxID,
		SlotFrom:      query.From,
		SlotTo:        query.To,
		Limit:         query.Page.Limit,
		Offset:        query.Page.Offset,
	})
}

// ListByStatus lists appointments in status.
func (s *AppointmentQueryService) ListByStatus(ctx context.Context, status domain.Status, page Page) ([]*domain.Appointment, error) {
	return s.Search(ctx, AppointmentQuery{Statuses: []domain.Status{status}, Page: page})
}

// ListPending lists appointments awaiting a decision.
func (s *AppointmentQueryService) ListPending(ctx context.Context, page Page) ([]*domain.Appointment, error) {
	return s.ListByStatus(ctx, domain.StatusPending, page)
}

// ListConfirmed lists confirmed appointments.
func (s *AppointmentQueryService) ListConfirmed(ctx context.Context, page Page) ([]*domain.Appointment, error) {
	return s.ListByStatus(ctx, domain.StatusConfirmed, page)
}

// ListByCategoryAndStatus lists appointments of category in status.
func (s *AppointmentQueryService) ListByCategoryAndStatus(ctx context.Context, category domain.Category, status domain.Status, page Page) ([]*domain.Appointment, error) {
	return s.Search(ctx, AppointmentQuery{
		Categories: []domain.Category{category},
		Statuses:   []domain.Status{status},
		Page:       page,
	})
}

// ListByProvider lists every appointment booked under taxID.
func (s *AppointmentQueryService) ListByProvider(ctx context.Context, taxID string, page Page) ([]*domain.Appointment, error) {
	return s.Search(ctx, AppointmentQuery{ProviderTaxID: &taxID, Page: page})
}

// ListActiveForProvider lists the pending and confirmed appointments booked under taxID.
func (s *AppointmentQueryService) ListActiveForProvider(ctx context.Context, taxID string) ([]*domain.Appointment, error) {
	all, err := s.appointments.List(ctx, repository.AppointmentFilter{
		ProviderTaxID: &taxID,
		Statuses:      domain.ActiveStatuses,
		Limit:         500,
	})
	if err != nil {
		return nil, err
	}
	return s.conflicts.ActiveForProvider(taxID, all), nil
}

// ListByDay lists appointments whose slot falls on the calendar day of day at the facility,
// optionally for one category.
func (s *AppointmentQueryService) ListByDay(ctx context.Context, day time.Time, category *domain.Category, page Page) ([]*domain.Appointment, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.rules.Location())
	end := start.AddDate(0, 0, 1)
	query := AppointmentQuery{From: &start, To: &end, Page: page}
	if category != nil {
		query.Categories = []domain.Category{*category}
	}
	return s.Search(ctx, query)
}

// Location returns the facility time zone.
func (s *AppointmentQueryService) Location() *time.Location {
	return s.rules.Location()
}

// CountByStatus counts appointments per status.
func (s *AppointmentQueryService) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	out := make(map[domain.Status]int, 4)
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusConfirmed, domain.StatusRejected, domain.StatusCancelled} {
		n, err := s.appointments.Count(ctx, repository.AppointmentFilter{Statuses: []domain.Status{status}})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", status, err)
		}
		out[status] = n
	}
	return out, nil
}

// ActiveCountByCategory counts the appointments holding slots of category.
func (s *AppointmentQueryService) ActiveCountByCategory(ctx context.Context, category domain.Category) (int, error) {
	active, err := s.appointments.ListActiveByCategory(ctx, category)
	if err != nil {
		return 0, err
	}
	return s.conflicts.ActiveCountByCategory(category, active), nil
}

// FindConflicts returns the active appointments of category starting exactly at at.
func (s *AppointmentQueryService) FindConflicts(ctx context.Context, category domain.Category, at time.Time) ([]*domain.Appointment, error) {
	active, err := s.appointments.ListActiveByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.conflicts.FindConflicts(category, domain.RehydrateTimeSlot(at), active), nil
}
