package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/facilityops/visit-booking/internal/domain"
)

type activeSlotKey struct {
	category domain.Category
	slotAt   int64
}

func slotKeyOf(rec domain.AppointmentRecord) activeSlotKey {
	return activeSlotKey{category: rec.Category, slotAt: rec.SlotAt.UnixMicro()}
}

type memoryAppointmentRepository struct {
	mu      sync.RWMutex
	records map[string]domain.AppointmentRecord
	order   []string
	active  map[activeSlotKey]string
}

// NewMemoryAppointmentRepository returns a process-local repository.
// It keeps the same active (category, slot) uniqueness as the Postgres schema.
func NewMemoryAppointmentRepository() AppointmentRepository {
	return &memoryAppointmentRepository{
		records: make(map[string]domain.AppointmentRecord),
		active:  make(map[activeSlotKey]string),
	}
}

func (r *memoryAppointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	rec := appt.Record()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return ErrSlotConflict
	}
	key := slotKeyOf(rec)
	if rec.Status.AllowsModification() {
		if _, taken := r.active[key]; taken {
			return ErrSlotConflict
		}
		r.active[key] = rec.ID
	}
	r.records[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *memoryAppointmentRepository) Update(ctx context.Context, appt *domain.Appointment, expected domain.Status) error {
	rec := appt.Record()
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[rec.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != expected {
		return ErrStaleWrite
	}
	key := slotKeyOf(current)
	if current.Status.AllowsModification() && !rec.Status.AllowsModification() {
		delete(r.active, key)
	}
	current.Status = rec.Status
	current.PostOutcome = rec.PostOutcome
	current.Observations = rec.Observations
	current.LastModifiedAt = rec.LastModifiedAt
	r.records[rec.ID] = current
	return nil
}

func (r *memoryAppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return domain.RehydrateAppointment(rec), nil
}

func (r *memoryAppointmentRepository) ListActiveByCategory(ctx context.Context, category domain.Category) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Appointment
	for _, id := range r.order {
		rec := r.records[id]
		if rec.Category == category && rec.Status.AllowsModification() {
			result = append(result, domain.RehydrateAppointment(rec))
		}
	}
	sortBySlot(result)
	return result, nil
}

func (r *memoryAppointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, error) {
	matched := r.match(filter)
	sortBySlot(matched)
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (r *memoryAppointmentRepository) Count(ctx context.Context, filter AppointmentFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *memoryAppointmentRepository) match(filter AppointmentFilter) []*domain.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Appointment
	for _, id := range r.order {
		rec := r.records[id]
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, rec.ID) {
			continue
		}
		if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, rec.Category) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, rec.Status) {
			continue
		}
		if filter.ProviderTaxID != nil && rec.ProviderTaxID != *filter.ProviderTaxID {
			continue
		}
		if filter.SlotFrom != nil && rec.SlotAt.Before(*filter.SlotFrom) {
			continue
		}
		if filter.SlotTo != nil && !rec.SlotAt.Before(*filter.SlotTo) {
			continue
		}
		result = append(result, domain.RehydrateAppointment(rec))
	}
	return result
}

func sortBySlot(list []*domain.Appointment) {
	slices.SortStableFunc(list, func(a, b *domain.Appointment) int {
		if c := a.Slot().At().Compare(b.Slot().At()); c != 0 {
			return c
		}
		return a.CreatedAt().Compare(b.CreatedAt())
	})
}
