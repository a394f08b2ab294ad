package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/facilityops/visit-booking/internal/domain"
)

type memoryAuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewMemoryAuditRepository returns a process-local append-only audit log.
func NewMemoryAuditRepository() AuditRepository {
	return &memoryAuditRepository{}
}

func (r *memoryAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, cloneEntry(*entry))
	return nil
}

func (r *memoryAuditRepository) GetByID(ctx context.Context, id string) (*domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			out := cloneEntry(e)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryAuditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	matched := r.match(filter)
	slices.SortStableFunc(matched, func(a, b domain.AuditEntry) int {
		if filter.NewestFirst {
			return b.Timestamp.Compare(a.Timestamp)
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (r *memoryAuditRepository) Count(ctx context.Context, filter AuditFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *memoryAuditRepository) match(filter AuditFilter) []domain.AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AuditEntry
	for _, e := range r.entries {
		if filter.AppointmentID != nil && e.AppointmentID != *filter.AppointmentID {
			continue
		}
		if filter.ActorID != nil && e.ActorID != *filter.ActorID {
			continue
		}
		if len(filter.ChangeKinds) > 0 && !slices.Contains(filter.ChangeKinds, e.ChangeKind) {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		result = append(result, cloneEntry(e))
	}
	return result
}

func cloneEntry(e domain.AuditEntry) domain.AuditEntry {
	if e.PreviousState != nil {
		s := *e.PreviousState
		e.PreviousState = &s
	}
	if e.Note != nil {
		s := *e.Note
		e.Note = &s
	}
	return e
}
