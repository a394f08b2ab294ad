package service

import (
	"context"
	"errors"
	"time"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/repository"
)

// AuditQuery describes a combined audit search. Timestamp bounds are inclusive.
type AuditQuery struct {
	AppointmentID *string
	ActorID       *string
	ChangeKinds   []domain.ChangeKind
	From          *time.Time
	To            *time.Time
	Page          Page
}

// AuditQueryService is the read surface over the audit trail.
type AuditQueryService struct {
	repo repository.AuditRepository
}

// NewAuditQueryService constructs the service.
func NewAuditQueryService(repo repository.AuditRepository) *AuditQueryService {
	return &AuditQueryService{repo: repo}
}

// GetByID fetches one entry.
func (s *AuditQueryService) GetByID(ctx context.Context, id string) (*domain.AuditEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "audit entry", ID: id}
		}
		return nil, err
	}
	return entry, nil
}

// Search lists entries matching query, oldest first.
func (s *AuditQueryService) Search(ctx context.Context, query AuditQuery) ([]domain.AuditEntry, error) {
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, domain.NewValidationError("from", "must not be after to")
	}
	for _, k := range query.ChangeKinds {
		if !k.Valid() {
			return nil, domain.NewValidationError("change_kind", "unknown change kind "+string(k))
		}
	}
	return s.repo.List(ctx, repository.AuditFilter{
		AppointmentID: query.AppointmentID,
		ActorID:       query.ActorID,
		ChangeKinds:   query.ChangeKinds,
		From:          query.From,
		To:            query.To,
		Limit:         query.Page.Limit,
		Offset:        query.Page.Offset,
	})
}

// ListByAppointment returns the history of one appointment.
func (s *AuditQueryService) ListByAppointment(ctx context.Context, appointmentID string, page Page) ([]domain.AuditEntry, error) {
	return s.Search(ctx, AuditQuery{AppointmentID: &appointmentID, Page: page})
}

// ListByActor returns entries written by one actor.
func (s *AuditQueryService) ListByActor(ctx context.Context, actorID string, page Page) ([]domain.AuditEntry, error) {
	return s.Search(ctx, AuditQuery{ActorID: &actorID, Page: page})
}

// ListByChangeKind returns entries of one kind.
func (s *AuditQueryService) ListByChangeKind(ctx context.Context, kind domain.ChangeKind, page Page) ([]domain.AuditEntry, error) {
	return s.Search(ctx, AuditQuery{ChangeKinds: []domain.ChangeKind{kind}, Page: page})
}

// Latest returns the n most recent entries, newest first.
func (s *AuditQueryService) Latest(ctx context.Context, n int) ([]domain.AuditEntry, error) {
	if n <= 0 {
		return nil, domain.NewValidationError("limit", "must be positive")
	}
	return s.repo.List(ctx, repository.AuditFilter{NewestFirst: true, Limit: n})
}

// CountByActor counts entries written by one actor.
func (s *AuditQueryService) CountByActor(ctx context.Context, actorID string) (int, error) {
	return s.repo.Count(ctx, repository.AuditFilter{ActorID: &actorID})
}

// CountByAppointment counts entries of one appointment.
func (s *AuditQueryService) CountByAppointment(ctx context.Context, appointmentID string) (int, error) {
	return s.repo.Count(ctx, repository.AuditFilter{AppointmentID: &appointmentID})
}
