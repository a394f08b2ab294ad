package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/repository"
)

// AuditRecorder appends exactly one entry per successful transition.
type AuditRecorder struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// NewAuditRecorder constructs the recorder.
func NewAuditRecorder(repo repository.AuditRepository, now func() time.Time) *AuditRecorder {
	if now == nil {
		now = time.Now
	}
	return &AuditRecorder{repo: repo, now: now}
}

// Record stores a status transition of appt from previous to its current status.
func (r *AuditRecorder) Record(ctx context.Context, appt *domain.Appointment, actor domain.Actor, previous domain.Status, note string) (*domain.AuditEntry, error) {
	kind, err := domain.ChangeKindForStatus(appt.Status())
	if err != nil {
		return nil, err
	}
	prev := string(previous)
	entry := &domain.AuditEntry{
		ID:            uuid.NewString(),
		AppointmentID: appt.ID(),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ChangeKind:    kind,
		PreviousState: &prev,
		NewState:      string(appt.Status()),
		Timestamp:     r.now().Truncate(time.Microsecond),
	}
	if note = strings.TrimSpace(note); note != "" {
		entry.Note = &note
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordPostOutcome stores an outcome assignment. Such entries carry no previous state and no note.
func (r *AuditRecorder) RecordPostOutcome(ctx context.Context, appt *domain.Appointment, actor domain.Actor, outcome domain.PostOutcome) (*domain.AuditEntry, error) {
	kind, err := domain.ChangeKindForOutcome(outcome)
	if err != nil {
		return nil, err
	}
	entry := &domain.AuditEntry{
		ID:            uuid.NewString(),
		AppointmentID: appt.ID(),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ChangeKind:    kind,
		NewState:      string(outcome),
		Timestamp:     r.now().Truncate(time.Microsecond),
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
