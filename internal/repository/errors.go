package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrSlotConflict is returned when an active appointment already holds the (category, slot) pair.
	ErrSlotConflict = errors.New("active appointment already holds slot")
	// ErrStaleWrite is returned when the stored status no longer matches the expected one.
	ErrStaleWrite = errors.New("appointment changed concurrently")
)

const (
	uniqueViolation      = "23505"
	activeSlotConstraint = "appointments_active_slot_uq"
	defaultListLimit     = 20
	maxListLimit         = 500
)

// parseID normalizes id for binding to a UUID column. Ids that are not UUIDs cannot match any row.
func parseID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func parseIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if parsed, ok := parseID(id); ok {
			out = append(out, parsed)
		}
	}
	return out
}

func mapReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == activeSlotConstraint {
		return ErrSlotConflict
	}
	return err
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
