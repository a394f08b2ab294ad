package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityops/visit-booking/internal/domain"
)

// AuditFilter captures audit search parameters. Timestamp bounds are inclusive.
type AuditFilter struct {
	AppointmentID *string
	ActorID       *string
	ChangeKinds   []domain.ChangeKind
	From          *time.Time
	To            *time.Time
	NewestFirst   bool
	Limit         int
	Offset        int
}

// AuditRepository stores audit entries. Entries are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	GetByID(ctx context.Context, id string) (*domain.AuditEntry, error)
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)
	Count(ctx context.Context, filter AuditFilter) (int, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds the Postgres repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

const auditColumns = `id, appointment_id, actor_id, actor_name, change_kind, previous_state, new_state, note, changed_at`

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_entries (id, appointment_id, actor_id, actor_name, change_kind, previous_state, new_state, note, changed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.AppointmentID,
		entry.ActorID,
		entry.ActorName,
		entry.ChangeKind,
		entry.PreviousState,
		entry.NewState,
		entry.Note,
		entry.Timestamp,
	)
	return err
}

func (r *auditRepository) GetByID(ctx context.Context, id string) (*domain.AuditEntry, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE id=$1`
	entry, err := scanAuditEntry(r.pool.QueryRow(ctx, query, uid))
	if err != nil {
		return nil, mapReadError(err)
	}
	return &entry, nil
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	where, args := auditWhere(filter)
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	order := "ASC"
	if filter.NewestFirst {
		order = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM audit_entries WHERE %s ORDER BY changed_at %s, id %s LIMIT %d OFFSET %d`,
		auditColumns, where, order, order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) Count(ctx context.Context, filter AuditFilter) (int, error) {
	where, args := auditWhere(filter)
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_entries WHERE `+where, args...).Scan(&count)
	return count, err
}

func auditWhere(filter AuditFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AppointmentID != nil {
		if id, ok := parseID(*filter.AppointmentID); ok {
			args = append(args, id)
			clauses = append(clauses, fmt.Sprintf("appointment_id=$%d", len(args)))
		} else {
			clauses = append(clauses, "FALSE")
		}
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		clauses = append(clauses, fmt.Sprintf("actor_id=$%d", len(args)))
	}
	if len(filter.ChangeKinds) > 0 {
		placeholders := make([]string, len(filter.ChangeKinds))
		for i, k := range filter.ChangeKinds {
			args = append(args, k)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("change_kind IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("changed_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("changed_at <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanAuditEntry(row pgx.Row) (domain.AuditEntry, error) {
	var entry domain.AuditEntry
	err := row.Scan(
		&entry.ID,
		&entry.AppointmentID,
		&entry.ActorID,
		&entry.ActorName,
		&entry.ChangeKind,
		&entry.PreviousState,
		&entry.NewState,
		&entry.Note,
		&entry.Timestamp,
	)
	return entry, err
}
