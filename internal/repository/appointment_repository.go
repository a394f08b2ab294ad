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

// AppointmentFilter captures listing parameters. Slot bounds are [SlotFrom, SlotTo).
type AppointmentFilter struct {
	IDs           []string
	Categories    []domain.Category
	Statuses      []domain.Status
	ProviderTaxID *string
	SlotFrom      *time.Time
	SlotTo        *time.Time
	Limit         int
	Offset        int
}

// AppointmentRepository encapsulates appointment persistence.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	// Update persists appt only if the stored status still equals expected.
	Update(ctx context.Context, appt *domain.Appointment, expected domain.Status) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	ListActiveByCategory(ctx context.Context, category domain.Category) ([]*domain.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, error)
	Count(ctx context.Context, filter AppointmentFilter) (int, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates the Postgres repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, category, provider_name, provider_tax_id, purchase_order,
               contact_name, contact_email, contact_phone,
               transport_kind, carrier_name, waybill_number, driver_name, driver_id, vehicle_plate,
               helper_name, helper_id, slot_at, status, post_outcome, observations, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (id, category, provider_name, provider_tax_id, purchase_order,
            contact_name, contact_email, contact_phone,
            transport_kind, carrier_name, waybill_number, driver_name, driver_id, vehicle_plate,
            helper_name, helper_id, slot_at, status, post_outcome, observations, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	rec := appt.Record()
	tr := flattenTransport(rec.Transport)
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Category,
		rec.ProviderName,
		rec.ProviderTaxID,
		rec.PurchaseOrder,
		rec.ContactName,
		rec.ContactEmail,
		rec.ContactPhone,
		tr.kind,
		tr.carrierName,
		tr.waybill,
		tr.driverName,
		tr.driverID,
		tr.plate,
		tr.helperName,
		tr.helperID,
		rec.SlotAt,
		rec.Status,
		outcomeValue(rec.PostOutcome),
		rec.Observations,
		rec.CreatedAt,
		rec.LastModifiedAt,
	)
	return mapWriteError(err)
}

func (r *appointmentRepository) Update(ctx context.Context, appt *domain.Appointment, expected domain.Status) error {
	const query = `
        UPDATE appointments SET status=$1, post_outcome=$2, observations=$3, updated_at=$4
        WHERE id=$5 AND status=$6`
	rec := appt.Record()
	id, ok := parseID(rec.ID)
	if !ok {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, query,
		rec.Status,
		outcomeValue(rec.PostOutcome),
		rec.Observations,
		rec.LastModifiedAt,
		id,
		expected,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleWrite
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, uid))
	if err != nil {
		return nil, mapReadError(err)
	}
	return appt, nil
}

func (r *appointmentRepository) ListActiveByCategory(ctx context.Context, category domain.Category) ([]*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
             FROM appointments WHERE category=$1 AND status IN ('PENDING','CONFIRMED') ORDER BY slot_at ASC`
	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, error) {
	where, args := appointmentWhere(filter)
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s ORDER BY slot_at ASC, created_at ASC LIMIT %d OFFSET %d`,
		appointmentColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) Count(ctx context.Context, filter AppointmentFilter) (int, error) {
	where, args := appointmentWhere(filter)
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&count)
	return count, err
}

func appointmentWhere(filter AppointmentFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.IDs) > 0 {
		if ids := parseIDs(filter.IDs); len(ids) > 0 {
			args = append(args, ids)
			clauses = append(clauses, fmt.Sprintf("id = ANY($%d::uuid[])", len(args)))
		} else {
			clauses = append(clauses, "FALSE")
		}
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			args = append(args, c)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			args = append(args, s)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ProviderTaxID != nil {
		args = append(args, *filter.ProviderTaxID)
		clauses = append(clauses, fmt.Sprintf("provider_tax_id=$%d", len(args)))
	}
	if filter.SlotFrom != nil {
		args = append(args, *filter.SlotFrom)
		clauses = append(clauses, fmt.Sprintf("slot_at >= $%d", len(args)))
	}
	if filter.SlotTo != nil {
		args = append(args, *filter.SlotTo)
		clauses = append(clauses, fmt.Sprintf("slot_at < $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

type transportRow struct {
	kind        domain.TransportKind
	carrierName *string
	waybill     *string
	driverName  *string
	driverID    *string
	plate       *string
	helperName  *string
	helperID    *string
}

func flattenTransport(t domain.Transport) transportRow {
	row := transportRow{kind: t.Kind}
	if t.Carrier != nil {
		row.carrierName = &t.Carrier.Name
		row.waybill = &t.Carrier.WaybillNumber
	}
	if t.Private != nil {
		row.driverName = &t.Private.DriverName
		row.driverID = &t.Private.DriverID
		row.plate = &t.Private.VehiclePlate
	}
	if t.Helper != nil {
		row.helperName = &t.Helper.Name
		row.helperID = &t.Helper.ID
	}
	return row
}

func (row transportRow) transport() domain.Transport {
	t := domain.Transport{Kind: row.kind}
	switch row.kind {
	case domain.TransportCarrier:
		t.Carrier = &domain.CarrierDetails{Name: deref(row.carrierName), WaybillNumber: deref(row.waybill)}
	case domain.TransportPrivate:
		t.Private = &domain.PrivateDetails{DriverName: deref(row.driverName), DriverID: deref(row.driverID), VehiclePlate: deref(row.plate)}
	}
	if row.helperName != nil || row.helperID != nil {
		t.Helper = &domain.HelperPerson{Name: deref(row.helperName), ID: deref(row.helperID)}
	}
	return t
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		rec     domain.AppointmentRecord
		tr      transportRow
		outcome *string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Category,
		&rec.ProviderName,
		&rec.ProviderTaxID,
		&rec.PurchaseOrder,
		&rec.ContactName,
		&rec.ContactEmail,
		&rec.ContactPhone,
		&tr.kind,
		&tr.carrierName,
		&tr.waybill,
		&tr.driverName,
		&tr.driverID,
		&tr.plate,
		&tr.helperName,
		&tr.helperID,
		&rec.SlotAt,
		&rec.Status,
		&outcome,
		&rec.Observations,
		&rec.CreatedAt,
		&rec.LastModifiedAt,
	); err != nil {
		return nil, err
	}
	rec.Transport = tr.transport()
	if outcome != nil {
		o := domain.PostOutcome(*outcome)
		rec.PostOutcome = &o
	}
	return domain.RehydrateAppointment(rec), nil
}

func scanAppointments(rows pgx.Rows) ([]*domain.Appointment, error) {
	var result []*domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, appt)
	}
	return result, rows.Err()
}

func outcomeValue(o *domain.PostOutcome) *string {
	if o == nil {
		return nil
	}
	s := string(*o)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
