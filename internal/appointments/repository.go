package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repository needs; tests satisfy
// it with pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const appointmentColumns = `id, patient_name, start_time, end_time, duration_minutes,
		status, room, service, reason, doctor, notes, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_name, start_time, end_time, duration_minutes,
			status, room, service, reason, doctor, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.PatientName,
		appt.StartTime,
		appt.EndTime,
		appt.DurationMinutes,
		appt.Status,
		appt.Room,
		appt.Service,
		appt.Reason,
		appt.Doctor,
		appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// List returns appointments matching the filter, ordered by start time.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Room != "" {
		conds = append(conds, "room = "+arg(f.Room))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if !f.From.IsZero() {
		conds = append(conds, "start_time >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "start_time < "+arg(f.To))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	return out, nil
}

// Update rewrites every mutable column of an existing row.
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments
		SET patient_name = $2, start_time = $3, end_time = $4, duration_minutes = $5,
			status = $6, room = $7, service = $8, reason = $9, doctor = $10, notes = $11,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		appt.ID,
		appt.PatientName,
		appt.StartTime,
		appt.EndTime,
		appt.DurationMinutes,
		appt.Status,
		appt.Room,
		appt.Service,
		appt.Reason,
		appt.Doctor,
		appt.Notes,
	)
	if err != nil {
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a row.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&appt.StartTime,
		&appt.EndTime,
		&appt.DurationMinutes,
		&appt.Status,
		&appt.Room,
		&appt.Service,
		&appt.Reason,
		&appt.Doctor,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}
