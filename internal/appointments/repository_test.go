package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apptCols = []string{
	"id", "patient_name", "start_time", "end_time", "duration_minutes",
	"status", "room", "service", "reason", "doctor", "notes", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepositoryWithDB(mock)
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, repo := newMockRepo(t)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{
		ID:              uuid.New(),
		PatientName:     "Ana García",
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
		DurationMinutes: 30,
		Status:          StatusScheduled,
	}

	created := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(appt.ID, appt.PatientName, appt.StartTime, appt.EndTime,
			appt.DurationMinutes, appt.Status, "", "", "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	require.NoError(t, repo.Create(context.Background(), appt))
	assert.Equal(t, created, appt.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(apptCols).AddRow(
			id, "Ana García", start, start.Add(30*time.Minute), 30,
			StatusScheduled, "", "Control", "", "", "", now, now,
		))

	appt, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ana García", appt.PatientName)
	assert.Equal(t, "Control", appt.Service)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_ListWithFilter(t *testing.T) {
	mock, repo := newMockRepo(t)

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE start_time >= \$1 AND start_time < \$2 ORDER BY start_time`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows(apptCols).AddRow(
			id, "Ana", from.Add(10*time.Hour), from.Add(10*time.Hour+30*time.Minute), 30,
			StatusScheduled, "", "", "", "", "", now, now,
		))

	out, err := repo.List(context.Background(), Filter{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, id, out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update(t *testing.T) {
	mock, repo := newMockRepo(t)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{
		ID:              uuid.New(),
		PatientName:     "Ana",
		StartTime:       start,
		EndTime:         start.Add(45 * time.Minute),
		DurationMinutes: 45,
		Status:          StatusConfirmed,
	}
	mock.ExpectExec("UPDATE appointments").
		WithArgs(appt.ID, appt.PatientName, appt.StartTime, appt.EndTime,
			appt.DurationMinutes, appt.Status, "", "", "", "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), appt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateMissing(t *testing.T) {
	mock, repo := newMockRepo(t)

	appt := &Appointment{ID: uuid.New()}
	mock.ExpectExec("UPDATE appointments").
		WithArgs(appt.ID, "", time.Time{}, time.Time{}, 0, Status(""), "", "", "", "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), appt), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
}
