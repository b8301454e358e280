package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vozagenda/vozagenda/internal/voice"
	"github.com/vozagenda/vozagenda/pkg/logging"
)

type repoStub struct {
	appts     map[uuid.UUID]Appointment
	createErr error
}

func newRepoStub() *repoStub {
	return &repoStub{appts: make(map[uuid.UUID]Appointment)}
}

func (r *repoStub) Create(_ context.Context, appt *Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	r.appts[appt.ID] = *appt
	return nil
}

func (r *repoStub) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appt, nil
}

func (r *repoStub) List(_ context.Context, f Filter) ([]Appointment, error) {
	var out []Appointment
	for _, appt := range r.appts {
		if !f.From.IsZero() && appt.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !appt.StartTime.Before(f.To) {
			continue
		}
		if f.Room != "" && appt.Room != f.Room {
			continue
		}
		if f.Status != "" && appt.Status != f.Status {
			continue
		}
		out = append(out, appt)
	}
	return out, nil
}

func (r *repoStub) Update(_ context.Context, appt *Appointment) error {
	if _, ok := r.appts[appt.ID]; !ok {
		return ErrNotFound
	}
	r.appts[appt.ID] = *appt
	return nil
}

func (r *repoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.appts[id]; !ok {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, logging.New("error"))
	s.SetNow(func() time.Time { return testNow })
	return s
}

func TestService_Create(t *testing.T) {
	repo := newRepoStub()
	s := newTestService(repo)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	appt, err := s.Create(context.Background(), CreateRequest{
		PatientName:     "Ana García",
		StartTime:       start,
		DurationMinutes: 45,
		Service:         "Control",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, start.Add(45*time.Minute), appt.EndTime)
	assert.Len(t, repo.appts, 1)
}

func TestService_CreateValidation(t *testing.T) {
	s := newTestService(newRepoStub())

	_, err := s.Create(context.Background(), CreateRequest{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 3)
}

func TestService_CreateConflict(t *testing.T) {
	repo := newRepoStub()
	s := newTestService(repo)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	_, err := s.Create(context.Background(), CreateRequest{
		PatientName:     "Ana",
		StartTime:       start,
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	_, err = s.Create(context.Background(), CreateRequest{
		PatientName:     "Luis",
		StartTime:       start.Add(15 * time.Minute),
		DurationMinutes: 30,
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Conflicts, 1)
	assert.Equal(t, "Ana", cerr.Conflicts[0].Appointment.PatientName)
	require.NotEmpty(t, cerr.Alternatives)
	assert.Equal(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local), cerr.Alternatives[0])
}

func TestService_CreateDifferentRoomsNoConflict(t *testing.T) {
	s := newTestService(newRepoStub())

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	_, err := s.Create(context.Background(), CreateRequest{
		PatientName: "Ana", StartTime: start, DurationMinutes: 30, Room: "consultorio-1",
	})
	require.NoError(t, err)

	_, err = s.Create(context.Background(), CreateRequest{
		PatientName: "Luis", StartTime: start, DurationMinutes: 30, Room: "consultorio-2",
	})
	assert.NoError(t, err)
}

func TestService_UpdateReschedule(t *testing.T) {
	repo := newRepoStub()
	s := newTestService(repo)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	appt, err := s.Create(context.Background(), CreateRequest{
		PatientName: "Ana", StartTime: start, DurationMinutes: 30,
	})
	require.NoError(t, err)

	// Shifting within its own old slot must not conflict with itself.
	newStart := start.Add(15 * time.Minute)
	updated, err := s.Update(context.Background(), appt.ID, UpdateRequest{StartTime: &newStart})
	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)
	assert.Equal(t, newStart.Add(30*time.Minute), updated.EndTime)

	// But colliding with someone else is refused.
	other, err := s.Create(context.Background(), CreateRequest{
		PatientName: "Luis", StartTime: start.Add(2 * time.Hour), DurationMinutes: 30,
	})
	require.NoError(t, err)
	collide := other.StartTime
	_, err = s.Update(context.Background(), appt.ID, UpdateRequest{StartTime: &collide})
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestService_UpdateStatusOnly(t *testing.T) {
	repo := newRepoStub()
	s := newTestService(repo)

	appt, err := s.Create(context.Background(), CreateRequest{
		PatientName: "Ana", StartTime: time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local), DurationMinutes: 30,
	})
	require.NoError(t, err)

	confirmed := StatusConfirmed
	updated, err := s.Update(context.Background(), appt.ID, UpdateRequest{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestService_UpdateMissing(t *testing.T) {
	s := newTestService(newRepoStub())

	_, err := s.Update(context.Background(), uuid.New(), UpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListByDay(t *testing.T) {
	repo := newRepoStub()
	s := newTestService(repo)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	for _, hour := range []int{9, 15} {
		_, err := s.Create(context.Background(), CreateRequest{
			PatientName: "Ana", StartTime: day.Add(time.Duration(hour) * time.Hour), DurationMinutes: 30,
		})
		require.NoError(t, err)
	}
	_, err := s.Create(context.Background(), CreateRequest{
		PatientName: "Ana", StartTime: day.AddDate(0, 0, 1).Add(9 * time.Hour), DurationMinutes: 30,
	})
	require.NoError(t, err)

	todays, err := s.ListByDay(context.Background(), day.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Len(t, todays, 2)
}

func TestVoiceCreator(t *testing.T) {
	repo := newRepoStub()
	s := newTestService(repo)
	creator := NewVoiceCreator(s)

	draft := voice.Draft{
		PatientName:     "María López",
		Start:           time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local),
		DurationMinutes: 30,
		Service:         "Control",
		DoctorName:      "García",
	}
	require.NoError(t, creator.CreateAppointment(context.Background(), draft))
	require.Len(t, repo.appts, 1)
	for _, appt := range repo.appts {
		assert.Equal(t, "María López", appt.PatientName)
		assert.Equal(t, "García", appt.Doctor)
	}

	// A second identical draft collides and the error surfaces.
	err := creator.CreateAppointment(context.Background(), draft)
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestService_CreateRepoError(t *testing.T) {
	repo := newRepoStub()
	repo.createErr = errors.New("db down")
	s := newTestService(repo)

	_, err := s.Create(context.Background(), CreateRequest{
		PatientName: "Ana", StartTime: time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local), DurationMinutes: 30,
	})
	assert.EqualError(t, err, "db down")
}
