package appointments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAppointment(start time.Time, minutes int, room string) Appointment {
	return Appointment{
		ID:              uuid.New(),
		PatientName:     "Ocupado",
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Status:          StatusScheduled,
		Room:            room,
	}
}

func TestConflictDetector_Detect(t *testing.T) {
	var d ConflictDetector
	at := func(hour, minute int) time.Time {
		return time.Date(2026, 9, 1, hour, minute, 0, 0, time.Local)
	}
	existing := []Appointment{makeAppointment(at(10, 0), 30, "")}

	tests := []struct {
		name     string
		start    time.Time
		minutes  int
		room     string
		conflict bool
	}{
		{name: "full overlap", start: at(10, 0), minutes: 30, conflict: true},
		{name: "partial overlap from before", start: at(9, 45), minutes: 30, conflict: true},
		{name: "partial overlap from inside", start: at(10, 15), minutes: 30, conflict: true},
		{name: "engulfing", start: at(9, 30), minutes: 120, conflict: true},
		{name: "back to back before", start: at(9, 30), minutes: 30, conflict: false},
		{name: "back to back after", start: at(10, 30), minutes: 30, conflict: false},
		{name: "far away", start: at(16, 0), minutes: 30, conflict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := d.Detect(tt.start, tt.minutes, tt.room, existing)
			if tt.conflict {
				require.Len(t, conflicts, 1)
				assert.Equal(t, "Conflicto con cita de Ocupado", conflicts[0].Message)
			} else {
				assert.Empty(t, conflicts)
			}
		})
	}
}

func TestConflictDetector_RoomsIsolate(t *testing.T) {
	var d ConflictDetector
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	existing := []Appointment{makeAppointment(start, 30, "consultorio-1")}

	assert.Empty(t, d.Detect(start, 30, "consultorio-2", existing))
	assert.Len(t, d.Detect(start, 30, "consultorio-1", existing), 1)
	// Roomless requests collide with everything in the range.
	assert.Len(t, d.Detect(start, 30, "", existing), 1)
}

func TestConflictDetector_SuggestAlternatives(t *testing.T) {
	var d ConflictDetector
	preferred := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)

	t.Run("empty day starts at opening", func(t *testing.T) {
		slots := d.SuggestAlternatives(preferred, 30, "", nil)
		require.Len(t, slots, maxSlotSuggestions)
		assert.Equal(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local), slots[0])
		assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local), slots[4])
	})

	t.Run("booked slots are skipped", func(t *testing.T) {
		existing := []Appointment{
			makeAppointment(time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local), 60, ""),
		}
		slots := d.SuggestAlternatives(preferred, 30, "", existing)
		require.NotEmpty(t, slots)
		assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local), slots[0])
	})
}
