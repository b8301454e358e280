package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a Repository backed by a map. It exists for
// local development and tests that do not need Postgres.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appts: make(map[uuid.UUID]Appointment),
	}
}

// Create stores a new appointment in memory
func (r *InMemoryRepository) Create(_ context.Context, appt *Appointment) error {
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	r.mu.Lock()
	r.appts[appt.ID] = *appt
	r.mu.Unlock()
	return nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appt, nil
}

// List returns appointments matching the filter, ordered by start time
func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

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
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// Update replaces a stored appointment
func (r *InMemoryRepository) Update(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[appt.ID]; !ok {
		return ErrNotFound
	}
	appt.UpdatedAt = time.Now().UTC()
	r.appts[appt.ID] = *appt
	return nil
}

// Delete removes an appointment
func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}
