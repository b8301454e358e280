package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a scheduled visit. EndTime is always derived from
// StartTime plus DurationMinutes and stored denormalized for range
// queries.
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientName     string    `json:"patient_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Room            string    `json:"room,omitempty"`
	Service         string    `json:"service,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Doctor          string    `json:"doctor,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateRequest carries the fields needed to schedule an appointment.
type CreateRequest struct {
	PatientName     string    `json:"patient_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Room            string    `json:"room,omitempty"`
	Service         string    `json:"service,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Doctor          string    `json:"doctor,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// UpdateRequest carries partial changes; nil fields are left untouched.
type UpdateRequest struct {
	PatientName     *string    `json:"patient_name,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Room            *string    `json:"room,omitempty"`
	Service         *string    `json:"service,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	Doctor          *string    `json:"doctor,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Status          *Status    `json:"status,omitempty"`
}

// Filter narrows appointment listings. Zero values mean "any".
type Filter struct {
	Room   string
	Status Status
	From   time.Time
	To     time.Time
}
