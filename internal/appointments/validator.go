package appointments

import (
	"strings"
	"time"
)

// Duration bounds in minutes.
const (
	minDurationMinutes = 5
	maxDurationMinutes = 480
)

// FieldError describes one invalid field in a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator checks scheduling requests. Appointments may start today;
// only days fully in the past are rejected.
type Validator struct{}

// Validate returns every problem with a create request, not just the
// first one.
func (Validator) Validate(req CreateRequest, now time.Time) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.PatientName) == "" {
		errs = append(errs, FieldError{
			Field:   "patient_name",
			Message: "El nombre del paciente es requerido",
		})
	}

	if req.StartTime.IsZero() {
		errs = append(errs, FieldError{
			Field:   "start_time",
			Message: "La fecha y hora son requeridas",
		})
	} else if dayOf(req.StartTime).Before(dayOf(now)) {
		errs = append(errs, FieldError{
			Field:   "start_time",
			Message: "No se pueden crear citas en fechas pasadas",
		})
	}

	if req.DurationMinutes < minDurationMinutes {
		errs = append(errs, FieldError{
			Field:   "duration_minutes",
			Message: "La duración mínima es de 5 minutos",
		})
	} else if req.DurationMinutes > maxDurationMinutes {
		errs = append(errs, FieldError{
			Field:   "duration_minutes",
			Message: "La duración máxima es de 8 horas",
		})
	}

	return errs
}

// ValidateUpdate checks only the fields an update actually changes.
func (Validator) ValidateUpdate(req UpdateRequest, now time.Time) []FieldError {
	var errs []FieldError

	if req.PatientName != nil && strings.TrimSpace(*req.PatientName) == "" {
		errs = append(errs, FieldError{
			Field:   "patient_name",
			Message: "El nombre del paciente es requerido",
		})
	}

	if req.StartTime != nil && dayOf(*req.StartTime).Before(dayOf(now)) {
		errs = append(errs, FieldError{
			Field:   "start_time",
			Message: "No se pueden mover citas a fechas pasadas",
		})
	}

	if req.DurationMinutes != nil {
		if *req.DurationMinutes < minDurationMinutes || *req.DurationMinutes > maxDurationMinutes {
			errs = append(errs, FieldError{
				Field:   "duration_minutes",
				Message: "La duración debe estar entre 5 minutos y 8 horas",
			})
		}
	}

	return errs
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
