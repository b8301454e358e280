package appointments

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when an appointment id does not exist.
var ErrNotFound = errors.New("appointments: not found")

// ValidationError bundles every field problem found in one request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, ", ")
}

// ConflictError reports scheduling collisions along with free slots on
// the same day the caller can offer instead.
type ConflictError struct {
	Conflicts    []Conflict
	Alternatives []time.Time
}

func (e *ConflictError) Error() string {
	return "Existe un conflicto de horario con otra cita"
}
