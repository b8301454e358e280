package voice

import "time"

// ParsedAppointment is the structured result of parsing one dictated
// utterance. Zero values mean the field was not extracted; Date carries
// only a calendar day (midnight, local) and Clock the 24h "HH:MM" time.
type ParsedAppointment struct {
	PatientName     string    `json:"patient_name,omitempty"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	Date            time.Time `json:"date,omitempty"`
	Clock           string    `json:"time,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`

	// ClockProvisional marks a clock normalized by the bare-hour AM/PM
	// heuristic rather than by an explicit meridiem or a day-part word;
	// the ambiguity engine re-surfaces it for confirmation.
	ClockProvisional bool `json:"-"`
	Service         string    `json:"service,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Notes           string    `json:"notes,omitempty"`

	// Confidence is the arithmetic mean of the confidences of the fields
	// populated during the parse (0 if none). It is fixed at parse time
	// and never recomputed after ambiguity resolution.
	Confidence float64 `json:"confidence"`
}

// HasDate reports whether a calendar date was extracted or applied.
func (p *ParsedAppointment) HasDate() bool {
	return !p.Date.IsZero()
}

// Field identifies an appointment field an ambiguity can be raised for.
type Field string

const (
	FieldPatientName Field = "patient_name"
	FieldDate        Field = "date"
	FieldTime        Field = "time"
	FieldDuration    Field = "duration"
	FieldService     Field = "service"
	FieldDoctorName  Field = "doctor_name"
)

// Suggestion is one candidate resolution for an ambiguity. Value is the
// machine form ("2026-09-01", "15:00", "30"); Label is what the user sees.
type Suggestion struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Ambiguity names a field whose extracted value is missing or not
// trustworthy enough to accept without confirmation. An empty suggestion
// list means only free-text manual entry is possible.
type Ambiguity struct {
	Field       Field        `json:"field"`
	Reason      string       `json:"reason"`
	Suggestions []Suggestion `json:"suggestions"`
	Resolved    bool         `json:"resolved"`
	Value       string       `json:"value,omitempty"`
}

// Draft is the finalized appointment request handed to the creation
// collaborator once the user confirms.
type Draft struct {
	PatientName     string    `json:"patient_name"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Service         string    `json:"service,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// DefaultDurationMinutes is the forced duration applied when the
// utterance gives no evidence; the ambiguity engine treats a draft still
// carrying it as unconfirmed.
const DefaultDurationMinutes = 30
