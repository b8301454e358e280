package appointments

import (
	"fmt"
	"time"
)

// Booking hours for alternative-slot suggestions.
const (
	suggestionDayStartHour = 8
	suggestionDayEndHour   = 20
	suggestionSlotMinutes  = 30
	maxSlotSuggestions     = 5
)

// Conflict reports an existing appointment that overlaps a requested
// interval.
type Conflict struct {
	Appointment Appointment `json:"appointment"`
	Message     string      `json:"message"`
}

// ConflictDetector finds scheduling collisions. Appointments in
// different rooms never conflict; an appointment with no room conflicts
// with everything in its time range.
type ConflictDetector struct{}

// Detect returns every existing appointment overlapping the requested
// interval in the same room. Back-to-back appointments do not overlap.
func (ConflictDetector) Detect(start time.Time, durationMinutes int, room string, existing []Appointment) []Conflict {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	var conflicts []Conflict
	for _, other := range existing {
		if room != "" && other.Room != "" && room != other.Room {
			continue
		}
		if start.Before(other.EndTime) && end.After(other.StartTime) {
			conflicts = append(conflicts, Conflict{
				Appointment: other,
				Message:     fmt.Sprintf("Conflicto con cita de %s", other.PatientName),
			})
		}
	}
	return conflicts
}

// SuggestAlternatives walks the same day's booking grid in half-hour
// steps and returns the first free slots for the requested duration.
func (d ConflictDetector) SuggestAlternatives(preferred time.Time, durationMinutes int, room string, existing []Appointment) []time.Time {
	dayStart := time.Date(preferred.Year(), preferred.Month(), preferred.Day(),
		suggestionDayStartHour, 0, 0, 0, preferred.Location())

	var slots []time.Time
	for hour := suggestionDayStartHour; hour < suggestionDayEndHour; hour++ {
		for minute := 0; minute < 60; minute += suggestionSlotMinutes {
			candidate := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(),
				hour, minute, 0, 0, dayStart.Location())
			if len(d.Detect(candidate, durationMinutes, room, existing)) == 0 {
				slots = append(slots, candidate)
				if len(slots) >= maxSlotSuggestions {
					return slots
				}
			}
		}
	}
	return slots
}
