package voice

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Detection thresholds and suggestion sizes.
const (
	confirmConfidence  = 0.8
	minPatientNameLen  = 3
	maxDateSuggestions = 5
)

var durationOptions = []int{15, 30, 45, 60}

// Detector inspects a parsed appointment and returns the ambiguities that
// must be resolved before the appointment can be confirmed. Detection is
// a pure function of the parsed data and the reference instant, so the
// same input always yields the same ordered list.
type Detector struct {
	locale *Locale
}

// NewDetector builds a detector for the given locale.
func NewDetector(locale *Locale) *Detector {
	return &Detector{locale: locale}
}

// Detect runs the detection rules in a fixed order: patient name, date,
// time, duration. Fields present in resolved were already answered by the
// user and are never flagged again.
func (d *Detector) Detect(p ParsedAppointment, now time.Time, resolved map[Field]bool) []Ambiguity {
	msgs := d.locale.Messages
	var out []Ambiguity

	if !resolved[FieldPatientName] && utf8.RuneCountInString(p.PatientName) < minPatientNameLen {
		out = append(out, Ambiguity{
			Field:       FieldPatientName,
			Reason:      msgs.ReasonPatientUnclear,
			Suggestions: []Suggestion{},
		})
	}

	if !resolved[FieldDate] && !p.HasDate() {
		out = append(out, Ambiguity{
			Field:       FieldDate,
			Reason:      msgs.ReasonDateMissing,
			Suggestions: d.dateSuggestions(now),
		})
	}

	if !resolved[FieldTime] {
		switch {
		case p.Clock != "":
			if suggestions, ok := d.meridiemSuggestions(p); ok {
				out = append(out, Ambiguity{
					Field:       FieldTime,
					Reason:      msgs.ReasonTimeAMPM,
					Suggestions: suggestions,
				})
			}
		case p.HasDate():
			out = append(out, Ambiguity{
				Field:       FieldTime,
				Reason:      msgs.ReasonTimeMissing,
				Suggestions: d.officeHourSuggestions(),
			})
		}
	}

	if !resolved[FieldDuration] && p.Confidence < confirmConfidence && p.DurationMinutes == DefaultDurationMinutes {
		out = append(out, Ambiguity{
			Field:       FieldDuration,
			Reason:      msgs.ReasonDurationDefault,
			Suggestions: d.durationSuggestions(),
		})
	}

	return out
}

// dateSuggestions offers today, tomorrow, and the following weekdays.
// Saturdays and Sundays past tomorrow are skipped; the list caps at five.
func (d *Detector) dateSuggestions(now time.Time) []Suggestion {
	suggestions := make([]Suggestion, 0, maxDateSuggestions)
	add := func(t time.Time) {
		suggestions = append(suggestions, Suggestion{
			Value: t.Format("2006-01-02"),
			Label: d.locale.FormatDateLabel(t, now),
		})
	}

	add(startOfDay(now))
	add(startOfDay(now.AddDate(0, 0, 1)))
	for offset := 2; len(suggestions) < maxDateSuggestions; offset++ {
		day := startOfDay(now.AddDate(0, 0, offset))
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		add(day)
	}
	return suggestions
}

// meridiemSuggestions re-surfaces a time whose AM/PM reading is not
// certain: either the bare-hour heuristic decided it, or the stored hour
// itself still reads naturally both ways. The dictated hour is recovered
// from the 24h form and offered in both meridiems.
func (d *Detector) meridiemSuggestions(p ParsedAppointment) ([]Suggestion, bool) {
	hour, minute, err := parseClock(p.Clock)
	if err != nil {
		return nil, false
	}
	if !p.ClockProvisional && (hour < 1 || hour > 12) {
		return nil, false
	}

	dictated := hour % 12
	if dictated == 0 {
		dictated = 12
	}

	msgs := d.locale.Messages
	amHour := dictated % 12 // midnight is 00 on the 24h clock
	amPart := msgs.MorningLabel
	if dictated == 12 {
		amPart = msgs.MidnightLabel
	}
	pmHour := dictated
	if pmHour < 12 {
		pmHour += 12
	}

	return []Suggestion{
		{
			Value: formatClock(amHour, minute),
			Label: fmt.Sprintf("%d:%02d AM (%s)", dictated, minute, amPart),
		},
		{
			Value: formatClock(pmHour, minute),
			Label: fmt.Sprintf("%d:%02d PM (%s)", dictated, minute, msgs.EveningLabel),
		},
	}, true
}

func (d *Detector) officeHourSuggestions() []Suggestion {
	suggestions := make([]Suggestion, 0, len(d.locale.OfficeHours))
	for _, clock := range d.locale.OfficeHours {
		suggestions = append(suggestions, Suggestion{Value: clock, Label: clock})
	}
	return suggestions
}

func (d *Detector) durationSuggestions() []Suggestion {
	suggestions := make([]Suggestion, 0, len(durationOptions))
	for _, minutes := range durationOptions {
		suggestions = append(suggestions, Suggestion{
			Value: strconv.Itoa(minutes),
			Label: fmt.Sprintf("%d minutos", minutes),
		})
	}
	return suggestions
}

// ApplyResolution writes a user-chosen value back onto the parsed data.
// Values arrive in the machine form suggestions carry: "2006-01-02" dates,
// "HH:MM" times, integer minute counts, free text for the rest.
func ApplyResolution(p *ParsedAppointment, field Field, value string, loc *time.Location) error {
	value = strings.TrimSpace(value)
	switch field {
	case FieldPatientName:
		if value == "" {
			return fmt.Errorf("voice: empty patient name")
		}
		p.PatientName = capitalizeWords(value)
	case FieldDate:
		day, err := time.ParseInLocation("2006-01-02", value, loc)
		if err != nil {
			return fmt.Errorf("voice: bad date %q: %w", value, err)
		}
		p.Date = day
	case FieldTime:
		if _, _, err := parseClock(value); err != nil {
			return err
		}
		p.Clock = value
		p.ClockProvisional = false
	case FieldDuration:
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("voice: bad duration %q", value)
		}
		p.DurationMinutes = minutes
	case FieldService:
		p.Service = capitalizeFirst(value)
	case FieldDoctorName:
		p.DoctorName = capitalizeWords(value)
	default:
		return fmt.Errorf("voice: unknown field %q", field)
	}
	return nil
}
