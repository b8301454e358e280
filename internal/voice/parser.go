package voice

import (
	"strings"
	"time"
)

// Parser combines the temporal and field extractors into one pass over
// a raw transcript. It never fails: an utterance matching nothing still
// yields a record with the forced default duration and a confidence
// reflecting that.
type Parser struct {
	locale   *Locale
	temporal *TemporalExtractor
	fields   *FieldExtractor
}

// NewParser builds a parser for the given locale.
func NewParser(locale *Locale) *Parser {
	return &Parser{
		locale:   locale,
		temporal: NewTemporalExtractor(locale),
		fields:   NewFieldExtractor(locale),
	}
}

// Parse normalizes the transcript and runs every extractor once. The
// overall confidence is the arithmetic mean of the confidences of the
// fields that were actually populated.
func (p *Parser) Parse(raw string, now time.Time) ParsedAppointment {
	text := strings.ToLower(strings.TrimSpace(raw))

	var parsed ParsedAppointment
	var total float64
	var count int

	temporal := p.temporal.Extract(text, now)
	if !temporal.Date.IsZero() || temporal.Clock != "" {
		parsed.Date = temporal.Date
		parsed.Clock = temporal.Clock
		parsed.ClockProvisional = temporal.ClockProvisional
		total += temporal.Confidence
		count++
	}

	if name, conf, ok := p.fields.ExtractPatient(text); ok {
		parsed.PatientName = name
		total += conf
		count++
	}

	if name, conf, ok := p.fields.ExtractDoctor(text); ok {
		parsed.DoctorName = name
		total += conf
		count++
	}

	duration, conf := p.fields.ExtractDuration(text)
	parsed.DurationMinutes = duration
	total += conf
	count++

	if service, conf, ok := p.fields.ExtractService(text); ok {
		parsed.Service = service
		total += conf
		count++
	}

	if reason, conf, ok := p.fields.ExtractReason(text); ok {
		parsed.Reason = reason
		total += conf
		count++
	}

	if notes, ok := p.fields.ExtractNotes(text); ok {
		parsed.Notes = notes
	}

	if count > 0 {
		parsed.Confidence = total / float64(count)
	}
	return parsed
}
