package voice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/markusmobius/go-dateparser"
	"github.com/markusmobius/go-dateparser/date"
)

// TemporalResult is the outcome of extracting date and time from one
// utterance. Date is zero when no calendar day was found; Clock is empty
// when no time was found.
type TemporalResult struct {
	Date       time.Time
	Clock      string
	Confidence float64

	// ClockProvisional is set when the clock came from the bare-hour
	// AM/PM heuristic and should be re-confirmed downstream.
	ClockProvisional bool
}

// Confidence scores per temporal strategy.
const (
	weekdayConfidence      = 0.9
	relativeDayConfidence  = 0.9
	fallbackDayConfidence  = 0.7
	explicitClockConf      = 0.9
	ambiguousClockConf     = 0.6
	maxClockHour           = 23
	maxClockMinute         = 59
)

var (
	reClockPrefixed = regexp.MustCompile(`\b(?:a las|a)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.?m\.?|p\.?m\.?)?`)
	reClockBare     = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.?m\.?|p\.?m\.?)?`)
	reClockMeridiem = regexp.MustCompile(`\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.?m\.?|p\.?m\.?)`)
)

// TemporalExtractor pulls a calendar date and a clock time out of a
// normalized utterance. Strategies run in a fixed order and the first
// match wins, independently for the date and the time sub-fields.
type TemporalExtractor struct {
	locale *Locale
}

// NewTemporalExtractor builds an extractor for the given locale.
func NewTemporalExtractor(locale *Locale) *TemporalExtractor {
	return &TemporalExtractor{locale: locale}
}

type dateStrategy func(text string, now time.Time) (time.Time, float64, bool)

// Extract parses date and time from text relative to now. The overall
// confidence is the sum of the sub-field confidences divided by the
// number of sub-fields produced, capped at 1.
func (e *TemporalExtractor) Extract(text string, now time.Time) TemporalResult {
	var res TemporalResult
	var sum float64

	for _, strategy := range []dateStrategy{e.weekdayDate, e.relativeDate, e.fallbackDate} {
		if d, conf, ok := strategy(text, now); ok {
			res.Date = d
			sum += conf
			break
		}
	}

	if clock, conf, provisional, ok := e.clockTime(text); ok {
		res.Clock = clock
		res.ClockProvisional = provisional
		sum += conf
	}

	div := 1.0
	if !res.Date.IsZero() && res.Clock != "" {
		div = 2.0
	}
	res.Confidence = sum / div
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return res
}

// weekdayDate matches an explicit weekday name and resolves it to the
// next occurrence strictly after now: naming today's weekday means next
// week, never today.
func (e *TemporalExtractor) weekdayDate(text string, now time.Time) (time.Time, float64, bool) {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		if day, ok := e.locale.MatchWeekday(word); ok {
			return nextWeekday(now, day), weekdayConfidence, true
		}
	}
	return time.Time{}, 0, false
}

// relativeDate matches today / tomorrow / day-after-tomorrow keywords.
func (e *TemporalExtractor) relativeDate(text string, now time.Time) (time.Time, float64, bool) {
	l := e.locale
	dayAfterJoined := strings.ReplaceAll(l.DayAfterTomorrowWord, " ", "")

	if strings.Contains(text, l.TodayWord) {
		return startOfDay(now), relativeDayConfidence, true
	}
	if strings.Contains(text, l.TomorrowWord) && !strings.Contains(text, l.DayAfterTomorrowWord) {
		return startOfDay(now.AddDate(0, 0, 1)), relativeDayConfidence, true
	}
	if strings.Contains(text, l.DayAfterTomorrowWord) || strings.Contains(text, dayAfterJoined) {
		return startOfDay(now.AddDate(0, 0, 2)), relativeDayConfidence, true
	}
	return time.Time{}, 0, false
}

// fallbackDate hands the utterance to the general free-text date parser
// after cutting clock expressions out, so the digits of "a las 3" cannot
// read as the 3rd of the month. Its result is only trusted when the day
// component is certain and the day has not already passed; month- or
// year-level guesses are discarded.
func (e *TemporalExtractor) fallbackDate(text string, now time.Time) (time.Time, float64, bool) {
	text = stripClockExpressions(text)
	if text == "" {
		return time.Time{}, 0, false
	}

	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		Languages:           e.locale.DateParserLanguages,
		PreferredDateSource: dateparser.Future,
	}
	dt, err := dateparser.Parse(cfg, text)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, 0, false
	}
	if dt.Period != date.Day {
		return time.Time{}, 0, false
	}
	day := startOfDay(dt.Time)
	if day.Before(startOfDay(now)) {
		return time.Time{}, 0, false
	}
	return day, fallbackDayConfidence, true
}

// stripClockExpressions removes prefixed ("a las 3") and meridiem
// ("3pm") time phrases. Bare numbers stay, since without a prefix or
// meridiem they may be a day of the month.
func stripClockExpressions(text string) string {
	text = reClockPrefixed.ReplaceAllString(text, " ")
	text = reClockMeridiem.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// clockTime extracts a 24h "HH:MM" clock time. Explicit meridiems apply
// directly; otherwise day-part words in the utterance decide AM/PM, and
// failing that a bare hour from 1 to 6 is assumed to mean the afternoon.
// The provisional flag reports that the heuristic decided, not the user.
func (e *TemporalExtractor) clockTime(text string) (clock string, conf float64, provisional, ok bool) {
	m := reClockPrefixed.FindStringSubmatch(text)
	if m == nil {
		m = reClockBare.FindStringSubmatch(text)
	}

	if m != nil {
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour > maxClockHour {
			return e.dayPartClock(text)
		}
		minute := 0
		if m[2] != "" {
			minute, err = strconv.Atoi(m[2])
			if err != nil || minute > maxClockMinute {
				return e.dayPartClock(text)
			}
		}

		meridiem := strings.ReplaceAll(strings.ToLower(m[3]), ".", "")
		switch {
		case strings.Contains(meridiem, "pm"):
			if hour < 12 {
				hour += 12
			}
			return formatClock(hour, minute), explicitClockConf, false, true
		case strings.Contains(meridiem, "am"):
			if hour == 12 {
				hour = 0
			}
			return formatClock(hour, minute), explicitClockConf, false, true
		}

		// No meridiem: resolve from surrounding day-part words first.
		switch {
		case containsAny(text, e.locale.MorningWords):
			if hour == 12 {
				hour = 0
			}
		case containsAny(text, e.locale.EveningWords):
			if hour < 12 {
				hour += 12
			}
		default:
			provisional = hour >= 1 && hour <= 12
			if hour >= 1 && hour < 7 {
				hour += 12
			}
		}
		return formatClock(hour, minute), ambiguousClockConf, provisional, true
	}

	return e.dayPartClock(text)
}

// dayPartClock falls back to coarse day-part keywords when no numeric
// time was dictated. "de mañana" phrasing is skipped because it refers
// to tomorrow, not to the morning hours.
func (e *TemporalExtractor) dayPartClock(text string) (string, float64, bool, bool) {
	for _, dp := range e.locale.DayPartTimes {
		if dp.Keyword == e.locale.TomorrowWord && strings.Contains(text, "de "+dp.Keyword) {
			continue
		}
		if strings.Contains(text, dp.Keyword) {
			return dp.Clock, dp.Confidence, false, true
		}
	}
	return "", 0, false, false
}

// nextWeekday returns the start of the next occurrence of target
// strictly after from. Same-day names roll a full week forward.
func nextWeekday(from time.Time, target time.Weekday) time.Time {
	daysAhead := int(target) - int(from.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return startOfDay(from.AddDate(0, 0, daysAhead))
}

// CombineDateTime merges a calendar day and an "HH:MM" clock string into
// one instant. A missing clock yields the start of the day; a missing
// date resolves against the reference instant's day.
func CombineDateTime(day time.Time, clock string, now time.Time) time.Time {
	base := day
	if base.IsZero() {
		base = now
	}
	base = startOfDay(base)
	if clock == "" {
		return base
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return base
	}
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func parseClock(clock string) (int, int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("voice: malformed clock %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > maxClockHour {
		return 0, 0, fmt.Errorf("voice: malformed clock %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > maxClockMinute {
		return 0, 0, fmt.Errorf("voice: malformed clock %q", clock)
	}
	return hour, minute, nil
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
