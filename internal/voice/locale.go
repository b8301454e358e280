package voice

import (
	"fmt"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
)

// Messages holds every user-facing string the engine emits, so the
// extraction logic stays language-agnostic.
type Messages struct {
	ReasonPatientUnclear  string
	ReasonDateMissing     string
	ReasonTimeAMPM        string
	ReasonTimeMissing     string
	ReasonDurationDefault string

	ConfirmNeedsPatient string
	ConfirmNeedsDate    string
	CreationFailed      string

	// Day labels used in suggestion lists and AM/PM choices.
	TodayLabel    string
	TomorrowLabel string
	MorningLabel  string
	EveningLabel  string
	MidnightLabel string

	// CaptureErrors maps speech-capture error categories to messages.
	CaptureErrors        map[string]string
	CaptureErrorFallback string
}

type weekdayName struct {
	name string // accent-folded, lower case
	day  time.Weekday
}

// Locale isolates every language-specific heuristic the extractors rely
// on, so the engine can be retargeted without touching extraction logic.
type Locale struct {
	Code string

	weekdays       []weekdayName
	weekdayDisplay [7]string

	TodayWord            string
	TomorrowWord         string
	DayAfterTomorrowWord string

	// MorningWords force AM when a bare clock hour is dictated;
	// EveningWords force PM.
	MorningWords []string
	EveningWords []string

	// DayPartTimes maps a day-part keyword to a default clock time used
	// when no numeric time was dictated at all.
	DayPartTimes []DayPartTime

	StopWords       map[string]struct{}
	CommonArticles  map[string]struct{}
	ServiceKeywords []string
	DoctorTitles    []string

	// DurationPhrases are implicit duration expressions ("media hora").
	DurationPhrases []DurationPhrase

	// DateParserLanguages feeds the fallback free-text date parser.
	DateParserLanguages []string

	// OfficeHours are offered when a date was dictated without a time.
	OfficeHours []string

	Patterns Patterns

	Messages Messages
}

// Patterns holds the regular-expression sources for field extraction.
// They live on the locale because connectors, articles and keyword
// alternations are language-specific.
type Patterns struct {
	PatientWithConnector string
	PatientLeading       string
	DoctorWithConnector  string
	DoctorBare           string
	DurationExplicit     string
	DurationImplicit     string
	Service              string
	ReasonMarked         string
	ReasonLoose          string
}

// DayPartTime pairs a day-part keyword with its fallback clock time.
type DayPartTime struct {
	Keyword    string
	Clock      string
	Confidence float64
}

// DurationPhrase pairs an implicit duration expression with its minutes.
type DurationPhrase struct {
	Phrase  string
	Minutes int
}

// Spanish returns the es-CO locale the service ships with.
func Spanish() *Locale {
	stop := []string{
		"para", "el", "la", "los", "las", "un", "una",
		"mañana", "hoy", "pasado", "tarde", "noche",
		"lunes", "martes", "miércoles", "miercoles", "jueves", "viernes", "sábado", "sabado", "domingo",
		"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre",
		"a", "de", "en", "por", "con", "sin",
		"hora", "horas", "minuto", "minutos",
		"am", "pm", "cita", "agendar", "agenda", "agéndame", "pon", "poner",
	}
	stopSet := make(map[string]struct{}, len(stop))
	for _, w := range stop {
		stopSet[w] = struct{}{}
	}

	articles := map[string]struct{}{
		"el": {}, "la": {}, "los": {}, "las": {}, "de": {}, "del": {},
	}

	return &Locale{
		Code: "es-CO",
		weekdays: []weekdayName{
			{"domingo", time.Sunday},
			{"lunes", time.Monday},
			{"martes", time.Tuesday},
			{"miercoles", time.Wednesday},
			{"jueves", time.Thursday},
			{"viernes", time.Friday},
			{"sabado", time.Saturday},
		},
		weekdayDisplay: [7]string{
			"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
		},
		TodayWord:            "hoy",
		TomorrowWord:         "mañana",
		DayAfterTomorrowWord: "pasado mañana",
		MorningWords:         []string{"mañana", "madrugada"},
		EveningWords:         []string{"tarde", "noche"},
		DayPartTimes: []DayPartTime{
			{Keyword: "mañana", Clock: "09:00", Confidence: 0.3},
			{Keyword: "tarde", Clock: "15:00", Confidence: 0.3},
			{Keyword: "noche", Clock: "19:00", Confidence: 0.3},
		},
		StopWords:      stopSet,
		CommonArticles: articles,
		ServiceKeywords: []string{
			"control", "consulta", "limpieza", "revisión", "revision", "emergencia", "seguimiento",
		},
		DoctorTitles: []string{"doctora", "doctor", "dra", "dr"},
		DurationPhrases: []DurationPhrase{
			{Phrase: "media hora", Minutes: 30},
			{Phrase: "hora y media", Minutes: 90},
			{Phrase: "cuarto de hora", Minutes: 15},
		},
		DateParserLanguages: []string{"es"},
		OfficeHours: []string{
			"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00",
		},
		Patterns: Patterns{
			PatientWithConnector: `\b(?:con|para|a)\s+([a-záéíóúñü]+(?:\s+[a-záéíóúñü]+)?)`,
			PatientLeading:       `^([a-záéíóúñü]+(?:\s+[a-záéíóúñü]+)?)\s+(?:el|la|mañana|hoy|para|a)`,
			DoctorWithConnector:  `(?:con|para)\s+(?:el\s+|la\s+)?(?:doctora|doctor|dra\.?|dr\.?)\s+([a-záéíóúñü]+(?:\s+[a-záéíóúñü]+)?)`,
			DoctorBare:           `(?:doctora|doctor|dra\.?|dr\.?)\s+([a-záéíóúñü]+(?:\s+[a-záéíóúñü]+)?)`,
			DurationExplicit:     `(\d+)\s*(minutos?|mins?|horas?|hrs?)`,
			DurationImplicit:     `(media hora|hora y media|cuarto de hora)`,
			Service:              `(?:por|para)\s+(control|consulta|limpieza|revisión|revision|emergencia|seguimiento)`,
			ReasonMarked:         `(?:motivo(?:\s+de)?|porque)\s+([a-záéíóúñü\s]+?)(?:\s+(?:el|la|mañana|hoy|para|a las|con)|$)`,
			ReasonLoose:          `por\s+([a-záéíóúñü\s]{4,}?)(?:\s+(?:el|la|mañana|hoy|a las|con)|$)`,
		},
		Messages: Messages{
			ReasonPatientUnclear:  "No se pudo identificar el nombre del paciente claramente",
			ReasonDateMissing:     "No se especificó una fecha",
			ReasonTimeAMPM:        "No está claro si es AM o PM",
			ReasonTimeMissing:     "No se especificó una hora",
			ReasonDurationDefault: "No se especificó duración, usando valor predeterminado",
			ConfirmNeedsPatient:   "El nombre del paciente es requerido",
			ConfirmNeedsDate:      "La fecha de la cita es requerida",
			CreationFailed:        "Error al crear la cita",
			TodayLabel:            "hoy",
			TomorrowLabel:         "mañana",
			MorningLabel:          "mañana",
			EveningLabel:          "tarde",
			MidnightLabel:         "medianoche",
			CaptureErrors: map[string]string{
				"no-speech":     "No se detectó voz. Intenta de nuevo.",
				"audio-capture": "No se pudo acceder al micrófono.",
				"not-allowed":   "Permiso de micrófono denegado.",
				"network":       "Error de red. Verifica tu conexión.",
				"aborted":       "Grabación cancelada.",
			},
			CaptureErrorFallback: "Error al reconocer la voz",
		},
	}
}

// localeRegistry maps lowercase BCP 47 tags to their constructors. New
// languages register here.
var localeRegistry = map[string]func() *Locale{
	"es-co": Spanish,
	"es":    Spanish,
}

// ForCode returns the locale registered for the given BCP 47 code,
// trying the full tag first and then its base language. Unknown codes
// resolve to the es-CO locale.
func ForCode(code string) *Locale {
	tag := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if build, ok := localeRegistry[tag]; ok {
		return build()
	}
	if base, _, found := strings.Cut(tag, "-"); found {
		if build, ok := localeRegistry[base]; ok {
			return build()
		}
	}
	return Spanish()
}

// FoldAccents lowers a string and strips the vowel accents speech
// engines emit inconsistently. The ñ is meaningful in Spanish and kept.
func FoldAccents(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	)
	return replacer.Replace(s)
}

// MatchWeekday resolves a single word to a weekday, accent-insensitively.
// Words of five or more letters also match at edit distance one, which
// absorbs common mistranscriptions ("biernes" → viernes).
func (l *Locale) MatchWeekday(word string) (time.Weekday, bool) {
	folded := FoldAccents(word)
	for _, wd := range l.weekdays {
		if folded == wd.name {
			return wd.day, true
		}
	}
	if len([]rune(folded)) >= 5 {
		for _, wd := range l.weekdays {
			if matchr.Levenshtein(folded, wd.name) == 1 {
				return wd.day, true
			}
		}
	}
	return 0, false
}

// WeekdayDisplay returns the display name for a weekday.
func (l *Locale) WeekdayDisplay(day time.Weekday) string {
	return l.weekdayDisplay[int(day)]
}

// FormatDateLabel renders a suggestion label for a calendar day relative
// to the reference instant: "hoy", "mañana", or "viernes 05/09".
func (l *Locale) FormatDateLabel(t, now time.Time) string {
	today := startOfDay(now)
	switch startOfDay(t).Sub(today) {
	case 0:
		return l.Messages.TodayLabel
	case 24 * time.Hour:
		return l.Messages.TomorrowLabel
	}
	return fmt.Sprintf("%s %s", l.WeekdayDisplay(t.Weekday()), t.Format("02/01"))
}

// IsStopWord reports whether the word cannot be a person's name.
func (l *Locale) IsStopWord(word string) bool {
	_, ok := l.StopWords[strings.ToLower(word)]
	return ok
}

// IsCommonArticle reports whether the word is an article easily mistaken
// for a doctor's name.
func (l *Locale) IsCommonArticle(word string) bool {
	_, ok := l.CommonArticles[strings.ToLower(word)]
	return ok
}

// IsServiceKeyword reports whether the text names a known service.
func (l *Locale) IsServiceKeyword(text string) bool {
	folded := FoldAccents(strings.TrimSpace(text))
	for _, kw := range l.ServiceKeywords {
		if folded == FoldAccents(kw) {
			return true
		}
	}
	return false
}

// CaptureErrorMessage maps a speech-capture error category to its
// localized user-facing message.
func (l *Locale) CaptureErrorMessage(category string) string {
	if msg, ok := l.Messages.CaptureErrors[category]; ok {
		return msg
	}
	return l.Messages.CaptureErrorFallback
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
