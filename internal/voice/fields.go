package voice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Confidence scores per field strategy.
const (
	patientConnectorConf = 0.8
	patientLeadingConf   = 0.6
	doctorConnectorConf  = 0.9
	doctorBareConf       = 0.7
	durationExplicitConf = 0.9
	durationImplicitConf = 0.7
	durationDefaultConf  = 0.3
	serviceConf          = 0.7
	reasonMarkedConf     = 0.8
	reasonLooseConf      = 0.6

	minReasonLen = 4
	minNotesLen  = 11
)

// FieldExtractor extracts the non-temporal appointment fields. Every
// extractor is a pure function of the normalized utterance: it returns
// a value plus confidence, never an error.
type FieldExtractor struct {
	locale *Locale

	rePatientConnector *regexp.Regexp
	rePatientLeading   *regexp.Regexp
	reDoctorConnector  *regexp.Regexp
	reDoctorBare       *regexp.Regexp
	reDurationExplicit *regexp.Regexp
	reDurationImplicit *regexp.Regexp
	reService          *regexp.Regexp
	reReasonMarked     *regexp.Regexp
	reReasonLoose      *regexp.Regexp
}

// NewFieldExtractor compiles the locale's extraction patterns.
func NewFieldExtractor(locale *Locale) *FieldExtractor {
	p := locale.Patterns
	return &FieldExtractor{
		locale:             locale,
		rePatientConnector: regexp.MustCompile(p.PatientWithConnector),
		rePatientLeading:   regexp.MustCompile(p.PatientLeading),
		reDoctorConnector:  regexp.MustCompile(p.DoctorWithConnector),
		reDoctorBare:       regexp.MustCompile(p.DoctorBare),
		reDurationExplicit: regexp.MustCompile(p.DurationExplicit),
		reDurationImplicit: regexp.MustCompile(p.DurationImplicit),
		reService:          regexp.MustCompile(p.Service),
		reReasonMarked:     regexp.MustCompile(p.ReasonMarked),
		reReasonLoose:      regexp.MustCompile(p.ReasonLoose),
	}
}

// ExtractPatient finds the patient's name. The connector pattern
// ("con María", "para Juan Pérez", "a Juan") is preferred over a
// leading-name pattern; both reject stop words posing as names and keep
// the second word as a surname only when it is not itself a stop word.
// Every connector occurrence is tried, so an "a las 3" capture being
// discarded does not shadow a real "con María" later in the utterance.
func (f *FieldExtractor) ExtractPatient(text string) (string, float64, bool) {
	for _, m := range f.rePatientConnector.FindAllStringSubmatch(text, -1) {
		if name, ok := f.cleanName(m[1]); ok {
			return name, patientConnectorConf, true
		}
	}
	if m := f.rePatientLeading.FindStringSubmatch(text); m != nil {
		if name, ok := f.cleanName(m[1]); ok {
			return name, patientLeadingConf, true
		}
	}
	return "", 0, false
}

// cleanName trims a captured name to first name plus optional surname,
// rejecting candidates whose first word is a stop word.
func (f *FieldExtractor) cleanName(captured string) (string, bool) {
	words := strings.Fields(captured)
	if len(words) == 0 || f.locale.IsStopWord(words[0]) {
		return "", false
	}
	name := words[0]
	if len(words) > 1 && !f.locale.IsStopWord(words[1]) {
		name += " " + words[1]
	}
	return capitalizeWords(name), true
}

// ExtractDoctor finds the practitioner's name following a doctor title.
// A "con"/"para" connector earns more confidence than a bare title.
func (f *FieldExtractor) ExtractDoctor(text string) (string, float64, bool) {
	if m := f.reDoctorConnector.FindStringSubmatch(text); m != nil {
		if name, ok := f.cleanDoctorName(m[1]); ok {
			return name, doctorConnectorConf, true
		}
	}
	if m := f.reDoctorBare.FindStringSubmatch(text); m != nil {
		if name, ok := f.cleanDoctorName(m[1]); ok {
			return name, doctorBareConf, true
		}
	}
	return "", 0, false
}

func (f *FieldExtractor) cleanDoctorName(captured string) (string, bool) {
	words := strings.Fields(captured)
	if len(words) == 0 || f.locale.IsCommonArticle(words[0]) {
		return "", false
	}
	name := words[0]
	if len(words) > 1 && !f.locale.IsStopWord(words[1]) {
		name += " " + words[1]
	}
	return capitalizeWords(name), true
}

// ExtractDuration always yields a value: explicit amounts win, then
// implicit phrases, then the forced default at low confidence.
func (f *FieldExtractor) ExtractDuration(text string) (int, float64) {
	if m := f.reDurationExplicit.FindStringSubmatch(text); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err == nil {
			unit := strings.ToLower(m[2])
			if strings.Contains(unit, "hora") || strings.Contains(unit, "hr") {
				amount *= 60
			}
			return amount, durationExplicitConf
		}
	}
	if m := f.reDurationImplicit.FindStringSubmatch(text); m != nil {
		phrase := strings.ToLower(m[1])
		for _, dp := range f.locale.DurationPhrases {
			if dp.Phrase == phrase {
				return dp.Minutes, durationImplicitConf
			}
		}
	}
	return DefaultDurationMinutes, durationDefaultConf
}

// ExtractService matches a known service keyword after "por"/"para".
func (f *FieldExtractor) ExtractService(text string) (string, float64, bool) {
	if m := f.reService.FindStringSubmatch(text); m != nil {
		return capitalizeFirst(m[1]), serviceConf, true
	}
	return "", 0, false
}

// ExtractReason captures the visit reason. An explicit marker
// ("motivo ...", "porque ...") is preferred; a loose "por <texto>" is
// accepted only when the captured text is not a known service keyword.
func (f *FieldExtractor) ExtractReason(text string) (string, float64, bool) {
	if m := f.reReasonMarked.FindStringSubmatch(text); m != nil {
		reason := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(reason) >= minReasonLen {
			return capitalizeFirst(reason), reasonMarkedConf, true
		}
	}
	if m := f.reReasonLoose.FindStringSubmatch(text); m != nil {
		reason := strings.TrimSpace(m[1])
		if !f.locale.IsServiceKeyword(reason) {
			return capitalizeFirst(reason), reasonLooseConf, true
		}
	}
	return "", 0, false
}

// ExtractNotes keeps the whole normalized utterance as free-form notes
// when it is long enough to be useful. Deliberately coarse; a stricter
// marker-based extractor can replace this strategy without touching the
// rest of the chain.
func (f *FieldExtractor) ExtractNotes(text string) (string, bool) {
	if utf8.RuneCountInString(text) >= minNotesLen {
		return text, true
	}
	return "", false
}

// capitalizeWords renders a name with each word's first letter upper
// case and the rest lower case.
func capitalizeWords(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = capitalizeFirst(w)
	}
	return strings.Join(words, " ")
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
