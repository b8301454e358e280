package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vozagenda/vozagenda/pkg/logging"
)

// State is the dictation session's lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateConfirming State = "confirming"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Creator persists a confirmed appointment draft. The session never
// touches storage directly.
type Creator interface {
	CreateAppointment(ctx context.Context, draft Draft) error
}

// ErrInvalidTransition is returned when an event arrives in a state that
// does not accept it.
var ErrInvalidTransition = errors.New("voice: event not valid in current state")

// Snapshot is the externally visible view of a session, safe to hand to
// transports after the session lock is released.
type Snapshot struct {
	ID          string            `json:"id"`
	State       State             `json:"state"`
	Transcript  string            `json:"transcript,omitempty"`
	Parsed      ParsedAppointment `json:"parsed"`
	Ambiguities []Ambiguity       `json:"ambiguities,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Session drives one dictation exchange from first audio to a created
// appointment. All methods are safe for concurrent use; events are
// applied strictly one at a time under the session lock.
type Session struct {
	mu sync.Mutex

	id       string
	locale   *Locale
	parser   *Parser
	detector *Detector
	creator  Creator
	logger   *logging.Logger

	now        func() time.Time
	resetDelay time.Duration

	state       State
	transcript  string
	parsed      ParsedAppointment
	ambiguities []Ambiguity
	resolved    map[Field]bool
	errMsg      string
	lastSeen    time.Time

	// generation guards the delayed completed-to-idle reset against
	// sessions that were restarted in the meantime.
	generation int
}

// NewSession builds an idle session. resetDelay is how long a completed
// session lingers before returning to idle on its own.
func NewSession(id string, locale *Locale, creator Creator, logger *logging.Logger, resetDelay time.Duration) *Session {
	s := &Session{
		id:         id,
		locale:     locale,
		parser:     NewParser(locale),
		detector:   NewDetector(locale),
		creator:    creator,
		logger:     logger.With("session_id", id),
		now:        time.Now,
		resetDelay: resetDelay,
		state:      StateIdle,
		resolved:   make(map[Field]bool),
	}
	s.lastSeen = s.now()
	return s
}

// SetNow overrides the session's time source.
func (s *Session) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	ambiguities := make([]Ambiguity, len(s.ambiguities))
	copy(ambiguities, s.ambiguities)
	return Snapshot{
		ID:          s.id,
		State:       s.state,
		Transcript:  s.transcript,
		Parsed:      s.parsed,
		Ambiguities: ambiguities,
		Error:       s.errMsg,
	}
}

// Start begins capturing a new utterance. Valid from idle, completed and
// error; any previous dictation state is discarded.
func (s *Session) Start() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	switch s.state {
	case StateIdle, StateCompleted, StateError:
		s.clearLocked()
		s.state = StateListening
		s.logger.Debug("session listening")
		return s.snapshotLocked(), nil
	default:
		return s.snapshotLocked(), fmt.Errorf("%w: start in %s", ErrInvalidTransition, s.state)
	}
}

// OnTranscript receives a recognition result. Interim results only update
// the visible transcript; a final result triggers parsing and moves the
// session to confirming.
func (s *Session) OnTranscript(text string, isFinal bool) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StateListening {
		return s.snapshotLocked(), fmt.Errorf("%w: transcript in %s", ErrInvalidTransition, s.state)
	}
	s.transcript = text
	if isFinal {
		s.processLocked()
	}
	return s.snapshotLocked(), nil
}

// Stop ends capture, treating whatever transcript accumulated as final.
// Stopping with nothing heard returns the session to idle.
func (s *Session) Stop() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StateListening {
		return s.snapshotLocked(), fmt.Errorf("%w: stop in %s", ErrInvalidTransition, s.state)
	}
	if s.transcript == "" {
		s.state = StateIdle
		return s.snapshotLocked(), nil
	}
	s.processLocked()
	return s.snapshotLocked(), nil
}

// processLocked parses the transcript, detects ambiguities and lands in
// confirming. Parsing never fails, so neither does this transition.
func (s *Session) processLocked() {
	s.state = StateProcessing
	now := s.now()
	s.parsed = s.parser.Parse(s.transcript, now)
	s.resolved = make(map[Field]bool)
	s.ambiguities = s.detector.Detect(s.parsed, now, s.resolved)
	s.state = StateConfirming
	s.logger.Info("transcript parsed",
		"confidence", s.parsed.Confidence,
		"ambiguities", len(s.ambiguities))
}

// ResolveAmbiguity applies the user's answer for one flagged field and
// re-runs detection, so resolving one field can surface the next (a
// chosen date exposes the missing time). Resolved fields are never
// flagged twice.
func (s *Session) ResolveAmbiguity(field Field, value string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StateConfirming {
		return s.snapshotLocked(), fmt.Errorf("%w: resolve in %s", ErrInvalidTransition, s.state)
	}

	idx := -1
	for i := range s.ambiguities {
		if s.ambiguities[i].Field == field && !s.ambiguities[i].Resolved {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s.snapshotLocked(), fmt.Errorf("voice: no open ambiguity for field %q", field)
	}

	if err := ApplyResolution(&s.parsed, field, value, s.now().Location()); err != nil {
		return s.snapshotLocked(), err
	}
	s.ambiguities[idx].Resolved = true
	s.ambiguities[idx].Value = value
	s.resolved[field] = true
	s.mergeDetectedLocked()

	s.logger.Debug("ambiguity resolved", "field", string(field))
	return s.snapshotLocked(), nil
}

// mergeDetectedLocked re-detects on the updated data and appends any
// newly flagged fields, keeping already listed entries (and their
// resolved marks) in place.
func (s *Session) mergeDetectedLocked() {
	listed := make(map[Field]bool, len(s.ambiguities))
	for _, a := range s.ambiguities {
		listed[a.Field] = true
	}
	for _, a := range s.detector.Detect(s.parsed, s.now(), s.resolved) {
		if !listed[a.Field] {
			s.ambiguities = append(s.ambiguities, a)
		}
	}
}

// Confirm finalizes the draft and hands it to the creator. The guard is
// deliberately minimal: a patient name and a date. Unresolved ambiguities
// for other fields do not block confirmation; the parsed values stand.
func (s *Session) Confirm(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StateConfirming {
		return s.snapshotLocked(), fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, s.state)
	}
	if s.parsed.PatientName == "" {
		return s.snapshotLocked(), errors.New(s.locale.Messages.ConfirmNeedsPatient)
	}
	if !s.parsed.HasDate() {
		return s.snapshotLocked(), errors.New(s.locale.Messages.ConfirmNeedsDate)
	}

	now := s.now()
	draft := Draft{
		PatientName:     s.parsed.PatientName,
		Start:           CombineDateTime(s.parsed.Date, s.parsed.Clock, now),
		DurationMinutes: s.parsed.DurationMinutes,
		Service:         s.parsed.Service,
		Reason:          s.parsed.Reason,
		DoctorName:      s.parsed.DoctorName,
		Notes:           s.parsed.Notes,
	}

	if err := s.creator.CreateAppointment(ctx, draft); err != nil {
		s.state = StateError
		s.errMsg = s.locale.Messages.CreationFailed
		s.logger.Error("appointment creation failed", "error", err)
		return s.snapshotLocked(), err
	}

	s.state = StateCompleted
	s.errMsg = ""
	s.logger.Info("appointment created",
		"patient", draft.PatientName,
		"start", draft.Start.Format(time.RFC3339))
	s.scheduleResetLocked()
	return s.snapshotLocked(), nil
}

// scheduleResetLocked arms the delayed return to idle after completion.
// The generation check makes a reset that raced a new Start a no-op.
func (s *Session) scheduleResetLocked() {
	if s.resetDelay <= 0 {
		return
	}
	gen := s.generation
	time.AfterFunc(s.resetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation == gen && s.state == StateCompleted {
			s.clearLocked()
			s.state = StateIdle
		}
	})
}

// OnCaptureError records a speech-capture failure and moves to error with
// a localized message for the category.
func (s *Session) OnCaptureError(category string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.state = StateError
	s.errMsg = s.locale.CaptureErrorMessage(category)
	s.logger.Warn("capture error", "category", category)
	return s.snapshotLocked()
}

// Retry leaves the error state and returns to idle, keeping nothing.
func (s *Session) Retry() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StateError {
		return s.snapshotLocked(), fmt.Errorf("%w: retry in %s", ErrInvalidTransition, s.state)
	}
	s.clearLocked()
	s.state = StateIdle
	return s.snapshotLocked(), nil
}

// Reset forces the session back to idle from any state.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.clearLocked()
	s.state = StateIdle
	return s.snapshotLocked()
}

// LastSeen reports when the session last received an event.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touchLocked() {
	s.lastSeen = s.now()
}

func (s *Session) clearLocked() {
	s.generation++
	s.transcript = ""
	s.parsed = ParsedAppointment{}
	s.ambiguities = nil
	s.resolved = make(map[Field]bool)
	s.errMsg = ""
}
