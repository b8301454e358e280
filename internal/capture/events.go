package capture

import "github.com/vozagenda/vozagenda/internal/voice"

// Speech-capture error categories, as reported by browser recognition
// engines. Unknown categories fall back to a generic message.
const (
	ErrorNoSpeech     = "no-speech"
	ErrorAudioCapture = "audio-capture"
	ErrorNotAllowed   = "not-allowed"
	ErrorNetwork      = "network"
	ErrorAborted      = "aborted"
)

// Inbound event types.
const (
	EventStart        = "start"
	EventTranscript   = "transcript"
	EventStop         = "stop"
	EventResolve      = "resolve"
	EventConfirm      = "confirm"
	EventRetry        = "retry"
	EventReset        = "reset"
	EventCaptureError = "capture_error"
	EventPing         = "ping"
)

// Outbound event types.
const (
	EventSession = "session"
	EventState   = "state"
	EventCreated = "created"
	EventError   = "error"
	EventPong    = "pong"
)

// InboundEvent is what the dictation client sends.
type InboundEvent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Final    bool   `json:"final,omitempty"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Category string `json:"category,omitempty"`
}

// OutboundEvent is what we send to the dictation client. Session rides
// along on every state change so the client never has to poll.
type OutboundEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Session   *voice.Snapshot `json:"session,omitempty"`
	Message   string          `json:"message,omitempty"`
}
