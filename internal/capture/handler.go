package capture

import (
	"context"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/vozagenda/vozagenda/internal/observability/metrics"
	"github.com/vozagenda/vozagenda/internal/voice"
	"github.com/vozagenda/vozagenda/pkg/logging"
)

// Handler bridges WebSocket dictation clients and their voice sessions.
// Each connection drives exactly one session; events are applied in
// arrival order.
type Handler struct {
	registry   *voice.Registry
	transcript *voice.TranscriptStore
	metrics    *metrics.VoiceMetrics
	locale     *voice.Locale
	logger     *logging.Logger
}

// NewHandler creates a dictation WebSocket handler. transcript and
// voiceMetrics may be nil.
func NewHandler(registry *voice.Registry, transcript *voice.TranscriptStore, voiceMetrics *metrics.VoiceMetrics, locale *voice.Locale, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		registry:   registry,
		transcript: transcript,
		metrics:    voiceMetrics,
		locale:     locale,
		logger:     logger,
	}
}

// HandleWebSocket upgrades to WebSocket and streams dictation events.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	session, ok := h.resumeOrCreate(r.URL.Query().Get("session"))
	if !ok {
		_ = websocket.JSON.Send(conn, OutboundEvent{Type: EventError, Message: "unknown session"})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundEvent{
		Type:      EventSession,
		SessionID: session.ID(),
	})

	h.logger.Info("capture: connection opened", "session_id", session.ID())
	defer h.logger.Debug("capture: connection closed", "session_id", session.ID())

	for {
		var event InboundEvent
		if err := websocket.JSON.Receive(conn, &event); err != nil {
			return
		}
		if event.Type == EventPing {
			_ = websocket.JSON.Send(conn, OutboundEvent{Type: EventPong})
			continue
		}
		h.dispatch(r.Context(), conn, session, event)
	}
}

// resumeOrCreate returns the referenced session, or a new one when no
// id was given. A stale id is an error rather than a silent new session
// so the client notices it lost state.
func (h *Handler) resumeOrCreate(id string) (*voice.Session, bool) {
	if id == "" {
		return h.registry.Create(), true
	}
	return h.registry.Get(id)
}

func (h *Handler) dispatch(ctx context.Context, conn *websocket.Conn, session *voice.Session, event InboundEvent) {
	switch event.Type {
	case EventStart:
		snap, err := session.Start()
		h.reply(conn, snap, err)

	case EventTranscript:
		snap, err := session.OnTranscript(event.Text, event.Final)
		if err == nil {
			h.recordTranscript(ctx, session.ID(), event, snap)
		}
		h.reply(conn, snap, err)

	case EventStop:
		snap, err := session.Stop()
		if err == nil && snap.State == voice.StateConfirming {
			h.recordParse(snap)
		}
		h.reply(conn, snap, err)

	case EventResolve:
		snap, err := session.ResolveAmbiguity(voice.Field(event.Field), event.Value)
		h.reply(conn, snap, err)

	case EventConfirm:
		snap, err := session.Confirm(ctx)
		if err != nil {
			h.metrics.ObserveCreation("failed")
			h.reply(conn, snap, err)
			return
		}
		h.metrics.ObserveCreation("created")
		h.metrics.ObserveSessionOutcome("completed")
		_ = websocket.JSON.Send(conn, OutboundEvent{
			Type:      EventCreated,
			SessionID: snap.ID,
			Session:   &snap,
		})

	case EventCaptureError:
		snap := session.OnCaptureError(event.Category)
		h.metrics.ObserveSessionOutcome("capture_error")
		h.sendState(conn, snap)

	case EventRetry:
		snap, err := session.Retry()
		h.reply(conn, snap, err)

	case EventReset:
		snap := session.Reset()
		h.metrics.ObserveSessionOutcome("reset")
		h.sendState(conn, snap)

	default:
		h.logger.Debug("capture: unknown event", "type", event.Type)
	}
}

// recordTranscript persists the utterance and, once final, observes the
// parse outcome.
func (h *Handler) recordTranscript(ctx context.Context, sessionID string, event InboundEvent, snap voice.Snapshot) {
	_ = h.transcript.Append(ctx, sessionID, voice.TranscriptEntry{
		Text:       event.Text,
		Final:      event.Final,
		State:      snap.State,
		Confidence: snap.Parsed.Confidence,
	})
	if event.Final {
		h.recordParse(snap)
	}
}

func (h *Handler) recordParse(snap voice.Snapshot) {
	h.metrics.ObserveParse(h.locale.Code, snap.Parsed.Confidence)
	for _, a := range snap.Ambiguities {
		h.metrics.ObserveAmbiguity(string(a.Field))
	}
}

// reply sends the snapshot as a state event, or the error with the
// current snapshot attached so the client can re-render either way.
func (h *Handler) reply(conn *websocket.Conn, snap voice.Snapshot, err error) {
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundEvent{
			Type:      EventError,
			SessionID: snap.ID,
			Session:   &snap,
			Message:   err.Error(),
		})
		return
	}
	h.sendState(conn, snap)
}

func (h *Handler) sendState(conn *websocket.Conn, snap voice.Snapshot) {
	_ = websocket.JSON.Send(conn, OutboundEvent{
		Type:      EventState,
		SessionID: snap.ID,
		Session:   &snap,
	})
}
