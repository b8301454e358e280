package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vozagenda/vozagenda/internal/voice"
	"github.com/vozagenda/vozagenda/pkg/logging"
)

// VoiceSessionHandler exposes dictation sessions over plain HTTP so
// dashboards can inspect them outside the WebSocket stream.
type VoiceSessionHandler struct {
	registry   *voice.Registry
	transcript *voice.TranscriptStore
	logger     *logging.Logger
}

// NewVoiceSessionHandler creates a new voice session handler. transcript
// may be nil.
func NewVoiceSessionHandler(registry *voice.Registry, transcript *voice.TranscriptStore, logger *logging.Logger) *VoiceSessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceSessionHandler{
		registry:   registry,
		transcript: transcript,
		logger:     logger,
	}
}

// CreateSession handles POST /api/voice/sessions requests
func (h *VoiceSessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.registry.Create()
	h.logger.Info("voice session created", "session_id", session.ID())

	snap := session.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(snap)
}

// GetSession handles GET /api/voice/sessions/{id} requests
func (h *VoiceSessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Snapshot())
}

// TranscriptResponse is the response for listing a session transcript
type TranscriptResponse struct {
	SessionID string                  `json:"session_id"`
	Entries   []voice.TranscriptEntry `json:"entries"`
	Count     int                     `json:"count"`
}

// GetTranscript handles GET /api/voice/sessions/{id}/transcript requests.
// A positive limit query param returns only the most recent entries.
func (h *VoiceSessionHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.transcript.List(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("failed to list transcript", "error", err, "session_id", id)
		http.Error(w, "failed to list transcript", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []voice.TranscriptEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TranscriptResponse{
		SessionID: id,
		Entries:   entries,
		Count:     len(entries),
	})
}

// TranscriptRequest is the body for posting dictated text
type TranscriptRequest struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// ResolveRequest is the body for resolving an ambiguity
type ResolveRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// StartSession handles POST /api/voice/sessions/{id}/start requests
func (h *VoiceSessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.Start()
	})
}

// PostTranscript handles POST /api/voice/sessions/{id}/transcript requests
func (h *VoiceSessionHandler) PostTranscript(w http.ResponseWriter, r *http.Request) {
	var req TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.OnTranscript(req.Text, req.Final)
	})
}

// StopSession handles POST /api/voice/sessions/{id}/stop requests
func (h *VoiceSessionHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.Stop()
	})
}

// ResolveAmbiguity handles POST /api/voice/sessions/{id}/resolve requests
func (h *VoiceSessionHandler) ResolveAmbiguity(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.ResolveAmbiguity(voice.Field(req.Field), req.Value)
	})
}

// ConfirmSession handles POST /api/voice/sessions/{id}/confirm requests
func (h *VoiceSessionHandler) ConfirmSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.Confirm(r.Context())
	})
}

// RetrySession handles POST /api/voice/sessions/{id}/retry requests
func (h *VoiceSessionHandler) RetrySession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.Retry()
	})
}

// ResetSession handles POST /api/voice/sessions/{id}/reset requests
func (h *VoiceSessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *voice.Session) (voice.Snapshot, error) {
		return s.Reset(), nil
	})
}

type sessionErrorResponse struct {
	Error   string          `json:"error"`
	Session *voice.Snapshot `json:"session,omitempty"`
}

// withSession looks up the session, applies one event and writes the
// resulting snapshot. Rejected transitions come back as 409 with the
// current snapshot attached so the client can re-render.
func (h *VoiceSessionHandler) withSession(w http.ResponseWriter, r *http.Request, apply func(*voice.Session) (voice.Snapshot, error)) {
	session, ok := h.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	snap, err := apply(session)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, voice.ErrInvalidTransition) {
			status = http.StatusConflict
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(sessionErrorResponse{Error: err.Error(), Session: &snap})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// DeleteSession handles DELETE /api/voice/sessions/{id} requests. The
// stored transcript is dropped along with the live session.
func (h *VoiceSessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.registry.Get(id); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	h.registry.Remove(id)
	if err := h.transcript.Clear(r.Context(), id); err != nil {
		h.logger.Error("failed to clear transcript", "error", err, "session_id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}
