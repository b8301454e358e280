package voice

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vozagenda/vozagenda/pkg/logging"
)

// Registry owns the live dictation sessions. Sessions are created on
// demand and pruned after sitting idle past the configured timeout.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	locale     *Locale
	creator    Creator
	logger     *logging.Logger
	resetDelay time.Duration
}

// NewRegistry builds an empty registry. Every session it creates shares
// the same locale and creator.
func NewRegistry(locale *Locale, creator Creator, logger *logging.Logger, resetDelay time.Duration) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		locale:     locale,
		creator:    creator,
		logger:     logger,
		resetDelay: resetDelay,
	}
}

// Create registers a new session under a fresh identifier.
func (r *Registry) Create() *Session {
	id := uuid.New().String()
	s := NewSession(id, r.locale, r.creator, r.logger, r.resetDelay)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Debug("session created", "session_id", id)
	return s
}

// Get returns the session with the given id, if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// PruneIdle removes sessions that have not seen an event within maxIdle
// and returns how many were dropped.
func (r *Registry) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var stale []string
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if len(stale) > 0 {
		r.logger.Info("idle sessions pruned", "count", len(stale))
	}
	return len(stale)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
