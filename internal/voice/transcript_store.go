package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	transcriptKeyPrefix = "voice_transcript:"
	transcriptTTL       = 24 * time.Hour
)

// TranscriptEntry is one recognized utterance kept for review and for
// replaying a dictation exchange.
type TranscriptEntry struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Final      bool      `json:"final"`
	State      State     `json:"state"`
	Confidence float64   `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// TranscriptStore keeps per-session dictation history in Redis. A nil
// store (or nil client) disables persistence without breaking callers.
type TranscriptStore struct {
	redis      *redis.Client
	tracer     trace.Tracer
	maxEntries int64
}

// NewTranscriptStore builds a store capped at maxEntries items per
// session.
func NewTranscriptStore(redisClient *redis.Client, maxEntries int64) *TranscriptStore {
	if redisClient == nil {
		return nil
	}
	return &TranscriptStore{
		redis:      redisClient,
		tracer:     otel.Tracer("vozagenda.internal.voice.transcript"),
		maxEntries: maxEntries,
	}
}

// Append records one utterance for the session.
func (s *TranscriptStore) Append(ctx context.Context, sessionID string, entry TranscriptEntry) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		return errors.New("voice: transcript sessionID required")
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("voice: marshal transcript entry: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "voice.transcript.append")
	defer span.End()

	key := transcriptKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, transcriptTTL)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, key, -s.maxEntries, -1)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("voice: append transcript entry: %w", err)
	}
	return nil
}

// List returns the session's transcript, oldest first. A positive limit
// returns only the most recent entries.
func (s *TranscriptStore) List(ctx context.Context, sessionID string, limit int64) ([]TranscriptEntry, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		return nil, errors.New("voice: transcript sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "voice.transcript.list")
	defer span.End()

	start := int64(0)
	end := int64(-1)
	if limit > 0 {
		start = -limit
	}

	key := transcriptKey(sessionID)
	raw, err := s.redis.LRange(ctx, key, start, end).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []TranscriptEntry{}, nil
		}
		return nil, fmt.Errorf("voice: list transcript: %w", err)
	}

	out := make([]TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Clear drops the session's transcript.
func (s *TranscriptStore) Clear(ctx context.Context, sessionID string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		return errors.New("voice: transcript sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "voice.transcript.clear")
	defer span.End()

	if err := s.redis.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("voice: clear transcript: %w", err)
	}
	return nil
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}
