package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vozagenda/vozagenda/pkg/logging"
)

type creatorStub struct {
	mu     sync.Mutex
	drafts []Draft
	err    error
}

func (c *creatorStub) CreateAppointment(_ context.Context, draft Draft) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.drafts = append(c.drafts, draft)
	return nil
}

func (c *creatorStub) created() []Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Draft(nil), c.drafts...)
}

func newTestSession(t *testing.T, creator Creator, resetDelay time.Duration) *Session {
	t.Helper()
	s := NewSession("test-session", Spanish(), creator, logging.New("error"), resetDelay)
	s.SetNow(func() time.Time { return refNow })
	return s
}

func TestSession_HappyPath(t *testing.T) {
	stub := &creatorStub{}
	s := newTestSession(t, stub, 0)

	snap, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, StateListening, snap.State)

	snap, err = s.OnTranscript("cita con", false)
	require.NoError(t, err)
	assert.Equal(t, StateListening, snap.State)
	assert.Equal(t, "cita con", snap.Transcript)

	snap, err = s.OnTranscript("cita con ana el viernes", true)
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, snap.State)
	assert.Equal(t, "Ana", snap.Parsed.PatientName)
	assert.Equal(t, []Field{FieldTime, FieldDuration}, ambiguityFields(snap.Ambiguities))

	snap, err = s.ResolveAmbiguity(FieldTime, "10:00")
	require.NoError(t, err)
	snap, err = s.ResolveAmbiguity(FieldDuration, "45")
	require.NoError(t, err)
	for _, a := range snap.Ambiguities {
		assert.True(t, a.Resolved)
	}

	snap, err = s.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)

	drafts := stub.created()
	require.Len(t, drafts, 1)
	assert.Equal(t, "Ana", drafts[0].PatientName)
	assert.Equal(t, time.Date(2026, 9, 4, 10, 0, 0, 0, time.Local), drafts[0].Start)
	assert.Equal(t, 45, drafts[0].DurationMinutes)
}

func TestSession_ConfirmGuards(t *testing.T) {
	stub := &creatorStub{}
	s := newTestSession(t, stub, 0)

	_, err := s.Start()
	require.NoError(t, err)
	snap, err := s.OnTranscript("a las 9", true)
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, snap.State)

	locale := Spanish()

	// No patient yet: confirm refused, state unchanged.
	snap, err = s.Confirm(context.Background())
	require.EqualError(t, err, locale.Messages.ConfirmNeedsPatient)
	assert.Equal(t, StateConfirming, snap.State)

	_, err = s.ResolveAmbiguity(FieldPatientName, "maría lópez")
	require.NoError(t, err)

	// Still no date.
	snap, err = s.Confirm(context.Background())
	require.EqualError(t, err, locale.Messages.ConfirmNeedsDate)
	assert.Equal(t, StateConfirming, snap.State)

	_, err = s.ResolveAmbiguity(FieldDate, "2026-09-01")
	require.NoError(t, err)

	snap, err = s.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)

	drafts := stub.created()
	require.Len(t, drafts, 1)
	assert.Equal(t, "María López", drafts[0].PatientName)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local), drafts[0].Start)
}

func TestSession_ResolutionSurfacesNextAmbiguity(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 0)

	_, err := s.Start()
	require.NoError(t, err)
	snap, err := s.OnTranscript("cita con ana", true)
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldDate, FieldDuration}, ambiguityFields(snap.Ambiguities))

	// Choosing a date exposes that no time was dictated.
	snap, err = s.ResolveAmbiguity(FieldDate, "2026-09-04")
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldDate, FieldDuration, FieldTime}, ambiguityFields(snap.Ambiguities))
	assert.True(t, snap.Ambiguities[0].Resolved)
	assert.False(t, snap.Ambiguities[2].Resolved)

	// A resolved field is never reopened.
	_, err = s.ResolveAmbiguity(FieldDate, "2026-09-05")
	assert.Error(t, err)
}

func TestSession_CreationFailure(t *testing.T) {
	stub := &creatorStub{err: errors.New("db down")}
	s := newTestSession(t, stub, 0)

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.OnTranscript("cita con ana mañana a las 10am", true)
	require.NoError(t, err)

	snap, err := s.Confirm(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, Spanish().Messages.CreationFailed, snap.Error)

	// Retry returns to a clean idle session.
	snap, err = s.Retry()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.Transcript)
}

func TestSession_CaptureError(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 0)

	_, err := s.Start()
	require.NoError(t, err)

	snap := s.OnCaptureError("no-speech")
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "No se detectó voz. Intenta de nuevo.", snap.Error)

	snap = s.OnCaptureError("something-new")
	assert.Equal(t, Spanish().Messages.CaptureErrorFallback, snap.Error)

	_, err = s.Retry()
	require.NoError(t, err)
	_, err = s.Retry()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_StopWithoutSpeech(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 0)

	_, err := s.Start()
	require.NoError(t, err)
	snap, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
}

func TestSession_StopForcesFinal(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 0)

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.OnTranscript("cita con ana el viernes", false)
	require.NoError(t, err)

	snap, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, snap.State)
	assert.Equal(t, "Ana", snap.Parsed.PatientName)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 0)

	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.OnTranscript("hola", true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.Stop()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.ResolveAmbiguity(FieldDate, "2026-09-01")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Start()
	require.NoError(t, err)
	_, err = s.Start()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_ResetFromAnyState(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 0)

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.OnTranscript("cita con ana el viernes", true)
	require.NoError(t, err)

	snap := s.Reset()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Transcript)
	assert.Empty(t, snap.Ambiguities)
	assert.Empty(t, snap.Parsed.PatientName)
}

func TestSession_CompletedReturnsToIdle(t *testing.T) {
	s := newTestSession(t, &creatorStub{}, 20*time.Millisecond)

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.OnTranscript("cita con ana mañana a las 10am", true)
	require.NoError(t, err)
	snap, err := s.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, snap.State)

	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateIdle
	}, time.Second, 10*time.Millisecond)
}

func TestRegistry(t *testing.T) {
	logger := logging.New("error")
	r := NewRegistry(Spanish(), &creatorStub{}, logger, 0)

	s := r.Create()
	require.NotEmpty(t, s.ID())
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	r.Remove(s.ID())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_PruneIdle(t *testing.T) {
	logger := logging.New("error")
	r := NewRegistry(Spanish(), &creatorStub{}, logger, 0)

	stale := r.Create()
	stale.SetNow(func() time.Time { return time.Now().Add(-time.Hour) })
	stale.Reset() // stamps the hour-old activity time

	fresh := r.Create()

	pruned := r.PruneIdle(10 * time.Minute)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get(fresh.ID())
	assert.True(t, ok)
}
