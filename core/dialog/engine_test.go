package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	stAsking  = State("asking")
	stWaiting = State("waiting")
)

// surveyWorkflow is a two-step workflow used across engine tests:
// entry callback -> asking -> waiting -> done.
func surveyWorkflow(t *testing.T) *Workflow {
	t.Helper()
	return &Workflow{
		ID:    "survey",
		Entry: CallbackKey("survey"),
		Enter: func(ctx context.Context, s *Session, ev Event) (State, error) {
			return stAsking, nil
		},
		EntryNext: []State{stAsking},
		States:    []State{stAsking, stWaiting},
		Terminals: []State{StateDone},
		Transitions: []Transition{
			{
				From: stAsking,
				When: AnyText(),
				Action: func(ctx context.Context, s *Session, ev Event) (State, error) {
					s.Data["answer"] = ev.Text
					return stWaiting, nil
				},
				Next: []State{stWaiting},
			},
			{
				From: stWaiting,
				When: CallbackKey("finish"),
				Action: func(ctx context.Context, s *Session, ev Event) (State, error) {
					return StateDone, nil
				},
				Next: []State{StateDone},
			},
		},
		Reentry: ReentryReset,
	}
}

func newTestEngine(t *testing.T, opts Options, wfs ...*Workflow) *Engine {
	t.Helper()
	e := NewEngine(opts)
	for _, wf := range wfs {
		require.NoError(t, e.Register(wf))
	}
	return e
}

func TestEngineStartAdvanceComplete(t *testing.T) {
	e := newTestEngine(t, Options{}, surveyWorkflow(t))
	ctx := context.Background()

	res := e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	require.Equal(t, ResultStarted, res.Kind)
	require.Equal(t, stAsking, res.State)
	require.True(t, e.InProgress(1))

	res = e.HandleEvent(ctx, TextEvent(1, "blue"))
	require.Equal(t, ResultAdvanced, res.Kind)
	require.Equal(t, stWaiting, res.State)

	res = e.HandleEvent(ctx, CallbackEvent(1, "finish", ""))
	require.Equal(t, ResultCompleted, res.Kind)
	require.False(t, e.InProgress(1))
}

func TestEngineUnmatchedWithoutSession(t *testing.T) {
	e := newTestEngine(t, Options{}, surveyWorkflow(t))

	res := e.HandleEvent(context.Background(), TextEvent(1, "hello"))
	require.Equal(t, ResultUnmatched, res.Kind)
	require.Empty(t, res.Workflow)
}

func TestEngineActionFailureLeavesSessionUntouched(t *testing.T) {
	boom := errors.New("boom")
	wf := surveyWorkflow(t)
	wf.Transitions[0].Action = func(ctx context.Context, s *Session, ev Event) (State, error) {
		s.Data["partial"] = "leak"
		return "", boom
	}
	e := newTestEngine(t, Options{}, wf)
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	res := e.HandleEvent(ctx, TextEvent(1, "blue"))
	require.Equal(t, ResultActionFailed, res.Kind)
	require.ErrorIs(t, res.Err, boom)

	s, ok := e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stAsking, s.State)
	require.NotContains(t, s.Data, "partial")
}

func TestEngineUndeclaredNextStateFails(t *testing.T) {
	wf := surveyWorkflow(t)
	wf.Transitions[0].Action = func(ctx context.Context, s *Session, ev Event) (State, error) {
		return StateDone, nil // declared Next is only stWaiting
	}
	e := newTestEngine(t, Options{}, wf)
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	res := e.HandleEvent(ctx, TextEvent(1, "blue"))
	require.Equal(t, ResultActionFailed, res.Kind)
	require.Error(t, res.Err)

	s, ok := e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stAsking, s.State)
}

func TestEngineCancelDeletesAllSessions(t *testing.T) {
	var cancelled int
	e := newTestEngine(t, Options{
		Cancel: CallbackKey("cancel"),
		OnCancel: func(ctx context.Context, s *Session, ev Event) error {
			cancelled++
			return nil
		},
	}, surveyWorkflow(t))
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	res := e.HandleEvent(ctx, CallbackEvent(1, "cancel", ""))
	require.Equal(t, ResultCancelled, res.Kind)
	require.Equal(t, "survey", res.Workflow)
	require.Equal(t, 1, cancelled)
	require.False(t, e.InProgress(1))

	// Cancel with nothing active still reports cancelled.
	res = e.HandleEvent(ctx, CallbackEvent(1, "cancel", ""))
	require.Equal(t, ResultCancelled, res.Kind)
	require.Empty(t, res.Workflow)
}

func TestEngineReentryReset(t *testing.T) {
	e := newTestEngine(t, Options{}, surveyWorkflow(t))
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	e.HandleEvent(ctx, TextEvent(1, "blue"))

	res := e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	require.Equal(t, ResultStarted, res.Kind)

	s, ok := e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stAsking, s.State)
	require.NotContains(t, s.Data, "answer")
}

func TestEngineReentryEnterFailureKeepsSession(t *testing.T) {
	boom := errors.New("boom")
	wf := surveyWorkflow(t)
	failing := false
	wf.Enter = func(ctx context.Context, s *Session, ev Event) (State, error) {
		if failing {
			return "", boom
		}
		return stAsking, nil
	}
	e := newTestEngine(t, Options{}, wf)
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	e.HandleEvent(ctx, TextEvent(1, "blue"))

	// A failed re-entry must not wipe the session that was already active.
	failing = true
	res := e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	require.Equal(t, ResultActionFailed, res.Kind)
	require.ErrorIs(t, res.Err, boom)

	s, ok := e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stWaiting, s.State)
	require.Equal(t, "blue", s.Data["answer"])

	// Once entering works again the reset goes through.
	failing = false
	res = e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	require.Equal(t, ResultStarted, res.Kind)
	s, ok = e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stAsking, s.State)
	require.NotContains(t, s.Data, "answer")
}

func TestEngineReentryReject(t *testing.T) {
	wf := surveyWorkflow(t)
	wf.Reentry = ReentryReject
	e := newTestEngine(t, Options{}, wf)
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	e.HandleEvent(ctx, TextEvent(1, "blue"))

	res := e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	require.Equal(t, ResultRejected, res.Kind)

	s, ok := e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stWaiting, s.State)
}

func TestEngineUnmatchedRepromptHook(t *testing.T) {
	var reprompts int
	wf := surveyWorkflow(t)
	wf.Unmatched = UnmatchedReprompt
	wf.OnUnmatched = func(ctx context.Context, s *Session, ev Event) error {
		reprompts++
		return nil
	}
	e := newTestEngine(t, Options{}, wf)
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	e.HandleEvent(ctx, TextEvent(1, "blue"))

	// waiting accepts only the finish callback; text is unmatched.
	res := e.HandleEvent(ctx, TextEvent(1, "again"))
	require.Equal(t, ResultUnmatched, res.Kind)
	require.Equal(t, "survey", res.Workflow)
	require.Equal(t, 1, reprompts)

	s, ok := e.store.Get(1, "survey")
	require.True(t, ok)
	require.Equal(t, stWaiting, s.State)
}

func TestEngineOwnersAreIsolated(t *testing.T) {
	e := newTestEngine(t, Options{}, surveyWorkflow(t))
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))
	e.HandleEvent(ctx, CallbackEvent(2, "survey", ""))
	e.HandleEvent(ctx, TextEvent(1, "blue"))

	s1, _ := e.store.Get(1, "survey")
	s2, _ := e.store.Get(2, "survey")
	require.Equal(t, stWaiting, s1.State)
	require.Equal(t, stAsking, s2.State)
}

func TestEngineConcurrentOwnersSerializedPerOwner(t *testing.T) {
	// The counter workflow increments session data on every text event.
	// Racing events for the same owner must all be observed.
	wf := &Workflow{
		ID:    "counter",
		Entry: CallbackKey("counter"),
		Enter: func(ctx context.Context, s *Session, ev Event) (State, error) {
			s.Data["n"] = 0
			return stAsking, nil
		},
		EntryNext: []State{stAsking},
		States:    []State{stAsking},
		Terminals: []State{StateDone},
		Transitions: []Transition{
			{
				From: stAsking,
				When: AnyText(),
				Action: func(ctx context.Context, s *Session, ev Event) (State, error) {
					n, _ := s.GetInt("n")
					s.Data["n"] = n + 1
					return stAsking, nil
				},
				Next: []State{stAsking},
			},
		},
		Reentry: ReentryReset,
	}
	e := newTestEngine(t, Options{}, wf)
	ctx := context.Background()

	const owners = 4
	const events = 50
	for owner := int64(1); owner <= owners; owner++ {
		e.HandleEvent(ctx, CallbackEvent(owner, "counter", ""))
	}

	var wg sync.WaitGroup
	for owner := int64(1); owner <= owners; owner++ {
		for i := 0; i < events; i++ {
			wg.Add(1)
			go func(owner int64) {
				defer wg.Done()
				e.HandleEvent(ctx, TextEvent(owner, "tick"))
			}(owner)
		}
	}
	wg.Wait()

	for owner := int64(1); owner <= owners; owner++ {
		s, ok := e.store.Get(owner, "counter")
		require.True(t, ok)
		n, _ := s.GetInt("n")
		require.Equal(t, events, n, "owner %d", owner)
	}
}

func TestEngineExpireStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var expired []int64
	e := newTestEngine(t, Options{
		SessionTTL: 10 * time.Minute,
		Now:        func() time.Time { return now },
		OnExpire: func(ctx context.Context, s *Session, ev Event) error {
			expired = append(expired, s.Owner)
			return nil
		},
	}, surveyWorkflow(t))
	ctx := context.Background()

	e.HandleEvent(ctx, CallbackEvent(1, "survey", ""))

	now = now.Add(5 * time.Minute)
	require.Zero(t, e.ExpireStale(ctx))
	require.True(t, e.InProgress(1))

	// A fresh touch resets the clock.
	e.HandleEvent(ctx, TextEvent(1, "blue"))
	now = now.Add(9 * time.Minute)
	require.Zero(t, e.ExpireStale(ctx))

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, e.ExpireStale(ctx))
	require.False(t, e.InProgress(1))
	require.Equal(t, []int64{1}, expired)
}

func TestEngineDuplicateRegistration(t *testing.T) {
	e := NewEngine(Options{})
	require.NoError(t, e.Register(surveyWorkflow(t)))
	require.Error(t, e.Register(surveyWorkflow(t)))
}
