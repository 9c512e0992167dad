package dialog

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/contentbot/core/logger"
	"log/slog"
)

// Options configure the engine.
type Options struct {
	Store Store
	// Cancel matches the global cancel event. A cancel deletes every active
	// session of the owner regardless of per-state transitions.
	Cancel Match
	// OnCancel is invoked once per cancel event, after sessions are deleted.
	OnCancel Hook
	// SessionTTL expires sessions untouched longer than this. Zero disables
	// the reaper.
	SessionTTL time.Duration
	// OnExpire is invoked for every session removed by the reaper.
	OnExpire Hook
	// Now overrides the time source, used by tests.
	Now func() time.Time
}

// Engine resolves inbound events against active sessions and workflow entry
// triggers, running at most one transition action per event.
type Engine struct {
	store     Store
	workflows []*Workflow
	byID      map[string]*Workflow
	locks     *ownerLocks

	cancel   Match
	onCancel Hook
	ttl      time.Duration
	onExpire Hook
	now      func() time.Time
}

// NewEngine constructs an engine with no workflows registered.
func NewEngine(opts Options) *Engine {
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    store,
		byID:     make(map[string]*Workflow),
		locks:    newOwnerLocks(),
		cancel:   opts.Cancel,
		onCancel: opts.OnCancel,
		ttl:      opts.SessionTTL,
		onExpire: opts.OnExpire,
		now:      now,
	}
}

// Register validates the workflow and adds it to the resolution order.
func (e *Engine) Register(w *Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if _, exists := e.byID[w.ID]; exists {
		return fmt.Errorf("dialog: workflow already registered: %s", w.ID)
	}
	e.workflows = append(e.workflows, w)
	e.byID[w.ID] = w
	return nil
}

// InProgress reports whether the owner has any active session.
func (e *Engine) InProgress(owner int64) bool {
	return len(e.store.ByOwner(owner)) > 0
}

// HandleEvent resolves and applies a single inbound event. Resolution order:
// global cancel, then transitions of the owner's active sessions, then entry
// triggers, otherwise Unmatched. The whole read-act-write cycle runs under a
// per-owner lock, so events from one owner are strictly ordered while other
// owners proceed in parallel.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) Result {
	e.locks.lock(ev.Owner)
	defer e.locks.unlock(ev.Owner)

	if e.cancel != nil && e.cancel(ev) {
		return e.handleCancel(ctx, ev)
	}

	// Active sessions first, in creation order.
	for _, s := range e.store.ByOwner(ev.Owner) {
		wf := e.byID[s.Workflow]
		if wf == nil {
			continue
		}
		if t := wf.transitionFor(s.State, ev); t != nil {
			return e.applyTransition(ctx, wf, s, t, ev)
		}
	}

	// Entry triggers next, in registration order.
	for _, wf := range e.workflows {
		if !wf.Entry(ev) {
			continue
		}
		if active, ok := e.store.Get(ev.Owner, wf.ID); ok {
			if wf.Reentry == ReentryReject {
				logger.Debug(ctx, "dialog", "session.reentry.rejected",
					slog.Int64("user_id", ev.Owner),
					slog.String("workflow", wf.ID),
					slog.String("state", string(active.State)),
				)
				return Result{Kind: ResultRejected, Workflow: wf.ID, State: active.State}
			}
		}
		// ReentryReset replaces the active session only once Enter succeeds,
		// so a failed re-entry leaves the prior session untouched.
		return e.startSession(ctx, wf, ev)
	}

	// No transition and no trigger: apply the unmatched policy of the most
	// recently relevant session, if any.
	for _, s := range e.store.ByOwner(ev.Owner) {
		wf := e.byID[s.Workflow]
		if wf == nil {
			continue
		}
		if wf.Unmatched == UnmatchedReprompt && wf.OnUnmatched != nil {
			if err := wf.OnUnmatched(ctx, s, ev); err != nil {
				logger.Warn(ctx, "dialog", "session.reprompt.failed",
					slog.Int64("user_id", ev.Owner),
					slog.String("workflow", wf.ID),
					slog.String("err", err.Error()),
				)
			}
		}
		return Result{Kind: ResultUnmatched, Workflow: wf.ID, State: s.State}
	}

	return Result{Kind: ResultUnmatched}
}

func (e *Engine) handleCancel(ctx context.Context, ev Event) Result {
	sessions := e.store.ByOwner(ev.Owner)
	for _, s := range sessions {
		e.store.Delete(ev.Owner, s.Workflow)
	}
	if e.onCancel != nil {
		var last *Session
		if len(sessions) > 0 {
			last = sessions[len(sessions)-1]
		}
		if err := e.onCancel(ctx, last, ev); err != nil {
			logger.Warn(ctx, "dialog", "session.cancel.hook_failed",
				slog.Int64("user_id", ev.Owner),
				slog.String("err", err.Error()),
			)
		}
	}
	res := Result{Kind: ResultCancelled}
	if len(sessions) > 0 {
		res.Workflow = sessions[len(sessions)-1].Workflow
	}
	logger.Info(ctx, "dialog", "session.cancelled",
		slog.String("status", "ok"),
		slog.Int64("user_id", ev.Owner),
		slog.Int("sessions", len(sessions)),
	)
	return res
}

func (e *Engine) startSession(ctx context.Context, wf *Workflow, ev Event) Result {
	now := e.now()
	s := newSession(ev.Owner, wf.ID, now)

	next, err := wf.Enter(ctx, s, ev)
	if err != nil {
		logger.Warn(ctx, "dialog", "session.enter.failed",
			slog.Int64("user_id", ev.Owner),
			slog.String("workflow", wf.ID),
			slog.String("err", err.Error()),
		)
		return Result{Kind: ResultActionFailed, Workflow: wf.ID, State: StateInitial, Err: err}
	}
	if !stateIn(next, wf.EntryNext) {
		err := fmt.Errorf("dialog: workflow %s: entry returned undeclared state %s", wf.ID, next)
		return Result{Kind: ResultActionFailed, Workflow: wf.ID, State: StateInitial, Err: err}
	}
	if wf.IsTerminal(next) {
		e.store.Delete(ev.Owner, wf.ID)
		return Result{Kind: ResultCompleted, Workflow: wf.ID, State: next}
	}

	s.State = next
	s.UpdatedAt = now
	e.store.Put(s)
	logger.Debug(ctx, "dialog", "session.started",
		slog.Int64("user_id", ev.Owner),
		slog.String("workflow", wf.ID),
		slog.String("state", string(next)),
	)
	return Result{Kind: ResultStarted, Workflow: wf.ID, State: next}
}

func (e *Engine) applyTransition(ctx context.Context, wf *Workflow, s *Session, t *Transition, ev Event) Result {
	work := s.clone()

	next, err := t.Action(ctx, work, ev)
	if err != nil {
		logger.Warn(ctx, "dialog", "transition.failed",
			slog.Int64("user_id", ev.Owner),
			slog.String("workflow", wf.ID),
			slog.String("state", string(s.State)),
			slog.String("err", err.Error()),
		)
		return Result{Kind: ResultActionFailed, Workflow: wf.ID, State: s.State, Err: err}
	}
	if !wf.allowsNext(t, next) {
		err := fmt.Errorf("dialog: workflow %s: transition from %s returned undeclared state %s", wf.ID, s.State, next)
		return Result{Kind: ResultActionFailed, Workflow: wf.ID, State: s.State, Err: err}
	}

	if wf.IsTerminal(next) {
		e.store.Delete(s.Owner, wf.ID)
		logger.Debug(ctx, "dialog", "session.completed",
			slog.Int64("user_id", ev.Owner),
			slog.String("workflow", wf.ID),
			slog.String("state", string(next)),
		)
		return Result{Kind: ResultCompleted, Workflow: wf.ID, State: next}
	}

	work.State = next
	work.UpdatedAt = e.now()
	e.store.Put(work)
	return Result{Kind: ResultAdvanced, Workflow: wf.ID, State: next}
}

// ExpireStale removes sessions untouched for longer than the configured TTL
// and invokes the expiry hook for each. It is a no-op when the TTL is zero.
func (e *Engine) ExpireStale(ctx context.Context) int {
	if e.ttl <= 0 {
		return 0
	}
	deadline := e.now().Add(-e.ttl)
	stale := e.store.Stale(deadline)
	removed := 0
	for _, s := range stale {
		e.locks.lock(s.Owner)
		if cur, ok := e.store.Get(s.Owner, s.Workflow); ok && !cur.UpdatedAt.After(deadline) {
			e.store.Delete(s.Owner, s.Workflow)
			removed++
			if e.onExpire != nil {
				if err := e.onExpire(ctx, cur, Event{Owner: s.Owner}); err != nil {
					logger.Warn(ctx, "dialog", "session.expire.hook_failed",
						slog.Int64("user_id", s.Owner),
						slog.String("err", err.Error()),
					)
				}
			}
			logger.Info(ctx, "dialog", "session.expired",
				slog.String("status", "ok"),
				slog.Int64("user_id", s.Owner),
				slog.String("workflow", s.Workflow),
				slog.String("state", string(cur.State)),
			)
		}
		e.locks.unlock(s.Owner)
	}
	return removed
}

// RunReaper sweeps stale sessions on the given interval until ctx is done.
func (e *Engine) RunReaper(ctx context.Context, interval time.Duration) {
	if e.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.ExpireStale(ctx)
		}
	}
}

func stateIn(s State, set []State) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
