package dialog

import (
	"context"
	"fmt"
)

// Action runs a transition's side effects against a working copy of the
// session and returns the state to move to. If it returns an error the
// session is left untouched and the event is reported as failed.
type Action func(ctx context.Context, s *Session, ev Event) (State, error)

// Hook is invoked for session-level notifications (re-prompts, cancellation,
// expiry). Errors are logged by the engine but never change session state.
type Hook func(ctx context.Context, s *Session, ev Event) error

// UnmatchedPolicy decides what happens when an event reaches an active
// session whose current state has no matching transition.
type UnmatchedPolicy string

const (
	// UnmatchedIgnore silently drops the event (still reported as Unmatched).
	UnmatchedIgnore UnmatchedPolicy = "ignore"
	// UnmatchedReprompt invokes the workflow's OnUnmatched hook.
	UnmatchedReprompt UnmatchedPolicy = "reprompt"
)

// ReentryPolicy decides what happens when the entry trigger fires while a
// session for the same workflow is already active.
type ReentryPolicy string

const (
	// ReentryReset discards the active session and starts over.
	ReentryReset ReentryPolicy = "reset"
	// ReentryReject keeps the active session and rejects the trigger.
	ReentryReject ReentryPolicy = "reject"
)

// Transition maps (state, event class) to an action. Next declares every
// state the action may return so the graph can be validated up front.
type Transition struct {
	From   State
	When   Match
	Action Action
	Next   []State
}

// Workflow is a declarative dialogue definition: an entry trigger, a state
// graph, and policies for unmatched input and re-entry.
type Workflow struct {
	ID string

	// Entry starts a new session when no transition of an active session
	// matches the event. EntryNext declares the states Enter may return.
	Entry     Match
	Enter     Action
	EntryNext []State

	States      []State
	Terminals   []State
	Transitions []Transition

	Unmatched   UnmatchedPolicy
	OnUnmatched Hook
	Reentry     ReentryPolicy
}

// Validate checks the state graph: transitions start from declared
// non-terminal states, every next state exists, terminals have no outgoing
// transitions, and every state is reachable from the entry.
func (w *Workflow) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("dialog: workflow without id")
	}
	if w.Entry == nil || w.Enter == nil {
		return fmt.Errorf("dialog: workflow %s: entry trigger and action are required", w.ID)
	}
	if len(w.EntryNext) == 0 {
		return fmt.Errorf("dialog: workflow %s: no entry next states declared", w.ID)
	}

	states := make(map[State]bool, len(w.States))
	for _, s := range w.States {
		states[s] = true
	}
	terminals := make(map[State]bool, len(w.Terminals))
	for _, s := range w.Terminals {
		if states[s] {
			return fmt.Errorf("dialog: workflow %s: state %s is both resting and terminal", w.ID, s)
		}
		terminals[s] = true
	}

	known := func(s State) bool { return states[s] || terminals[s] }

	for _, next := range w.EntryNext {
		if !known(next) {
			return fmt.Errorf("dialog: workflow %s: entry next state %s is not declared", w.ID, next)
		}
	}

	edges := make(map[State][]State)
	for i, t := range w.Transitions {
		if t.When == nil || t.Action == nil {
			return fmt.Errorf("dialog: workflow %s: transition %d is missing matcher or action", w.ID, i)
		}
		if terminals[t.From] {
			return fmt.Errorf("dialog: workflow %s: terminal state %s has an outgoing transition", w.ID, t.From)
		}
		if !states[t.From] {
			return fmt.Errorf("dialog: workflow %s: transition %d starts from unknown state %s", w.ID, i, t.From)
		}
		if len(t.Next) == 0 {
			return fmt.Errorf("dialog: workflow %s: transition %d declares no next states", w.ID, i)
		}
		for _, next := range t.Next {
			if !known(next) {
				return fmt.Errorf("dialog: workflow %s: transition %d targets unknown state %s", w.ID, i, next)
			}
			edges[t.From] = append(edges[t.From], next)
		}
	}

	// Reachability sweep from the entry states.
	reached := make(map[State]bool)
	queue := append([]State(nil), w.EntryNext...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if reached[cur] {
			continue
		}
		reached[cur] = true
		queue = append(queue, edges[cur]...)
	}
	for _, s := range w.States {
		if !reached[s] {
			return fmt.Errorf("dialog: workflow %s: state %s is unreachable from entry", w.ID, s)
		}
	}

	return nil
}

// IsTerminal reports whether the given state ends the workflow.
func (w *Workflow) IsTerminal(s State) bool {
	for _, t := range w.Terminals {
		if t == s {
			return true
		}
	}
	return false
}

func (w *Workflow) transitionFor(state State, ev Event) *Transition {
	for i := range w.Transitions {
		t := &w.Transitions[i]
		if t.From == state && t.When(ev) {
			return t
		}
	}
	return nil
}

func (w *Workflow) allowsNext(t *Transition, next State) bool {
	for _, n := range t.Next {
		if n == next {
			return true
		}
	}
	return false
}
