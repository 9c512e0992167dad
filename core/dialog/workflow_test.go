package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func noopAction(ctx context.Context, s *Session, ev Event) (State, error) {
	return StateDone, nil
}

func validWorkflow() *Workflow {
	return &Workflow{
		ID:        "wf",
		Entry:     CallbackKey("go"),
		Enter:     noopAction,
		EntryNext: []State{"a"},
		States:    []State{"a", "b"},
		Terminals: []State{StateDone},
		Transitions: []Transition{
			{From: "a", When: AnyText(), Action: noopAction, Next: []State{"b"}},
			{From: "b", When: AnyText(), Action: noopAction, Next: []State{StateDone}},
		},
	}
}

func TestWorkflowValidateOK(t *testing.T) {
	require.NoError(t, validWorkflow().Validate())
}

func TestWorkflowValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Workflow)
	}{
		{"missing id", func(w *Workflow) { w.ID = "" }},
		{"missing entry", func(w *Workflow) { w.Entry = nil }},
		{"missing enter action", func(w *Workflow) { w.Enter = nil }},
		{"no entry next", func(w *Workflow) { w.EntryNext = nil }},
		{"entry next unknown", func(w *Workflow) { w.EntryNext = []State{"ghost"} }},
		{"transition from unknown state", func(w *Workflow) {
			w.Transitions[0].From = "ghost"
		}},
		{"transition to unknown state", func(w *Workflow) {
			w.Transitions[0].Next = []State{"ghost"}
		}},
		{"transition without next", func(w *Workflow) {
			w.Transitions[0].Next = nil
		}},
		{"terminal with outgoing transition", func(w *Workflow) {
			w.Transitions = append(w.Transitions, Transition{
				From: StateDone, When: AnyText(), Action: noopAction, Next: []State{"a"},
			})
		}},
		{"state both resting and terminal", func(w *Workflow) {
			w.Terminals = append(w.Terminals, "a")
		}},
		{"unreachable state", func(w *Workflow) {
			w.States = append(w.States, "island")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := validWorkflow()
			tc.mutate(w)
			require.Error(t, w.Validate())
		})
	}
}

func TestMatchers(t *testing.T) {
	text := TextEvent(1, "hi")
	cb := CallbackEvent(1, "count", "5")

	require.True(t, AnyText()(text))
	require.False(t, AnyText()(cb))

	require.True(t, CallbackKey("count", "other")(cb))
	require.False(t, CallbackKey("other")(cb))
	require.False(t, CallbackKey("count")(text))

	require.True(t, AnyOf(AnyText(), CallbackKey("count"))(cb))
	require.False(t, AnyOf(CallbackKey("a"), CallbackKey("b"))(cb))
}
