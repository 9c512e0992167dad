package dialog

// ResultKind classifies the outcome of handling one inbound event.
type ResultKind string

const (
	// ResultUnmatched means the event fits no active session and no entry trigger.
	ResultUnmatched ResultKind = "unmatched"
	// ResultStarted means a new session was created via an entry trigger.
	ResultStarted ResultKind = "started"
	// ResultAdvanced means an active session moved to a new resting state.
	ResultAdvanced ResultKind = "advanced"
	// ResultCompleted means the session reached a terminal state and was deleted.
	ResultCompleted ResultKind = "completed"
	// ResultCancelled means a cancel event deleted the owner's sessions.
	ResultCancelled ResultKind = "cancelled"
	// ResultRejected means an entry trigger was refused by the re-entry policy.
	ResultRejected ResultKind = "rejected"
	// ResultActionFailed means the transition action errored; the session is unchanged.
	ResultActionFailed ResultKind = "action_failed"
)

// Result reports what the engine did with an event.
type Result struct {
	Kind     ResultKind
	Workflow string
	State    State
	Err      error
}

// Failed reports whether the event ended in an action failure.
func (r Result) Failed() bool { return r.Kind == ResultActionFailed }
