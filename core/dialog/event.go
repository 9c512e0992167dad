package dialog

// EventKind discriminates inbound event payloads.
type EventKind string

const (
	// EventText marks a free-text message from the owner.
	EventText EventKind = "text"
	// EventCallback marks an inline button press carrying a key and payload.
	EventCallback EventKind = "callback"
)

// Event is a single inbound update tagged with its owner identity.
type Event struct {
	Owner    int64
	Kind     EventKind
	Text     string
	Callback string
	Payload  string
}

// TextEvent builds a free-text event for the given owner.
func TextEvent(owner int64, text string) Event {
	return Event{Owner: owner, Kind: EventText, Text: text}
}

// CallbackEvent builds a callback event for the given owner.
func CallbackEvent(owner int64, key, payload string) Event {
	return Event{Owner: owner, Kind: EventCallback, Callback: key, Payload: payload}
}

// IsText reports whether the event carries a free-text payload.
func (e Event) IsText() bool { return e.Kind == EventText }

// IsCallback reports whether the event is an inline button press.
func (e Event) IsCallback() bool { return e.Kind == EventCallback }

// Match classifies inbound events for transitions and entry triggers.
type Match func(ev Event) bool

// AnyText matches every free-text event.
func AnyText() Match {
	return func(ev Event) bool { return ev.IsText() }
}

// CallbackKey matches callback events whose key equals one of the given keys.
func CallbackKey(keys ...string) Match {
	return func(ev Event) bool {
		if !ev.IsCallback() {
			return false
		}
		for _, k := range keys {
			if ev.Callback == k {
				return true
			}
		}
		return false
	}
}

// AnyOf matches when at least one of the given matchers does.
func AnyOf(matchers ...Match) Match {
	return func(ev Event) bool {
		for _, m := range matchers {
			if m != nil && m(ev) {
				return true
			}
		}
		return false
	}
}
