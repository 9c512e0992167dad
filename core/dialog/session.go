package dialog

import "time"

// State identifies a single step of a workflow state graph.
type State string

const (
	// StateInitial is the virtual origin of every workflow. It is entered
	// only through the entry trigger and is never a resting state.
	StateInitial State = "initial"
	// StateDone is the conventional terminal state shared by workflows that
	// need no outcome-specific terminals.
	StateDone State = "done"
)

// Session is the live instance of one workflow for one owner.
type Session struct {
	Owner     int64
	Workflow  string
	State     State
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(owner int64, workflow string, now time.Time) *Session {
	return &Session{
		Owner:     owner,
		Workflow:  workflow,
		State:     StateInitial,
		Data:      make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// clone returns a working copy whose Data map is detached from the original,
// so a failed action never leaks partial mutations into the stored session.
func (s *Session) clone() *Session {
	cp := *s
	cp.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	return &cp
}

// GetString retrieves a string value from session data.
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Data[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt retrieves an int value from session data.
func (s *Session) GetInt(key string) (int, bool) {
	v, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// GetTime retrieves a time.Time value from session data.
func (s *Session) GetTime(key string) (time.Time, bool) {
	v, ok := s.Data[key]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// GetCursor retrieves a pagination cursor from session data.
func (s *Session) GetCursor(key string) (*Cursor, bool) {
	v, ok := s.Data[key]
	if !ok {
		return nil, false
	}
	c, ok := v.(*Cursor)
	return c, ok
}
