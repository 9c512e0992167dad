package dialog

import (
	"sync"
	"time"
)

// Store holds at most one session per (owner, workflow). Sessions live in
// memory only; durability across restarts is deliberately not part of the
// contract.
type Store interface {
	Get(owner int64, workflow string) (*Session, bool)
	ByOwner(owner int64) []*Session
	Put(s *Session)
	Delete(owner int64, workflow string)
	// Stale returns sessions whose UpdatedAt is older than the deadline.
	Stale(deadline time.Time) []*Session
}

type sessionKey struct {
	owner    int64
	workflow string
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
	// order preserves insertion order of an owner's sessions so resolution
	// stays deterministic when an owner has several.
	order map[int64][]string
}

// NewMemoryStore constructs the in-memory Store implementation.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[sessionKey]*Session),
		order:    make(map[int64][]string),
	}
}

func (m *memoryStore) Get(owner int64, workflow string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey{owner, workflow}]
	return s, ok
}

func (m *memoryStore) ByOwner(owner int64) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.order[owner]
	out := make([]*Session, 0, len(ids))
	for _, wf := range ids {
		if s, ok := m.sessions[sessionKey{owner, wf}]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (m *memoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{s.Owner, s.Workflow}
	if _, exists := m.sessions[key]; !exists {
		m.order[s.Owner] = append(m.order[s.Owner], s.Workflow)
	}
	m.sessions[key] = s
}

func (m *memoryStore) Delete(owner int64, workflow string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{owner, workflow}
	if _, exists := m.sessions[key]; !exists {
		return
	}
	delete(m.sessions, key)
	ids := m.order[owner]
	for i, wf := range ids {
		if wf == workflow {
			m.order[owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(m.order[owner]) == 0 {
		delete(m.order, owner)
	}
}

func (m *memoryStore) Stale(deadline time.Time) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.UpdatedAt.Before(deadline) {
			out = append(out, s)
		}
	}
	return out
}

// ownerLocks serializes event handling per owner so two rapid updates from
// the same user can never both act on the same session snapshot. Locks for
// different owners are independent.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[int64]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[int64]*ownerLock)}
}

func (l *ownerLocks) lock(owner int64) {
	l.mu.Lock()
	entry, ok := l.locks[owner]
	if !ok {
		entry = &ownerLock{}
		l.locks[owner] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *ownerLocks) unlock(owner int64) {
	l.mu.Lock()
	entry := l.locks[owner]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, owner)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
