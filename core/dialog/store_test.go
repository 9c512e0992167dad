package dialog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	st := NewMemoryStore()
	now := time.Now()

	st.Put(newSession(1, "a", now))
	st.Put(newSession(1, "b", now))
	st.Put(newSession(2, "a", now))

	s, ok := st.Get(1, "a")
	require.True(t, ok)
	require.Equal(t, int64(1), s.Owner)

	_, ok = st.Get(1, "c")
	require.False(t, ok)

	st.Delete(1, "a")
	_, ok = st.Get(1, "a")
	require.False(t, ok)
	require.Len(t, st.ByOwner(1), 1)
	require.Len(t, st.ByOwner(2), 1)
}

func TestMemoryStoreByOwnerPreservesInsertionOrder(t *testing.T) {
	st := NewMemoryStore()
	now := time.Now()

	st.Put(newSession(1, "b", now))
	st.Put(newSession(1, "a", now))
	st.Put(newSession(1, "c", now))

	sessions := st.ByOwner(1)
	require.Len(t, sessions, 3)
	require.Equal(t, "b", sessions[0].Workflow)
	require.Equal(t, "a", sessions[1].Workflow)
	require.Equal(t, "c", sessions[2].Workflow)

	// Re-putting an existing session keeps its position.
	st.Put(newSession(1, "b", now.Add(time.Minute)))
	sessions = st.ByOwner(1)
	require.Equal(t, "b", sessions[0].Workflow)
}

func TestMemoryStoreStale(t *testing.T) {
	st := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	old := newSession(1, "a", base)
	fresh := newSession(2, "a", base.Add(time.Hour))
	st.Put(old)
	st.Put(fresh)

	stale := st.Stale(base.Add(30 * time.Minute))
	require.Len(t, stale, 1)
	require.Equal(t, int64(1), stale[0].Owner)
}
