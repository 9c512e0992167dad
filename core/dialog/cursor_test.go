package dialog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorBatches(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c", "d", "e"}, 2)

	batch, exhausted := c.Advance()
	require.False(t, exhausted)
	require.Equal(t, []string{"a", "b"}, batch)
	require.Equal(t, 3, c.Remaining())

	batch, exhausted = c.Advance()
	require.False(t, exhausted)
	require.Equal(t, []string{"c", "d"}, batch)

	// Last batch is short, never re-emits earlier items.
	batch, exhausted = c.Advance()
	require.False(t, exhausted)
	require.Equal(t, []string{"e"}, batch)
	require.True(t, c.Exhausted())

	batch, exhausted = c.Advance()
	require.True(t, exhausted)
	require.Empty(t, batch)

	// Exhaustion is sticky.
	_, exhausted = c.Advance()
	require.True(t, exhausted)
}

func TestCursorPresetOffset(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c", "d"}, 3)
	c.Offset = 2

	batch, exhausted := c.Advance()
	require.False(t, exhausted)
	require.Equal(t, []string{"c", "d"}, batch)
	require.True(t, c.Exhausted())
}

func TestCursorDefaults(t *testing.T) {
	c := NewCursor(nil, 0)
	require.Equal(t, 1, c.Batch)
	require.True(t, c.Exhausted())
	require.Zero(t, c.Remaining())

	_, exhausted := c.Advance()
	require.True(t, exhausted)
}
