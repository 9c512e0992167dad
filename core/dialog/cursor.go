package dialog

// Cursor pages through a frozen ordered snapshot of result references in
// fixed-size batches. Ordering is decided once at creation time and never
// recomputed; repeated Advance calls never re-emit an item.
type Cursor struct {
	Items  []string
	Offset int
	Batch  int
}

// NewCursor builds a cursor over the given ordered items. A non-positive
// batch size defaults to 1.
func NewCursor(items []string, batch int) *Cursor {
	if batch <= 0 {
		batch = 1
	}
	return &Cursor{Items: items, Batch: batch}
}

// Advance returns up to Batch unseen items and moves the offset past them.
// Once every item has been emitted it returns an empty batch with
// exhausted=true; calling it again stays exhausted.
func (c *Cursor) Advance() (batch []string, exhausted bool) {
	if c.Offset >= len(c.Items) {
		return nil, true
	}
	end := c.Offset + c.Batch
	if end > len(c.Items) {
		end = len(c.Items)
	}
	batch = c.Items[c.Offset:end]
	c.Offset = end
	return batch, false
}

// Exhausted reports whether every item has already been emitted.
func (c *Cursor) Exhausted() bool {
	return c.Offset >= len(c.Items)
}

// Remaining returns the number of items not yet emitted.
func (c *Cursor) Remaining() int {
	if c.Offset >= len(c.Items) {
		return 0
	}
	return len(c.Items) - c.Offset
}
