package broadcast

import "time"

// Clock abstracts the wall clock so due-time comparisons can be driven by a
// fake in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
