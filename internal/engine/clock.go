package engine

import "sync/atomic"

// Clock numbers the events an engine handles: the first event is 1 and
// every later one is one higher, whichever path (Handle or Run) took it.
// Log lines and harness traces carry the number to tie output to its event.
//
// The zero value is ready for use and may be shared between goroutines.
type Clock struct {
	handled atomic.Int64
}

// Next claims the number of the next event.
func (c *Clock) Next() int64 {
	return c.handled.Add(1)
}

// Current is the number of the last event handled, 0 before the first.
func (c *Clock) Current() int64 {
	return c.handled.Load()
}
