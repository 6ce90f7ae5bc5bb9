package store

import "sync/atomic"

// Current holds the live [Backend], swappable without interrupting
// in-flight operations. A handle returned by [Current.Get] remains valid
// (and keeps working against the backend it was obtained from) even
// after a later [Current.Update]; Go's garbage collector keeps the old
// backend alive for as long as any handle references it, so callers
// never need their own reference counting.
type Current struct {
	backend atomic.Pointer[Backend]
}

// NewCurrent wraps initial as the live backend.
func NewCurrent(initial Backend) *Current {
	c := &Current{}
	c.backend.Store(&initial)
	return c
}

// Get returns the currently live backend.
func (c *Current) Get() Backend {
	return *c.backend.Load()
}

// Update atomically swaps in newBackend as the live backend, returning
// the backend it replaced. The caller is responsible for closing the
// returned backend once it's sure nothing still holds a handle to it.
func (c *Current) Update(newBackend Backend) Backend {
	old := c.backend.Swap(&newBackend)
	return *old
}
