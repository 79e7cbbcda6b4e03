// Package syncx provides the low-level synchronization primitives behind
// database-kit's connection cache: a one-shot, set-once cell and a keyed
// cell map with exactly-once computation per key.
package syncx

import (
	"sync"
)

// Cell is a single-assignment synchronization cell. It starts empty, is
// written exactly once with Set, and blocks readers until the write
// happens. It is the building block for coalescing concurrent work: one
// goroutine Sets, any number of goroutines Get the same value.
//
// A Cell must be created with NewCell. The zero value is not usable.
type Cell[V any] struct {
	done chan struct{}

	mu    sync.Mutex
	value V
	set   bool
	taken bool
}

// NewCell returns an empty cell. Readers calling Get or Take block until
// some goroutine calls Set.
func NewCell[V any]() *Cell[V] {
	return &Cell[V]{done: make(chan struct{})}
}

// Set assigns the cell's value and wakes all current and future readers.
// Calling Set twice on the same cell is a logic bug and panics.
func (c *Cell[V]) Set(v V) {
	c.mu.Lock()
	if c.set {
		c.mu.Unlock()
		panic("syncx: Set called twice on the same Cell")
	}
	c.value = v
	c.set = true
	c.mu.Unlock()
	close(c.done)
}

// Get blocks until the cell is set, then returns the value. It may be
// called any number of times and always returns the same value.
func (c *Cell[V]) Get() V {
	<-c.done
	return c.value
}

// Take blocks until the cell is set, then yields the value to exactly one
// caller over the cell's lifetime. The first caller gets (value, true);
// every later caller gets the zero value and false. Blocking before the
// check means a drain never observes a half-finished computation.
func (c *Cell[V]) Take() (V, bool) {
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken {
		var zero V
		return zero, false
	}
	c.taken = true
	return c.value, true
}

// TryGet returns the value and true if the cell has been set, without
// blocking. Useful for introspection and tests.
func (c *Cell[V]) TryGet() (V, bool) {
	select {
	case <-c.done:
		return c.value, true
	default:
		var zero V
		return zero, false
	}
}
