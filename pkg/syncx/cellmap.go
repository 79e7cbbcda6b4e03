package syncx

import (
	"sync"
)

// CellMap is a thread-safe map from keys to one-shot cells. It guarantees
// that the computation for a given key runs exactly once no matter how many
// goroutines ask for the key concurrently, and supports draining every
// entry in one atomic batch.
//
// The mutex guards membership only (insert, lookup, swap). It is never held
// while a computation runs or while a reader waits, so a slow key cannot
// serialize unrelated keys, and Do can never deadlock against Drain.
type CellMap[K comparable, V any] struct {
	mu    sync.Mutex
	cells map[K]*Cell[V]
}

// NewCellMap returns an empty cell map ready for use.
func NewCellMap[K comparable, V any]() *CellMap[K, V] {
	return &CellMap[K, V]{cells: make(map[K]*Cell[V])}
}

// Do returns the value for key, computing it if necessary. The first caller
// to reach an absent key becomes the owner: it inserts an empty cell under
// the lock, then runs compute outside the lock and sets the cell. Every
// other caller finds the cell and blocks on it until the owner finishes.
// Ownership is decided by the atomic check-and-insert, never by how fast
// compute runs.
//
// The second return value reports whether this caller was the owner.
//
// If compute panics, the cell is never set and all waiters for the key
// block forever; compute must not panic.
func (m *CellMap[K, V]) Do(key K, compute func() V) (V, bool) {
	m.mu.Lock()
	if c, ok := m.cells[key]; ok {
		m.mu.Unlock()
		return c.Get(), false
	}
	c := NewCell[V]()
	m.cells[key] = c
	m.mu.Unlock()

	v := compute()
	c.Set(v)
	return v, true
}

// Drain atomically removes every entry and returns the drained values. The
// backing map is swapped for a fresh one under the lock, so the removal is
// O(1) and concurrent Do calls proceed against the new map untouched. Cells
// still mid-computation at swap time are waited on: Take blocks until the
// owner sets them, then yields the value to this drain exactly once. A cell
// already consumed by an earlier drain yields nothing.
func (m *CellMap[K, V]) Drain() map[K]V {
	m.mu.Lock()
	cells := m.cells
	m.cells = make(map[K]*Cell[V])
	m.mu.Unlock()

	out := make(map[K]V, len(cells))
	for k, c := range cells {
		if v, ok := c.Take(); ok {
			out[k] = v
		}
	}
	return out
}

// Len returns the number of keys currently present, including keys whose
// computation is still in flight.
func (m *CellMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cells)
}
