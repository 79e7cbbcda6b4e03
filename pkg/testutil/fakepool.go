package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// FakePool is an in-memory pool of string "connections" for exercising the
// connection cache without a database. It counts acquisitions and records
// releases, and can be told to delay or fail.
//
// It implements connpool.Pool[string].
type FakePool struct {
	// Delay is slept inside every Acquire before returning
	Delay time.Duration
	// Err, when set, makes every Acquire fail with it
	Err error

	acquires int64

	mu       sync.Mutex
	released []string
}

// Acquire returns a fresh connection ID of the form "conn-N", where N is
// the 1-based acquisition count.
func (p *FakePool) Acquire(ctx context.Context) (string, error) {
	n := atomic.AddInt64(&p.acquires, 1)
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.Err != nil {
		return "", p.Err
	}
	return fmt.Sprintf("conn-%d", n), nil
}

// Release records the returned connection.
func (p *FakePool) Release(conn string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = append(p.released, conn)
}

// Acquires returns how many times Acquire has been called.
func (p *FakePool) Acquires() int {
	return int(atomic.LoadInt64(&p.acquires))
}

// Released returns a copy of the connections released so far.
func (p *FakePool) Released() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.released))
	copy(out, p.released)
	return out
}
