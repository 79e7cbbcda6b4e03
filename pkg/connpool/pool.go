// Package connpool defines the pool surface consumed by the connection
// cache and provides adapters over the drivers database-kit supports:
// pgx native pools and anything reachable through database/sql.
//
// A pool only has to do two things: hand out a connection and take one
// back. Everything else (sizing, health, reconnects) stays inside the
// adapter or the underlying driver.
package connpool

import (
	"context"
)

// Pool hands out connections of type T and takes them back. Acquire blocks
// until a connection is available, the context is done, or the attempt
// fails. Release returns a connection obtained from the same pool; it must
// be called at most once per acquired connection.
type Pool[T any] interface {
	Acquire(ctx context.Context) (T, error)
	Release(conn T)
}

// Func adapts a pair of functions to the Pool interface. Handy for tests
// and for wrapping pools that live elsewhere.
type Func[T any] struct {
	AcquireFunc func(ctx context.Context) (T, error)
	ReleaseFunc func(conn T)
}

// Acquire calls AcquireFunc.
func (f Func[T]) Acquire(ctx context.Context) (T, error) {
	return f.AcquireFunc(ctx)
}

// Release calls ReleaseFunc if set.
func (f Func[T]) Release(conn T) {
	if f.ReleaseFunc != nil {
		f.ReleaseFunc(conn)
	}
}
