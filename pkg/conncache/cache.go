// Package conncache provides a per-key memoizing cache for pooled database
// connections. However many callers concurrently ask for the connection
// named by a key, the pool acquisition runs exactly once and every caller
// gets the identical handle. ReleaseAll hands every cached connection back
// to the pool that produced it in one batch.
//
// A cache is bound to a scope (one request, one job, one container): build
// it at scope entry, pass it around explicitly or through a registry scope,
// and drain it at scope exit.
package conncache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Mobinergy/database-kit/pkg/connpool"
	"github.com/Mobinergy/database-kit/pkg/errors"
	"github.com/Mobinergy/database-kit/pkg/logger"
	"github.com/Mobinergy/database-kit/pkg/metrics"
	"github.com/Mobinergy/database-kit/pkg/syncx"
)

// Cache memoizes acquired connections by key. T is the connection type of
// the pools this cache fronts (for example *pgxpool.Conn or *sql.Conn), so
// callers never downcast.
//
// An entry moves through four states: absent, acquisition in flight,
// acquired, released. Each transition happens exactly once; concurrent
// readers only ever observe the acquired result.
type Cache[T any] struct {
	name      string
	entries   *syncx.CellMap[string, *entry[T]]
	logger    *zap.Logger
	collector *metrics.CacheCollector
}

// entry is the cached outcome of one acquisition: either a connection plus
// its release binding, or the error the acquisition failed with.
type entry[T any] struct {
	conn    T
	err     error
	release *releaseBinding[T]
}

// releaseBinding pairs a connection with the pool that produced it. Keeping
// the pair explicit (rather than a captured closure) makes the at-most-once
// release auditable: ownership transfers to whichever drain takes the entry.
type releaseBinding[T any] struct {
	pool connpool.Pool[T]
	conn T
}

func (b *releaseBinding[T]) invoke() {
	b.pool.Release(b.conn)
}

// New creates an empty cache. The name labels log lines and metrics.
func New[T any](name string) *Cache[T] {
	return &Cache[T]{
		name:      name,
		entries:   syncx.NewCellMap[string, *entry[T]](),
		logger:    logger.With(zap.String("component", "conncache"), zap.String("cache", name)),
		collector: metrics.NewCacheCollector(name),
	}
}

// Get returns the connection cached under key, acquiring it from pool if
// absent. The first caller for an absent key performs the acquisition;
// every concurrent caller for the same key blocks until it completes and
// receives the identical result. Callers for distinct keys never wait on
// each other.
//
// A failed acquisition is cached too: waiters and later callers replay the
// same error until ReleaseAll drains the entry, after which a fresh Get
// retries. The ctx is the owner's; cancelling a waiter's ctx does not
// cancel the owner's in-flight acquisition.
func (c *Cache[T]) Get(ctx context.Context, key string, pool connpool.Pool[T]) (T, error) {
	e, owner := c.entries.Do(key, func() *entry[T] {
		start := time.Now()
		conn, err := pool.Acquire(ctx)
		elapsed := time.Since(start)
		c.collector.ObserveAcquire(key, err, elapsed)
		if err != nil {
			c.logger.Warn("acquisition failed",
				zap.String("key", key),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			return &entry[T]{err: errors.Wrap(err, errors.ErrorTypeConnection, "acquire connection for "+key)}
		}
		c.logger.Debug("connection acquired",
			zap.String("key", key),
			zap.Duration("elapsed", elapsed))
		return &entry[T]{conn: conn, release: &releaseBinding[T]{pool: pool, conn: conn}}
	})
	if !owner {
		c.collector.ObserveCoalesced(key)
	}
	c.collector.SetCached(c.entries.Len())
	return e.conn, e.err
}

// ReleaseAll drains every entry and returns each connection to its pool,
// invoking each release binding at most once. It reports the number of
// connections released. Entries without a binding (their acquisition
// failed) are logged and counted, never escalated; the batch always runs to
// completion. A second ReleaseAll with no intervening Get releases nothing.
//
// An entry whose acquisition is still in flight is waited on, so a drain
// never races ahead of an owner. Gets issued after the drain starts hit a
// fresh map and acquire anew.
func (c *Cache[T]) ReleaseAll() int {
	drained := c.entries.Drain()

	released := 0
	for key, e := range drained {
		if e.release == nil {
			c.collector.ObserveMissingRelease()
			c.logger.Warn("drained entry has no release binding",
				zap.String("key", key),
				zap.Error(e.err))
			continue
		}
		e.release.invoke()
		released++
	}

	c.collector.ObserveReleases(released)
	c.collector.SetCached(c.entries.Len())
	if len(drained) > 0 {
		c.logger.Debug("released cached connections",
			zap.Int("drained", len(drained)),
			zap.Int("released", released))
	}
	return released
}

// Len returns the number of cached entries, counting in-flight
// acquisitions.
func (c *Cache[T]) Len() int {
	return c.entries.Len()
}

// Name returns the cache's name.
func (c *Cache[T]) Name() string {
	return c.name
}
