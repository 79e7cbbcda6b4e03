// Package registry wires named pools to a scope-bound connection cache and
// exposes the public request surface: ask for a connection by logical
// database name, release everything when the scope ends.
//
// A Scope is built explicitly at scope entry (one per request, job, or
// container) and carried through context.Context. There is no process-wide
// registry: when the scope is gone, so is its cache.
//
//	scope := registry.New("req-42", map[string]connpool.Pool[*sql.Conn]{
//	    "primary":   primaryPool,
//	    "reporting": reportingPool,
//	})
//	ctx = registry.WithScope(ctx, scope)
//	defer registry.ReleaseAll[*sql.Conn](ctx)
//
//	conn, err := registry.Conn[*sql.Conn](ctx, "primary")
package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Mobinergy/database-kit/pkg/conncache"
	"github.com/Mobinergy/database-kit/pkg/connpool"
	"github.com/Mobinergy/database-kit/pkg/errors"
	"github.com/Mobinergy/database-kit/pkg/logger"
)

// Scope binds a set of named pools to one connection cache. All pools in a
// scope share the connection type T, so lookups stay statically typed.
type Scope[T any] struct {
	id     string
	cache  *conncache.Cache[T]
	logger *zap.Logger

	mu    sync.RWMutex
	pools map[string]connpool.Pool[T]
}

// New creates a scope over the given pools. The id labels logs and metrics;
// the pools map is copied.
func New[T any](id string, pools map[string]connpool.Pool[T]) *Scope[T] {
	s := &Scope[T]{
		id:     id,
		cache:  conncache.New[T](id),
		logger: logger.With(zap.String("component", "registry"), zap.String("scope_id", id)),
		pools:  make(map[string]connpool.Pool[T], len(pools)),
	}
	for name, pool := range pools {
		s.pools[name] = pool
	}
	return s
}

// ID returns the scope's identifier.
func (s *Scope[T]) ID() string {
	return s.id
}

// RegisterPool adds a named pool to the scope. Registering a name twice is
// a conflict.
func (s *Scope[T]) RegisterPool(name string, pool connpool.Pool[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[name]; exists {
		return errors.Newf(errors.ErrorTypeConflict, "pool %q already registered", name)
	}
	s.pools[name] = pool
	s.logger.Info("pool registered", zap.String("pool", name))
	return nil
}

// Pool looks up a registered pool by name.
func (s *Scope[T]) Pool(name string) (connpool.Pool[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[name]
	return pool, ok
}

// PoolNames returns the names of all registered pools.
func (s *Scope[T]) PoolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.pools))
	for name := range s.pools {
		names = append(names, name)
	}
	return names
}

// Conn returns the scope's cached connection for key, acquiring it from the
// key's pool on first use. Concurrent calls for the same key coalesce into
// one acquisition. An unregistered key fails with a not-found error on the
// same result path acquisition errors use.
func (s *Scope[T]) Conn(ctx context.Context, key string) (T, error) {
	pool, ok := s.Pool(key)
	if !ok {
		var zero T
		return zero, errors.Newf(errors.ErrorTypeNotFound, "no pool registered for key %q", key)
	}
	return s.cache.Get(ctx, key, pool)
}

// ReleaseAll drains the scope's cache and returns every connection to its
// pool. It reports how many connections were released.
func (s *Scope[T]) ReleaseAll() int {
	return s.cache.ReleaseAll()
}

// Cache exposes the scope's cache, mainly for instrumentation.
func (s *Scope[T]) Cache() *conncache.Cache[T] {
	return s.cache
}

// scopeKey is the context key for a Scope[T]. Each connection type gets its
// own key, so scopes of different types can coexist in one context.
type scopeKey[T any] struct{}

// WithScope attaches the scope to the context. The scope id also becomes
// the logger's scope_id field for anything using logger.WithContext.
func WithScope[T any](ctx context.Context, s *Scope[T]) context.Context {
	ctx = context.WithValue(ctx, scopeKey[T]{}, s)
	return context.WithValue(ctx, logger.ScopeIDKey, s.id)
}

// FromContext retrieves the scope of type T from the context.
func FromContext[T any](ctx context.Context) (*Scope[T], bool) {
	s, ok := ctx.Value(scopeKey[T]{}).(*Scope[T])
	return s, ok
}

// Conn resolves the context's scope and requests a connection by key. A
// context without a scope fails with a not-found error before any
// acquisition work happens.
func Conn[T any](ctx context.Context, key string) (T, error) {
	s, ok := FromContext[T](ctx)
	if !ok {
		var zero T
		return zero, errors.New(errors.ErrorTypeNotFound, "no connection scope in context")
	}
	return s.Conn(ctx, key)
}

// ReleaseAll resolves the context's scope and releases every cached
// connection, reporting how many were released. A context without a scope
// fails immediately.
func ReleaseAll[T any](ctx context.Context) (int, error) {
	s, ok := FromContext[T](ctx)
	if !ok {
		return 0, errors.New(errors.ErrorTypeNotFound, "no connection scope in context")
	}
	return s.ReleaseAll(), nil
}
