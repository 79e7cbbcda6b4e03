// Package databasekit provides a toolkit for managing pooled database
// connections across request and job scopes.
//
// The core problem it solves is deduplication: when many goroutines inside
// one scope ask for the connection to the same logical database, exactly
// one pool acquisition happens and every caller receives the identical
// handle. When the scope ends, every cached connection goes back to the
// pool that produced it in one batch.
//
// # Architecture
//
// The kit is layered, leaf to root:
//
//   - syncx: a one-shot, set-once cell and a keyed cell map with
//     exactly-once computation per key and atomic drain-all.
//   - conncache: a scope-bound cache that turns "compute once per key"
//     into "acquire from a pool once per key", plus batch release.
//   - connpool: the two-method pool surface (Acquire/Release) and
//     adapters for pgx pools and database/sql.
//   - registry: explicit scopes binding named pools to a cache, carried
//     through context.Context.
//
// Supporting packages cover configuration (config), DDL statement
// rendering (schema), structured logging (logger), Prometheus metrics
// (metrics), and error handling (errors).
//
// # Quick Start
//
//	pool, err := connpool.OpenSQL(cfg.Pools["primary"])
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	scope := registry.New("req-42", map[string]connpool.Pool[*sql.Conn]{
//	    "primary": pool,
//	})
//	ctx = registry.WithScope(ctx, scope)
//	defer registry.ReleaseAll[*sql.Conn](ctx)
//
//	conn, err := registry.Conn[*sql.Conn](ctx, "primary")
//
// However many goroutines run that last line concurrently, the pool sees
// one Acquire, and they all get the same *sql.Conn.
package databasekit
