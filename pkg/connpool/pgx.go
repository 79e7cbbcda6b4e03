package connpool

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mobinergy/database-kit/pkg/errors"
)

// PgxPool adapts a pgx connection pool to the Pool interface. Acquired
// connections are *pgxpool.Conn; Release hands them back to pgx.
type PgxPool struct {
	pool *pgxpool.Pool
}

var _ Pool[*pgxpool.Conn] = (*PgxPool)(nil)

// NewPgxPool wraps an existing pgx pool.
func NewPgxPool(pool *pgxpool.Pool) *PgxPool {
	return &PgxPool{pool: pool}
}

// OpenPgx creates a pgx pool from a DSN and wraps it. The context bounds
// pool construction only, not later acquisitions.
func OpenPgx(ctx context.Context, dsn string) (*PgxPool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "create pgx pool")
	}
	return &PgxPool{pool: pool}, nil
}

// Acquire checks a connection out of the pgx pool.
func (p *PgxPool) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "acquire pgx connection")
	}
	return conn, nil
}

// Release hands the connection back to the pgx pool.
func (p *PgxPool) Release(conn *pgxpool.Conn) {
	conn.Release()
}

// Close closes the underlying pgx pool. Connections still checked out are
// closed when released.
func (p *PgxPool) Close() {
	p.pool.Close()
}
