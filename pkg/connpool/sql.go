package connpool

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Mobinergy/database-kit/pkg/config"
	"github.com/Mobinergy/database-kit/pkg/errors"
	"github.com/Mobinergy/database-kit/pkg/logger"
)

// driverNames maps config driver identifiers to registered database/sql
// driver names. The pgx stdlib driver and the mysql driver register
// themselves on import; the CLI imports both.
var driverNames = map[string]string{
	config.DriverPostgres: "pgx",
	config.DriverMySQL:    "mysql",
}

// SQLPool adapts a database/sql DB to the Pool interface. Acquire checks a
// dedicated *sql.Conn out of the DB's pool; Release closes it, which hands
// the underlying connection back.
type SQLPool struct {
	db             *sql.DB
	acquireTimeout time.Duration
	logger         *zap.Logger
}

var _ Pool[*sql.Conn] = (*SQLPool)(nil)

// NewSQLPool wraps an existing DB. acquireTimeout bounds each Acquire call;
// zero disables the bound.
func NewSQLPool(db *sql.DB, acquireTimeout time.Duration) *SQLPool {
	return &SQLPool{
		db:             db,
		acquireTimeout: acquireTimeout,
		logger:         logger.With(zap.String("component", "sql_pool")),
	}
}

// OpenSQL opens a database/sql pool from a pool definition and applies its
// sizing limits. The DSN is not dialed until the first acquisition.
func OpenSQL(cfg config.PoolConfig) (*SQLPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverNames[cfg.Driver], cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return NewSQLPool(db, cfg.AcquireTimeout), nil
}

// Acquire checks a dedicated connection out of the pool.
func (p *SQLPool) Acquire(ctx context.Context) (*sql.Conn, error) {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "acquire connection")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "acquire connection")
	}
	return conn, nil
}

// Release returns the connection to the pool.
func (p *SQLPool) Release(conn *sql.Conn) {
	if err := conn.Close(); err != nil {
		p.logger.Warn("failed to return connection to pool", zap.Error(err))
	}
}

// Close closes the underlying DB and all its idle connections.
func (p *SQLPool) Close() error {
	return p.db.Close()
}
