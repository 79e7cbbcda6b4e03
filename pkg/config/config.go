// Package config provides the unified configuration system for database-kit.
// It defines a single Config structure shared by the library and the CLI,
// organized into logical sections:
//   - Pools: named pool definitions (driver, DSN, sizing, timeouts)
//   - Logging: level, encoding, development mode
//   - Metrics: Prometheus exposition
//
// Example usage:
//
//	cfg, err := config.Load("dbkit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"time"

	"github.com/Mobinergy/database-kit/pkg/errors"
)

// Supported pool drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config is the top-level configuration structure.
type Config struct {
	// Pools maps a logical database name to its pool definition. The map
	// key is the key callers pass when requesting a connection.
	Pools map[string]PoolConfig `yaml:"pools" json:"pools" mapstructure:"pools"`

	// Logging configures structured logging
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Metrics configures Prometheus exposition
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// PoolConfig defines one named connection pool.
type PoolConfig struct {
	// Driver selects the database driver (postgres, mysql)
	Driver string `yaml:"driver" json:"driver" mapstructure:"driver"`
	// DSN is the driver-specific connection string
	DSN string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	// MaxOpenConns caps the pool's open connections; 0 means unlimited
	MaxOpenConns int `yaml:"max_open_conns" json:"max_open_conns" mapstructure:"max_open_conns"`
	// MaxIdleConns caps the pool's idle connections
	MaxIdleConns int `yaml:"max_idle_conns" json:"max_idle_conns" mapstructure:"max_idle_conns"`
	// ConnMaxLifetime bounds how long a connection may be reused
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	// AcquireTimeout bounds a single acquisition attempt; 0 disables it
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout" mapstructure:"acquire_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level" mapstructure:"level"`
	// Encoding is json or console
	Encoding string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	// Development enables colored, stack-heavy output
	Development bool `yaml:"development" json:"development" mapstructure:"development"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	// Enabled turns the /metrics endpoint on
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// Addr is the listen address for the metrics server
	Addr string `yaml:"addr" json:"addr" mapstructure:"addr"`
}

// New returns a Config populated with defaults and no pools.
func New() *Config {
	cfg := &Config{Pools: make(map[string]PoolConfig)}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Pools == nil {
		c.Pools = make(map[string]PoolConfig)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	for name, pool := range c.Pools {
		if pool.MaxIdleConns == 0 {
			pool.MaxIdleConns = 2
		}
		if pool.ConnMaxLifetime == 0 {
			pool.ConnMaxLifetime = 30 * time.Minute
		}
		c.Pools[name] = pool
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for name, pool := range c.Pools {
		if err := pool.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "pool "+name)
		}
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown log encoding %q", c.Logging.Encoding)
	}
	return nil
}

// Validate checks a single pool definition.
func (p PoolConfig) Validate() error {
	switch p.Driver {
	case DriverPostgres, DriverMySQL:
	case "":
		return errors.New(errors.ErrorTypeConfig, "driver is required")
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown driver %q", p.Driver)
	}
	if p.DSN == "" {
		return errors.New(errors.ErrorTypeConfig, "dsn is required")
	}
	if p.MaxOpenConns < 0 || p.MaxIdleConns < 0 {
		return errors.New(errors.ErrorTypeConfig, "connection limits must be non-negative")
	}
	return nil
}
