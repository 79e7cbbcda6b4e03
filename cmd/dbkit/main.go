// Command dbkit is the database-kit CLI. It loads a pool configuration,
// checks connectivity through the scoped connection cache (ping), and
// renders DDL from table definitions (schema).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Mobinergy/database-kit/pkg/config"
	"github.com/Mobinergy/database-kit/pkg/connpool"
	"github.com/Mobinergy/database-kit/pkg/logger"
	"github.com/Mobinergy/database-kit/pkg/registry"
	"github.com/Mobinergy/database-kit/pkg/schema"

	// Database drivers used by the database/sql pool adapter.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var version = "0.1.0"

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:     "dbkit",
		Short:   "Pooled database connection toolkit",
		Version: version,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "dbkit.yaml", "configuration file (yaml or json)")

	root.AddCommand(pingCmd(&cfgFile))
	root.AddCommand(schemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file through viper so DBKIT_* environment
// variables can override file values.
func loadConfig(path string) (*config.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DBKIT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// pingResult is one pool's connectivity outcome.
type pingResult struct {
	Pool    string `json:"pool"`
	OK      bool   `json:"ok"`
	Elapsed string `json:"elapsed"`
	Error   string `json:"error,omitempty"`
}

func pingCmd(cfgFile *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Acquire one connection per configured pool and report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}

			if err := logger.Init(logger.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
				Encoding:    cfg.Logging.Encoding,
			}); err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Metrics.Enabled {
				go serveMetrics(cfg.Metrics.Addr)
			}

			pools := make(map[string]connpool.Pool[*sql.Conn], len(cfg.Pools))
			for name, pc := range cfg.Pools {
				pool, err := connpool.OpenSQL(pc)
				if err != nil {
					return fmt.Errorf("open pool %s: %w", name, err)
				}
				defer pool.Close()
				pools[name] = pool
			}

			scope := registry.New("dbkit-ping", pools)
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx = registry.WithScope(ctx, scope)

			results := make([]pingResult, 0, len(pools))
			failed := false
			for _, name := range scope.PoolNames() {
				start := time.Now()
				conn, err := registry.Conn[*sql.Conn](ctx, name)
				if err == nil {
					err = conn.PingContext(ctx)
				}
				res := pingResult{Pool: name, OK: err == nil, Elapsed: time.Since(start).String()}
				if err != nil {
					res.Error = err.Error()
					failed = true
				}
				results = append(results, res)
			}

			released, err := registry.ReleaseAll[*sql.Conn](ctx)
			if err != nil {
				return err
			}
			logger.Info("released cached connections", zap.Int("count", released))

			out, err := gojson.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if failed {
				return fmt.Errorf("one or more pools failed")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall ping timeout")
	return cmd
}

// tableFile is the on-disk shape consumed by `dbkit schema`.
type tableFile struct {
	Tables []schema.Table `yaml:"tables"`
}

func schemaCmd() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "schema <tables.yaml>",
		Short: "Render CREATE TABLE (or DROP TABLE) statements from a table definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file tableFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			for _, table := range file.Tables {
				if drop {
					fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", schema.DropSQL(table.Name, true))
					continue
				}
				sqlText, err := table.CreateSQL()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", sqlText)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "render DROP TABLE statements instead")
	return cmd
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
