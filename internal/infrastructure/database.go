// Package infrastructure opens the PostgreSQL pool and the River client.
//
// The notification store and River share one pgxpool. The store goes through
// a *sql.DB opened on that pool so both see the same connections.
package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/jobs"
	"tracehub.io/tracehub/internal/pkg/logger"
	"tracehub.io/tracehub/internal/repository/postgres"
)

const applicationName = "tracehub"

// ErrNotConnected is returned by Ping before the pool exists.
var ErrNotConnected = errors.New("database is not connected")

// DatabaseClients holds the shared pool and everything built on it.
type DatabaseClients struct {
	Pool *pgxpool.Pool
	// DB is Pool seen through database/sql, for the ent-based store.
	DB *sql.DB
	// RiverClient is nil until InitRiverClient.
	RiverClient *river.Client[pgx.Tx]
}

// NewDatabaseClients connects and pings. Every session runs in UTC.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	poolCfg, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database pool ready",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &DatabaseClients{Pool: pool, DB: stdlib.OpenDBFromPool(pool)}, nil
}

func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolCfg.HealthCheckPeriod = time.Minute

	params := poolCfg.ConnConfig.RuntimeParams
	params["timezone"] = "UTC"
	if params["application_name"] == "" {
		params["application_name"] = applicationName
	}
	return poolCfg, nil
}

// AutoMigrate creates the notification tables and brings the River schema
// up to date. Production applies migrations out of band.
func (c *DatabaseClients) AutoMigrate(ctx context.Context) error {
	if err := postgres.Migrate(ctx, c.DB); err != nil {
		return fmt.Errorf("migrate notification schema: %w", err)
	}

	migrator, err := rivermigrate.New(riverpgxv5.New(c.Pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("migrate river schema: %w", err)
	}
	logger.Info("migrations applied", zap.Int("river_versions", len(res.Versions)))
	return nil
}

// riverQueues sizes the queues. The mail queue gets half the notification
// workers so SMTP latency cannot starve dispatch; the default queue only
// carries the periodic activity sync and domain events.
func riverQueues(cfg config.RiverConfig) map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault:      {MaxWorkers: 1},
		jobs.QueueNotifications: {MaxWorkers: max(cfg.MaxWorkers, 1)},
		jobs.QueueMail:          {MaxWorkers: max(cfg.MaxWorkers/2, 1)},
	}
}

// InitRiverClient builds the River client around workers. It does not
// start it.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, cfg config.RiverConfig) error {
	client, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues:                      riverQueues(cfg),
		Workers:                     workers,
		ErrorHandler:                jobs.ErrorHandler{},
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = client
	return nil
}

// Ping reports whether the database is reachable.
func (c *DatabaseClients) Ping(ctx context.Context) error {
	if c == nil || c.Pool == nil {
		return ErrNotConnected
	}
	return c.Pool.Ping(ctx)
}

// Close closes the sql.DB wrapper and then the pool.
func (c *DatabaseClients) Close() {
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
