// Package database owns the Postgres connection pool and ties its startup
// check and shutdown to the lifecycle coordinator.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/nexliaai/corretor/pkg/lifecycle"
)

// ApplicationName is reported to Postgres for every pooled connection.
const ApplicationName = "corretor"

const (
	startupAttempts = 5
	startupBackoff  = time.Second
)

// ErrNotReady indicates the database cannot be reached.
var ErrNotReady = errors.New("database not ready")

type System interface {
	// Connection returns the shared pool.
	Connection() *sql.DB
	// Start registers a startup connectivity check and a shutdown close.
	Start(lc *lifecycle.Coordinator) error
	// Ping checks connectivity within the configured timeout. Failures wrap
	// ErrNotReady.
	Ping(ctx context.Context) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
}

// New parses cfg into a pgx connection config and opens a pool through the
// pgx stdlib adapter. No connection is made until first use.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	connCfg, err := pgx.ParseConfig(cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	connCfg.RuntimeParams["application_name"] = ApplicationName
	connCfg.ConnectTimeout = cfg.ConnTimeoutDuration()

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database", "host", cfg.Host, "name", cfg.Name),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

// Start checks connectivity during startup, retrying with doubling backoff
// while Postgres comes up. A database that never answers is logged, not
// fatal; readiness probes keep reporting it.
func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		ctx := lc.Context()
		wait := startupBackoff

		for attempt := 1; ; attempt++ {
			err := d.Ping(ctx)
			if err == nil {
				d.logger.Info("database connection established", "attempt", attempt)
				return
			}
			if attempt == startupAttempts {
				d.logger.Error("database unreachable", "attempts", attempt, "error", err)
				return
			}
			d.logger.Warn("database ping failed, retrying", "attempt", attempt, "retry_in", wait, "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				wait *= 2
			}
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		stats := d.conn.Stats()
		d.logger.Info("closing database pool", "open", stats.OpenConnections, "in_use", stats.InUse, "wait_count", stats.WaitCount)

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
		}
	})

	return nil
}
