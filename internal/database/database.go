// Package database provides PostgreSQL connection management: a pgx pool for
// the main service and a database/sql handle (lib/pq) for the stats service.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/Shivanand-hulikatti/event-participation/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const retryDelay = 2 * time.Second

// NewPool creates and validates a pgxpool connection pool.
// It retries to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.Database, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts(cfg); attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn("db connect attempt failed", "attempt", attempt, "max", attempts(cfg), "error", err)
		if !sleep(ctx, retryDelay) {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// OpenSQL opens a database/sql handle through lib/pq with the same retry policy.
func OpenSQL(ctx context.Context, cfg config.Database, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	for attempt := 1; attempt <= attempts(cfg); attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		logger.Warn("db ping attempt failed", "attempt", attempt, "max", attempts(cfg), "error", err)
		if !sleep(ctx, retryDelay) {
			break
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// Migrate applies the main service schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ddl, err := schemaFS.ReadFile("schema/main.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// MigrateStats applies the stats service schema.
func MigrateStats(ctx context.Context, db *sql.DB) error {
	ddl, err := schemaFS.ReadFile("schema/stats.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func attempts(cfg config.Database) int {
	if cfg.ConnectAttempts < 1 {
		return 1
	}
	return cfg.ConnectAttempts
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
