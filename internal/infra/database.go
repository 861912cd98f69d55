package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/editionmint/internal/ledger"
)

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// OpenLedger returns the account store for url. With a database url the
// schema is migrated and a Postgres ledger is returned along with its pool;
// otherwise accounts live in memory and the pool is nil.
func OpenLedger(ctx context.Context, url string, logger *slog.Logger) (ledger.Ledger, *pgxpool.Pool, error) {
	if url == "" {
		logger.Warn("DATABASE_URL not set, accounts are kept in memory")
		return ledger.NewInMemory(), nil, nil
	}
	if err := ledger.MigrateUp(url); err != nil {
		return nil, nil, fmt.Errorf("migrate ledger: %w", err)
	}
	pool, err := NewPostgresPool(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return ledger.NewPostgresLedger(pool), pool, nil
}
