package db

import (
	"context"
	"fmt"
	"time"

	"voucherpos/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool against the remote backend. Callers must only invoke
// this when cfg.Configured() is true; a missing backend is a supported mode,
// not an error.
func Connect(cfg config.DBConfig) (*pgxpool.Pool, func(), error) {
	dsn := cfg.BuildDSN()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MaxConnLifetime = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Reachability is probed continuously at runtime; a failed ping here is
	// not fatal because the device may simply be offline at startup.
	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}
