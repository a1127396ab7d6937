package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahrav/datasentry/pkg/common/logger"
)

// PoolConfig bounds the connection pool created by ConnectWithRetry.
type PoolConfig struct {
	DSN      string
	MinConns int32
	MaxConns int32
}

// ConnectWithRetry establishes a pgx pool with exponential backoff. It
// retries failed attempts for up to 5 minutes, starting with 5 second
// intervals, to ride out database unavailability during startup.
func ConnectWithRetry(ctx context.Context, cfg PoolConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	var pool *pgxpool.Pool

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 5 * time.Minute
	expBackoff.InitialInterval = 5 * time.Second

	operation := func() error {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			log.Warn(ctx, "database not ready, retrying", "err", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}

	return pool, nil
}
