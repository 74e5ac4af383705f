package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Pool is an alias for pgxpool.Pool
type Pool = pgxpool.Pool

// NewPool parses databaseURL and creates a pool. It does not connect;
// pgxpool dials lazily on first use.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] invalid DATABASE_URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to create pool: %w", err)
	}
	return pool, nil
}

// NewLifecyclePool creates a pool that is pinged when the fx app starts and
// closed when it stops. A failed ping aborts startup.
func NewLifecyclePool(lc fx.Lifecycle, logger *zap.Logger, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	pool, err := NewPool(context.Background(), databaseURL, maxConns)
	if err != nil {
		return nil, err
	}

	dbLogger := logger.With(zap.String("database", redactURL(databaseURL)))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				dbLogger.Error("postgres ping failed", zap.Error(err))
				return fmt.Errorf("[DATABASE] cannot reach postgres (check DATABASE_URL and that the server accepts connections): %w", err)
			}
			dbLogger.Info("postgres pool ready", zap.Int32("max_conns", pool.Config().MaxConns))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pool.Close()
			dbLogger.Info("postgres pool closed")
			return nil
		},
	})

	return pool, nil
}

// redactURL hides the password of a postgres URL for logging
func redactURL(raw string) string {
	if raw == "" {
		return "<empty>"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
