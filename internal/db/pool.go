// Package db builds the pgx connection pool used by the registry and
// ledger stores.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notiteams/activity-api/internal/config"
)

// NewPool connects a pgx pool sized and tuned from configuration. By
// default released connections keep their session state; set
// DATABASE_POOL_RESET_SESSION=true to issue DISCARD ALL on release.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: parse database url: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DatabasePoolMinSize)
	poolCfg.MaxConns = int32(cfg.DatabasePoolMaxSize)
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "notiteams-activity-api"

	if cfg.DatabasePoolResetSession {
		poolCfg.AfterRelease = func(conn *pgx.Conn) bool {
			_, err := conn.Exec(context.Background(), "DISCARD ALL")
			return err == nil
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("db: connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping postgres: %w", err)
	}
	return pool, nil
}
