// Package db provides warehouse connection management and load bookkeeping
// for fc-commerce.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/pkg/version"
)

// Pool settings. The loader inserts one batch at a time, so a handful of
// connections is plenty.
const (
	maxConns          = 4
	minConns          = 1
	maxConnLifetime   = 30 * time.Minute
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
)

// ParsePoolConfig parses connString and applies the warehouse pool
// settings. The session is tagged with the tool's name so loads can be
// spotted in pg_stat_activity.
func ParsePoolConfig(connString string) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pc.MaxConns = maxConns
	pc.MinConns = minConns
	pc.MaxConnLifetime = maxConnLifetime
	pc.MaxConnIdleTime = maxConnIdleTime
	pc.HealthCheckPeriod = healthCheckPeriod

	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = version.UserAgent()
	}
	return pc, nil
}

// Describe returns host:port/database for logs, without credentials.
func Describe(pc *pgxpool.Config) string {
	cc := pc.ConnConfig
	return fmt.Sprintf("%s:%d/%s", cc.Host, cc.Port, cc.Database)
}

// Connect opens and pings a connection pool to the warehouse.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pc, err := ParsePoolConfig(connString)
	if err != nil {
		return nil, err
	}
	target := Describe(pc)

	logging.Debug().
		Str("target", target).
		Msg("Connecting to warehouse")

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool for %s: %w", target, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach warehouse at %s: %w", target, err)
	}

	logging.Info().
		Str("target", target).
		Msg("Connected to warehouse")

	return pool, nil
}
