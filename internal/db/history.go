//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/pkg/version"
)

const (
	metadataTable = "fc_metadata"
	historyTable  = "fc_load_history"
)

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS fc_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

const createHistoryTableSQL = `
CREATE TABLE IF NOT EXISTS fc_load_history (
    id            BIGSERIAL PRIMARY KEY,
    table_name    TEXT NOT NULL,
    source        TEXT NOT NULL,
    rows_read     BIGINT NOT NULL,
    rows_inserted BIGINT NOT NULL,
    duplicates    BIGINT NOT NULL,
    batches       INTEGER NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL,
    tool_version  TEXT NOT NULL
)`

// LoadRecord describes one completed table load.
type LoadRecord struct {
	Table        string
	Source       string
	RowsRead     int64
	RowsInserted int64
	Duplicates   int64
	Batches      int
	StartedAt    time.Time
	Duration     time.Duration
}

// History stores bookkeeping about warehouse initialization and loads.
type History struct {
	pool *pgxpool.Pool
}

// NewHistory returns a History backed by pool.
func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// Ensure creates the bookkeeping tables if they don't exist.
func (h *History) Ensure(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	if _, err := h.pool.Exec(ctx, createHistoryTableSQL); err != nil {
		return fmt.Errorf("failed to create load history table: %w", err)
	}
	return nil
}

// SaveInit records that the warehouse schema was created.
func (h *History) SaveInit(ctx context.Context, schema, script string) error {
	if err := h.Ensure(ctx); err != nil {
		return err
	}

	metadata := map[string]string{
		"schema":         schema,
		"schema_script":  script,
		"version":        version.Short(),
		"initialized_at": time.Now().UTC().Format(time.RFC3339),
	}

	for key, value := range metadata {
		_, err := h.pool.Exec(ctx, `
            INSERT INTO fc_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("schema", schema).
		Msg("Saved metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func (h *History) GetMetadataValue(ctx context.Context, key string) (string, error) {
	var value string
	err := h.pool.QueryRow(ctx, `
        SELECT value FROM fc_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// RecordLoad appends a load record.
func (h *History) RecordLoad(ctx context.Context, rec LoadRecord) error {
	if err := h.Ensure(ctx); err != nil {
		return err
	}
	_, err := h.pool.Exec(ctx, `
        INSERT INTO fc_load_history
            (table_name, source, rows_read, rows_inserted, duplicates,
             batches, started_at, duration_ms, tool_version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, rec.Table, rec.Source, rec.RowsRead, rec.RowsInserted, rec.Duplicates,
		rec.Batches, rec.StartedAt, rec.Duration.Milliseconds(), version.Short())
	if err != nil {
		return fmt.Errorf("failed to record load of %s: %w", rec.Table, err)
	}
	return nil
}

// RecentLoads returns the latest load records, newest first.
func (h *History) RecentLoads(ctx context.Context, limit int) ([]LoadRecord, error) {
	rows, err := h.pool.Query(ctx, `
        SELECT table_name, source, rows_read, rows_inserted, duplicates,
               batches, started_at, duration_ms
        FROM fc_load_history
        ORDER BY started_at DESC, id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LoadRecord, error) {
		var rec LoadRecord
		var ms int64
		err := row.Scan(&rec.Table, &rec.Source, &rec.RowsRead, &rec.RowsInserted,
			&rec.Duplicates, &rec.Batches, &rec.StartedAt, &ms)
		rec.Duration = time.Duration(ms) * time.Millisecond
		return rec, err
	})
}

// Exists checks if the bookkeeping tables exist.
func (h *History) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := h.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, historyTable).Scan(&exists)
	return exists, err
}

// Drop removes the bookkeeping tables.
func (h *History) Drop(ctx context.Context) error {
	_, err := h.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s, %s", historyTable, metadataTable))
	return err
}
