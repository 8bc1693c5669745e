//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fourthcoffee/fc-commerce/internal/datagen"
	"github.com/fourthcoffee/fc-commerce/internal/db"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// DefaultBatchSize is the number of rows per INSERT.
const DefaultBatchSize = 2000

// Row validation errors.
var (
	ErrRequiredColumn   = errors.New("required column is missing or empty")
	ErrMissingDedupeKey = errors.New("dedupe key is missing")
	ErrInvalidValue     = errors.New("invalid value")
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Source opens CSV files by name. A missing file is reported with an
// error wrapping fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Location(name string) string
}

// Recorder persists the outcome of a table load.
type Recorder interface {
	RecordLoad(ctx context.Context, rec db.LoadRecord) error
}

// RowError reports a rejected CSV row.
type RowError struct {
	Table  string
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("table %s, line %d, column '%s': %v", e.Table, e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// LoadOptions tunes a single table load.
type LoadOptions struct {
	Schema    string
	BatchSize int

	// OnBatch is called after each batch with the number of rows inserted.
	OnBatch func(inserted int64)
}

// LoadResult summarizes a table load.
type LoadResult struct {
	Table             string
	Source            string
	RowsRead          int64
	RowsInserted      int64
	DuplicatesSkipped int64
	Batches           int
	Duration          time.Duration
}

// LoadTable streams CSV rows from src into the table described by spec.
// Rows are validated and converted column by column, buffered and inserted
// one batch at a time. The first invalid row aborts the load; batches that
// were already flushed stay committed.
func LoadTable(ctx context.Context, exec Execer, src io.Reader, spec TableSpec, opts LoadOptions) (*LoadResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	start := time.Now()
	result := &LoadResult{Table: spec.Name}

	reader, err := newCSVReader(src)
	if err != nil {
		return result, fmt.Errorf("table %s: %w", spec.Name, err)
	}

	if spec.DedupeKey != "" && !reader.HasHeader(spec.DedupeKey) {
		return result, fmt.Errorf("dedupe key '%s' missing in CSV for table %s: %w",
			spec.DedupeKey, spec.Name, ErrMissingDedupeKey)
	}

	insertSQL := BuildInsertSQL(spec, opts.Schema)
	rows := make([]map[string]any, 0, batchSize)

	var seen map[string]struct{}
	if spec.DedupeKey != "" {
		seen = make(map[string]struct{})
	}

	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		payload, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to serialize batch for %s: %w", spec.Name, err)
		}
		tag, err := exec.Exec(ctx, insertSQL, string(payload))
		if err != nil {
			return fmt.Errorf("failed to insert batch into %s: %w", spec.Name, err)
		}
		inserted := tag.RowsAffected()
		result.RowsInserted += inserted
		result.Batches++
		logging.Debug().
			Str("table", spec.Name).
			Int("batch", len(rows)).
			Int64("total", result.RowsInserted).
			Msg("Flushed batch")
		if opts.OnBatch != nil {
			opts.OnBatch(inserted)
		}
		rows = rows[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("table %s: %w", spec.Name, err)
		}
		result.RowsRead++

		if seen != nil {
			// A blank key is a value like any other: the first blank row is
			// validated as usual and later ones are duplicates.
			key, _ := row.Get(spec.DedupeKey)
			key = strings.ToLower(strings.TrimSpace(key))
			if _, dup := seen[key]; dup {
				result.DuplicatesSkipped++
				continue
			}
			seen[key] = struct{}{}
		}

		record, err := convertRow(spec, row)
		if err != nil {
			return result, err
		}

		rows = append(rows, record)
		if len(rows) >= batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

func convertRow(spec TableSpec, row *Row) (map[string]any, error) {
	record := make(map[string]any, len(spec.Columns))
	for _, col := range spec.Columns {
		raw, _ := row.Get(col.CSVHeader())
		if col.Required && strings.TrimSpace(raw) == "" {
			return nil, &RowError{Table: spec.Name, Line: row.LineNumber,
				Column: col.CSVHeader(), Err: ErrRequiredColumn}
		}

		if col.Convert == nil {
			record[col.JSONName()] = normalizeDefault(raw)
			continue
		}
		value, err := col.Convert(raw)
		if err != nil {
			return nil, &RowError{Table: spec.Name, Line: row.LineNumber,
				Column: col.CSVHeader(), Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
		}
		record[col.JSONName()] = value
	}
	return record, nil
}

// LoaderConfig configures a multi-table load.
type LoaderConfig struct {
	Schema           string
	BatchSize        int
	ProgressInterval int64
	Truncate         bool
}

// Loader loads tables one at a time from a Source.
type Loader struct {
	exec     Execer
	source   Source
	recorder Recorder
	cfg      LoaderConfig
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithRecorder records each completed table load.
func WithRecorder(r Recorder) LoaderOption {
	return func(l *Loader) {
		l.recorder = r
	}
}

// NewLoader creates a loader over exec reading CSVs from source.
func NewLoader(exec Execer, source Source, cfg LoaderConfig, opts ...LoaderOption) *Loader {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ProgressInterval < 1 {
		cfg.ProgressInterval = datagen.DefaultBatchConfig().ProgressInterval
	}
	l := &Loader{exec: exec, source: source, cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadTables loads specs in the given order and stops at the first error.
func (l *Loader) LoadTables(ctx context.Context, specs []TableSpec) ([]*LoadResult, error) {
	results := make([]*LoadResult, 0, len(specs))
	for _, spec := range specs {
		res, err := l.Load(ctx, spec)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Load loads a single table from its CSV file.
func (l *Loader) Load(ctx context.Context, spec TableSpec) (*LoadResult, error) {
	if spec.CSVFile == "" {
		return nil, fmt.Errorf("table %s has no source CSV file", spec.Name)
	}
	location := l.source.Location(spec.CSVFile)

	rc, err := l.source.Open(ctx, spec.CSVFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Error().
				Str("file", location).
				Msg("Required data file missing")
			return nil, fmt.Errorf("CSV file not found for %s: %w", spec.Name, err)
		}
		return nil, fmt.Errorf("failed to open CSV for %s: %w", spec.Name, err)
	}
	defer rc.Close()

	logging.Info().
		Str("table", spec.Name).
		Str("file", location).
		Msg("Beginning load")

	if l.cfg.Truncate {
		if _, err := l.exec.Exec(ctx, BuildTruncateSQL(spec, l.cfg.Schema)); err != nil {
			return nil, fmt.Errorf("failed to truncate %s: %w", spec.Name, err)
		}
	}

	started := time.Now().UTC()
	progress := datagen.NewProgressReporter(spec.Name, 0, l.cfg.ProgressInterval)

	result, err := LoadTable(ctx, l.exec, rc, spec, LoadOptions{
		Schema:    l.cfg.Schema,
		BatchSize: l.cfg.BatchSize,
		OnBatch:   progress.Update,
	})
	if err != nil {
		return result, err
	}
	result.Source = location
	progress.Done()

	if l.recorder != nil {
		rec := db.LoadRecord{
			Table:        spec.Name,
			Source:       location,
			RowsRead:     result.RowsRead,
			RowsInserted: result.RowsInserted,
			Duplicates:   result.DuplicatesSkipped,
			Batches:      result.Batches,
			StartedAt:    started,
			Duration:     result.Duration,
		}
		if err := l.recorder.RecordLoad(ctx, rec); err != nil {
			logging.Warn().
				Err(err).
				Str("table", spec.Name).
				Msg("Could not record load history")
		}
	}

	logging.Info().
		Str("table", spec.Name).
		Str("file", location).
		Int64("rows", result.RowsInserted).
		Int64("duplicates", result.DuplicatesSkipped).
		Dur("elapsed", result.Duration).
		Msg("Completed load")

	return result, nil
}
