//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the warehouse loader.
// Run with: go test -tags=integration ./internal/warehouse/...
// Requires PostgreSQL to be available.
// Set FC_TEST_CONN environment variable to override connection string.

package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/fourthcoffee/fc-commerce/internal/db"
	"github.com/fourthcoffee/fc-commerce/internal/storage"
	"github.com/fourthcoffee/fc-commerce/internal/testutil"
	"github.com/fourthcoffee/fc-commerce/internal/warehouse"
)

const (
	schemaScript = "../../sql/create-data-warehouse.sql"
	sampleData   = "../../data/relational"
)

func TestLoadSampleWarehouse(t *testing.T) {
	pool := testutil.NewTestDB(t, "warehouse")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := warehouse.ExecScript(ctx, pool, schemaScript); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	history := db.NewHistory(pool)
	loader := warehouse.NewLoader(pool, storage.NewDirSource(sampleData),
		warehouse.LoaderConfig{Schema: "dbo", BatchSize: 7},
		warehouse.WithRecorder(history))

	results, err := loader.LoadTables(ctx, warehouse.All())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(results) != len(warehouse.All()) {
		t.Fatalf("Expected %d results, got %d", len(warehouse.All()), len(results))
	}

	for _, res := range results {
		var count int64
		err := pool.QueryRow(ctx, "SELECT count(*) FROM dbo."+res.Table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to count %s: %v", res.Table, err)
		}
		if count != res.RowsInserted {
			t.Errorf("%s: expected %d rows in table, got %d", res.Table, res.RowsInserted, count)
		}
		if res.RowsRead != res.RowsInserted+res.DuplicatesSkipped {
			t.Errorf("%s: read %d rows but inserted %d and skipped %d",
				res.Table, res.RowsRead, res.RowsInserted, res.DuplicatesSkipped)
		}
	}

	loads, err := history.RecentLoads(ctx, 100)
	if err != nil {
		t.Fatalf("Failed to read load history: %v", err)
	}
	if len(loads) != len(results) {
		t.Errorf("Expected %d history records, got %d", len(results), len(loads))
	}
}

func TestReloadWithTruncate(t *testing.T) {
	pool := testutil.NewTestDB(t, "warehouse_reload")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := warehouse.ExecScript(ctx, pool, schemaScript); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	spec, err := warehouse.Get("FactSales")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	loader := warehouse.NewLoader(pool, storage.NewDirSource(sampleData),
		warehouse.LoaderConfig{Schema: "dbo", Truncate: true})

	first, err := loader.Load(ctx, spec)
	if err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	second, err := loader.Load(ctx, spec)
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if first.RowsInserted != second.RowsInserted {
		t.Errorf("Expected reload to insert %d rows, got %d", first.RowsInserted, second.RowsInserted)
	}

	var count int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM dbo.FactSales").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != second.RowsInserted {
		t.Errorf("Expected %d rows after reload, got %d", second.RowsInserted, count)
	}
}
