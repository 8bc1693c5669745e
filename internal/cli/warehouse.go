package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fourthcoffee/fc-commerce/internal/db"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/storage"
	"github.com/fourthcoffee/fc-commerce/internal/warehouse"
)

var (
	whConnection   string
	whSchema       string
	whDataDir      string
	whScript       string
	whTables       []string
	whBatchSize    int
	whTruncate     bool
	whDropExisting bool
	whHistoryLimit int
)

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Create and load the dimensional warehouse",
}

var warehouseInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the warehouse schema from the DDL script",
	Long: `Execute the warehouse DDL script against the warehouse database and
record the initialization in the bookkeeping table.

Example:
  fc-commerce warehouse init --connection "postgres://..." --drop-existing`,
	RunE: runWarehouseInit,
}

var warehouseLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk load dimension and fact tables from CSV files",
	Long: `Read each table's CSV file, convert every column to its warehouse type
and insert rows in JSON batches. Rows missing a required column are
rejected; rows repeating a dedupe key are skipped.

The data directory may be local or an s3:// URI.

Example:
  fc-commerce warehouse load --data-dir data/relational
  fc-commerce warehouse load --table DimShop --table FactSales --truncate
  fc-commerce warehouse load --data-dir s3://fc-lab/relational`,
	RunE: runWarehouseLoad,
}

var warehouseTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables the loader knows about",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Warehouse tables (load order):")
		cmd.Println()
		for _, spec := range warehouse.All() {
			key := ""
			if spec.DedupeKey != "" {
				key = fmt.Sprintf(" [dedupe: %s]", spec.DedupeKey)
			}
			cmd.Printf("  %-20s %-24s %s%s\n", spec.Name, spec.CSVFile, spec.Description, key)
		}
	},
}

var warehouseHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent table loads",
	RunE:  runWarehouseHistory,
}

func init() {
	for _, c := range []*cobra.Command{warehouseInitCmd, warehouseLoadCmd, warehouseHistoryCmd} {
		c.Flags().StringVar(&whConnection, "connection", "",
			"warehouse PostgreSQL connection string")
		c.Flags().StringVar(&whSchema, "schema", "",
			"warehouse schema (default: dbo)")
	}

	warehouseInitCmd.Flags().StringVar(&whScript, "script", "",
		"DDL script to execute (default: sql/create-data-warehouse.sql)")
	warehouseInitCmd.Flags().BoolVar(&whDropExisting, "drop-existing", false,
		"drop the warehouse schema before creating it")

	warehouseLoadCmd.Flags().StringVar(&whDataDir, "data-dir", "",
		"directory or s3:// URI holding the CSV files")
	warehouseLoadCmd.Flags().StringSliceVar(&whTables, "table", nil,
		"table to load (repeatable; default: all)")
	warehouseLoadCmd.Flags().IntVar(&whBatchSize, "batch-size", 0,
		"rows per insert batch")
	warehouseLoadCmd.Flags().BoolVar(&whTruncate, "truncate", false,
		"truncate each table before loading it")

	warehouseHistoryCmd.Flags().IntVar(&whHistoryLimit, "limit", 20,
		"number of loads to show")

	warehouseCmd.AddCommand(warehouseInitCmd)
	warehouseCmd.AddCommand(warehouseLoadCmd)
	warehouseCmd.AddCommand(warehouseTablesCmd)
	warehouseCmd.AddCommand(warehouseHistoryCmd)
}

func applyWarehouseFlags() error {
	if whConnection != "" {
		cfg.Warehouse.Connection = whConnection
	}
	if whSchema != "" {
		cfg.Warehouse.Schema = whSchema
	}
	if whScript != "" {
		cfg.Warehouse.SchemaScript = whScript
	}
	if whDataDir != "" {
		cfg.Warehouse.DataDir = whDataDir
	}
	if len(whTables) > 0 {
		cfg.Warehouse.Tables = whTables
	}
	if whBatchSize > 0 {
		cfg.Warehouse.BatchSize = whBatchSize
	}
	if whTruncate {
		cfg.Warehouse.Truncate = true
	}
	return cfg.ValidateWarehouse()
}

func runWarehouseInit(cmd *cobra.Command, args []string) error {
	if err := applyWarehouseFlags(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Warehouse.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	history := db.NewHistory(pool)

	if whDropExisting {
		logging.Warn().
			Str("schema", cfg.Warehouse.Schema).
			Msg("Dropping existing schema")
		if err := warehouse.DropSchema(ctx, pool, cfg.Warehouse.Schema); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := history.Drop(ctx); err != nil {
			logging.Debug().Err(err).Msg("No bookkeeping tables to drop")
		}
	}

	logging.Info().
		Str("script", cfg.Warehouse.SchemaScript).
		Msg("Creating warehouse schema")
	if err := warehouse.ExecScript(ctx, pool, cfg.Warehouse.SchemaScript); err != nil {
		return err
	}

	if err := history.SaveInit(ctx, cfg.Warehouse.Schema, cfg.Warehouse.SchemaScript); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Str("schema", cfg.Warehouse.Schema).
		Msg("Warehouse initialization complete")
	return nil
}

func runWarehouseLoad(cmd *cobra.Command, args []string) error {
	if err := applyWarehouseFlags(); err != nil {
		return err
	}

	specs, err := warehouse.Select(cfg.Warehouse.Tables)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	source, err := storage.New(ctx, cfg.Warehouse.DataDir, cfg.Storage)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.Warehouse.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	loader := warehouse.NewLoader(pool, source, warehouse.LoaderConfig{
		Schema:           cfg.Warehouse.Schema,
		BatchSize:        cfg.Warehouse.BatchSize,
		ProgressInterval: cfg.Warehouse.ProgressInterval,
		Truncate:         cfg.Warehouse.Truncate,
	}, warehouse.WithRecorder(db.NewHistory(pool)))

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	logging.Info().
		Str("data_dir", cfg.Warehouse.DataDir).
		Str("tables", strings.Join(names, ",")).
		Msg("Starting warehouse load")

	results, err := loader.LoadTables(ctx, specs)

	var inserted, dupes int64
	for _, r := range results {
		inserted += r.RowsInserted
		dupes += r.DuplicatesSkipped
	}
	if err != nil {
		return fmt.Errorf("warehouse load stopped after %d of %d tables: %w", len(results), len(specs), err)
	}

	logging.Info().
		Int("tables", len(results)).
		Int64("rows_inserted", inserted).
		Int64("duplicates_skipped", dupes).
		Msg("Warehouse load complete")
	return nil
}

func runWarehouseHistory(cmd *cobra.Command, args []string) error {
	if err := applyWarehouseFlags(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Warehouse.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	history := db.NewHistory(pool)
	exists, err := history.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		cmd.Println("No loads recorded; run 'fc-commerce warehouse init' first.")
		return nil
	}

	if initialized, err := history.GetMetadataValue(ctx, "initialized_at"); err == nil {
		cmd.Printf("Warehouse initialized at %s\n\n", initialized)
	}

	loads, err := history.RecentLoads(ctx, whHistoryLimit)
	if err != nil {
		return err
	}
	for _, l := range loads {
		cmd.Printf("%s  %-20s %8d rows  %6d dupes  %s\n",
			l.StartedAt.Format("2006-01-02 15:04:05"), l.Table, l.RowsInserted, l.Duplicates, l.Duration)
	}
	return nil
}
