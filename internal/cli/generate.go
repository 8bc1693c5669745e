package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fourthcoffee/fc-commerce/internal/datagen"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

var (
	genOutDir       string
	genTransactions int
	genDays         int
	genSeed         uint64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic warehouse data",
}

var generateFactsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Write synthetic FactSales and FactSalesLineItem CSV files",
	Long: `Generate sales transactions across the lab's shops, menu items and
customers and write them as CSV files the warehouse loader understands.

Example:
  fc-commerce generate facts --out data/relational --transactions 5000 --seed 42`,
	RunE: runGenerateFacts,
}

func init() {
	generateFactsCmd.Flags().StringVar(&genOutDir, "out", "",
		"output directory (default: warehouse data_dir)")
	generateFactsCmd.Flags().IntVar(&genTransactions, "transactions", 0,
		"number of sales to generate (default: 2000)")
	generateFactsCmd.Flags().IntVar(&genDays, "days", 0,
		"days of history ending at the configured end date (default: 60)")
	generateFactsCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible output (0 = time based)")

	generateCmd.AddCommand(generateFactsCmd)
}

func runGenerateFacts(cmd *cobra.Command, args []string) error {
	factCfg := datagen.DefaultFactConfig()
	if genTransactions > 0 {
		factCfg.Transactions = genTransactions
	}
	if genDays > 0 {
		factCfg.Days = genDays
	}
	factCfg.Seed = genSeed

	outDir := genOutDir
	if outDir == "" {
		outDir = cfg.Warehouse.DataDir
	}

	sales, err := datagen.GenerateSales(factCfg)
	if err != nil {
		return err
	}
	if err := datagen.WriteFactCSVs(outDir, sales); err != nil {
		return fmt.Errorf("failed to write fact CSVs: %w", err)
	}

	logging.Info().
		Int("sales", len(sales)).
		Str("dir", outDir).
		Msg("Generated fact data")
	return nil
}
