//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for fc-commerce.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/pkg/version"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string
	logJSON  bool

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "fc-commerce",
		Short: "Fourth Coffee retail analytics lab toolkit",
		Long: `fc-commerce bundles the tooling of the Fourth Coffee retail analytics lab:
loading the dimensional warehouse from CSV files, streaming synthetic
point-of-sale transactions, provisioning the analytics platform and serving
the customer recommendations API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./fc-commerce.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"log JSON lines instead of console output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(warehouseCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logJSON {
		cfg.LogJSON = true
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: !cfg.LogJSON,
	})

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
