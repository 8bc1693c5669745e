package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fourthcoffee/fc-commerce/internal/customers"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the customer recommendations API",
	Long: `Serve the customer directory over HTTP. Customers come from the
document store when customers.endpoint is configured and reachable, and
from the local JSON file otherwise.

Example:
  fc-commerce serve --addr :8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default: :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	svc := customers.NewService(ctx, cfg.Customers)
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Failed to close customer store")
		}
	}()

	dir := customers.NewDirectory(svc, customers.DirectoryOptions{
		RandomCount: cfg.Customers.RandomCount,
		Debounce:    cfg.Customers.SearchDebounce,
		SearchLimit: cfg.Customers.SearchLimit,
	})
	if err := dir.Load(ctx); err != nil {
		logging.Warn().Err(err).Msg("Starting with an empty customer list")
	}

	return server.New(dir, svc, cfg.Server).Run(ctx)
}
