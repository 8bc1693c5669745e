package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fourthcoffee/fc-commerce/internal/eventsink"
	"github.com/fourthcoffee/fc-commerce/internal/fabric"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/pos"
	"github.com/fourthcoffee/fc-commerce/internal/traffic"
)

var (
	streamSink        string
	streamInterval    time.Duration
	streamBatchSize   int
	streamMaxEvents   int64
	streamSeed        uint64
	streamDeviceID    string
	streamProfile     string
	streamShowSecrets bool
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream point-of-sale transactions",
}

var streamRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Send POS transactions to the event stream",
	Long: `Replay the predefined transactions once, in order, and then send
random transactions built from the customer, shop and menu reference data.
A batch is sent every interval until interrupted with Ctrl+C or until
--max-events transactions have been sent.

Sinks:
  console - one JSON document per line on stdout (default)
  file    - JSON lines appended to a file
  kafka   - Kafka topic or Event Hubs-compatible endpoint
  amqp    - AMQP exchange

Example:
  fc-commerce stream run --sink kafka --interval 3s
  fc-commerce stream run --max-events 100 --seed 7
  fc-commerce stream run --profile airport-cafe --interval 1s`,
	RunE: runStreamRun,
}

var streamSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the eventstream and print its connection",
	Long: `Create the eventstream from its definition file, find the custom
endpoint source and print the Event Hubs-compatible connection details the
'stream run --sink kafka' command needs.`,
	RunE: runStreamSetup,
}

func init() {
	streamRunCmd.Flags().StringVar(&streamSink, "sink", "",
		"sink: console, file, kafka, amqp")
	streamRunCmd.Flags().DurationVar(&streamInterval, "interval", 0,
		"delay between batches (default: 3s)")
	streamRunCmd.Flags().IntVar(&streamBatchSize, "batch-size", 0,
		"transactions per batch (default: 1)")
	streamRunCmd.Flags().Int64Var(&streamMaxEvents, "max-events", 0,
		"stop after this many transactions (0 = run until interrupted)")
	streamRunCmd.Flags().Uint64Var(&streamSeed, "seed", 0,
		"random seed for reproducible transactions")
	streamRunCmd.Flags().StringVar(&streamDeviceID, "device-id", "",
		"producer device id (env: POS_DEVICE_ID)")
	streamRunCmd.Flags().StringVar(&streamProfile, "profile", "",
		"traffic profile: "+strings.Join(traffic.List(), ", ")+" (default: steady)")

	streamSetupCmd.Flags().BoolVar(&streamShowSecrets, "show-secrets", false,
		"print the connection string")

	streamCmd.AddCommand(streamRunCmd)
	streamCmd.AddCommand(streamSetupCmd)
}

func runStreamRun(cmd *cobra.Command, args []string) error {
	if streamSink != "" {
		cfg.Stream.Sink = streamSink
	}
	if streamInterval > 0 {
		cfg.Stream.Interval = streamInterval
	}
	if streamBatchSize > 0 {
		cfg.Stream.BatchSize = streamBatchSize
	}
	if streamMaxEvents > 0 {
		cfg.Stream.MaxEvents = streamMaxEvents
	}
	if streamSeed > 0 {
		cfg.Stream.Seed = streamSeed
	}
	if streamDeviceID != "" {
		cfg.Stream.DeviceID = streamDeviceID
	}

	if streamProfile != "" {
		cfg.Stream.Profile = streamProfile
	}

	if err := cfg.ValidateStream(); err != nil {
		return err
	}

	profile, err := traffic.Get(cfg.Stream.Profile, cfg.Stream.Timezone)
	if err != nil {
		return err
	}

	predefined, err := pos.LoadTransactions(cfg.Stream.TransactionsFile)
	if err != nil {
		return err
	}
	ref, err := pos.LoadReference(cfg.Stream.CustomersFile, cfg.Stream.ShopsFile, cfg.Stream.MenuFile)
	if err != nil {
		return err
	}

	gen, err := pos.NewGenerator(predefined, ref, pos.WithSeed(cfg.Stream.Seed))
	if errors.Is(err, pos.ErrNoSource) {
		return fmt.Errorf("%w: check %s and the reference data files", err, cfg.Stream.TransactionsFile)
	}
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	sink, err := eventsink.New(ctx, cfg.Stream)
	if err != nil {
		return fmt.Errorf("failed to open %s sink: %w", cfg.Stream.Sink, err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close sink")
		}
	}()

	logging.Info().
		Int("predefined", len(predefined)).
		Bool("random", ref.CanGenerate()).
		Msg("Press Ctrl+C to stop")

	streamer := pos.NewStreamer(gen, sink, pos.StreamerConfig{
		Interval:  cfg.Stream.Interval,
		BatchSize: cfg.Stream.BatchSize,
		MaxEvents: cfg.Stream.MaxEvents,
		DeviceID:  cfg.Stream.DeviceID,
		Profile:   profile,
	})

	_, err = streamer.Run(ctx)
	return err
}

func runStreamSetup(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateFabric(); err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	client, err := newFabricClient()
	if err != nil {
		return err
	}

	ws, err := client.FindWorkspace(ctx, cfg.Fabric.WorkspaceName)
	if err != nil {
		return err
	}

	part, err := fabric.InlineDefinition(cfg.Stream.DefinitionFile)
	if err != nil {
		return err
	}

	name := cfg.Stream.EventstreamName
	logging.Info().
		Str("eventstream", name).
		Str("workspace_id", ws.ID).
		Msg("Creating eventstream")

	es, err := fabric.EnsureItem(ctx, name,
		func(ctx context.Context) (*fabric.Item, error) {
			return client.CreateEventstream(ctx, ws.ID, name, part)
		},
		func(ctx context.Context) ([]fabric.Item, error) {
			return client.ListEventstreams(ctx, ws.ID)
		})
	if err != nil {
		return err
	}

	topology, err := client.GetEventstreamTopology(ctx, ws.ID, es.ID)
	if err != nil {
		return err
	}
	source, err := topology.Source(cfg.Stream.SourceName)
	if err != nil {
		return err
	}
	conn, err := client.GetSourceConnection(ctx, ws.ID, es.ID, source.ID)
	if err != nil {
		return err
	}

	cmd.Printf("Eventstream: %s (%s)\n", es.DisplayName, es.ID)
	cmd.Printf("Event hub:   %s\n", conn.EventHubName)
	if streamShowSecrets {
		cmd.Printf("Connection:  %s\n", conn.AccessKeys.PrimaryConnectionString)
	} else {
		cmd.Printf("Connection:  %s (use --show-secrets)\n", logging.Redact(conn.AccessKeys.PrimaryConnectionString))
	}
	cmd.Println()
	cmd.Println("Set EVENTHUB_CONNECTION_STRING and run 'fc-commerce stream run --sink kafka'.")
	return nil
}
