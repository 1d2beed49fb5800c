package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolLedger/internal/chain"
	"poolLedger/internal/config"
	"poolLedger/internal/dex"
	"poolLedger/internal/indexer"
	"poolLedger/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Uniswap v4 hook pool ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch PoolManager and hook logs into a JSONL file",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means head minus confirmations")
	runCmd.Flags().Uint64("confirmations", 0, "blocks to stay behind the head when --to is 0")
	runCmd.Flags().String("pool-manager", "", "PoolManager address")
	runCmd.Flags().StringSlice("hooks", nil, "fee hook addresses (comma-separated)")
	runCmd.Flags().StringSlice("address", nil, "extra contract addresses (comma-separated)")
	runCmd.Flags().StringSlice("topic0", nil, "topic0 filter, defaults to every decodable event")
	runCmd.Flags().StringSlice("pool-ids", nil, "restrict logs to these pool ids (comma-separated)")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("rpc", "", "RPC URL for token metadata (optional)")
	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	decodeCmd.Flags().Duration("call-timeout", 10*time.Second, "timeout per token metadata call")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Fold typed events into pool, position, swap and day data",
		RunE:  runApply,
	}

	applyCmd.Flags().String("in", "", "input typed events JSONL")
	applyCmd.Flags().Uint64("chain-id", 1, "chain id of the events")
	applyCmd.Flags().Int("batch-size", 1000, "events between flushes")
	applyCmd.Flags().String("pg-dsn", "", "Postgres DSN; without it rows go to --out")
	applyCmd.Flags().Bool("migrate", false, "create Postgres tables before applying")
	applyCmd.Flags().String("out", "./data/changes.jsonl", "output changes JSONL when no DSN is set")
	applyCmd.Flags().String("state-file", "", "local snapshot file (overrides the ledger_state table)")
	applyCmd.Flags().String("state-name", "ledger", "snapshot name in the ledger_state table")
	applyCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	applyCmd.Flags().StringSlice("hooks", nil, "only track pools using these hooks (comma-separated)")
	applyCmd.Flags().String("stable-tokens", "", "USD stable tokens (comma-separated token=price, empty price means 1)")
	applyCmd.Flags().String("reference-pools", "", "reference pool per token (comma-separated token=poolId)")
	applyCmd.Flags().String("usd-anchors", "", "stable token a reference pool resolves against (comma-separated poolId=token)")
	applyCmd.Flags().String("token-decimals", "", "token decimal overrides (comma-separated token=decimals)")
	applyCmd.Flags().Int("max-hops", 1, "maximum reference hops when pricing a token")
	applyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(applyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	addresses, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("pool manager or hook address is required")
	}

	topic0, err := indexer.ParseHashes("topic0", cfg.Topic0)
	if err != nil {
		return err
	}
	decoder, err := dex.NewPoolManagerDecoder(dex.DecoderConfig{})
	if err != nil {
		return err
	}
	if len(topic0) == 0 {
		topic0 = decoder.Topic0s()
	}
	poolIDs, err := indexer.ParseHashes("pool id", cfg.PoolIDs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	storageSink := storage.NewJsonlStorage(cfg.Out)

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		Confirmations:     cfg.Confirmations,
		Addresses:         addresses,
		Topic0:            topic0,
		PoolIDs:           poolIDs,
		SenderTopics:      decoder.OriginTopic0s(),
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, storageSink, logger)

	logger.Info("indexer start",
		zap.String("rpc", redactURL(cfg.RPCURL)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", len(topic0)),
		zap.Int("pool_ids", len(poolIDs)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// redactURL hides credentials and API keys that RPC and database URLs often embed.
func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	return "***"
}
