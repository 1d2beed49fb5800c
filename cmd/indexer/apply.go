package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolLedger/internal/config"
	"poolLedger/internal/ledger"
	"poolLedger/internal/storage"
	"poolLedger/internal/storage/postgres"
)

func runApply(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadApply(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	graph, err := cfg.Graph()
	if err != nil {
		return err
	}
	hooks, err := cfg.TrackedHooks()
	if err != nil {
		return err
	}
	decimals, err := cfg.Decimals()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := ledger.NewMetrics(registry)
	if cfg.MetricsAddr != "" {
		server := serveMetrics(cfg.MetricsAddr, registry, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	var (
		sink       ledger.Sink
		stateStore ledger.StateStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.ChainID)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return err
			}
		}
		sink = store
		stateStore = &ledger.DBStateStore{Backend: store, Name: cfg.StateName}
	} else {
		sink = storage.NewJsonlChangesetSink(cfg.Out)
	}
	if cfg.StateFile != "" {
		stateStore = &ledger.FileStateStore{Path: cfg.StateFile}
	}

	l := ledger.New(ledger.Config{
		ChainID:       cfg.ChainID,
		Graph:         graph,
		TrackedHooks:  hooks,
		TokenDecimals: decimals,
	}, metrics, logger)

	runner := ledger.NewRunner(ledger.RunnerConfig{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
		Sink:       sink,
	}, l, logger)

	logger.Info("apply start",
		zap.String("in", cfg.Input),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("pg_dsn", redactURL(cfg.PGDSN)),
		zap.String("out", cfg.Out),
		zap.String("state_file", cfg.StateFile),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("stable_tokens", len(graph.Stables)),
		zap.Int("tracked_hooks", len(hooks)),
	)

	_, err = runner.Run(ctx, cfg.Input)
	return err
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return server
}
