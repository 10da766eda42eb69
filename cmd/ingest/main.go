// Package main provides the ingestion entry point: live vendor feed
// streaming or CSV backfill into the event-record store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/ingestion"
	"equity-events-lab/internal/loader"
	"equity-events-lab/internal/observability"
	"equity-events-lab/internal/storage"
	"equity-events-lab/internal/storage/memory"
	"equity-events-lab/internal/storage/migrations"
	pgstore "equity-events-lab/internal/storage/postgres"
)

func main() {
	mode := flag.String("mode", "live", "Ingestion mode: live or backfill")
	feedEndpoint := flag.String("feed-endpoint", "", "Vendor feed WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	datasets := flag.String("datasets", "cash_dividends,earnings", "Comma-separated datasets to ingest")
	csvDir := flag.String("csv-dir", "", "Directory of vendor CSV dumps for backfill")
	fromStr := flag.String("from", "", "Start knowledge date for backfill (YYYY-MM-DD)")
	toStr := flag.String("to", "", "End knowledge date for backfill (YYYY-MM-DD)")
	lagDays := flag.Int("lag-days", 1, "Knowledge dates to hold back for deterministic ordering")
	flushInterval := flag.Duration("flush-interval", 5*time.Second, "Periodic buffer flush interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	configs, err := resolveDatasets(*datasets)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	switch *mode {
	case "live":
		err = runLive(ctx, logger, *feedEndpoint, *postgresDSN, configs, int32(*lagDays), *flushInterval, *useMemory)
	case "backfill":
		err = runBackfill(ctx, logger, *postgresDSN, *csvDir, configs, *fromStr, *toStr, *useMemory)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// resolveDatasets maps dataset names to their built-in configs.
func resolveDatasets(names string) ([]loader.DatasetConfig, error) {
	builtin := map[string]loader.DatasetConfig{
		"cash_dividends": loader.CashDividends(),
		"earnings":       loader.Earnings(),
	}

	var configs []loader.DatasetConfig
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cfg, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("unknown dataset: %s", name)
		}
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no datasets specified")
	}
	return configs, nil
}

// newRecordStore picks memory or postgres storage.
func newRecordStore(ctx context.Context, postgresDSN string, useMemory bool) (storage.EventRecordStore, func(), error) {
	if useMemory {
		return memory.NewEventRecordStore(), func() {}, nil
	}
	if postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}
	return pgstore.NewEventRecordStore(pool), pool.Close, nil
}

// runLive runs continuous feed ingestion.
func runLive(ctx context.Context, logger *log.Logger, feedEndpoint, postgresDSN string,
	configs []loader.DatasetConfig, lagDays int32, flushInterval time.Duration, useMemory bool) error {

	if feedEndpoint == "" {
		return fmt.Errorf("--feed-endpoint is required for live mode")
	}

	store, closeStore, err := newRecordStore(ctx, postgresDSN, useMemory)
	if err != nil {
		return err
	}
	defer closeStore()

	feed, err := ingestion.NewFeedClient(ctx, feedEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create feed client: %w", err)
	}
	defer feed.Close()

	feed.OnReconnect(func() {
		observability.DefaultMetrics.FeedReconnectsTotal.Inc()
	})
	observability.DefaultMetrics.FeedConnected.Set(1)
	defer observability.DefaultMetrics.FeedConnected.Set(0)

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Feed:          feed,
		Store:         store,
		Datasets:      configs,
		LagDays:       lagDays,
		FlushInterval: flushInterval,
		Logger:        logger,
	})

	logger.Println("Starting live ingestion...")
	return runner.Run(ctx)
}

// runBackfill runs historical CSV backfill.
func runBackfill(ctx context.Context, logger *log.Logger, postgresDSN, csvDir string,
	configs []loader.DatasetConfig, fromStr, toStr string, useMemory bool) error {

	if csvDir == "" {
		return fmt.Errorf("--csv-dir is required for backfill mode")
	}
	if fromStr == "" || toStr == "" {
		return fmt.Errorf("--from and --to are required for backfill mode")
	}

	from, err := domain.ParseDate(fromStr)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	to, err := domain.ParseDate(toStr)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}

	store, closeStore, err := newRecordStore(ctx, postgresDSN, useMemory)
	if err != nil {
		return err
	}
	defer closeStore()

	source := ingestion.NewCSVSource(csvDir, configs)
	backfiller := ingestion.NewBackfiller(ingestion.BackfillOptions{
		Source: source,
		Store:  store,
		Logger: logger,
	})

	for _, cfg := range configs {
		result, err := backfiller.BackfillRange(ctx, cfg, from, to)
		if err != nil {
			return err
		}
		logger.Printf("dataset %s: ingested=%d duplicates=%d errors=%d",
			cfg.Name, result.RecordsIngested, result.DuplicatesSkipped, result.Errors)
	}

	return nil
}
