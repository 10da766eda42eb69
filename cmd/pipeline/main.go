// Package main provides the resolution pipeline entry point.
// Executes: load records → resolve columns → export CSV → persist cells.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"equity-events-lab/internal/calendar"
	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/loader"
	"equity-events-lab/internal/pipeline"
	"equity-events-lab/internal/storage"
	chstore "equity-events-lab/internal/storage/clickhouse"
	"equity-events-lab/internal/storage/memory"
	"equity-events-lab/internal/storage/migrations"
	pgstore "equity-events-lab/internal/storage/postgres"
)

func main() {
	dataset := flag.String("dataset", "cash_dividends", "Dataset to resolve: cash_dividends or earnings")
	assets := flag.String("assets", "", "Comma-separated asset universe (default: all stored assets)")
	startStr := flag.String("start", "", "First evaluation date (YYYY-MM-DD)")
	endStr := flag.String("end", "", "Last evaluation date (YYYY-MM-DD)")
	outputDir := flag.String("output-dir", "out", "Output directory for column CSVs")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the analytic sink (optional)")
	calendarID := flag.String("calendar-id", "", "Trading-day calendar to load from storage (default: weekday calendar)")
	useFixtures := flag.Bool("use-fixtures", false, "Run against the built-in fixture dataset in memory")

	flag.Parse()

	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, cancelling pipeline...", sig)
		cancel()
	}()

	if err := run(ctx, logger, *dataset, *assets, *startStr, *endStr, *outputDir,
		*postgresDSN, *clickhouseDSN, *calendarID, *useFixtures); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, dataset, assets, startStr, endStr, outputDir,
	postgresDSN, clickhouseDSN, calendarID string, useFixtures bool) error {

	var recordStore storage.EventRecordStore = memory.NewEventRecordStore()
	var lifecycleStore storage.AssetLifecycleStore = memory.NewAssetLifecycleStore()
	var tradingDayStore storage.TradingDayStore = memory.NewTradingDayStore()

	if useFixtures {
		if err := pipeline.SeedFixtures(ctx, recordStore, lifecycleStore); err != nil {
			return fmt.Errorf("seed fixtures: %w", err)
		}
		logger.Println("running against fixture dataset")
	} else {
		if postgresDSN == "" {
			return fmt.Errorf("--postgres-dsn is required (or use --use-fixtures)")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("apply postgres migrations: %w", err)
		}

		recordStore = pgstore.NewEventRecordStore(pool)
		lifecycleStore = pgstore.NewAssetLifecycleStore(pool)
		tradingDayStore = pgstore.NewTradingDayStore(pool)
	}

	dateRange, err := resolveDateRange(startStr, endStr, useFixtures)
	if err != nil {
		return err
	}

	universe, err := resolveUniverse(ctx, assets, useFixtures, lifecycleStore)
	if err != nil {
		return err
	}

	cal, err := buildCalendar(ctx, calendarID, dateRange, tradingDayStore)
	if err != nil {
		return err
	}

	l := loader.New(recordStore, lifecycleStore, cal)
	runner := pipeline.NewRunner(l, outputDir).WithLogger(logger)

	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return fmt.Errorf("apply clickhouse migrations: %w", err)
		}
		runner = runner.WithResolvedCellStore(chstore.NewResolvedCellStore(conn))
	}

	result, err := runner.Run(ctx, dataset, universe, dateRange)
	if err != nil {
		return err
	}

	logger.Printf("done: %d columns, %d cells (%d null), %d stored",
		result.Columns, result.CellsTotal, result.CellsNull, result.CellsStored)
	return nil
}

// resolveDateRange parses the evaluation window, defaulting to the fixture
// window in fixture mode.
func resolveDateRange(startStr, endStr string, useFixtures bool) ([]domain.Date, error) {
	if startStr == "" && endStr == "" && useFixtures {
		return pipeline.FixtureDateRange(), nil
	}
	if startStr == "" || endStr == "" {
		return nil, fmt.Errorf("--start and --end are required")
	}

	start, err := domain.ParseDate(startStr)
	if err != nil {
		return nil, fmt.Errorf("parse --start: %w", err)
	}
	end, err := domain.ParseDate(endStr)
	if err != nil {
		return nil, fmt.Errorf("parse --end: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("--end %s before --start %s", end, start)
	}
	return domain.DateRange(start, end), nil
}

// resolveUniverse parses the asset list, defaulting to every stored
// lifecycle.
func resolveUniverse(ctx context.Context, assets string, useFixtures bool, store storage.AssetLifecycleStore) ([]string, error) {
	if assets != "" {
		var universe []string
		for _, a := range strings.Split(assets, ",") {
			if a = strings.TrimSpace(a); a != "" {
				universe = append(universe, a)
			}
		}
		return universe, nil
	}

	if useFixtures {
		return pipeline.FixtureAssets(), nil
	}

	lifecycles, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load asset universe: %w", err)
	}
	if len(lifecycles) == 0 {
		return nil, fmt.Errorf("no assets stored; use --assets")
	}
	universe := make([]string, len(lifecycles))
	for i, a := range lifecycles {
		universe[i] = a.AssetID
	}
	return universe, nil
}

// buildCalendar loads a named trading-day calendar, or falls back to a
// weekday calendar padded a year past the evaluation window so resolved
// event dates outside it stay in range.
func buildCalendar(ctx context.Context, calendarID string, dateRange []domain.Date, store storage.TradingDayStore) (calendar.BusinessCalendar, error) {
	if calendarID != "" {
		days, err := store.GetByCalendar(ctx, calendarID)
		if err != nil {
			return nil, fmt.Errorf("load calendar %s: %w", calendarID, err)
		}
		businessDays := make([]domain.Date, len(days))
		for i, d := range days {
			businessDays[i] = d.Day
		}
		return calendar.NewRangeCalendar(businessDays)
	}

	start := dateRange[0].AddDays(-366)
	end := dateRange[len(dateRange)-1].AddDays(366)
	return calendar.NewWeekdayCalendar(start, end, nil)
}
