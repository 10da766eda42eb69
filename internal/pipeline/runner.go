// Package pipeline orchestrates a full resolution run: load columns,
// export them, and optionally persist the cells to analytic storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/export"
	"equity-events-lab/internal/loader"
	"equity-events-lab/internal/observability"
	"equity-events-lab/internal/storage"
)

// Version constant for reproducibility
const EngineVersion = "1.0.0"

// Runner drives one dataset through the resolution engine.
type Runner struct {
	loader        *loader.Loader
	resolvedStore storage.ResolvedCellStore // optional analytic sink
	outputDir     string
	clock         func() time.Time
	logger        *log.Logger
}

// NewRunner creates a new pipeline runner.
func NewRunner(l *loader.Loader, outputDir string) *Runner {
	return &Runner{
		loader:    l,
		outputDir: outputDir,
		clock:     func() time.Time { return time.Now().UTC() },
		logger:    log.Default(),
	}
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// WithResolvedCellStore adds an analytic sink for the materialized cells.
func (r *Runner) WithResolvedCellStore(store storage.ResolvedCellStore) *Runner {
	r.resolvedStore = store
	return r
}

// WithLogger sets a custom logger.
func (r *Runner) WithLogger(logger *log.Logger) *Runner {
	r.logger = logger
	return r
}

// RunResult contains statistics from one pipeline run.
type RunResult struct {
	Dataset     string
	Columns     int
	CellsTotal  int
	CellsNull   int
	CellsStored int
	Duration    time.Duration
}

// Run resolves every logical column of a dataset over the universe and
// date range, writes per-column CSVs into the output directory, and pushes
// the flattened cells to analytic storage when a sink is configured.
func (r *Runner) Run(ctx context.Context, dataset string, universe []string, dateRange []domain.Date) (*RunResult, error) {
	start := r.clock()
	result := &RunResult{Dataset: dataset}

	columns, err := r.loader.Load(ctx, dataset, universe, dateRange)
	if err != nil {
		observability.DefaultMetrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("pipeline %s: %w", dataset, err)
	}
	result.Columns = len(columns)

	for _, col := range columns {
		total, null := countCells(col)
		result.CellsTotal += total
		result.CellsNull += null
	}
	observability.DefaultMetrics.CellsResolved.WithLabelValues(dataset).Add(float64(result.CellsTotal))
	observability.DefaultMetrics.NullCellsResolved.WithLabelValues(dataset).Add(float64(result.CellsNull))
	observability.DefaultMetrics.ColumnsMaterialized.WithLabelValues(dataset).Add(float64(result.Columns))

	if r.outputDir != "" {
		if err := export.WriteDir(r.outputDir, dataset, columns); err != nil {
			observability.DefaultMetrics.PipelineRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("pipeline %s: %w", dataset, err)
		}
	}

	if r.resolvedStore != nil {
		stored, err := r.storeCells(ctx, dataset, columns)
		if err != nil {
			observability.DefaultMetrics.PipelineRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("pipeline %s: %w", dataset, err)
		}
		result.CellsStored = stored
	}

	result.Duration = r.clock().Sub(start)
	observability.DefaultMetrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	observability.DefaultMetrics.PipelineDuration.WithLabelValues(dataset).Observe(result.Duration.Seconds())
	observability.DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()

	r.logger.Printf("[pipeline] dataset=%s columns=%d cells=%d null=%d stored=%d in %v",
		dataset, result.Columns, result.CellsTotal, result.CellsNull, result.CellsStored, result.Duration)

	return result, nil
}

// storeCells flattens every column and bulk-inserts into the analytic
// store. A run that was already persisted is tolerated, not an error.
func (r *Runner) storeCells(ctx context.Context, dataset string, columns map[string]*domain.Column) (int, error) {
	var cells []*domain.ResolvedColumnCell
	for _, col := range columns {
		cells = append(cells, col.Flatten(dataset)...)
	}
	if len(cells) == 0 {
		return 0, nil
	}

	if err := r.resolvedStore.InsertBulk(ctx, cells); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			r.logger.Printf("[pipeline] dataset %s cells already persisted, skipping", dataset)
			return 0, nil
		}
		return 0, fmt.Errorf("store resolved cells: %w", err)
	}

	observability.DefaultMetrics.CellsExported.Add(float64(len(cells)))
	return len(cells), nil
}

// countCells tallies total and null cells of one column.
func countCells(col *domain.Column) (total, null int) {
	if col.DateCells != nil {
		for _, row := range col.DateCells.Cells {
			for _, cell := range row {
				total++
				if cell == nil {
					null++
				}
			}
		}
		return total, null
	}
	if col.ValueCells != nil {
		for _, row := range col.ValueCells.Cells {
			for _, v := range row {
				total++
				if math.IsNaN(v) {
					null++
				}
			}
		}
	}
	return total, null
}
