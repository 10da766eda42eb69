// Package materialize drives the knowledge-cutoff resolver across a full
// date × asset grid and assembles dense output matrices.
package materialize

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/eventstore"
	"equity-events-lab/internal/resolve"
)

// resolverPair keys one resolver invocation within a single cell.
type resolverPair struct {
	direction  domain.Direction
	eventField string
}

// Materialize produces one dense matrix per requested column over the
// supplied grid. Row order follows dateRange, column order follows universe,
// both as supplied. Assets absent from the event store, and dates before an
// asset's first knowable record, yield null cells.
//
// The resolver runs once per (direction, event field) pair per cell; date
// and payload projections of the same pair reuse that result. Per-asset work
// runs concurrently: timelines are read-only once built and every goroutine
// writes a disjoint matrix column.
func Materialize(
	ctx context.Context,
	store *eventstore.Store,
	universe []string,
	dateRange []domain.Date,
	columns map[string]domain.ColumnSpec,
) (map[string]*domain.Column, error) {
	out := make(map[string]*domain.Column, len(columns))
	for name, spec := range columns {
		col := &domain.Column{Name: name, Spec: spec}
		switch spec.Output {
		case domain.OutputEventDate:
			col.DateCells = domain.NewDateMatrix(dateRange, universe)
		case domain.OutputPayload:
			col.ValueCells = domain.NewFloatMatrix(dateRange, universe)
		default:
			return nil, fmt.Errorf("column %s: unsupported output %q", name, spec.Output)
		}
		out[name] = col
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for assetIdx, assetID := range universe {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tl := store.Timeline(assetID)
			if tl == nil {
				return nil // no records: column stays all-null
			}
			materializeAsset(tl, assetIdx, dateRange, out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// materializeAsset fills one matrix column across all dates.
func materializeAsset(
	tl *domain.Timeline,
	assetIdx int,
	dateRange []domain.Date,
	columns map[string]*domain.Column,
) {
	cache := make(map[resolverPair]domain.ResolvedCell, 4)

	for dateIdx, d := range dateRange {
		for k := range cache {
			delete(cache, k)
		}

		for _, col := range columns {
			pair := resolverPair{col.Spec.Direction, col.Spec.EventField}
			cell, ok := cache[pair]
			if !ok {
				cell = resolve.Direction(tl, d, pair.eventField, pair.direction)
				cache[pair] = cell
			}

			switch col.Spec.Output {
			case domain.OutputEventDate:
				col.DateCells.Cells[dateIdx][assetIdx] = cell.EventDate
			case domain.OutputPayload:
				col.ValueCells.Cells[dateIdx][assetIdx] = cell.Value(col.Spec.PayloadField)
			}
		}
	}
}
