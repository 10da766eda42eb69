// Package loader binds named event datasets to the generic resolution
// engine. It is the only component aware of dataset-specific field naming;
// everything below it works on anonymous event-date and payload fields.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"

	"equity-events-lab/internal/calendar"
	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/eventstore"
	"equity-events-lab/internal/materialize"
	"equity-events-lab/internal/storage"
)

// ErrUnknownAsset is returned when the requested universe references an
// asset with no lifecycle record. Surfaced, not recovered.
var ErrUnknownAsset = errors.New("asset has no lifecycle record")

// ErrUnknownDataset is returned for dataset names with no registered config.
var ErrUnknownDataset = errors.New("unknown dataset")

// DatasetConfig declares one dataset's schema and the logical columns it
// exposes to the surrounding pipeline.
type DatasetConfig struct {
	Name           string
	KnowledgeField string   // event-date field doubling as knowledge date, "" when records carry a dedicated one
	EventFields    []string // fields that drive resolution
	PayloadFields  []string // scalar fields riding along with resolved records
	Columns        map[string]domain.ColumnSpec
}

// ApplyKnowledgeConflation fills a record's knowledge date from the
// conflated event-date field for datasets without a dedicated knowledge
// column. Records that already carry a knowledge date are left alone.
func (c DatasetConfig) ApplyKnowledgeConflation(r *domain.EventRecord) error {
	if c.KnowledgeField == "" || r.KnowledgeDate != 0 {
		return nil
	}
	d, ok := r.EventDate(c.KnowledgeField)
	if !ok || d == nil {
		return fmt.Errorf("record %s: no %s to derive knowledge date from", r.RecordID, c.KnowledgeField)
	}
	r.KnowledgeDate = *d
	return nil
}

// Loader resolves logical pipeline columns for registered datasets.
type Loader struct {
	events   storage.EventRecordStore
	assets   storage.AssetLifecycleStore
	cal      calendar.BusinessCalendar
	datasets map[string]DatasetConfig
}

// New creates a Loader with the built-in dataset configs registered.
func New(events storage.EventRecordStore, assets storage.AssetLifecycleStore, cal calendar.BusinessCalendar) *Loader {
	l := &Loader{
		events:   events,
		assets:   assets,
		cal:      cal,
		datasets: make(map[string]DatasetConfig),
	}
	l.Register(CashDividends())
	l.Register(Earnings())
	return l
}

// Register adds or replaces a dataset config.
func (l *Loader) Register(cfg DatasetConfig) {
	l.datasets[cfg.Name] = cfg
}

// Dataset returns a registered config by name.
func (l *Loader) Dataset(name string) (DatasetConfig, bool) {
	cfg, ok := l.datasets[name]
	return cfg, ok
}

// Load materializes every logical column of a dataset over the given
// universe and date range. Business-day columns are resolved as event dates
// first, then converted to signed distances through the calendar.
func (l *Loader) Load(ctx context.Context, dataset string, universe []string, dateRange []domain.Date) (map[string]*domain.Column, error) {
	cfg, ok := l.datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
	}

	if err := l.checkUniverse(ctx, universe); err != nil {
		return nil, err
	}

	records, err := l.events.GetByDataset(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", dataset, err)
	}

	store, err := eventstore.Build(records, cfg.EventFields)
	if err != nil {
		return nil, fmt.Errorf("build %s timelines: %w", dataset, err)
	}

	// Business-day columns are materialized as their underlying event-date
	// column and converted afterwards. Resolution is shared where a plain
	// date column over the same (direction, field) pair is also requested.
	specs := make(map[string]domain.ColumnSpec, len(cfg.Columns))
	busdays := make(map[string]domain.ColumnSpec)
	for name, spec := range cfg.Columns {
		if spec.Output == domain.OutputBusinessDays {
			busdays[name] = spec
			specs[name] = domain.ColumnSpec{
				Direction:  spec.Direction,
				EventField: spec.EventField,
				Output:     domain.OutputEventDate,
			}
			continue
		}
		specs[name] = spec
	}

	columns, err := materialize.Materialize(ctx, store, universe, dateRange, specs)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", dataset, err)
	}

	for name, spec := range busdays {
		converted, err := l.toBusinessDays(columns[name].DateCells, spec.Direction)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		columns[name] = &domain.Column{Name: name, Spec: spec, ValueCells: converted}
	}

	log.Printf("[loader] dataset=%s assets=%d dates=%d columns=%d records=%d",
		dataset, len(universe), len(dateRange), len(columns), len(records))

	return columns, nil
}

// checkUniverse verifies every requested asset has a lifecycle record.
func (l *Loader) checkUniverse(ctx context.Context, universe []string) error {
	for _, assetID := range universe {
		if _, err := l.assets.GetByID(ctx, assetID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
			}
			return fmt.Errorf("lifecycle lookup for %s: %w", assetID, err)
		}
	}
	return nil
}

// toBusinessDays converts a resolved event-date matrix into signed
// business-day distances from each evaluation date. Previous-direction
// distances count [event, eval), next-direction [eval, event), so an
// event on the adjacent business day is one day away and only a
// previous event on the evaluation day itself is zero. Null dates stay
// NaN.
func (l *Loader) toBusinessDays(dates *domain.DateMatrix, dir domain.Direction) (*domain.FloatMatrix, error) {
	out := domain.NewFloatMatrix(dates.Dates, dates.Assets)
	for i, d := range dates.Dates {
		for j := range dates.Assets {
			ed := dates.Cells[i][j]
			if ed == nil {
				continue
			}
			from, to := d, *ed
			if dir == domain.DirectionPrevious {
				from, to = *ed, d
			}
			n, err := calendar.DaysBetween(from, to, l.cal)
			if err != nil {
				return nil, err
			}
			out.Cells[i][j] = float64(n)
		}
	}
	return out, nil
}
