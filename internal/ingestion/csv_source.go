package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/loader"
)

// CSVSource reads vendor CSV dumps, one file per dataset named
// <dataset>.csv. The header row names columns: asset_id, an optional
// knowledge_date, the dataset's event-date fields and payload fields.
// Empty date cells mean "not yet known".
type CSVSource struct {
	dir      string
	datasets map[string]loader.DatasetConfig
}

// NewCSVSource creates a CSV-backed record source rooted at dir.
func NewCSVSource(dir string, datasets []loader.DatasetConfig) *CSVSource {
	m := make(map[string]loader.DatasetConfig, len(datasets))
	for _, cfg := range datasets {
		m[cfg.Name] = cfg
	}
	return &CSVSource{dir: dir, datasets: m}
}

// Fetch reads a dataset's file and returns records with knowledge dates in
// [from, to].
func (s *CSVSource) Fetch(ctx context.Context, dataset string, from, to domain.Date) ([]*domain.EventRecord, error) {
	cfg, ok := s.datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", loader.ErrUnknownDataset, dataset)
	}

	path := filepath.Join(s.dir, dataset+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	if _, ok := cols["asset_id"]; !ok {
		return nil, fmt.Errorf("%s: no asset_id column", path)
	}

	var records []*domain.EventRecord
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line+1, err)
		}
		line++

		rec, err := s.parseRow(cfg, cols, row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if err := cfg.ApplyKnowledgeConflation(rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		if rec.KnowledgeDate < from || rec.KnowledgeDate > to {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseRow converts one CSV row into a domain record.
func (s *CSVSource) parseRow(cfg loader.DatasetConfig, cols map[string]int, row []string) (*domain.EventRecord, error) {
	rec := &domain.EventRecord{
		Dataset:    cfg.Name,
		AssetID:    row[cols["asset_id"]],
		EventDates: make(map[string]*domain.Date, len(cfg.EventFields)),
		Payload:    make(map[string]float64, len(cfg.PayloadFields)),
	}
	if rec.AssetID == "" {
		return nil, fmt.Errorf("empty asset_id")
	}

	if idx, ok := cols["knowledge_date"]; ok && row[idx] != "" {
		d, err := domain.ParseDate(row[idx])
		if err != nil {
			return nil, fmt.Errorf("knowledge_date: %w", err)
		}
		rec.KnowledgeDate = d
	}

	for _, field := range cfg.EventFields {
		idx, ok := cols[field]
		if !ok {
			return nil, fmt.Errorf("missing column %s", field)
		}
		if row[idx] == "" {
			rec.EventDates[field] = nil
			continue
		}
		d, err := domain.ParseDate(row[idx])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		rec.EventDates[field] = &d
	}

	for _, field := range cfg.PayloadFields {
		idx, ok := cols[field]
		if !ok || row[idx] == "" {
			continue
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		rec.Payload[field] = v
	}

	return rec, nil
}

var _ RecordSource = (*CSVSource)(nil)
