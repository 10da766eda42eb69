// Package ingestion pulls raw event records from vendor feeds and files
// into the event-record store, with deterministic ordering and append-only
// dedup.
package ingestion

import (
	"context"
	"fmt"

	"equity-events-lab/internal/domain"
)

// RecordSource provides historical event records from external sources.
type RecordSource interface {
	// Fetch returns a dataset's records with knowledge dates within
	// [from, to] (inclusive). Records may be unordered; the Runner and
	// Backfiller enforce deterministic ordering.
	Fetch(ctx context.Context, dataset string, from, to domain.Date) ([]*domain.EventRecord, error)
}

// wireRecord is the vendor wire representation of one event record.
// Dates travel as "YYYY-MM-DD" strings, null event dates as JSON null.
type wireRecord struct {
	Dataset       string                  `json:"dataset"`
	AssetID       string                  `json:"asset_id"`
	KnowledgeDate *domain.Date            `json:"knowledge_date,omitempty"`
	EventDates    map[string]*domain.Date `json:"event_dates"`
	Payload       map[string]float64      `json:"payload,omitempty"`
}

// toDomain converts a wire record into a domain record. Vendors that
// conflate knowledge and announcement dates omit knowledge_date; callers
// apply the dataset's conflation rule and assign the record id before
// storing.
func (w *wireRecord) toDomain() (*domain.EventRecord, error) {
	if w.Dataset == "" || w.AssetID == "" {
		return nil, fmt.Errorf("wire record missing dataset or asset_id")
	}

	r := &domain.EventRecord{
		Dataset:    w.Dataset,
		AssetID:    w.AssetID,
		EventDates: w.EventDates,
		Payload:    w.Payload,
	}
	if w.KnowledgeDate != nil {
		r.KnowledgeDate = *w.KnowledgeDate
	}
	if r.EventDates == nil {
		r.EventDates = make(map[string]*domain.Date)
	}

	return r, nil
}
