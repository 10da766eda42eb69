package memory

import (
	"context"
	"sort"
	"sync"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// EventRecordStore is an in-memory implementation of storage.EventRecordStore.
type EventRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EventRecord // keyed by record_id
}

// NewEventRecordStore creates a new in-memory event record store.
func NewEventRecordStore() *EventRecordStore {
	return &EventRecordStore{
		data: make(map[string]*domain.EventRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if record_id exists.
func (s *EventRecordStore) Insert(_ context.Context, r *domain.EventRecord) error {
	if r == nil || r.RecordID == "" || r.AssetID == "" || r.Dataset == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RecordID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.RecordID] = r.Clone()
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *EventRecordStore) InsertBulk(_ context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RecordID == "" || r.AssetID == "" || r.Dataset == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.RecordID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.RecordID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.RecordID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		s.data[r.RecordID] = r.Clone()
	}
	return nil
}

// GetByDataset retrieves all records of a dataset, ordered by
// (knowledge_date, record_id) ASC.
func (s *EventRecordStore) GetByDataset(_ context.Context, dataset string) ([]*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EventRecord
	for _, r := range s.data {
		if r.Dataset == dataset {
			result = append(result, r.Clone())
		}
	}
	sortRecords(result)
	return result, nil
}

// GetByAsset retrieves a dataset's records for one asset.
func (s *EventRecordStore) GetByAsset(_ context.Context, dataset, assetID string) ([]*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EventRecord
	for _, r := range s.data {
		if r.Dataset == dataset && r.AssetID == assetID {
			result = append(result, r.Clone())
		}
	}
	sortRecords(result)
	return result, nil
}

// GetByKnowledgeRange retrieves a dataset's records with knowledge_date
// within [start, end] (inclusive).
func (s *EventRecordStore) GetByKnowledgeRange(_ context.Context, dataset string, start, end domain.Date) ([]*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EventRecord
	for _, r := range s.data {
		if r.Dataset == dataset && r.KnowledgeDate >= start && r.KnowledgeDate <= end {
			result = append(result, r.Clone())
		}
	}
	sortRecords(result)
	return result, nil
}

// sortRecords orders by (knowledge_date, record_id) ASC for deterministic reads.
func sortRecords(records []*domain.EventRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].KnowledgeDate != records[j].KnowledgeDate {
			return records[i].KnowledgeDate < records[j].KnowledgeDate
		}
		return records[i].RecordID < records[j].RecordID
	})
}

var _ storage.EventRecordStore = (*EventRecordStore)(nil)
