package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// ResolvedCellStore is an in-memory implementation of storage.ResolvedCellStore.
type ResolvedCellStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ResolvedColumnCell // keyed by (dataset, column, as_of, asset)
}

// NewResolvedCellStore creates a new in-memory resolved cell store.
func NewResolvedCellStore() *ResolvedCellStore {
	return &ResolvedCellStore{
		data: make(map[string]*domain.ResolvedColumnCell),
	}
}

// cellKey generates a unique key for a resolved cell.
func cellKey(c *domain.ResolvedColumnCell) string {
	return fmt.Sprintf("%s|%s|%d|%s", c.Dataset, c.ColumnName, c.AsOfDate, c.AssetID)
}

// InsertBulk adds resolved cells. Fails entire batch on any duplicate.
func (s *ResolvedCellStore) InsertBulk(_ context.Context, cells []*domain.ResolvedColumnCell) error {
	if len(cells) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		if c == nil || c.Dataset == "" || c.ColumnName == "" || c.AssetID == "" {
			return storage.ErrInvalidInput
		}
		key := cellKey(c)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range cells {
		cp := *c
		if c.EventDate != nil {
			d := *c.EventDate
			cp.EventDate = &d
		}
		s.data[cellKey(c)] = &cp
	}
	return nil
}

// GetByColumn retrieves a column's cells with as_of_date within [start, end]
// (inclusive), ordered by (as_of_date, asset_id) ASC.
func (s *ResolvedCellStore) GetByColumn(_ context.Context, dataset, columnName string, start, end domain.Date) ([]*domain.ResolvedColumnCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ResolvedColumnCell
	for _, c := range s.data {
		if c.Dataset == dataset && c.ColumnName == columnName &&
			c.AsOfDate >= start && c.AsOfDate <= end {
			cp := *c
			if c.EventDate != nil {
				d := *c.EventDate
				cp.EventDate = &d
			}
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AsOfDate != result[j].AsOfDate {
			return result[i].AsOfDate < result[j].AsOfDate
		}
		return result[i].AssetID < result[j].AssetID
	})
	return result, nil
}

var _ storage.ResolvedCellStore = (*ResolvedCellStore)(nil)
