package memory

import (
	"context"
	"sort"
	"sync"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// AssetLifecycleStore is an in-memory implementation of storage.AssetLifecycleStore.
type AssetLifecycleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AssetLifecycle // keyed by asset_id
}

// NewAssetLifecycleStore creates a new in-memory asset lifecycle store.
func NewAssetLifecycleStore() *AssetLifecycleStore {
	return &AssetLifecycleStore{
		data: make(map[string]*domain.AssetLifecycle),
	}
}

// Insert adds a lifecycle record. Returns ErrDuplicateKey if asset_id exists.
func (s *AssetLifecycleStore) Insert(_ context.Context, a *domain.AssetLifecycle) error {
	if a == nil || a.AssetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AssetID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *a
	s.data[a.AssetID] = &cp
	return nil
}

// GetByID retrieves a lifecycle record. Returns ErrNotFound if not exists.
func (s *AssetLifecycleStore) GetByID(_ context.Context, assetID string) (*domain.AssetLifecycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[assetID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// GetAll retrieves all lifecycle records, ordered by asset_id ASC.
func (s *AssetLifecycleStore) GetAll(_ context.Context) ([]*domain.AssetLifecycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AssetLifecycle, 0, len(s.data))
	for _, a := range s.data {
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AssetID < result[j].AssetID
	})
	return result, nil
}

var _ storage.AssetLifecycleStore = (*AssetLifecycleStore)(nil)
