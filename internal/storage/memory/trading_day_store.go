package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// TradingDayStore is an in-memory implementation of storage.TradingDayStore.
type TradingDayStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradingDay // keyed by (calendar_id, day)
}

// NewTradingDayStore creates a new in-memory trading day store.
func NewTradingDayStore() *TradingDayStore {
	return &TradingDayStore{
		data: make(map[string]*domain.TradingDay),
	}
}

// tradingDayKey generates a unique key for a trading day.
func tradingDayKey(calendarID string, day domain.Date) string {
	return fmt.Sprintf("%s|%d", calendarID, day)
}

// InsertBulk adds trading days. Fails entire batch on any duplicate.
func (s *TradingDayStore) InsertBulk(_ context.Context, days []*domain.TradingDay) error {
	if len(days) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(days))
	for _, d := range days {
		if d == nil || d.CalendarID == "" {
			return storage.ErrInvalidInput
		}
		key := tradingDayKey(d.CalendarID, d.Day)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, d := range days {
		cp := *d
		s.data[tradingDayKey(d.CalendarID, d.Day)] = &cp
	}
	return nil
}

// GetByCalendar retrieves all days of a calendar, ordered by day ASC.
// Returns ErrNotFound when the calendar has no days at all.
func (s *TradingDayStore) GetByCalendar(_ context.Context, calendarID string) ([]*domain.TradingDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradingDay
	for _, d := range s.data {
		if d.CalendarID == calendarID {
			cp := *d
			result = append(result, &cp)
		}
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Day < result[j].Day
	})
	return result, nil
}

var _ storage.TradingDayStore = (*TradingDayStore)(nil)
