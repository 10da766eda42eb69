package postgres

import (
	"context"
	"fmt"
	"time"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// TradingDayStore implements storage.TradingDayStore using PostgreSQL.
type TradingDayStore struct {
	pool *Pool
}

// NewTradingDayStore creates a new TradingDayStore.
func NewTradingDayStore(pool *Pool) *TradingDayStore {
	return &TradingDayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradingDayStore = (*TradingDayStore)(nil)

// InsertBulk adds trading days. Fails entire batch on any duplicate.
func (s *TradingDayStore) InsertBulk(ctx context.Context, days []*domain.TradingDay) error {
	if len(days) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trading_days (calendar_id, day)
		VALUES ($1, $2)
	`

	for _, d := range days {
		if d == nil || d.CalendarID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, d.CalendarID, d.Day.Time()); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trading day: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByCalendar retrieves all days of a calendar, ordered by day ASC.
// Returns ErrNotFound when the calendar has no days at all.
func (s *TradingDayStore) GetByCalendar(ctx context.Context, calendarID string) ([]*domain.TradingDay, error) {
	query := `
		SELECT calendar_id, day
		FROM trading_days
		WHERE calendar_id = $1
		ORDER BY day ASC
	`

	rows, err := s.pool.Query(ctx, query, calendarID)
	if err != nil {
		return nil, fmt.Errorf("get trading days by calendar: %w", err)
	}
	defer rows.Close()

	var out []*domain.TradingDay
	for rows.Next() {
		var d domain.TradingDay
		var day time.Time
		if err := rows.Scan(&d.CalendarID, &day); err != nil {
			return nil, fmt.Errorf("scan trading day row: %w", err)
		}
		d.Day = domain.DateOf(day)
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading day rows: %w", err)
	}

	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}
