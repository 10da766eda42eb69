package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// ResolvedCellStore implements storage.ResolvedCellStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are detected with an
// explicit key scan before each batch insert.
type ResolvedCellStore struct {
	conn *Conn
}

// NewResolvedCellStore creates a new ResolvedCellStore.
func NewResolvedCellStore(conn *Conn) *ResolvedCellStore {
	return &ResolvedCellStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResolvedCellStore = (*ResolvedCellStore)(nil)

// cellKey identifies one resolved cell.
type cellKey struct {
	dataset    string
	columnName string
	asOfDate   domain.Date
	assetID    string
}

// InsertBulk adds resolved cells. Fails entire batch on any duplicate.
func (s *ResolvedCellStore) InsertBulk(ctx context.Context, cells []*domain.ResolvedColumnCell) error {
	if len(cells) == 0 {
		return nil
	}

	// Check for intra-batch duplicates and collect the scan window.
	seen := make(map[cellKey]struct{}, len(cells))
	minDate, maxDate := cells[0].AsOfDate, cells[0].AsOfDate
	for _, c := range cells {
		if c == nil || c.Dataset == "" || c.ColumnName == "" || c.AssetID == "" {
			return storage.ErrInvalidInput
		}
		k := cellKey{c.Dataset, c.ColumnName, c.AsOfDate, c.AssetID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		if c.AsOfDate < minDate {
			minDate = c.AsOfDate
		}
		if c.AsOfDate > maxDate {
			maxDate = c.AsOfDate
		}
	}

	// Check for duplicates against existing rows in the batch's window.
	existing, err := s.existingKeys(ctx, minDate, maxDate)
	if err != nil {
		return fmt.Errorf("check existing cells: %w", err)
	}
	for k := range seen {
		if _, exists := existing[k]; exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO resolved_cells (
			dataset, column_name, as_of_date, asset_id, event_date, value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range cells {
		var eventDate *time.Time
		if c.EventDate != nil {
			t := c.EventDate.Time()
			eventDate = &t
		}
		var value *float64
		if !math.IsNaN(c.Value) {
			v := c.Value
			value = &v
		}

		err = batch.Append(
			c.Dataset, c.ColumnName, c.AsOfDate.Time(), c.AssetID,
			eventDate, value,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByColumn retrieves a column's cells with as_of_date within [start, end]
// (inclusive), ordered by (as_of_date, asset_id) ASC.
func (s *ResolvedCellStore) GetByColumn(ctx context.Context, dataset, columnName string, start, end domain.Date) ([]*domain.ResolvedColumnCell, error) {
	query := `
		SELECT dataset, column_name, as_of_date, asset_id, event_date, value
		FROM resolved_cells
		WHERE dataset = ? AND column_name = ? AND as_of_date >= ? AND as_of_date <= ?
		ORDER BY as_of_date ASC, asset_id ASC
	`

	rows, err := s.conn.Query(ctx, query, dataset, columnName, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("query cells by column: %w", err)
	}
	defer rows.Close()

	var cells []*domain.ResolvedColumnCell
	for rows.Next() {
		var c domain.ResolvedColumnCell
		var asOf time.Time
		var eventDate *time.Time
		var value *float64

		err := rows.Scan(
			&c.Dataset, &c.ColumnName, &asOf, &c.AssetID,
			&eventDate, &value,
		)
		if err != nil {
			return nil, fmt.Errorf("scan resolved cell row: %w", err)
		}

		c.AsOfDate = domain.DateOf(asOf)
		if eventDate != nil {
			d := domain.DateOf(*eventDate)
			c.EventDate = &d
		}
		c.Value = math.NaN()
		if value != nil {
			c.Value = *value
		}
		cells = append(cells, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolved cell rows: %w", err)
	}

	return cells, nil
}

// existingKeys returns the keys of all rows with as_of_date in [start, end].
func (s *ResolvedCellStore) existingKeys(ctx context.Context, start, end domain.Date) (map[cellKey]struct{}, error) {
	query := `
		SELECT dataset, column_name, as_of_date, asset_id
		FROM resolved_cells
		WHERE as_of_date >= ? AND as_of_date <= ?
	`

	rows, err := s.conn.Query(ctx, query, start.Time(), end.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[cellKey]struct{})
	for rows.Next() {
		var dataset, columnName, assetID string
		var asOf time.Time
		if err := rows.Scan(&dataset, &columnName, &asOf, &assetID); err != nil {
			return nil, err
		}
		keys[cellKey{dataset, columnName, domain.DateOf(asOf), assetID}] = struct{}{}
	}
	return keys, rows.Err()
}
