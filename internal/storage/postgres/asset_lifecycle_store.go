package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// AssetLifecycleStore implements storage.AssetLifecycleStore using PostgreSQL.
type AssetLifecycleStore struct {
	pool *Pool
}

// NewAssetLifecycleStore creates a new AssetLifecycleStore.
func NewAssetLifecycleStore(pool *Pool) *AssetLifecycleStore {
	return &AssetLifecycleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetLifecycleStore = (*AssetLifecycleStore)(nil)

// Insert adds a lifecycle record. Returns ErrDuplicateKey if asset_id exists.
func (s *AssetLifecycleStore) Insert(ctx context.Context, a *domain.AssetLifecycle) error {
	if a == nil || a.AssetID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO asset_lifecycles (asset_id, symbol, start_date, end_date)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AssetID,
		a.Symbol,
		a.StartDate.Time(),
		a.EndDate.Time(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert asset lifecycle: %w", err)
	}
	return nil
}

// GetByID retrieves a lifecycle record. Returns ErrNotFound if not exists.
func (s *AssetLifecycleStore) GetByID(ctx context.Context, assetID string) (*domain.AssetLifecycle, error) {
	query := `
		SELECT asset_id, symbol, start_date, end_date
		FROM asset_lifecycles
		WHERE asset_id = $1
	`

	row := s.pool.QueryRow(ctx, query, assetID)
	a, err := scanLifecycle(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset lifecycle by id: %w", err)
	}
	return a, nil
}

// GetAll retrieves all lifecycle records, ordered by asset_id ASC.
func (s *AssetLifecycleStore) GetAll(ctx context.Context) ([]*domain.AssetLifecycle, error) {
	query := `
		SELECT asset_id, symbol, start_date, end_date
		FROM asset_lifecycles
		ORDER BY asset_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all asset lifecycles: %w", err)
	}
	defer rows.Close()

	var out []*domain.AssetLifecycle
	for rows.Next() {
		a, err := scanLifecycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset lifecycle row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset lifecycle rows: %w", err)
	}
	return out, nil
}

// scanLifecycle scans a single row into an AssetLifecycle.
func scanLifecycle(row pgx.Row) (*domain.AssetLifecycle, error) {
	var a domain.AssetLifecycle
	var start, end time.Time

	if err := row.Scan(&a.AssetID, &a.Symbol, &start, &end); err != nil {
		return nil, err
	}

	a.StartDate = domain.DateOf(start)
	a.EndDate = domain.DateOf(end)
	return &a, nil
}
