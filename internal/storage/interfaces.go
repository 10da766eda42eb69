package storage

import (
	"context"

	"equity-events-lab/internal/domain"
)

// EventRecordStore provides access to raw event record storage.
type EventRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if record_id exists.
	Insert(ctx context.Context, r *domain.EventRecord) error

	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.EventRecord) error

	// GetByDataset retrieves all records of a dataset, ordered by
	// (knowledge_date, record_id) ASC.
	GetByDataset(ctx context.Context, dataset string) ([]*domain.EventRecord, error)

	// GetByAsset retrieves a dataset's records for one asset, same ordering.
	GetByAsset(ctx context.Context, dataset, assetID string) ([]*domain.EventRecord, error)

	// GetByKnowledgeRange retrieves a dataset's records with knowledge_date
	// within [start, end] (inclusive), same ordering.
	GetByKnowledgeRange(ctx context.Context, dataset string, start, end domain.Date) ([]*domain.EventRecord, error)
}

// AssetLifecycleStore provides access to the asset-identity collaborator's
// lifecycle records.
type AssetLifecycleStore interface {
	// Insert adds a lifecycle record. Returns ErrDuplicateKey if asset_id exists.
	Insert(ctx context.Context, a *domain.AssetLifecycle) error

	// GetByID retrieves a lifecycle record. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, assetID string) (*domain.AssetLifecycle, error)

	// GetAll retrieves all lifecycle records, ordered by asset_id ASC.
	GetAll(ctx context.Context) ([]*domain.AssetLifecycle, error)
}

// TradingDayStore provides access to named business-day calendars.
type TradingDayStore interface {
	// InsertBulk adds trading days. Fails entire batch on any duplicate
	// (calendar_id, day).
	InsertBulk(ctx context.Context, days []*domain.TradingDay) error

	// GetByCalendar retrieves all days of a calendar, ordered by day ASC.
	// Returns ErrNotFound when the calendar has no days at all.
	GetByCalendar(ctx context.Context, calendarID string) ([]*domain.TradingDay, error)
}

// ResolvedCellStore provides analytic storage for materialized columns.
type ResolvedCellStore interface {
	// InsertBulk adds resolved cells. Fails entire batch on duplicate
	// (dataset, column_name, as_of_date, asset_id).
	InsertBulk(ctx context.Context, cells []*domain.ResolvedColumnCell) error

	// GetByColumn retrieves a column's cells with as_of_date within
	// [start, end] (inclusive), ordered by (as_of_date, asset_id) ASC.
	GetByColumn(ctx context.Context, dataset, columnName string, start, end domain.Date) ([]*domain.ResolvedColumnCell, error)
}
