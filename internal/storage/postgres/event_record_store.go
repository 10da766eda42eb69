package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

// EventRecordStore implements storage.EventRecordStore using PostgreSQL.
// Event-date and payload mappings are stored as JSONB so the table stays
// dataset-agnostic.
type EventRecordStore struct {
	pool *Pool
}

// NewEventRecordStore creates a new EventRecordStore.
func NewEventRecordStore(pool *Pool) *EventRecordStore {
	return &EventRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventRecordStore = (*EventRecordStore)(nil)

const insertEventRecordQuery = `
	INSERT INTO event_records (
		record_id, dataset, asset_id, knowledge_date, event_dates, payload
	) VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
`

// Insert adds a new record. Returns ErrDuplicateKey if record_id exists.
func (s *EventRecordStore) Insert(ctx context.Context, r *domain.EventRecord) error {
	if r == nil || r.RecordID == "" || r.AssetID == "" || r.Dataset == "" {
		return storage.ErrInvalidInput
	}

	eventDates, payload, err := marshalRecordMaps(r)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, insertEventRecordQuery,
		r.RecordID,
		r.Dataset,
		r.AssetID,
		r.KnowledgeDate.Time(),
		eventDates,
		payload,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *EventRecordStore) InsertBulk(ctx context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r == nil || r.RecordID == "" || r.AssetID == "" || r.Dataset == "" {
			return storage.ErrInvalidInput
		}
		eventDates, payload, err := marshalRecordMaps(r)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, insertEventRecordQuery,
			r.RecordID,
			r.Dataset,
			r.AssetID,
			r.KnowledgeDate.Time(),
			eventDates,
			payload,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert event record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByDataset retrieves all records of a dataset, ordered by
// (knowledge_date, record_id) ASC.
func (s *EventRecordStore) GetByDataset(ctx context.Context, dataset string) ([]*domain.EventRecord, error) {
	query := `
		SELECT record_id, dataset, asset_id, knowledge_date, event_dates, payload
		FROM event_records
		WHERE dataset = $1
		ORDER BY knowledge_date ASC, record_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("get event records by dataset: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

// GetByAsset retrieves a dataset's records for one asset.
func (s *EventRecordStore) GetByAsset(ctx context.Context, dataset, assetID string) ([]*domain.EventRecord, error) {
	query := `
		SELECT record_id, dataset, asset_id, knowledge_date, event_dates, payload
		FROM event_records
		WHERE dataset = $1 AND asset_id = $2
		ORDER BY knowledge_date ASC, record_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dataset, assetID)
	if err != nil {
		return nil, fmt.Errorf("get event records by asset: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

// GetByKnowledgeRange retrieves a dataset's records with knowledge_date
// within [start, end] (inclusive).
func (s *EventRecordStore) GetByKnowledgeRange(ctx context.Context, dataset string, start, end domain.Date) ([]*domain.EventRecord, error) {
	query := `
		SELECT record_id, dataset, asset_id, knowledge_date, event_dates, payload
		FROM event_records
		WHERE dataset = $1 AND knowledge_date >= $2 AND knowledge_date <= $3
		ORDER BY knowledge_date ASC, record_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dataset, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("get event records by knowledge range: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

// marshalRecordMaps encodes the event-date and payload mappings for JSONB columns.
func marshalRecordMaps(r *domain.EventRecord) (string, string, error) {
	eventDates := r.EventDates
	if eventDates == nil {
		eventDates = map[string]*domain.Date{}
	}
	ed, err := json.Marshal(eventDates)
	if err != nil {
		return "", "", fmt.Errorf("marshal event dates: %w", err)
	}

	payload := r.Payload
	if payload == nil {
		payload = map[string]float64{}
	}
	pl, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal payload: %w", err)
	}

	return string(ed), string(pl), nil
}

// scanEventRecords scans multiple rows into EventRecords.
func scanEventRecords(rows pgx.Rows) ([]*domain.EventRecord, error) {
	var records []*domain.EventRecord

	for rows.Next() {
		var r domain.EventRecord
		var knowledge time.Time
		var eventDates, payload []byte

		err := rows.Scan(
			&r.RecordID,
			&r.Dataset,
			&r.AssetID,
			&knowledge,
			&eventDates,
			&payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event record row: %w", err)
		}

		r.KnowledgeDate = domain.DateOf(knowledge)
		if err := json.Unmarshal(eventDates, &r.EventDates); err != nil {
			return nil, fmt.Errorf("unmarshal event dates: %w", err)
		}
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event record rows: %w", err)
	}

	return records, nil
}
