package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/storage"
)

func dividendRecord(id, asset, knowledge string) *domain.EventRecord {
	return &domain.EventRecord{
		RecordID:      id,
		Dataset:       "cash_dividends",
		AssetID:       asset,
		KnowledgeDate: domain.MustParseDate(knowledge),
		EventDates: map[string]*domain.Date{
			"ex_date":  domain.DatePtr(domain.MustParseDate("2014-01-15")),
			"pay_date": nil,
		},
		Payload: map[string]float64{"cash_amount": 12.5},
	}
}

func TestEventRecordStore_InsertAndGetByAsset(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	record := dividendRecord("rec-001", "EQ-0000", "2014-01-05")
	err := store.Insert(ctx, record)
	require.NoError(t, err)

	retrieved, err := store.GetByAsset(ctx, "cash_dividends", "EQ-0000")
	require.NoError(t, err)
	require.Len(t, retrieved, 1)

	got := retrieved[0]
	assert.Equal(t, record.RecordID, got.RecordID)
	assert.Equal(t, record.Dataset, got.Dataset)
	assert.Equal(t, record.AssetID, got.AssetID)
	assert.Equal(t, record.KnowledgeDate, got.KnowledgeDate)
	assert.Equal(t, record.Payload["cash_amount"], got.Payload["cash_amount"])

	// A declared-but-unknown event date survives the JSONB round trip as nil
	require.NotNil(t, got.EventDates["ex_date"])
	assert.Equal(t, domain.MustParseDate("2014-01-15"), *got.EventDates["ex_date"])
	payDate, declared := got.EventDates["pay_date"]
	assert.True(t, declared)
	assert.Nil(t, payDate)
}

func TestEventRecordStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	record := dividendRecord("rec-dup", "EQ-0000", "2014-01-05")
	err := store.Insert(ctx, record)
	require.NoError(t, err)

	err = store.Insert(ctx, record)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestEventRecordStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.EventRecord{RecordID: "rec-no-asset"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestEventRecordStore_InsertBulkRollsBackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, dividendRecord("rec-001", "EQ-0000", "2014-01-05"))
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.EventRecord{
		dividendRecord("rec-002", "EQ-0000", "2014-01-06"),
		dividendRecord("rec-001", "EQ-0000", "2014-01-05"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// rec-002 must not have been committed
	retrieved, err := store.GetByDataset(ctx, "cash_dividends")
	require.NoError(t, err)
	assert.Len(t, retrieved, 1)
}

func TestEventRecordStore_GetByDatasetOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.EventRecord{
		dividendRecord("rec-b", "EQ-0001", "2014-01-10"),
		dividendRecord("rec-a", "EQ-0000", "2014-01-10"),
		dividendRecord("rec-c", "EQ-0000", "2014-01-05"),
	})
	require.NoError(t, err)

	retrieved, err := store.GetByDataset(ctx, "cash_dividends")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	// (knowledge_date, record_id) ASC
	assert.Equal(t, "rec-c", retrieved[0].RecordID)
	assert.Equal(t, "rec-a", retrieved[1].RecordID)
	assert.Equal(t, "rec-b", retrieved[2].RecordID)
}

func TestEventRecordStore_GetByKnowledgeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.EventRecord{
		dividendRecord("rec-1", "EQ-0000", "2014-01-05"),
		dividendRecord("rec-2", "EQ-0000", "2014-01-10"),
		dividendRecord("rec-3", "EQ-0000", "2014-01-15"),
	})
	require.NoError(t, err)

	retrieved, err := store.GetByKnowledgeRange(ctx, "cash_dividends",
		domain.MustParseDate("2014-01-06"), domain.MustParseDate("2014-01-15"))
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, "rec-2", retrieved[0].RecordID)
	assert.Equal(t, "rec-3", retrieved[1].RecordID)
}

func TestEventRecordStore_DatasetsIsolated(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventRecordStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, dividendRecord("rec-div", "EQ-0000", "2014-01-05")))

	earnings := dividendRecord("rec-earn", "EQ-0000", "2014-01-05")
	earnings.Dataset = "earnings"
	require.NoError(t, store.Insert(ctx, earnings))

	retrieved, err := store.GetByDataset(ctx, "earnings")
	require.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Equal(t, "rec-earn", retrieved[0].RecordID)
}
