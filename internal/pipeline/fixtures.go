package pipeline

import (
	"context"
	"errors"
	"fmt"

	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/idhash"
	"equity-events-lab/internal/loader"
	"equity-events-lab/internal/storage"
)

// Deterministic fixture dataset for fixture-mode runs and tests. Five
// assets cover the interesting knowledge/event orderings:
//
//	EQ-0000: K1--K2--E1--E2
//	EQ-0001: K1--K2--E2--E1
//	EQ-0002: K1--E1--K2--E2
//	EQ-0003: K1 == K2
//	EQ-0004: no records at all
func FixtureAssets() []string {
	return []string{"EQ-0000", "EQ-0001", "EQ-0002", "EQ-0003", "EQ-0004"}
}

// FixtureDateRange returns the evaluation window the fixtures are designed
// around.
func FixtureDateRange() []domain.Date {
	return domain.DateRange(
		domain.MustParseDate("2014-01-01"),
		domain.MustParseDate("2014-01-31"),
	)
}

// FixtureLifecycles returns lifecycle rows covering the fixture window for
// every fixture asset.
func FixtureLifecycles() []*domain.AssetLifecycle {
	start := domain.MustParseDate("2013-01-01")
	end := domain.MustParseDate("2015-01-01")

	assets := FixtureAssets()
	out := make([]*domain.AssetLifecycle, len(assets))
	for i, id := range assets {
		out[i] = &domain.AssetLifecycle{
			AssetID:   id,
			Symbol:    fmt.Sprintf("FIX%d", i),
			StartDate: start,
			EndDate:   end,
		}
	}
	return out
}

// DividendFixtureRecords returns the cash dividend records, two per asset
// except the empty one.
func DividendFixtureRecords() []*domain.EventRecord {
	type row struct {
		asset     string
		knowledge string
		event     string
		amount    float64
	}

	rows := []row{
		// K1--K2--E1--E2
		{"EQ-0000", "2014-01-05", "2014-01-15", 1},
		{"EQ-0000", "2014-01-10", "2014-01-20", 15},
		// K1--K2--E2--E1
		{"EQ-0001", "2014-01-05", "2014-01-20", 7},
		{"EQ-0001", "2014-01-10", "2014-01-15", 13},
		// K1--E1--K2--E2
		{"EQ-0002", "2014-01-05", "2014-01-10", 3},
		{"EQ-0002", "2014-01-15", "2014-01-20", 1},
		// K1 == K2
		{"EQ-0003", "2014-01-05", "2014-01-10", 6},
		{"EQ-0003", "2014-01-05", "2014-01-15", 23},
	}

	out := make([]*domain.EventRecord, len(rows))
	for i, r := range rows {
		event := domain.MustParseDate(r.event)
		rec := &domain.EventRecord{
			Dataset:       "cash_dividends",
			AssetID:       r.asset,
			KnowledgeDate: domain.MustParseDate(r.knowledge),
			EventDates: map[string]*domain.Date{
				loader.FieldExDate:       domain.DatePtr(event),
				loader.FieldPayDate:      domain.DatePtr(event),
				loader.FieldAnnouncement: domain.DatePtr(event),
			},
			Payload: map[string]float64{
				loader.FieldCashAmount: r.amount,
			},
		}
		rec.RecordID = idhash.ComputeRecordID(rec)
		out[i] = rec
	}
	return out
}

// SeedFixtures loads the fixture lifecycles and dividend records into the
// given stores. Safe to call against already-seeded stores.
func SeedFixtures(ctx context.Context, records storage.EventRecordStore, lifecycles storage.AssetLifecycleStore) error {
	for _, a := range FixtureLifecycles() {
		if err := lifecycles.Insert(ctx, a); err != nil && !isDuplicate(err) {
			return fmt.Errorf("seed lifecycle %s: %w", a.AssetID, err)
		}
	}
	for _, r := range DividendFixtureRecords() {
		if err := records.Insert(ctx, r); err != nil && !isDuplicate(err) {
			return fmt.Errorf("seed record %s: %w", r.RecordID, err)
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, storage.ErrDuplicateKey)
}
