package loader

import (
	"context"
	"errors"
	"math"
	"testing"

	"equity-events-lab/internal/calendar"
	"equity-events-lab/internal/domain"
	"equity-events-lab/internal/idhash"
	"equity-events-lab/internal/storage/memory"
)

func date(s string) domain.Date { return domain.MustParseDate(s) }

func dividendRecord(asset, knowledge, event string, amount float64) *domain.EventRecord {
	d := date(event)
	r := &domain.EventRecord{
		Dataset:       "cash_dividends",
		AssetID:       asset,
		KnowledgeDate: date(knowledge),
		EventDates: map[string]*domain.Date{
			FieldExDate:       &d,
			FieldPayDate:      &d,
			FieldAnnouncement: &d,
		},
		Payload: map[string]float64{FieldCashAmount: amount},
	}
	r.RecordID = idhash.ComputeRecordID(r)
	return r
}

func setupLoader(t *testing.T, records ...*domain.EventRecord) *Loader {
	t.Helper()
	ctx := context.Background()

	events := memory.NewEventRecordStore()
	if err := events.InsertBulk(ctx, records); err != nil {
		t.Fatalf("seed records: %v", err)
	}

	assets := memory.NewAssetLifecycleStore()
	for _, id := range []string{"EQ-0000", "EQ-0001"} {
		err := assets.Insert(ctx, &domain.AssetLifecycle{
			AssetID:   id,
			Symbol:    id,
			StartDate: date("2013-01-01"),
			EndDate:   date("2015-01-01"),
		})
		if err != nil {
			t.Fatalf("seed lifecycle: %v", err)
		}
	}

	cal, err := calendar.NewWeekdayCalendar(date("2013-01-01"), date("2015-01-01"), nil)
	if err != nil {
		t.Fatalf("build calendar: %v", err)
	}

	return New(events, assets, cal)
}

func cellAt(t *testing.T, col *domain.Column, dateRange []domain.Date, universe []string, d, asset string) (dval *domain.Date, fval float64) {
	t.Helper()
	di, ai := -1, -1
	for i, x := range dateRange {
		if x == date(d) {
			di = i
		}
	}
	for i, x := range universe {
		if x == asset {
			ai = i
		}
	}
	if di < 0 || ai < 0 {
		t.Fatalf("cell (%s, %s) not on the grid", d, asset)
	}
	if col.DateCells != nil {
		return col.DateCells.Cells[di][ai], math.NaN()
	}
	return nil, col.ValueCells.Cells[di][ai]
}

func TestLoader_LoadCashDividends(t *testing.T) {
	l := setupLoader(t,
		dividendRecord("EQ-0000", "2014-01-05", "2014-01-15", 1),
		dividendRecord("EQ-0000", "2014-01-10", "2014-01-20", 15),
	)

	universe := []string{"EQ-0000", "EQ-0001"}
	dateRange := domain.DateRange(date("2014-01-01"), date("2014-01-31"))

	columns, err := l.Load(context.Background(), "cash_dividends", universe, dateRange)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := CashDividends()
	if len(columns) != len(cfg.Columns) {
		t.Fatalf("expected %d columns, got %d", len(cfg.Columns), len(columns))
	}

	// Next ex-date before anything is knowable
	if d, _ := cellAt(t, columns[ColNextExDate], dateRange, universe, "2014-01-04", "EQ-0000"); d != nil {
		t.Errorf("next ex date on 01-04 = %v, want null", d)
	}
	// Knowable from 01-05
	if d, _ := cellAt(t, columns[ColNextExDate], dateRange, universe, "2014-01-06", "EQ-0000"); d == nil || *d != date("2014-01-15") {
		t.Errorf("next ex date on 01-06 = %v, want 2014-01-15", d)
	}
	// Previous side after the first event
	if d, _ := cellAt(t, columns[ColPreviousExDate], dateRange, universe, "2014-01-16", "EQ-0000"); d == nil || *d != date("2014-01-15") {
		t.Errorf("previous ex date on 01-16 = %v, want 2014-01-15", d)
	}
	// Amounts ride with the ex-date resolution
	if _, v := cellAt(t, columns[ColNextAmount], dateRange, universe, "2014-01-06", "EQ-0000"); v != 1 {
		t.Errorf("next amount on 01-06 = %v, want 1", v)
	}
	if _, v := cellAt(t, columns[ColPreviousAmount], dateRange, universe, "2014-01-21", "EQ-0000"); v != 15 {
		t.Errorf("previous amount on 01-21 = %v, want 15", v)
	}

	// Asset with no records stays null everywhere
	if d, _ := cellAt(t, columns[ColNextExDate], dateRange, universe, "2014-01-16", "EQ-0001"); d != nil {
		t.Errorf("recordless asset next ex date = %v, want null", d)
	}
	if _, v := cellAt(t, columns[ColPreviousAmount], dateRange, universe, "2014-01-16", "EQ-0001"); !math.IsNaN(v) {
		t.Errorf("recordless asset amount = %v, want NaN", v)
	}
}

func TestLoader_BusinessDayColumns(t *testing.T) {
	l := setupLoader(t,
		dividendRecord("EQ-0000", "2014-01-05", "2014-01-15", 1),
	)

	universe := []string{"EQ-0000"}
	dateRange := domain.DateRange(date("2014-01-01"), date("2014-01-31"))

	columns, err := l.Load(context.Background(), "cash_dividends", universe, dateRange)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	daysTo := columns[ColDaysToNextExDate]
	if daysTo.ValueCells == nil {
		t.Fatal("business-day column must carry values")
	}

	// Wed 2014-01-08 to Wed 2014-01-15: Wed, Thu, Fri, Mon, Tue in [from, to)
	if _, v := cellAt(t, daysTo, dateRange, universe, "2014-01-08", "EQ-0000"); v != 5 {
		t.Errorf("days to next ex date on 01-08 = %v, want 5", v)
	}
	// Next event on the very next business day is one day away, never zero
	if _, v := cellAt(t, daysTo, dateRange, universe, "2014-01-14", "EQ-0000"); v != 1 {
		t.Errorf("days to next ex date on 01-14 = %v, want 1", v)
	}
	// No next event resolved: NaN
	if _, v := cellAt(t, daysTo, dateRange, universe, "2014-01-20", "EQ-0000"); !math.IsNaN(v) {
		t.Errorf("days to next ex date on 01-20 = %v, want NaN", v)
	}

	// Previous-direction distances are measured from the event forward
	daysSince := columns[ColDaysSincePrevExDate]
	// Wed 2014-01-15 to Mon 2014-01-20: Wed, Thu, Fri in [from, to)
	if _, v := cellAt(t, daysSince, dateRange, universe, "2014-01-20", "EQ-0000"); v != 3 {
		t.Errorf("days since prev ex date on 01-20 = %v, want 3", v)
	}
	// Zero only on the event day itself
	if _, v := cellAt(t, daysSince, dateRange, universe, "2014-01-15", "EQ-0000"); v != 0 {
		t.Errorf("days since prev ex date on 01-15 = %v, want 0", v)
	}
}

func TestLoader_UnknownAsset(t *testing.T) {
	l := setupLoader(t)

	_, err := l.Load(context.Background(), "cash_dividends", []string{"EQ-9999"}, domain.DateRange(date("2014-01-01"), date("2014-01-02")))
	if !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestLoader_UnknownDataset(t *testing.T) {
	l := setupLoader(t)

	_, err := l.Load(context.Background(), "weather", []string{"EQ-0000"}, domain.DateRange(date("2014-01-01"), date("2014-01-02")))
	if !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestDatasetConfig_KnowledgeConflation(t *testing.T) {
	cfg := CashDividends()

	ann := date("2014-01-05")
	r := &domain.EventRecord{
		Dataset:    cfg.Name,
		AssetID:    "EQ-0000",
		EventDates: map[string]*domain.Date{FieldAnnouncement: &ann},
	}
	if err := cfg.ApplyKnowledgeConflation(r); err != nil {
		t.Fatalf("conflation failed: %v", err)
	}
	if r.KnowledgeDate != ann {
		t.Errorf("knowledge date = %s, want %s", r.KnowledgeDate, ann)
	}

	// Explicit knowledge dates are left alone
	r.KnowledgeDate = date("2014-01-03")
	if err := cfg.ApplyKnowledgeConflation(r); err != nil {
		t.Fatalf("conflation failed: %v", err)
	}
	if r.KnowledgeDate != date("2014-01-03") {
		t.Error("explicit knowledge date was overwritten")
	}

	// No announcement to derive from
	r = &domain.EventRecord{
		Dataset:    cfg.Name,
		AssetID:    "EQ-0000",
		EventDates: map[string]*domain.Date{FieldAnnouncement: nil},
	}
	if err := cfg.ApplyKnowledgeConflation(r); err == nil {
		t.Error("expected error when no announcement date exists")
	}
}
