package domain

import (
	"math"
	"testing"
)

func TestResolvedCell_Value(t *testing.T) {
	cell := ResolvedCell{}
	if !math.IsNaN(cell.Value("cash_amount")) {
		t.Error("null cell should project NaN")
	}

	ex := MustParseDate("2014-01-15")
	cell = ResolvedCell{
		EventDate: &ex,
		Record:    &EventRecord{Payload: map[string]float64{"cash_amount": 7}},
	}
	if got := cell.Value("cash_amount"); got != 7 {
		t.Errorf("Value = %v, want 7", got)
	}
	if !math.IsNaN(cell.Value("missing_field")) {
		t.Error("absent payload field should project NaN")
	}
}

func TestColumn_Flatten(t *testing.T) {
	dates := []Date{MustParseDate("2014-01-01"), MustParseDate("2014-01-02")}
	assets := []string{"EQ-0000", "EQ-0001"}

	dm := NewDateMatrix(dates, assets)
	ex := MustParseDate("2014-01-15")
	dm.Cells[1][0] = &ex

	col := &Column{Name: "NEXT_EX_DATE", DateCells: dm}
	cells := col.Flatten("cash_dividends")
	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}

	// Row-major: date order outer, asset order inner
	if cells[0].AsOfDate != dates[0] || cells[0].AssetID != "EQ-0000" {
		t.Errorf("first cell keyed wrong: %s %s", cells[0].AsOfDate, cells[0].AssetID)
	}
	if cells[2].EventDate == nil || *cells[2].EventDate != ex {
		t.Errorf("populated cell lost its event date: %v", cells[2].EventDate)
	}
	if cells[0].EventDate != nil {
		t.Error("null cell should keep nil event date")
	}
	for _, c := range cells {
		if c.Dataset != "cash_dividends" || c.ColumnName != "NEXT_EX_DATE" {
			t.Errorf("cell mislabeled: %s %s", c.Dataset, c.ColumnName)
		}
		if !math.IsNaN(c.Value) {
			t.Error("date column cells should carry NaN values")
		}
	}
}

func TestNewFloatMatrix_NaNInitialized(t *testing.T) {
	m := NewFloatMatrix([]Date{0, 1}, []string{"a"})
	for _, row := range m.Cells {
		for _, v := range row {
			if !math.IsNaN(v) {
				t.Fatal("fresh matrix must be all NaN")
			}
		}
	}
}
