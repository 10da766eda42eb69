package domain

import "math"

// DateMatrix is a dense date × asset grid of optional dates. Row order
// follows the supplied date range, column order the supplied asset universe;
// neither is sorted implicitly. Nil cells are "no event knowable".
type DateMatrix struct {
	Dates  []Date
	Assets []string
	Cells  [][]*Date // [dateIdx][assetIdx]
}

// NewDateMatrix allocates an all-null matrix over the given grid.
func NewDateMatrix(dates []Date, assets []string) *DateMatrix {
	cells := make([][]*Date, len(dates))
	for i := range cells {
		cells[i] = make([]*Date, len(assets))
	}
	return &DateMatrix{Dates: dates, Assets: assets, Cells: cells}
}

// FloatMatrix is a dense date × asset grid of scalars; NaN marks null cells.
type FloatMatrix struct {
	Dates  []Date
	Assets []string
	Cells  [][]float64 // [dateIdx][assetIdx]
}

// NewFloatMatrix allocates an all-NaN matrix over the given grid.
func NewFloatMatrix(dates []Date, assets []string) *FloatMatrix {
	cells := make([][]float64, len(dates))
	for i := range cells {
		row := make([]float64, len(assets))
		for j := range row {
			row[j] = math.NaN()
		}
		cells[i] = row
	}
	return &FloatMatrix{Dates: dates, Assets: assets, Cells: cells}
}

// Column is one materialized logical column: the spec that produced it plus
// exactly one populated matrix (DateCells for event-date outputs, ValueCells
// for payload and business-day outputs).
type Column struct {
	Name       string
	Spec       ColumnSpec
	DateCells  *DateMatrix
	ValueCells *FloatMatrix
}

// Flatten converts a column into per-cell rows for analytic storage.
func (c *Column) Flatten(dataset string) []*ResolvedColumnCell {
	var dates []Date
	var assets []string
	if c.DateCells != nil {
		dates, assets = c.DateCells.Dates, c.DateCells.Assets
	} else if c.ValueCells != nil {
		dates, assets = c.ValueCells.Dates, c.ValueCells.Assets
	}

	out := make([]*ResolvedColumnCell, 0, len(dates)*len(assets))
	for i, d := range dates {
		for j, asset := range assets {
			cell := &ResolvedColumnCell{
				Dataset:    dataset,
				ColumnName: c.Name,
				AsOfDate:   d,
				AssetID:    asset,
				Value:      math.NaN(),
			}
			if c.DateCells != nil {
				cell.EventDate = c.DateCells.Cells[i][j]
			} else {
				cell.Value = c.ValueCells.Cells[i][j]
			}
			out = append(out, cell)
		}
	}
	return out
}
