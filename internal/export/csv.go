// Package export renders materialized columns as CSV for downstream
// analysis tools.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"equity-events-lab/internal/domain"
)

// RenderColumnCSV renders one column as a wide date × asset grid. Null
// cells render empty.
func RenderColumnCSV(col *domain.Column) string {
	var sb strings.Builder

	var dates []domain.Date
	var assets []string
	if col.DateCells != nil {
		dates, assets = col.DateCells.Dates, col.DateCells.Assets
	} else if col.ValueCells != nil {
		dates, assets = col.ValueCells.Dates, col.ValueCells.Assets
	}

	// Header
	sb.WriteString("date")
	for _, asset := range assets {
		sb.WriteString(",")
		sb.WriteString(asset)
	}
	sb.WriteString("\n")

	// Rows
	for i, d := range dates {
		sb.WriteString(d.String())
		for j := range assets {
			sb.WriteString(",")
			if col.DateCells != nil {
				if cell := col.DateCells.Cells[i][j]; cell != nil {
					sb.WriteString(cell.String())
				}
			} else {
				if v := col.ValueCells.Cells[i][j]; !math.IsNaN(v) {
					sb.WriteString(fmt.Sprintf("%g", v))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderDatasetCSV renders all of a dataset's columns in long form, one row
// per cell, columns in lexical order.
func RenderDatasetCSV(dataset string, columns map[string]*domain.Column) string {
	var sb strings.Builder
	sb.WriteString("dataset,column,as_of_date,asset_id,event_date,value\n")

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, cell := range columns[name].Flatten(dataset) {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,", cell.Dataset, cell.ColumnName, cell.AsOfDate, cell.AssetID))
			if cell.EventDate != nil {
				sb.WriteString(cell.EventDate.String())
			}
			sb.WriteString(",")
			if !math.IsNaN(cell.Value) {
				sb.WriteString(fmt.Sprintf("%g", cell.Value))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// WriteDir writes one wide CSV per column into dir, named
// <dataset>_<column>.csv. The directory is created if needed.
func WriteDir(dir, dataset string, columns map[string]*domain.Column) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	for name, col := range columns {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", dataset, name))
		if err := os.WriteFile(path, []byte(RenderColumnCSV(col)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}
