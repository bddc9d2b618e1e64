// Package dataset loads the two tabular sources the audit works on: the
// invoice register and the general ledger. A Dataset is a plain ordered
// table of raw cell strings; all interpretation (roles, amounts) happens
// in other packages.
package dataset

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyDataset means the file opened fine but held no usable rows.
	// Callers surface it as a warning, distinct from a load failure.
	ErrEmptyDataset = errors.New("dataset contains no usable rows")

	// ErrNoSheets means the workbook carries no worksheet to read.
	ErrNoSheets = errors.New("workbook has no sheets")
)

// Dataset is an ordered table. Column order is preserved for display;
// rows may be shorter than the header (missing cells read as empty).
// The column set is fixed once loaded.
type Dataset struct {
	Columns []string
	cells   [][]string
	colIdx  map[string]int
}

// New builds a Dataset from a header and raw rows. Duplicate column
// names are legal; lookups by name resolve to the first occurrence.
func New(columns []string, rows [][]string) *Dataset {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return &Dataset{Columns: columns, cells: rows, colIdx: idx}
}

// RowCount returns the number of rows, empty ones included.
func (d *Dataset) RowCount() int {
	return len(d.cells)
}

// NonEmptyRowCount counts rows with at least one non-blank cell.
func (d *Dataset) NonEmptyRowCount() int {
	n := 0
	for i := range d.cells {
		if !d.RowIsEmpty(i) {
			n++
		}
	}
	return n
}

// RowIsEmpty reports whether every cell of the row is blank once trimmed.
func (d *Dataset) RowIsEmpty(row int) bool {
	for _, c := range d.cells[row] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Get returns the raw cell at (row, column name); empty string when the
// column is absent or the row is shorter than the header.
func (d *Dataset) Get(row int, col string) string {
	i, ok := d.colIdx[col]
	if !ok {
		return ""
	}
	return d.GetAt(row, i)
}

// GetAt returns the raw cell at (row, column position).
func (d *Dataset) GetAt(row, col int) string {
	if row < 0 || row >= len(d.cells) {
		return ""
	}
	r := d.cells[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(col string) bool {
	_, ok := d.colIdx[col]
	return ok
}

// RowMatches reports whether any cell of the row matches the predicate.
func (d *Dataset) RowMatches(row int, pred func(cell string) bool) bool {
	for _, c := range d.cells[row] {
		if pred(c) {
			return true
		}
	}
	return false
}
