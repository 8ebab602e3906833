package tui

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/pashagolub/tourneysim/pkg/journal"
)

// SortOrder represents the sorting direction of the results table
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// String returns the arrow shown next to the sorted column header
func (o SortOrder) String() string {
	if o == SortDesc {
		return "▼"
	}
	return "▲"
}

// TableView holds a results table and the current sort state.
// A negative column keeps the file order.
type TableView struct {
	table  *journal.Table
	column int
	order  SortOrder
}

// NewTableView wraps a table in file order
func NewTableView(table *journal.Table) *TableView {
	if table == nil {
		table = &journal.Table{}
	}
	return &TableView{table: table, column: -1}
}

// Header returns the column names
func (v *TableView) Header() []string {
	return v.table.Header
}

// Len returns the number of data rows
func (v *TableView) Len() int {
	return len(v.table.Rows)
}

// SortColumn returns the sorted column and direction
func (v *TableView) SortColumn() (int, SortOrder) {
	return v.column, v.order
}

// SortBy sorts by the given column. Selecting the current column again flips
// the direction.
func (v *TableView) SortBy(column int) {
	if column < 0 || column >= len(v.table.Header) {
		v.column = -1
		v.order = SortAsc
		return
	}
	if column == v.column {
		v.ToggleOrder()
		return
	}
	v.column = column
	v.order = SortAsc
}

// NextColumn moves the sort to the next column, wrapping back to file order
func (v *TableView) NextColumn() {
	next := v.column + 1
	if next >= len(v.table.Header) {
		next = -1
	}
	v.column = next
	v.order = SortAsc
}

// ToggleOrder flips the sort direction
func (v *TableView) ToggleOrder() {
	if v.order == SortAsc {
		v.order = SortDesc
	} else {
		v.order = SortAsc
	}
}

// Rows returns the data rows in display order. Cells that parse as numbers
// compare numerically, everything else compares as text.
func (v *TableView) Rows() [][]string {
	rows := slices.Clone(v.table.Rows)
	if v.column < 0 {
		return rows
	}
	col := v.column
	slices.SortStableFunc(rows, func(a, b []string) int {
		c := compareCells(cell(a, col), cell(b, col))
		if v.order == SortDesc {
			return -c
		}
		return c
	})
	return rows
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func compareCells(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
