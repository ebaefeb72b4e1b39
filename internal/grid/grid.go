// Package grid models a decoded quote document as an ordered list of
// text-cell tables plus a flattened text rendering, preserving cell
// coordinates so extraction can report where each value came from.
package grid

import "fmt"

// Table is one 2-D block of cells. Rows may be ragged; reads outside a
// row's width return "".
type Table struct {
	Cells [][]string
}

// Rows returns the number of rows in the table.
func (t Table) Rows() int { return len(t.Cells) }

// Cols returns the width of the widest row.
func (t Table) Cols() int {
	max := 0
	for _, row := range t.Cells {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// Cell returns the raw text at (row, col), or "" when out of bounds.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Cells) {
		return ""
	}
	if col < 0 || col >= len(t.Cells[row]) {
		return ""
	}
	return t.Cells[row][col]
}

// Document is the uniform decoded form of a quote file, whatever the
// source format was.
type Document struct {
	Name   string
	Tables []Table
	Text   string // flattened rendering for pattern fallbacks
}

// CellRef renders a provenance reference like "T1!B3": table number,
// spreadsheet-style column letters, 1-based row.
func CellRef(table, row, col int) string {
	column := col + 1
	letters := ""
	for column > 0 {
		column--
		letters = string(rune('A'+column%26)) + letters
		column /= 26
	}
	return fmt.Sprintf("T%d!%s%d", table+1, letters, row+1)
}
