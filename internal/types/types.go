// =============================================================================
// Bill Generator - Shared Types
// =============================================================================
//
// This package contains the worksheet model shared by the loaders and the
// bill computation core. Keeping it here avoids import cycles between:
//   - xlsxparser / csvparser (producers)
//   - bill (consumer)
//   - validation (layout checks)
//
// A worksheet is header-free: every cell is addressed by zero-based
// (row, column) coordinates, exactly as the spreadsheet author laid it out.
//
// =============================================================================

package types

import (
	"strconv"
	"time"
)

// =============================================================================
// CELL
// =============================================================================

// CellKind identifies which field of a Cell carries its value.
type CellKind int

const (
	// Blank is an empty or absent cell.
	Blank CellKind = iota

	// Number is a numeric cell (integer or real).
	Number

	// Text is a textual cell. Numeric-looking text stays Text; the
	// bill sanitizer decides how to read it.
	Text

	// Date is a date or timestamp cell.
	Date
)

// String returns the lowercase name of the kind.
func (k CellKind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	case Date:
		return "date"
	default:
		return "blank"
	}
}

// Cell is a single loosely-typed worksheet value.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Time   time.Time
}

// NumberCell returns a numeric cell.
func NumberCell(v float64) Cell { return Cell{Kind: Number, Number: v} }

// TextCell returns a text cell. An empty string still yields a Text cell,
// which is distinct from Blank.
func TextCell(s string) Cell { return Cell{Kind: Text, Text: s} }

// DateCell returns a date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: Date, Time: t} }

// IsBlank reports whether the cell is absent.
func (c Cell) IsBlank() bool { return c.Kind == Blank }

// String renders the cell the way a spreadsheet would show it in a plain
// text column. Numbers drop trailing zeros, dates use DD-MM-YYYY.
func (c Cell) String() string {
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case Text:
		return c.Text
	case Date:
		return c.Time.Format(DateLayout)
	default:
		return ""
	}
}

// DateLayout is the date-only layout used when dates are rendered as text.
const DateLayout = "02-01-2006"

// =============================================================================
// SHEET
// =============================================================================

// Sheet is an immutable, header-free table of cells.
type Sheet struct {
	// Name is the worksheet name in the source workbook.
	Name string

	rows [][]Cell
}

// NewSheet wraps rows into a Sheet. The caller must not modify rows
// afterwards.
func NewSheet(name string, rows [][]Cell) *Sheet {
	return &Sheet{Name: name, rows: rows}
}

// Rows returns the number of rows, counting trailing rows that are present
// in the source even when blank.
func (s *Sheet) Rows() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Cols returns the width of the widest row.
func (s *Sheet) Cols() int {
	if s == nil {
		return 0
	}
	width := 0
	for _, r := range s.rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}

// Cell returns the cell at (row, col). Coordinates outside the sheet yield
// a Blank cell.
func (s *Sheet) Cell(row, col int) Cell {
	if s == nil || row < 0 || row >= len(s.rows) {
		return Cell{}
	}
	r := s.rows[row]
	if col < 0 || col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// HasRow reports whether row exists in the sheet.
func (s *Sheet) HasRow(row int) bool {
	return s != nil && row >= 0 && row < len(s.rows)
}

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook groups the three worksheets one bill is computed from.
type Workbook struct {
	// Source is the path the workbook was loaded from (informational).
	Source string

	WorkOrder    *Sheet
	BillQuantity *Sheet
	ExtraItems   *Sheet
}
