// =============================================================================
// Bill Generator - Workbook Loader
// =============================================================================
//
// This module reads the three worksheets a bill is computed from:
//
//   | Sheet         | Holds                                                 |
//   |---------------|-------------------------------------------------------|
//   | Work Order    | header block, agreement metadata, contracted items   |
//   | Bill Quantity | executed quantities, row-aligned with Work Order     |
//   | Extra Items   | items executed outside the work order                |
//
// Supported sources:
//   - .xlsx / .xlsm  via excelize, with typed cells (numbers, dates, text)
//   - .xls           via extrame/xls; every cell arrives as text
//   - a directory    holding a CSV bundle, via csvparser
//
// The loader never interprets the sheets; it only turns them into the
// header-free types.Sheet grid the bill core reads.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/ginjaninja78/bill-generator/internal/config"
	"github.com/ginjaninja78/bill-generator/internal/csvparser"
	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrSheetNotFound is returned when a required worksheet is missing.
	ErrSheetNotFound = errors.New("worksheet not found")

	// ErrUnsupportedFormat is returned for sources the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
)

// Loader reads the three bill worksheets from a source.
type Loader interface {
	Load(path string) (types.Workbook, error)
}

// SheetNames are the worksheet names a loader looks for.
type SheetNames struct {
	WorkOrder    string
	BillQuantity string
	ExtraItems   string
}

// DefaultSheetNames returns the conventional sheet names.
func DefaultSheetNames() SheetNames {
	return SheetNames{
		WorkOrder:    "Work Order",
		BillQuantity: "Bill Quantity",
		ExtraItems:   "Extra Items",
	}
}

func (n SheetNames) list() [3]string {
	return [3]string{n.WorkOrder, n.BillQuantity, n.ExtraItems}
}

// FileLoader picks the reader by file extension.
type FileLoader struct {
	Sheets SheetNames
	CSV    config.CSVSettings
}

// NewLoader builds a FileLoader from an office profile.
func NewLoader(profile *config.OfficeProfile) *FileLoader {
	return &FileLoader{
		Sheets: SheetNames{
			WorkOrder:    profile.Layout.WorkOrderSheet,
			BillQuantity: profile.Layout.BillQuantitySheet,
			ExtraItems:   profile.Layout.ExtraItemsSheet,
		},
		CSV: profile.CSVSettings,
	}
}

// Load implements Loader.
func (l *FileLoader) Load(path string) (types.Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Workbook{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	if info.IsDir() {
		return csvparser.LoadBundle(path, l.Sheets.list(), l.CSV)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, l.Sheets)
	case ".xls":
		return LoadXLS(path, l.Sheets)
	default:
		return types.Workbook{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// =============================================================================
// XLSX
// =============================================================================

// LoadXLSX opens an .xlsx file and reads the three worksheets.
func LoadXLSX(path string, names SheetNames) (types.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return types.Workbook{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb, err := readWorkbook(f, names)
	if err != nil {
		return types.Workbook{}, err
	}
	wb.Source = path
	return wb, nil
}

// ReadXLSX reads the three worksheets from an .xlsx stream.
func ReadXLSX(r io.Reader, names SheetNames) (types.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return types.Workbook{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f, names)
}

func readWorkbook(f *excelize.File, names SheetNames) (types.Workbook, error) {
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	r := &xlsxReader{f: f, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}

	sheets := make([]*types.Sheet, 3)
	for i, name := range names.list() {
		if !present[name] {
			return types.Workbook{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
		}
		sheet, err := r.readSheet(name)
		if err != nil {
			return types.Workbook{}, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheets[i] = sheet
	}

	return types.Workbook{
		WorkOrder:    sheets[0],
		BillQuantity: sheets[1],
		ExtraItems:   sheets[2],
	}, nil
}

// xlsxReader types cells using the raw stored value, the cell type and the
// number format of the cell style.
type xlsxReader struct {
	f          *excelize.File
	date1904   bool
	dateStyles map[int]bool
}

func (r *xlsxReader) readSheet(name string) (*types.Sheet, error) {
	raw, err := r.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]types.Cell, len(raw))
	for i, rawRow := range raw {
		rows[i] = make([]types.Cell, len(rawRow))
		for j, value := range rawRow {
			rows[i][j] = r.cell(name, i, j, value)
		}
	}
	return types.NewSheet(name, rows), nil
}

func (r *xlsxReader) cell(sheet string, row, col int, raw string) types.Cell {
	if strings.TrimSpace(raw) == "" {
		return types.Cell{}
	}

	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return types.TextCell(raw)
	}

	cellType, err := r.f.GetCellType(sheet, ref)
	if err != nil {
		return types.TextCell(raw)
	}
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeFormula, excelize.CellTypeDate:
	default:
		return types.TextCell(raw)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return types.TextCell(raw)
	}

	if cellType == excelize.CellTypeDate || r.isDateStyled(sheet, ref) {
		if t, err := excelize.ExcelDateToTime(v, r.date1904); err == nil {
			return types.DateCell(t)
		}
	}
	return types.NumberCell(v)
}

// isDateStyled reports whether the cell's number format displays a date.
func (r *xlsxReader) isDateStyled(sheet, ref string) bool {
	styleID, err := r.f.GetCellStyle(sheet, ref)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := r.f.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	r.dateStyles[styleID] = isDate
	return isDate
}

// isDateNumFmt reports whether a built-in number format id is a date or
// date-time format.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

// isDateFormatCode looks for day, month or year tokens outside quoted
// literals and brackets.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, c := range strings.ToLower(code) {
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		case c == 'd' || c == 'y' || c == 'm':
			return true
		}
	}
	return false
}

// =============================================================================
// XLS
// =============================================================================

// LoadXLS opens a legacy .xls file. The format carries no reliable cell
// types through extrame/xls, so numeric-looking text becomes a Number cell
// and everything else stays Text.
func LoadXLS(path string, names SheetNames) (types.Workbook, error) {
	book, err := xls.Open(path, "utf-8")
	if err != nil {
		return types.Workbook{}, fmt.Errorf("failed to open workbook: %w", err)
	}

	byName := make(map[string]*xls.WorkSheet)
	for i := 0; i < book.NumSheets(); i++ {
		if sheet := book.GetSheet(i); sheet != nil {
			byName[sheet.Name] = sheet
		}
	}

	sheets := make([]*types.Sheet, 3)
	for i, name := range names.list() {
		ws, ok := byName[name]
		if !ok {
			return types.Workbook{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
		}
		sheets[i] = readXLSSheet(ws)
	}

	return types.Workbook{
		Source:       path,
		WorkOrder:    sheets[0],
		BillQuantity: sheets[1],
		ExtraItems:   sheets[2],
	}, nil
}

func readXLSSheet(ws *xls.WorkSheet) *types.Sheet {
	rows := make([][]types.Cell, int(ws.MaxRow)+1)
	for i := range rows {
		xlsRow := ws.Row(i)
		if xlsRow == nil {
			continue
		}
		last := xlsRow.LastCol()
		cells := make([]types.Cell, last)
		for j := 0; j < last; j++ {
			cells[j] = csvparser.ParseField(xlsRow.Col(j))
		}
		rows[i] = cells
	}
	return types.NewSheet(ws.Name, rows)
}
