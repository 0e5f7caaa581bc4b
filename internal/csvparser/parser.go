// =============================================================================
// Bill Generator - CSV Sheet Loader
// =============================================================================
//
// Some offices export the three bill worksheets as separate CSV files instead
// of one workbook. This module reads such a bundle:
//
//   bill_07/
//     work_order.csv
//     bill_quantity.csv
//     extra_items.csv
//
// Every record becomes one worksheet row, header rows included, so the row
// numbers match the spreadsheet the CSV was exported from. Fields that parse
// as numbers become Number cells, empty fields become Blank cells and
// everything else stays Text.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ginjaninja78/bill-generator/internal/config"
	"github.com/ginjaninja78/bill-generator/internal/types"
)

// ErrIncompleteBundle is returned when a bundle directory lacks one of the
// three sheet files.
var ErrIncompleteBundle = errors.New("incomplete CSV bundle")

// =============================================================================
// BUNDLE LOADING
// =============================================================================

// IsBundle reports whether dir holds a complete CSV bundle.
func IsBundle(dir string, settings config.CSVSettings) bool {
	for _, name := range bundleFiles(settings) {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// LoadBundle reads the three sheet files of a bundle directory.
//
// PARAMETERS:
//   - dir: The bundle directory.
//   - names: Worksheet names to give the three sheets.
//   - settings: File names and delimiter from the office profile.
//
// RETURNS:
//   - The workbook, with Source set to dir.
//   - ErrIncompleteBundle if a file is missing, or the parse error.
func LoadBundle(dir string, names [3]string, settings config.CSVSettings) (types.Workbook, error) {
	files := bundleFiles(settings)
	sheets := make([]*types.Sheet, len(files))

	for i, name := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return types.Workbook{}, fmt.Errorf("%w: %s: %v", ErrIncompleteBundle, name, err)
		}
		sheet, err := ParseFile(path, names[i], settings)
		if err != nil {
			return types.Workbook{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		sheets[i] = sheet
	}

	return types.Workbook{
		Source:       dir,
		WorkOrder:    sheets[0],
		BillQuantity: sheets[1],
		ExtraItems:   sheets[2],
	}, nil
}

func bundleFiles(settings config.CSVSettings) []string {
	return []string{settings.WorkOrderFile, settings.BillQuantityFile, settings.ExtraItemsFile}
}

// =============================================================================
// SHEET PARSING
// =============================================================================

// ParseFile reads one CSV file into a worksheet.
func ParseFile(filePath, sheetName string, settings config.CSVSettings) (*types.Sheet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(bufio.NewReader(file), sheetName, settings)
}

// Parse reads CSV records from r into a worksheet named sheetName.
func Parse(r io.Reader, sheetName string, settings config.CSVSettings) (*types.Sheet, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	rows := make([][]types.Cell, len(records))
	for i, record := range records {
		rows[i] = make([]types.Cell, len(record))
		for j, field := range record {
			rows[i][j] = ParseField(field)
		}
	}

	return types.NewSheet(sheetName, rows), nil
}

// ParseField types one CSV field. Only plain numbers become Number cells;
// "1,250.50" stays Text and is left to the bill sanitizer.
func ParseField(field string) types.Cell {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return types.Cell{}
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return types.NumberCell(v)
	}
	return types.TextCell(field)
}

// configureReader applies the delimiter from the profile and relaxes the
// reader for hand-edited exports.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Rows of a bill sheet have ragged widths.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
