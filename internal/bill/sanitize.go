// =============================================================================
// Bill Generator - Value Sanitizer
// =============================================================================
//
// Spreadsheet authors leave stray text, thousands separators and formatting
// artifacts in numeric columns. Every numeric read in this package goes
// through Sanitize, which never fails: anything it cannot read becomes zero.
//
//   | Input                         | Result             |
//   |-------------------------------|--------------------|
//   | Number cell                   | its value          |
//   | " 1,250.50 "                  | 1250.50            |
//   | "", "  ", "n/a", "12abc"      | 0                  |
//   | Blank / Date / anything else  | 0                  |
//
// =============================================================================

package bill

import (
	"math"
	"strings"

	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

// Sanitize coerces a worksheet cell into a number, defaulting to zero.
func Sanitize(c types.Cell) decimal.Decimal {
	switch c.Kind {
	case types.Number:
		return fromFloat(c.Number)
	case types.Text:
		return parseCleaned(c.Text)
	default:
		return decimal.Zero
	}
}

// SanitizeValue applies the Sanitize rules to a loosely-typed Go value.
// Collaborators that hold cell content as interface{} (JSON payloads,
// CSV records, test tables) use this instead of building a Cell.
func SanitizeValue(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case types.Cell:
		return Sanitize(t)
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	case int:
		return decimal.NewFromInt(int64(t))
	case int32:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case uint:
		return decimal.NewFromInt(int64(t))
	case uint32:
		return decimal.NewFromInt(int64(t))
	case string:
		return parseCleaned(t)
	default:
		return decimal.Zero
	}
}

// parseCleaned strips whitespace, thousands separators and embedded spaces
// before parsing.
func parseCleaned(s string) decimal.Decimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// fromFloat guards decimal.NewFromFloat, which panics on NaN and ±Inf.
func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// parseStrict reads a cell the same way Sanitize does but reports whether
// the content was actually numeric. Blank and whitespace-only text report
// present=false.
func parseStrict(c types.Cell) (value decimal.Decimal, present bool, ok bool) {
	switch c.Kind {
	case types.Blank:
		return decimal.Zero, false, true
	case types.Number:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return decimal.Zero, true, false
		}
		return decimal.NewFromFloat(c.Number), true, true
	case types.Text:
		cleaned := strings.TrimSpace(c.Text)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.ReplaceAll(cleaned, " ", "")
		if cleaned == "" {
			return decimal.Zero, false, true
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, true, false
		}
		return d, true, true
	default:
		return decimal.Zero, true, false
	}
}

// Readable reports whether c holds any content and whether that content
// reads as a number. Sanitize turns present but unreadable cells into zero.
func Readable(c types.Cell) (present, ok bool) {
	_, present, ok = parseStrict(c)
	return present, ok
}
