package bill

import (
	"testing"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

// row builds a worksheet row from plain Go values: nil is Blank, numbers are
// Number cells, strings are Text cells and time.Time is a Date cell.
func row(values ...interface{}) []types.Cell {
	cells := make([]types.Cell, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
			cells[i] = types.Cell{}
		case int:
			cells[i] = types.NumberCell(float64(t))
		case float64:
			cells[i] = types.NumberCell(t)
		case string:
			cells[i] = types.TextCell(t)
		case time.Time:
			cells[i] = types.DateCell(t)
		case types.Cell:
			cells[i] = t
		}
	}
	return cells
}

// dataSheet pads start empty rows in front of data.
func dataSheet(name string, start int, data ...[]types.Cell) *types.Sheet {
	rows := make([][]types.Cell, start, start+len(data))
	return types.NewSheet(name, append(rows, data...))
}

func workOrderSheet(data ...[]types.Cell) *types.Sheet {
	return dataSheet("Work Order", DefaultLayout().WorkOrderStart, data...)
}

func billQuantitySheet(data ...[]types.Cell) *types.Sheet {
	return dataSheet("Bill Quantity", DefaultLayout().WorkOrderStart, data...)
}

func extraItemsSheet(data ...[]types.Cell) *types.Sheet {
	return dataSheet("Extra Items", DefaultLayout().ExtraItemsStart, data...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, what string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

func above(pct string) PremiumSpec {
	return PremiumSpec{Percent: dec(pct), Direction: Above}
}

func below(pct string) PremiumSpec {
	return PremiumSpec{Percent: dec(pct), Direction: Below}
}
