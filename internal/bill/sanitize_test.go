package bill

import (
	"math"
	"testing"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		cell types.Cell
		want string
	}{
		{"Number", types.NumberCell(12.5), "12.5"},
		{"Negative number", types.NumberCell(-3), "-3"},
		{"Plain text number", types.TextCell("42"), "42"},
		{"Thousands separator", types.TextCell(" 1,250.50 "), "1250.50"},
		{"Embedded spaces", types.TextCell("1 000"), "1000"},
		{"Empty text", types.TextCell(""), "0"},
		{"Whitespace", types.TextCell("   "), "0"},
		{"Not a number", types.TextCell("n/a"), "0"},
		{"Trailing garbage", types.TextCell("12abc"), "0"},
		{"Blank", types.Cell{}, "0"},
		{"Date", types.DateCell(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), "0"},
		{"NaN", types.NumberCell(math.NaN()), "0"},
		{"Infinity", types.NumberCell(math.Inf(1)), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, "Sanitize", Sanitize(tt.cell), dec(tt.want))
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []types.Cell{
		types.NumberCell(1250.5),
		types.TextCell("1,250.50"),
		types.TextCell("garbage"),
		types.TextCell(""),
		{},
	}
	for _, c := range inputs {
		once := Sanitize(c)
		twice := SanitizeValue(once)
		if !once.Equal(twice) {
			t.Errorf("Sanitize(%v) = %s, sanitizing again gave %s", c, once, twice)
		}
		again := Sanitize(types.TextCell(once.String()))
		if !once.Equal(again) {
			t.Errorf("Sanitize(%v) = %s, re-reading its text gave %s", c, once, again)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, "0"},
		{"float64", 2.25, "2.25"},
		{"int", 7, "7"},
		{"int64", int64(-9), "-9"},
		{"string", "3,000", "3000"},
		{"decimal", decimal.NewFromInt(11), "11"},
		{"cell", types.TextCell("5"), "5"},
		{"bool", true, "0"},
		{"slice", []int{1}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, "SanitizeValue", SanitizeValue(tt.value), dec(tt.want))
		})
	}
}

func TestParseStrict(t *testing.T) {
	tests := []struct {
		name        string
		cell        types.Cell
		wantPresent bool
		wantOK      bool
	}{
		{"Blank", types.Cell{}, false, true},
		{"Whitespace", types.TextCell("  "), false, true},
		{"Number", types.NumberCell(4), true, true},
		{"Numeric text", types.TextCell("1,000"), true, true},
		{"Word", types.TextCell("ten"), true, false},
		{"Date", types.DateCell(time.Now()), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, present, ok := parseStrict(tt.cell)
			if present != tt.wantPresent || ok != tt.wantOK {
				t.Errorf("parseStrict(%v) = present %v ok %v, want present %v ok %v",
					tt.cell, present, ok, tt.wantPresent, tt.wantOK)
			}
		})
	}
}
