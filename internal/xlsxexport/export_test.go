package xlsxexport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ginjaninja78/bill-generator/internal/bill"
	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/xuri/excelize/v2"
)

func sampleResult(t *testing.T) *bill.Result {
	t.Helper()

	layout := bill.DefaultLayout()
	wo := make([][]types.Cell, layout.WorkOrderStart)
	wo[0] = []types.Cell{types.TextCell("Agreement No."), types.TextCell("07/2024-25")}
	wo[1] = []types.Cell{types.TextCell("Name of Work"), types.TextCell("=HYPERLINK(\"x\")")}
	wo = append(wo,
		[]types.Cell{types.TextCell("1"), types.TextCell("Cable"), types.TextCell("m"), types.NumberCell(10), types.NumberCell(20)},
		[]types.Cell{types.TextCell("2"), types.TextCell("Deleted"), types.TextCell("nos"), types.NumberCell(5), types.NumberCell(0)},
	)
	bq := make([][]types.Cell, layout.WorkOrderStart)
	bq = append(bq, []types.Cell{{}, {}, {}, types.NumberCell(15)})
	ex := make([][]types.Cell, layout.ExtraItemsStart)
	ex = append(ex, []types.Cell{types.TextCell("E1"), {}, types.TextCell("Pit"), types.NumberCell(2), types.TextCell("nos"), types.NumberCell(100)})

	res, err := bill.Compute(types.Workbook{
		WorkOrder:    types.NewSheet("Work Order", wo),
		BillQuantity: types.NewSheet("Bill Quantity", bq),
		ExtraItems:   types.NewSheet("Extra Items", ex),
	}, bill.PremiumSpec{Direction: bill.Above}, bill.DefaultOptions())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return res
}

func openExport(t *testing.T) *excelize.File {
	t.Helper()
	data, err := GenerateExcel(sampleResult(t))
	if err != nil {
		t.Fatalf("GenerateExcel: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty workbook")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open generated workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("%s!%s: %v", sheet, cell, err)
	}
	return v
}

// =============================================================================
// WORKBOOK STRUCTURE
// =============================================================================

func TestGenerateExcelSheets(t *testing.T) {
	f := openExport(t)

	want := []string{SheetFirstPage, SheetLastPage, SheetDeviation, SheetExtraItems, SheetNotes}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateExcelNil(t *testing.T) {
	if _, err := GenerateExcel(nil); err == nil {
		t.Error("GenerateExcel(nil) succeeded")
	}
}

// =============================================================================
// PAGE CONTENT
// =============================================================================

func TestGenerateExcelFirstPage(t *testing.T) {
	f := openExport(t)

	// 19 header rows, a blank row, the column headings, then items.
	tests := []struct {
		cell string
		want string
	}{
		{"B1", "07/2024-25"},
		{"A21", "S.No"},
		{"F21", "Amount"},
		{"A22", "1"},
		{"D22", "15"},
		{"F22", "300"},
		{"B23", "Deleted"},
		{"D23", ""},
		{"B24", bill.ExtraItemsLabel},
		{"B25", "Pit"},
		{"F25", "200"},
		{"E27", "Grand Total"},
		{"F27", "500"},
		{"E29", "Payable Amount"},
		{"F29", "500"},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			if got := cellValue(t, f, SheetFirstPage, tt.cell); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
			}
		})
	}
}

func TestGenerateExcelSanitizesFormulas(t *testing.T) {
	f := openExport(t)

	got := cellValue(t, f, SheetFirstPage, "B2")
	if !strings.HasPrefix(got, "'=") {
		t.Errorf("B2 = %q, want a quoted formula", got)
	}
	formula, err := f.GetCellFormula(SheetFirstPage, "B2")
	if err != nil {
		t.Fatal(err)
	}
	if formula != "" {
		t.Errorf("B2 carries formula %q", formula)
	}
}

func TestGenerateExcelOtherPages(t *testing.T) {
	f := openExport(t)

	if got := cellValue(t, f, SheetLastPage, "B1"); got != "500" {
		t.Errorf("payable = %q", got)
	}
	if got := cellValue(t, f, SheetLastPage, "B2"); got != "Rupees Five Hundred Only" {
		t.Errorf("words = %q", got)
	}

	// Item 1: planned 10, executed 15, excess 5 at rate 20.
	if got := cellValue(t, f, SheetDeviation, "I2"); got != "5" {
		t.Errorf("excess qty = %q", got)
	}
	if got := cellValue(t, f, SheetDeviation, "J2"); got != "100" {
		t.Errorf("excess amount = %q", got)
	}
	if got := cellValue(t, f, SheetDeviation, "D3"); got != "" {
		t.Errorf("degenerate row carries quantity %q", got)
	}
	if got := cellValue(t, f, SheetDeviation, "B8"); got != "Overall Excess" {
		t.Errorf("net label = %q", got)
	}

	if got := cellValue(t, f, SheetExtraItems, "A2"); got != "E1" {
		t.Errorf("extra serial = %q", got)
	}

	if got := cellValue(t, f, SheetNotes, "B1"); got != "07/2024-25" {
		t.Errorf("agreement = %q", got)
	}
	if got := cellValue(t, f, SheetNotes, "B9"); !strings.HasPrefix(got, "1. ") {
		t.Errorf("first note = %q", got)
	}
}

func TestGenerateExcelUnknownWorkOrderAmount(t *testing.T) {
	res := sampleResult(t)
	res.NoteSheet.WorkOrderAmountError = `Work Order!R23C4 (text "LS"): work order amount cannot be computed`

	data, err := GenerateExcel(res)
	if err != nil {
		t.Fatalf("GenerateExcel: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := cellValue(t, f, SheetNotes, "B7"); got != "not determined" {
		t.Errorf("work order amount = %q", got)
	}
	if got := cellValue(t, f, SheetNotes, "B8"); got != res.NoteSheet.WorkOrderAmountError {
		t.Errorf("reason = %q", got)
	}
	if got := cellValue(t, f, SheetNotes, "B9"); !strings.HasPrefix(got, "1. ") {
		t.Errorf("first note = %q", got)
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-x", "'-x"},
		{"@cmd", "'@cmd"},
	}
	for _, tt := range tests {
		if got := sanitizeExcelCell(tt.in); got != tt.want {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
