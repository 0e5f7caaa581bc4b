package xlsxparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/config"
	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes a small bill workbook to dir and returns its path.
func buildWorkbook(t *testing.T, dir string, sheets ...string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheets[0]); err != nil {
		t.Fatal(err)
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
	}

	set := func(sheet, cell string, value interface{}) {
		t.Helper()
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatal(err)
		}
	}

	set("Work Order", "A1", "Agreement No.")
	set("Work Order", "B1", "07/2024-25")
	set("Work Order", "B4", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	set("Work Order", "A22", 1)
	set("Work Order", "B22", "Cable laying")
	set("Work Order", "D22", 100)
	set("Work Order", "E22", 12.5)

	if contains(sheets, "Bill Quantity") {
		set("Bill Quantity", "D22", "1,250.50")
	}
	if contains(sheets, "Extra Items") {
		set("Extra Items", "C7", "Earthing")
		set("Extra Items", "F7", 1500)
	}

	path := filepath.Join(dir, "bill.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestLoadXLSX(t *testing.T) {
	path := buildWorkbook(t, t.TempDir(), "Work Order", "Bill Quantity", "Extra Items")

	wb, err := LoadXLSX(path, DefaultSheetNames())
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	if wb.Source != path {
		t.Errorf("Source = %q", wb.Source)
	}

	tests := []struct {
		name     string
		sheet    *types.Sheet
		row, col int
		kind     types.CellKind
		text     string
	}{
		{"Header text", wb.WorkOrder, 0, 1, types.Text, "07/2024-25"},
		{"Header date", wb.WorkOrder, 3, 1, types.Date, "01-04-2024"},
		{"Integer serial", wb.WorkOrder, 21, 0, types.Number, "1"},
		{"Quantity", wb.WorkOrder, 21, 3, types.Number, "100"},
		{"Rate", wb.WorkOrder, 21, 4, types.Number, "12.5"},
		{"Gap", wb.WorkOrder, 21, 2, types.Blank, ""},
		{"Separator text", wb.BillQuantity, 21, 3, types.Text, "1,250.50"},
		{"Extra description", wb.ExtraItems, 6, 2, types.Text, "Earthing"},
		{"Extra rate", wb.ExtraItems, 6, 5, types.Number, "1500"},
		{"Outside sheet", wb.ExtraItems, 50, 0, types.Blank, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.sheet.Cell(tt.row, tt.col)
			if c.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", c.Kind, tt.kind)
			}
			if c.String() != tt.text {
				t.Errorf("String() = %q, want %q", c.String(), tt.text)
			}
		})
	}

	if wb.WorkOrder.Rows() != 22 {
		t.Errorf("WorkOrder.Rows() = %d, want 22", wb.WorkOrder.Rows())
	}
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	path := buildWorkbook(t, t.TempDir(), "Work Order", "Bill Quantity")

	_, err := LoadXLSX(path, DefaultSheetNames())
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("err = %v, want ErrSheetNotFound", err)
	}
}

func TestReadXLSX(t *testing.T) {
	path := buildWorkbook(t, t.TempDir(), "Work Order", "Bill Quantity", "Extra Items")
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	wb, err := ReadXLSX(file, DefaultSheetNames())
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if wb.WorkOrder.Cell(21, 1).String() != "Cable laying" {
		t.Error("work order not read from stream")
	}
}

func TestFileLoaderDispatch(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(config.DefaultOfficeProfile())

	t.Run("xlsx", func(t *testing.T) {
		path := buildWorkbook(t, dir, "Work Order", "Bill Quantity", "Extra Items")
		if _, err := loader.Load(path); err != nil {
			t.Errorf("Load: %v", err)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		path := filepath.Join(dir, "bill.ods")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := loader.Load(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("err = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		if _, err := loader.Load(filepath.Join(dir, "nope.xlsx")); err == nil {
			t.Error("Load of missing file succeeded")
		}
	})

	t.Run("CSV bundle", func(t *testing.T) {
		bundle := filepath.Join(dir, "bundle")
		if err := os.Mkdir(bundle, 0755); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"work_order.csv", "bill_quantity.csv", "extra_items.csv"} {
			if err := os.WriteFile(filepath.Join(bundle, name), []byte("1,a,m,2,3\n"), 0644); err != nil {
				t.Fatal(err)
			}
		}
		wb, err := loader.Load(bundle)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if wb.ExtraItems.Name != "Extra Items" {
			t.Errorf("ExtraItems.Name = %q", wb.ExtraItems.Name)
		}
	})
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"dd/mm/yyyy", true},
		{"d-mmm-yy", true},
		{"0.00", false},
		{"#,##0", false},
		{"General", false},
		{`[$-4009]#,##0.00`, false},
		{`0.00 "days"`, false},
	}

	for _, tt := range tests {
		if got := isDateFormatCode(tt.code); got != tt.want {
			t.Errorf("isDateFormatCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
