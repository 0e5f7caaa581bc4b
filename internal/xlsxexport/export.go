// =============================================================================
// Bill Generator - Excel Export
// =============================================================================
//
// Writes a computed bill to an Excel workbook with one sheet per output page:
//
//   | Sheet               | Content                                      |
//   |---------------------|----------------------------------------------|
//   | First Page          | header block, items, divider, totals         |
//   | Last Page           | payable amount and its spelling              |
//   | Deviation Statement | per-item deviation, rollups, net difference  |
//   | Extra Items         | extra items only                             |
//   | Note Sheet          | agreement metadata and the numbered notes    |
//
// Amounts are written as numbers with a two-decimal display format.
// Suppressed items keep their text columns and are greyed out.
//
// =============================================================================

package xlsxexport

import (
	"bytes"
	"fmt"

	"github.com/ginjaninja78/bill-generator/internal/bill"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetFirstPage  = "First Page"
	SheetLastPage   = "Last Page"
	SheetDeviation  = "Deviation Statement"
	SheetExtraItems = "Extra Items"
	SheetNotes      = "Note Sheet"
)

// GenerateExcel renders res and returns the workbook bytes.
func GenerateExcel(res *bill.Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("no bill to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetFirstPage); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for _, name := range []string{SheetLastPage, SheetDeviation, SheetExtraItems, SheetNotes} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	writers := []func(*excelize.File, *styles, *bill.Result) error{
		writeFirstPage,
		writeLastPage,
		writeDeviation,
		writeExtraItems,
		writeNotes,
	}
	for _, write := range writers {
		if err := write(f, st, res); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// STYLES
// =============================================================================

type styles struct {
	title, header, item, suppressed, label, total int
}

func newStyles(f *excelize.File) (*styles, error) {
	amountFmt := "#,##0.00"
	s := &styles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 10},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorders(),
		}},
		{&s.item, &excelize.Style{
			Font:         &excelize.Font{Size: 10},
			Border:       thinBorders(),
			CustomNumFmt: &amountFmt,
		}},
		{&s.suppressed, &excelize.Style{
			Font:   &excelize.Font{Size: 10, Italic: true, Color: "#808080"},
			Border: thinBorders(),
		}},
		{&s.label, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.total, &excelize.Style{
			Font:         &excelize.Font{Bold: true, Size: 10},
			CustomNumFmt: &amountFmt,
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}

// =============================================================================
// SHEET WRITER
// =============================================================================

// sheetWriter fills one sheet row by row and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func newSheetWriter(f *excelize.File, sheet string) *sheetWriter {
	return &sheetWriter{f: f, sheet: sheet, row: 1}
}

// put writes values into the current row starting at column A.
func (w *sheetWriter) put(values ...interface{}) {
	if w.err != nil {
		return
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			w.err = err
			return
		}
		switch t := v.(type) {
		case decimal.Decimal:
			v = t.InexactFloat64()
		case string:
			v = sanitizeExcelCell(t)
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			w.err = fmt.Errorf("%s!%s: %w", w.sheet, cell, err)
			return
		}
	}
}

// style applies a style to columns [1, cols] of the current row.
func (w *sheetWriter) style(cols, style int) {
	if w.err != nil || cols < 1 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row)
	last, _ := excelize.CoordinatesToCellName(cols, w.row)
	if err := w.f.SetCellStyle(w.sheet, first, last, style); err != nil {
		w.err = fmt.Errorf("style %s!%s: %w", w.sheet, first, err)
	}
}

func (w *sheetWriter) next() { w.row++ }

func (w *sheetWriter) widths(widths ...float64) {
	if w.err != nil {
		return
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetColWidth(w.sheet, col, col, width); err != nil {
			w.err = fmt.Errorf("set col width %s: %w", col, err)
			return
		}
	}
}

// =============================================================================
// PAGES
// =============================================================================

var itemHeaders = []interface{}{"S.No", "Description", "Unit", "Quantity", "Rate", "Amount", "Remark"}

func writeItems(w *sheetWriter, st *styles, items []bill.LineItem) {
	for _, item := range items {
		if item.Suppressed() {
			w.put(item.SerialNo, item.Description, nil, nil, nil, nil, item.Remark)
			w.style(len(itemHeaders), st.suppressed)
		} else {
			d := item.Detail
			w.put(item.SerialNo, item.Description, d.Unit, d.Quantity, d.Rate, d.Amount, item.Remark)
			w.style(len(itemHeaders), st.item)
		}
		w.next()
	}
}

func writeFirstPage(f *excelize.File, st *styles, res *bill.Result) error {
	w := newSheetWriter(f, SheetFirstPage)
	fp := res.FirstPage
	w.widths(8, 48, 10, 12, 12, 14, 20)

	for _, row := range fp.Header {
		values := make([]interface{}, len(row))
		for i, v := range row {
			if v != "" {
				values[i] = v
			}
		}
		w.put(values...)
		w.next()
	}
	w.next()

	w.put(itemHeaders...)
	w.style(len(itemHeaders), st.header)
	w.next()

	for _, r := range fp.Rows() {
		if r.Divider {
			w.put(nil, r.Description)
			w.style(len(itemHeaders), st.label)
			w.next()
			continue
		}
		writeItems(w, st, []bill.LineItem{r.LineItem})
	}
	w.next()

	t := fp.Totals
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Grand Total", t.GrandTotal},
		{fmt.Sprintf("Tender Premium @ %s%% (%s)", t.Premium.Percent.StringFixed(2), t.Premium.Direction), t.Premium.Amount},
		{"Payable Amount", t.Payable},
		{"Extra Items (with premium)", t.ExtraItemsSum},
	}
	for _, line := range totals {
		w.put(nil, nil, nil, nil, line.label, line.value)
		w.style(6, st.total)
		w.next()
	}
	return w.err
}

func writeLastPage(f *excelize.File, st *styles, res *bill.Result) error {
	w := newSheetWriter(f, SheetLastPage)
	w.widths(24, 80)
	w.put("Payable Amount", res.LastPage.PayableAmount)
	w.style(2, st.total)
	w.next()
	w.put("In Words", "Rupees "+res.LastPage.AmountWords+" Only")
	w.style(1, st.title)
	return w.err
}

func writeDeviation(f *excelize.File, st *styles, res *bill.Result) error {
	w := newSheetWriter(f, SheetDeviation)
	w.widths(8, 40, 8, 10, 10, 12, 10, 12, 10, 12, 10, 12, 16)

	headers := []interface{}{
		"S.No", "Description", "Unit",
		"Qty (WO)", "Rate", "Amount (WO)",
		"Qty Executed", "Amount Executed",
		"Excess Qty", "Excess Amount",
		"Saving Qty", "Saving Amount", "Remark",
	}
	w.put(headers...)
	w.style(len(headers), st.header)
	w.next()

	for _, item := range res.Deviation.Items {
		if item.Degenerate() {
			values := make([]interface{}, len(headers))
			values[0], values[1], values[12] = item.SerialNo, item.Description, item.Remark
			w.put(values...)
			w.style(len(headers), st.suppressed)
			w.next()
			continue
		}
		d := item.Detail
		w.put(item.SerialNo, item.Description, d.Unit,
			d.QtyPlanned, d.Rate, d.AmtPlanned,
			d.QtyExecuted, d.AmtExecuted,
			d.ExcessQty, d.ExcessAmt,
			d.SavingQty, d.SavingAmt, item.Remark)
		w.style(len(headers), st.item)
		w.next()
	}
	w.next()

	s := res.Deviation.Summary
	premiumLabel := fmt.Sprintf("Add/Deduct Tender Premium @ %s%% (%s)", s.PremiumPercent.StringFixed(2), s.Direction)
	for _, line := range []struct {
		label string
		pick  func(bill.Rollup) decimal.Decimal
	}{
		{"Total", func(r bill.Rollup) decimal.Decimal { return r.Total }},
		{premiumLabel, func(r bill.Rollup) decimal.Decimal { return r.Premium }},
		{"Grand Total", func(r bill.Rollup) decimal.Decimal { return r.GrandTotal }},
	} {
		values := make([]interface{}, 12)
		values[1] = line.label
		values[5] = line.pick(s.WorkOrder)
		values[7] = line.pick(s.Executed)
		values[9] = line.pick(s.Excess)
		values[11] = line.pick(s.Saving)
		w.put(values...)
		w.style(12, st.total)
		w.next()
	}

	w.put(nil, s.NetLabel(), nil, nil, nil, nil, nil, s.NetDifference.Abs())
	w.style(8, st.total)
	return w.err
}

func writeExtraItems(f *excelize.File, st *styles, res *bill.Result) error {
	w := newSheetWriter(f, SheetExtraItems)
	w.widths(8, 48, 10, 12, 12, 14, 20)
	w.put(itemHeaders...)
	w.style(len(itemHeaders), st.header)
	w.next()
	writeItems(w, st, res.ExtraItems.Items)
	return w.err
}

func writeNotes(f *excelize.File, st *styles, res *bill.Result) error {
	w := newSheetWriter(f, SheetNotes)
	w.widths(28, 100)
	ns := res.NoteSheet
	a := ns.Agreement

	for _, line := range [][2]string{
		{"Agreement No.", a.AgreementNo},
		{"Name of Work", a.NameOfWork},
		{"Name of Firm", a.NameOfFirm},
		{"Date of Commencement", a.DateCommencement},
		{"Scheduled Completion", a.DateCompletion},
		{"Actual Completion", a.DateActualCompletion},
	} {
		w.put(line[0], line[1])
		w.style(1, st.label)
		w.next()
	}
	if ns.WorkOrderAmountError == "" {
		w.put("Work Order Amount", ns.WorkOrderAmount)
	} else {
		w.put("Work Order Amount", "not determined")
	}
	w.style(2, st.total)
	w.next()
	if ns.WorkOrderAmountError != "" {
		w.put(nil, ns.WorkOrderAmountError)
	}
	w.next()

	for _, note := range ns.Notes {
		if note != "" {
			w.put(nil, note)
		}
		w.next()
	}
	return w.err
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
