// =============================================================================
// Bill Generator - Line-Item Extractor
// =============================================================================
//
// Walks the data region of the Work Order and Extra Items worksheets and
// builds one LineItem per row.
//
// SHEET CONVENTIONS (zero-based):
//
//   Work Order / Bill Quantity, data from row 21:
//   | 0 S.No | 1 Description | 2 Unit | 3 Qty | 4 Rate | 5 Amount | 6 Remark |
//
//   Extra Items, data from row 6:
//   | 0 S.No | 1 Remark | 2 Description | 3 Qty | 4 Unit | 5 Rate | 6 Amount |
//
// A row whose rate sanitizes to zero is suppressed: it keeps its serial
// number, description and remark for traceability but carries no detail and
// contributes nothing to any total.
//
// =============================================================================

package bill

import (
	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

// Work Order / Bill Quantity columns.
const (
	woSerial = iota
	woDescription
	woUnit
	woQuantity
	woRate
	woAmount
	woRemark
)

// Extra Items columns.
const (
	exSerial = iota
	exRemark
	exDescription
	exQuantity
	exUnit
	exRate
	exAmount
)

// Numeric columns, exported for layout checks.
const (
	WorkOrderQuantityCol = woQuantity
	WorkOrderRateCol     = woRate
	ExtraQuantityCol     = exQuantity
	ExtraRateCol         = exRate
)

// Layout holds the fixed row conventions of the input workbook.
type Layout struct {
	// HeaderRows and HeaderCols bound the free-form header block of the
	// Work Order sheet.
	HeaderRows int
	HeaderCols int

	// WorkOrderStart is the first data row of the Work Order and Bill
	// Quantity sheets.
	WorkOrderStart int

	// ExtraItemsStart is the first data row of the Extra Items sheet.
	ExtraItemsStart int
}

// DefaultLayout returns the conventional statutory bill layout.
func DefaultLayout() Layout {
	return Layout{
		HeaderRows:      19,
		HeaderCols:      7,
		WorkOrderStart:  21,
		ExtraItemsStart: 6,
	}
}

// LineItem is one row of the first page or the extra-items list.
type LineItem struct {
	SerialNo    string `json:"serial_no"`
	Description string `json:"description"`
	Remark      string `json:"remark"`

	// Detail is nil when the row's rate is zero or blank.
	Detail *ItemDetail `json:"detail,omitempty"`
}

// ItemDetail holds the quantities of a populated line item.
type ItemDetail struct {
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// Suppressed reports whether the item was emitted without detail.
func (li LineItem) Suppressed() bool { return li.Detail == nil }

// Amount is the item's amount, zero when suppressed.
func (li LineItem) Amount() decimal.Decimal {
	if li.Detail == nil {
		return decimal.Zero
	}
	return li.Detail.Amount
}

// newLineItem decides between the populated and suppressed forms.
func newLineItem(serial, description, unit, remark string, qty, rate decimal.Decimal) LineItem {
	item := LineItem{
		SerialNo:    serial,
		Description: description,
		Remark:      remark,
	}
	if rate.IsZero() {
		return item
	}
	item.Detail = &ItemDetail{
		Unit:     unit,
		Quantity: qty,
		Rate:     rate,
		Amount:   lineAmount(qty, rate),
	}
	return item
}

// lineAmount is round(qty*rate), or zero when either side is zero.
func lineAmount(qty, rate decimal.Decimal) decimal.Decimal {
	if qty.IsZero() || rate.IsZero() {
		return decimal.Zero
	}
	return roundUnit(qty.Mul(rate))
}

// =============================================================================
// ROW CORRELATION
// =============================================================================

// rowPair ties a Work Order row to the Bill Quantity row at the same index.
// The sheets are correlated purely by position: row i of Bill Quantity
// describes the executed quantity of row i of Work Order. When Bill Quantity
// is shorter, present is false and executed is Blank.
type rowPair struct {
	index    int
	executed types.Cell
	present  bool
}

// pairRows walks the Work Order data region and pairs every row with its
// Bill Quantity counterpart.
func pairRows(workOrder, billQty *types.Sheet, start int) []rowPair {
	if start < 0 {
		start = 0
	}
	n := workOrder.Rows()
	if n <= start {
		return nil
	}
	pairs := make([]rowPair, 0, n-start)
	for i := start; i < n; i++ {
		p := rowPair{index: i}
		if billQty.HasRow(i) {
			p.present = true
			p.executed = billQty.Cell(i, woQuantity)
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractWorkOrderItems builds the work-order part of the first page. The
// quantity is the executed quantity from Bill Quantity; the rate, unit and
// text columns come from Work Order.
func ExtractWorkOrderItems(workOrder, billQty *types.Sheet, layout Layout) []LineItem {
	pairs := pairRows(workOrder, billQty, layout.WorkOrderStart)
	items := make([]LineItem, 0, len(pairs))
	for _, p := range pairs {
		qty := Sanitize(p.executed)
		rate := Sanitize(workOrder.Cell(p.index, woRate))
		items = append(items, newLineItem(
			workOrder.Cell(p.index, woSerial).String(),
			workOrder.Cell(p.index, woDescription).String(),
			workOrder.Cell(p.index, woUnit).String(),
			workOrder.Cell(p.index, woRemark).String(),
			qty, rate,
		))
	}
	return items
}

// ExtractExtraItems builds the extra-items list from its own sheet.
func ExtractExtraItems(extra *types.Sheet, layout Layout) []LineItem {
	start := layout.ExtraItemsStart
	if start < 0 {
		start = 0
	}
	n := extra.Rows()
	if n <= start {
		return []LineItem{}
	}
	items := make([]LineItem, 0, n-start)
	for j := start; j < n; j++ {
		items = append(items, newLineItem(
			extra.Cell(j, exSerial).String(),
			extra.Cell(j, exDescription).String(),
			extra.Cell(j, exUnit).String(),
			extra.Cell(j, exRemark).String(),
			Sanitize(extra.Cell(j, exQuantity)),
			Sanitize(extra.Cell(j, exRate)),
		))
	}
	return items
}
