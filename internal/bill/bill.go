// =============================================================================
// Bill Generator - Bill Computation
// =============================================================================
//
// Compute is the single entry point of the core. It reads the three
// worksheets and a tender premium and produces the five records a rendering
// layer needs:
//
//   FirstPage   header block, work-order items, extra items, totals
//   LastPage    payable amount and its spelling
//   Deviation   planned vs. executed statement with four rollups
//   ExtraItems  the standalone extra-items statement
//   NoteSheet   numbered narrative notes
//
// The core performs no I/O and keeps no state between calls; independent
// workbooks may be computed concurrently.
//
// =============================================================================

package bill

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

// Options tunes one computation run.
type Options struct {
	Layout Layout
	Notes  NoteOptions
}

// DefaultOptions returns the conventional layout and note wording.
func DefaultOptions() Options {
	return Options{
		Layout: DefaultLayout(),
		Notes:  DefaultNoteOptions(),
	}
}

// Result holds the five output records of one run.
type Result struct {
	FirstPage  FirstPage      `json:"first_page"`
	LastPage   LastPage       `json:"last_page"`
	Deviation  Deviation      `json:"deviation"`
	ExtraItems ExtraItemsPage `json:"extra_items"`
	NoteSheet  NoteSheet      `json:"note_sheet"`
}

// Compute runs the whole bill computation.
//
// Malformed cells never fail the run; they are read as zero. An unreadable
// quantity or rate in the Work Order data region leaves the work-order
// amount undetermined: the note sheet then carries the ErrWorkOrderAmount
// message and omits the notes derived from that amount. Every other record
// is unaffected. The only error returned is ErrMissingSheet.
func Compute(wb types.Workbook, spec PremiumSpec, opts Options) (*Result, error) {
	if err := checkSheets(wb); err != nil {
		return nil, err
	}

	workOrderItems := ExtractWorkOrderItems(wb.WorkOrder, wb.BillQuantity, opts.Layout)
	extraItems := ExtractExtraItems(wb.ExtraItems, opts.Layout)
	totals := ComputeTotals(workOrderItems, extraItems, spec)

	workOrderAmount, amountErr := WorkOrderAmount(wb.WorkOrder, opts.Layout)

	notes := ComposeNotes(NoteInput{
		PayableAmount:      totals.Payable,
		WorkOrderAmount:    workOrderAmount,
		WorkOrderAmountErr: amountErr,
		ExtraItemAmount:    totals.ExtraItemsSum,
		Agreement:          ReadAgreement(wb.WorkOrder),
	}, opts.Notes)

	return &Result{
		FirstPage: FirstPage{
			Header:         ReadHeader(wb.WorkOrder, opts.Layout),
			WorkOrderItems: workOrderItems,
			ExtraItems:     extraItems,
			Totals:         totals,
		},
		LastPage: LastPage{
			PayableAmount: totals.Payable,
			AmountWords:   AmountToWords(totals.Payable),
		},
		Deviation:  AnalyzeDeviation(wb.WorkOrder, wb.BillQuantity, spec, opts.Layout),
		ExtraItems: ExtraItemsPage{Items: copyItems(extraItems)},
		NoteSheet:  notes,
	}, nil
}

func checkSheets(wb types.Workbook) error {
	var missing []string
	if wb.WorkOrder == nil {
		missing = append(missing, "Work Order")
	}
	if wb.BillQuantity == nil {
		missing = append(missing, "Bill Quantity")
	}
	if wb.ExtraItems == nil {
		missing = append(missing, "Extra Items")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSheet, strings.Join(missing, ", "))
	}
	return nil
}

// copyItems gives the standalone extra-items statement its own slice and
// details so renderers may annotate one without touching the other.
func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Detail != nil {
			detail := *item.Detail
			out[i].Detail = &detail
		}
	}
	return out
}

// ReadHeader returns the free-form header block of the Work Order sheet as
// text, dates rendered DD-MM-YYYY.
func ReadHeader(workOrder *types.Sheet, layout Layout) [][]string {
	rows := layout.HeaderRows
	if n := workOrder.Rows(); n < rows {
		rows = n
	}
	header := make([][]string, rows)
	for i := 0; i < rows; i++ {
		header[i] = make([]string, layout.HeaderCols)
		for j := 0; j < layout.HeaderCols; j++ {
			header[i][j] = workOrder.Cell(i, j).String()
		}
	}
	return header
}

// WorkOrderAmount is the contract value: the unrounded sum of quantity times
// rate over every Work Order data row where both are filled in. A filled-in
// cell that is not a number is an error.
func WorkOrderAmount(workOrder *types.Sheet, layout Layout) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := layout.WorkOrderStart; i < workOrder.Rows(); i++ {
		qty, err := strictCell(workOrder, i, woQuantity)
		if err != nil {
			return decimal.Zero, err
		}
		rate, err := strictCell(workOrder, i, woRate)
		if err != nil {
			return decimal.Zero, err
		}
		if qty == nil || rate == nil {
			continue
		}
		total = total.Add(qty.Mul(*rate))
	}
	return total, nil
}

// strictCell returns nil for an empty cell and a CellError for content that
// is not numeric.
func strictCell(sheet *types.Sheet, row, col int) (*decimal.Decimal, error) {
	c := sheet.Cell(row, col)
	v, present, ok := parseStrict(c)
	if !ok {
		return nil, &CellError{Sheet: sheet.Name, Row: row, Col: col, Cell: c, Err: ErrWorkOrderAmount}
	}
	if !present {
		return nil, nil
	}
	return &v, nil
}
