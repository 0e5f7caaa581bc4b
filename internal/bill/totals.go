package bill

import (
	"github.com/shopspring/decimal"
)

// ExtraItemsLabel is the section label renderers print between the
// work-order items and the extra items on the first page.
const ExtraItemsLabel = "Extra Items (With Premium)"

// Premium is the tender premium as applied to one total.
type Premium struct {
	Percent   decimal.Decimal `json:"percent"`
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

// BillTotals are the first-page totals.
type BillTotals struct {
	GrandTotal decimal.Decimal `json:"grand_total"`
	Premium    Premium         `json:"premium"`
	Payable    decimal.Decimal `json:"payable"`

	// ExtraItemsSum is the premium-adjusted subtotal of the extra items only.
	ExtraItemsSum decimal.Decimal `json:"extra_items_sum"`
}

// ComputeTotals sums both item groups and applies the premium. Every sum is
// rounded to a whole unit where it is formed.
func ComputeTotals(workOrderItems, extraItems []LineItem, spec PremiumSpec) BillTotals {
	grand := roundUnit(sumAmounts(workOrderItems).Add(sumAmounts(extraItems)))
	premium := spec.Amount(grand)

	extraSum := roundUnit(sumAmounts(extraItems))
	extraAdjusted := extraSum.Add(spec.Amount(extraSum))

	return BillTotals{
		GrandTotal: grand,
		Premium: Premium{
			Percent:   spec.Percent,
			Direction: spec.Direction,
			Amount:    premium,
		},
		Payable:       roundUnit(grand.Add(premium)),
		ExtraItemsSum: extraAdjusted,
	}
}

func sumAmounts(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}
	return total
}

// =============================================================================
// FIRST PAGE
// =============================================================================

// FirstPage is the bill's first page: header block, the two item groups and
// their totals.
type FirstPage struct {
	Header         [][]string `json:"header"`
	WorkOrderItems []LineItem `json:"work_order_items"`
	ExtraItems     []LineItem `json:"extra_items"`
	Totals         BillTotals `json:"totals"`
}

// Row is one line of the combined first-page listing.
type Row struct {
	LineItem
	Divider bool `json:"divider,omitempty"`
}

// Rows concatenates the work-order items, a divider labelled
// ExtraItemsLabel and the extra items, in that order. This is the layout of
// the printed first page.
func (fp FirstPage) Rows() []Row {
	rows := make([]Row, 0, len(fp.WorkOrderItems)+len(fp.ExtraItems)+1)
	for _, item := range fp.WorkOrderItems {
		rows = append(rows, Row{LineItem: item})
	}
	rows = append(rows, Row{LineItem: LineItem{Description: ExtraItemsLabel}, Divider: true})
	for _, item := range fp.ExtraItems {
		rows = append(rows, Row{LineItem: item})
	}
	return rows
}

// LastPage carries the payable amount and its spelling.
type LastPage struct {
	PayableAmount decimal.Decimal `json:"payable_amount"`
	AmountWords   string          `json:"amount_words"`
}

// ExtraItemsPage is the standalone extra-items statement.
type ExtraItemsPage struct {
	Items []LineItem `json:"items"`
}
