// =============================================================================
// Bill Generator - Deviation Analyzer
// =============================================================================
//
// Compares planned (Work Order) against executed (Bill Quantity) quantities
// row by row and rolls the amounts up into the four columns of the statutory
// deviation statement:
//
//   | Work Order (F) | Executed (H) | Excess (J) | Saving (L) |
//
// Each column gets its own premium and grand total. The net difference is
// executed grand total minus work-order grand total.
//
// =============================================================================

package bill

import (
	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

// DeviationItem is one row of the deviation statement.
type DeviationItem struct {
	SerialNo    string `json:"serial_no"`
	Description string `json:"description"`
	Remark      string `json:"remark"`

	// Detail is nil for a degenerate (zero or blank rate) row.
	Detail *DeviationDetail `json:"detail,omitempty"`
}

// DeviationDetail holds the numeric columns of a non-degenerate row. At most
// one of ExcessQty and SavingQty is non-zero.
type DeviationDetail struct {
	Unit        string          `json:"unit"`
	QtyPlanned  decimal.Decimal `json:"qty_planned"`
	Rate        decimal.Decimal `json:"rate"`
	AmtPlanned  decimal.Decimal `json:"amt_planned"`
	QtyExecuted decimal.Decimal `json:"qty_executed"`
	AmtExecuted decimal.Decimal `json:"amt_executed"`
	ExcessQty   decimal.Decimal `json:"excess_qty"`
	ExcessAmt   decimal.Decimal `json:"excess_amt"`
	SavingQty   decimal.Decimal `json:"saving_qty"`
	SavingAmt   decimal.Decimal `json:"saving_amt"`
}

// Degenerate reports whether the row was blanked for a zero rate.
func (d DeviationItem) Degenerate() bool { return d.Detail == nil }

// Rollup is one column of the deviation summary.
type Rollup struct {
	Total      decimal.Decimal `json:"total"`
	Premium    decimal.Decimal `json:"premium"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func newRollup(total decimal.Decimal, spec PremiumSpec) Rollup {
	total = roundUnit(total)
	premium := spec.Amount(total)
	return Rollup{
		Total:      total,
		Premium:    premium,
		GrandTotal: roundUnit(total.Add(premium)),
	}
}

// DeviationSummary holds the four rollups and the net difference.
type DeviationSummary struct {
	PremiumPercent decimal.Decimal `json:"premium_percent"`
	Direction      Direction       `json:"direction"`

	WorkOrder Rollup `json:"work_order"`
	Executed  Rollup `json:"executed"`
	Excess    Rollup `json:"excess"`
	Saving    Rollup `json:"saving"`

	NetDifference decimal.Decimal `json:"net_difference"`
}

// NetLabel is the caption printed beside the absolute net difference.
func (s DeviationSummary) NetLabel() string {
	if s.NetDifference.IsPositive() {
		return "Overall Excess"
	}
	return "Overall Saving"
}

// Deviation is the full deviation statement.
type Deviation struct {
	Items   []DeviationItem  `json:"items"`
	Summary DeviationSummary `json:"summary"`
}

// AnalyzeDeviation builds the deviation statement straight from the raw
// sheets, independently of the line-item extractor.
func AnalyzeDeviation(workOrder, billQty *types.Sheet, spec PremiumSpec, layout Layout) Deviation {
	pairs := pairRows(workOrder, billQty, layout.WorkOrderStart)
	items := make([]DeviationItem, 0, len(pairs))

	planned := decimal.Zero
	executed := decimal.Zero
	excess := decimal.Zero
	saving := decimal.Zero

	for _, p := range pairs {
		item := DeviationItem{
			SerialNo:    workOrder.Cell(p.index, woSerial).String(),
			Description: workOrder.Cell(p.index, woDescription).String(),
			Remark:      workOrder.Cell(p.index, woRemark).String(),
		}

		rate := Sanitize(workOrder.Cell(p.index, woRate))
		if rate.IsZero() {
			items = append(items, item)
			continue
		}

		detail := compareQuantities(
			Sanitize(workOrder.Cell(p.index, woQuantity)),
			Sanitize(p.executed),
			rate,
		)
		detail.Unit = workOrder.Cell(p.index, woUnit).String()
		item.Detail = &detail
		items = append(items, item)

		planned = planned.Add(detail.AmtPlanned)
		executed = executed.Add(detail.AmtExecuted)
		excess = excess.Add(detail.ExcessAmt)
		saving = saving.Add(detail.SavingAmt)
	}

	summary := DeviationSummary{
		PremiumPercent: spec.Percent,
		Direction:      spec.Direction,
		WorkOrder:      newRollup(planned, spec),
		Executed:       newRollup(executed, spec),
		Excess:         newRollup(excess, spec),
		Saving:         newRollup(saving, spec),
	}
	summary.NetDifference = roundUnit(summary.Executed.GrandTotal.Sub(summary.WorkOrder.GrandTotal))

	return Deviation{Items: items, Summary: summary}
}

// compareQuantities fills the numeric columns for one row with a non-zero
// rate.
func compareQuantities(qtyPlanned, qtyExecuted, rate decimal.Decimal) DeviationDetail {
	d := DeviationDetail{
		QtyPlanned:  qtyPlanned,
		Rate:        rate,
		AmtPlanned:  roundUnit(qtyPlanned.Mul(rate)),
		QtyExecuted: qtyExecuted,
		AmtExecuted: roundUnit(qtyExecuted.Mul(rate)),
		ExcessQty:   decimal.Zero,
		ExcessAmt:   decimal.Zero,
		SavingQty:   decimal.Zero,
		SavingAmt:   decimal.Zero,
	}
	switch {
	case qtyExecuted.GreaterThan(qtyPlanned):
		d.ExcessQty = qtyExecuted.Sub(qtyPlanned)
		d.ExcessAmt = roundUnit(d.ExcessQty.Mul(rate))
	case qtyExecuted.LessThan(qtyPlanned):
		d.SavingQty = qtyPlanned.Sub(qtyExecuted)
		d.SavingAmt = roundUnit(d.SavingQty.Mul(rate))
	}
	return d
}
