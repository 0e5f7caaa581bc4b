// =============================================================================
// Bill Generator - Note Composer
// =============================================================================
//
// Builds the narrative note sheet that accompanies the bill. The notes are
// derived entirely from the computed totals and the agreement metadata in
// the Work Order header, and are numbered contiguously in the order they
// are emitted:
//
//   1. Completion percentage
//   -  Deviation threshold note (<90%, 100-105%, >105%; none for 90-100%)
//   -  Delay narrative and time-extension authority, or "completed in time"
//   -  Extra items share of the work order (only when there are extra items)
//
// The completion, threshold and extra-share notes need the work-order
// amount and are left out when it could not be determined.
//   -  QC reports and closing request
//   then an unnumbered signature block.
//
// =============================================================================

package bill

import (
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/types"
	"github.com/shopspring/decimal"
)

// Header rows holding the agreement metadata, read from column 1.
const (
	rowAgreementNo = iota
	rowNameOfWork
	rowNameOfFirm
	rowCommencement
	rowScheduledCompletion
	rowActualCompletion
)

const metadataCol = 1

// AgreementMetadata identifies the contract a bill belongs to.
type AgreementMetadata struct {
	AgreementNo          string `json:"agreement_no"`
	NameOfWork           string `json:"name_of_work"`
	NameOfFirm           string `json:"name_of_firm"`
	DateCommencement     string `json:"date_commencement"`
	DateCompletion       string `json:"date_completion"`
	DateActualCompletion string `json:"actual_completion"`
}

// ReadAgreement reads the agreement metadata from the Work Order header.
func ReadAgreement(workOrder *types.Sheet) AgreementMetadata {
	get := func(row int) string {
		return strings.TrimSpace(workOrder.Cell(row, metadataCol).String())
	}
	return AgreementMetadata{
		AgreementNo:          get(rowAgreementNo),
		NameOfWork:           get(rowNameOfWork),
		NameOfFirm:           get(rowNameOfFirm),
		DateCommencement:     get(rowCommencement),
		DateCompletion:       get(rowScheduledCompletion),
		DateActualCompletion: get(rowActualCompletion),
	}
}

// NoteOptions carries the office-specific wording of the note sheet.
type NoteOptions struct {
	// ApprovingAuthority is the higher authority named when a threshold is
	// exceeded.
	ApprovingAuthority string

	// SignatoryName and SignatoryDesignation form the signature block.
	SignatoryName        string
	SignatoryDesignation string

	// DateLayouts are tried in order when parsing the contract dates.
	DateLayouts []string
}

// DefaultNoteOptions returns the wording used by the PWD Electrical
// division the tool was written for.
func DefaultNoteOptions() NoteOptions {
	return NoteOptions{
		ApprovingAuthority:   "Superintending Engineer, PWD Electrical Circle, Udaipur",
		SignatoryName:        "Premlata Jain",
		SignatoryDesignation: "AAO- As Auditor",
		DateLayouts:          []string{"02/01/2006", types.DateLayout, "2006-01-02", "2/1/2006", "2-1-2006"},
	}
}

// NoteInput is everything the composer reads.
type NoteInput struct {
	PayableAmount   decimal.Decimal
	WorkOrderAmount decimal.Decimal

	// WorkOrderAmountErr is set when WorkOrderAmount could not be computed.
	WorkOrderAmountErr error

	ExtraItemAmount decimal.Decimal
	Agreement       AgreementMetadata
}

// NoteSheet is the composed note sheet.
type NoteSheet struct {
	Agreement       AgreementMetadata `json:"agreement"`
	WorkOrderAmount decimal.Decimal   `json:"work_order_amount"`
	ExtraItemAmount decimal.Decimal   `json:"extra_item_amount"`
	Notes           []string          `json:"notes"`

	// WorkOrderAmountError explains why WorkOrderAmount is unknown; empty
	// when it was computed.
	WorkOrderAmountError string `json:"work_order_amount_error,omitempty"`
}

var (
	ninety         = decimal.NewFromInt(90)
	oneHundredFive = decimal.NewFromInt(105)
	five           = decimal.NewFromInt(5)
)

// ComposeNotes derives the note sheet.
func ComposeNotes(in NoteInput, opts NoteOptions) NoteSheet {
	var n noteList
	amountKnown := in.WorkOrderAmountErr == nil

	completion := percentOf(in.PayableAmount, in.WorkOrderAmount)
	if amountKnown {
		n.add("The work has been completed %s%% of the Work Order Amount.", completion.StringFixed(2))
	}

	switch {
	case !amountKnown:
	case completion.LessThan(ninety):
		n.add("The execution of work at final stage is less than 90%% of the Work Order Amount, " +
			"the Requisite Deviation Statement is enclosed to observe check on unuseful expenditure. " +
			"Approval of the Deviation is having jurisdiction under this office.")
	case completion.GreaterThan(hundred) && completion.LessThanOrEqual(oneHundredFive):
		n.add("Requisite Deviation Statement is enclosed. The Overall Excess is less than or equal to 5%% " +
			"and is having approval jurisdiction under this office.")
	case completion.GreaterThan(oneHundredFive):
		n.add("Requisite Deviation Statement is enclosed. The Overall Excess is more than 5%% and "+
			"Approval of the Deviation Case is required from the %s.", opts.ApprovingAuthority)
	}

	if delay, allowed, ok := scheduleDelay(in.Agreement, opts.DateLayouts); ok {
		if delay > 0 {
			n.add("Time allowed for completion of the work was %d days. The Work was delayed by %d days.", allowed, delay)
			if float64(delay) > 0.5*float64(allowed) {
				n.add("Approval of the Time Extension Case is required from the %s.", opts.ApprovingAuthority)
			} else {
				n.add("Approval of the Time Extension Case is to be done by this office.")
			}
		} else {
			n.add("Work was completed in time.")
		}
	}

	if amountKnown && in.ExtraItemAmount.IsPositive() {
		share := percentOf(in.ExtraItemAmount, in.WorkOrderAmount)
		if share.GreaterThan(five) {
			n.add("The amount of Extra items is Rs. %s which is %s%% of the Work Order Amount; "+
				"exceed 5%%, require approval from the %s.",
				in.ExtraItemAmount.String(), share.StringFixed(2), opts.ApprovingAuthority)
		} else {
			n.add("The amount of Extra items is Rs. %s which is %s%% of the Work Order Amount; "+
				"under 5%%, approval of the same is to be granted by this office.",
				in.ExtraItemAmount.String(), share.StringFixed(2))
		}
	}

	n.add("Quality Control (QC) test reports attached.")
	n.add("Please peruse above details for necessary decision-making.")

	notes := append(n.lines,
		"",
		"                                "+opts.SignatoryName,
		"                               "+opts.SignatoryDesignation,
	)

	ns := NoteSheet{
		Agreement:       in.Agreement,
		WorkOrderAmount: in.WorkOrderAmount,
		ExtraItemAmount: in.ExtraItemAmount,
		Notes:           notes,
	}
	if !amountKnown {
		ns.WorkOrderAmount = decimal.Zero
		ns.WorkOrderAmountError = in.WorkOrderAmountErr.Error()
	}
	return ns
}

// noteList numbers notes as they are added.
type noteList struct {
	lines []string
}

func (n *noteList) add(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	n.lines = append(n.lines, fmt.Sprintf("%d. %s", len(n.lines)+1, text))
}

// percentOf returns part/whole*100, or zero when whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// scheduleDelay returns the delay past the scheduled completion and the
// time allowed, both in days. ok is false when any of the three dates is
// missing or unreadable.
func scheduleDelay(a AgreementMetadata, layouts []string) (delay, allowed int, ok bool) {
	start, ok1 := ParseDate(a.DateCommencement, layouts)
	due, ok2 := ParseDate(a.DateCompletion, layouts)
	actual, ok3 := ParseDate(a.DateActualCompletion, layouts)
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, false
	}
	return daysBetween(due, actual), daysBetween(start, due), true
}

// ParseDate tries each layout in turn on a contract date.
func ParseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
