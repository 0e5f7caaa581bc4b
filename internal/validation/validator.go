// =============================================================================
// Bill Generator - Validation Module
// =============================================================================
//
// Checks run before a bill is computed. The computation itself never fails on
// a malformed cell (it reads it as zero), so this module is where such cells
// are surfaced to the operator:
//
//   | Check                                        | Severity |
//   |----------------------------------------------|----------|
//   | Premium percent outside [0, 100]             | error    |
//   | Premium direction not above/below            | error    |
//   | Missing worksheet                            | error    |
//   | Work Order quantity/rate not a number        | warning  |
//   | Bill Quantity / Extra Items cell not a number| warning  |
//   | Bill Quantity shorter than Work Order        | warning  |
//   | Work Order without data rows                 | warning  |
//   | Contract dates missing or unreadable         | warning  |
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/ginjaninja78/bill-generator/internal/bill"
	"github.com/ginjaninja78/bill-generator/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError is one finding.
type ValidationError struct {
	// Severity is "error" or "warning".
	Severity string

	// Sheet is the worksheet name, empty for run parameters.
	Sheet string

	// Field names the checked column or parameter.
	Field string

	// Value is the offending content as text.
	Value string

	// Rule is a short machine-readable rule name.
	Rule string

	// Message is the human-readable description.
	Message string

	// RowNumber is one-based, as the spreadsheet shows it. Zero when the
	// finding is not tied to a row.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", strings.ToUpper(e.Severity))
	if e.Sheet != "" {
		b.WriteString(e.Sheet)
		if e.RowNumber > 0 {
			fmt.Fprintf(&b, " row %d", e.RowNumber)
		}
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%s: %s", e.Field, e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}

// ValidationResult collects the findings for one workbook.
type ValidationResult struct {
	IsValid       bool
	Errors        []*ValidationError
	ErrorCount    int
	WarningCount  int
	RowsValidated int
}

func (r *ValidationResult) add(e *ValidationError, opts ValidationOptions) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if opts.TreatWarningsAsErrors {
		r.IsValid = false
	}
}

// =============================================================================
// PREMIUM
// =============================================================================

// ValidatePremium checks the tender premium parameters and builds the
// PremiumSpec the bill computation takes.
func ValidatePremium(percent float64, direction string) (bill.PremiumSpec, error) {
	if math.IsNaN(percent) || math.IsInf(percent, 0) || percent < 0 || percent > 100 {
		return bill.PremiumSpec{}, &ValidationError{
			Severity: SeverityError,
			Field:    "premium_percent",
			Value:    fmt.Sprint(percent),
			Rule:     "range",
			Message:  "premium percent must be between 0 and 100",
		}
	}

	spec, err := bill.NewPremiumSpec(percent, direction)
	if err != nil {
		return bill.PremiumSpec{}, &ValidationError{
			Severity: SeverityError,
			Field:    "premium_type",
			Value:    direction,
			Rule:     "enum",
			Message:  "premium type must be 'above' or 'below'",
		}
	}
	return spec, nil
}

// =============================================================================
// WORKBOOK
// =============================================================================

// ValidationOptions tunes a Validator.
type ValidationOptions struct {
	// StopOnFirstError returns as soon as a finding makes the result
	// invalid.
	StopOnFirstError bool

	// TreatWarningsAsErrors marks the result invalid on any warning.
	TreatWarningsAsErrors bool

	// DateLayouts are used to check the contract dates.
	DateLayouts []string
}

// DefaultValidationOptions returns lenient options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		DateLayouts: bill.DefaultNoteOptions().DateLayouts,
	}
}

// Validator checks workbooks against a layout.
type Validator struct {
	layout  bill.Layout
	options ValidationOptions
}

// NewValidator returns a validator with default options.
func NewValidator(layout bill.Layout) *Validator {
	return NewValidatorWithOptions(layout, DefaultValidationOptions())
}

// NewValidatorWithOptions returns a validator with the given options.
func NewValidatorWithOptions(layout bill.Layout, options ValidationOptions) *Validator {
	return &Validator{layout: layout, options: options}
}

// Validate checks wb with the default options.
func Validate(wb types.Workbook, layout bill.Layout) *ValidationResult {
	return NewValidator(layout).ValidateWorkbook(wb)
}

// ValidateWorkbook runs every workbook check.
func (v *Validator) ValidateWorkbook(wb types.Workbook) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	missing := false
	for _, s := range []struct {
		name  string
		sheet *types.Sheet
	}{
		{"Work Order", wb.WorkOrder},
		{"Bill Quantity", wb.BillQuantity},
		{"Extra Items", wb.ExtraItems},
	} {
		if s.sheet == nil {
			missing = true
			result.add(&ValidationError{
				Severity: SeverityError,
				Sheet:    s.name,
				Field:    "sheet",
				Rule:     "required",
				Message:  "worksheet is missing",
			}, v.options)
		}
	}
	if missing {
		return result
	}

	checks := []func(types.Workbook, *ValidationResult) bool{
		v.checkWorkOrder,
		v.checkBillQuantity,
		v.checkExtraItems,
		v.checkAgreement,
	}
	for _, check := range checks {
		if !check(wb, result) {
			break
		}
	}
	return result
}

// checkWorkOrder and the checks after it return false when validation
// should stop.
func (v *Validator) checkWorkOrder(wb types.Workbook, result *ValidationResult) bool {
	wo := wb.WorkOrder
	if wo.Rows() <= v.layout.WorkOrderStart {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Sheet:    wo.Name,
			Field:    "rows",
			Rule:     "data_rows",
			Message:  fmt.Sprintf("no data rows at or after row %d", v.layout.WorkOrderStart+1),
		}, v.options)
		return true
	}

	for i := v.layout.WorkOrderStart; i < wo.Rows(); i++ {
		result.RowsValidated++
		for _, col := range []struct {
			idx  int
			name string
		}{
			{bill.WorkOrderQuantityCol, "quantity"},
			{bill.WorkOrderRateCol, "rate"},
		} {
			if !v.numeric(wo, i, col.idx, col.name, msgNoWorkOrderAmount, result) {
				return false
			}
		}
	}
	return true
}

func (v *Validator) checkBillQuantity(wb types.Workbook, result *ValidationResult) bool {
	bq := wb.BillQuantity
	if short := wb.WorkOrder.Rows() - bq.Rows(); short > 0 && wb.WorkOrder.Rows() > v.layout.WorkOrderStart {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Sheet:    bq.Name,
			Field:    "rows",
			Value:    fmt.Sprint(bq.Rows()),
			Rule:     "row_alignment",
			Message:  fmt.Sprintf("%d fewer rows than %s; missing executed quantities count as zero", short, wb.WorkOrder.Name),
		}, v.options)
	}

	for i := v.layout.WorkOrderStart; i < bq.Rows(); i++ {
		if !v.numeric(bq, i, bill.WorkOrderQuantityCol, "quantity", msgReadAsZero, result) {
			return false
		}
	}
	return true
}

func (v *Validator) checkExtraItems(wb types.Workbook, result *ValidationResult) bool {
	ex := wb.ExtraItems
	for i := v.layout.ExtraItemsStart; i < ex.Rows(); i++ {
		result.RowsValidated++
		if !v.numeric(ex, i, bill.ExtraQuantityCol, "quantity", msgReadAsZero, result) {
			return false
		}
		if !v.numeric(ex, i, bill.ExtraRateCol, "rate", msgReadAsZero, result) {
			return false
		}
	}
	return true
}

func (v *Validator) checkAgreement(wb types.Workbook, result *ValidationResult) bool {
	a := bill.ReadAgreement(wb.WorkOrder)
	for _, d := range []struct {
		field string
		value string
	}{
		{"date_commencement", a.DateCommencement},
		{"date_completion", a.DateCompletion},
		{"actual_completion", a.DateActualCompletion},
	} {
		if _, ok := bill.ParseDate(d.value, v.options.DateLayouts); ok {
			continue
		}
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Sheet:    wb.WorkOrder.Name,
			Field:    d.field,
			Value:    d.value,
			Rule:     "date",
			Message:  "contract date missing or unreadable; the delay note will be omitted",
		}, v.options)
	}
	return true
}

// Messages for cells that do not read as a number.
const (
	msgReadAsZero        = "not a number; it will be read as zero"
	msgNoWorkOrderAmount = "not a number; read as zero, and the work order amount and the notes based on it are omitted"
)

// numeric records a warning when a filled-in cell does not read as a
// number. It returns false when validation should stop.
func (v *Validator) numeric(sheet *types.Sheet, row, col int, field, message string, result *ValidationResult) bool {
	c := sheet.Cell(row, col)
	present, ok := bill.Readable(c)
	if !present || ok {
		return true
	}

	result.add(&ValidationError{
		Severity:  SeverityWarning,
		Sheet:     sheet.Name,
		Field:     field,
		Value:     c.String(),
		Rule:      "numeric",
		Message:   message,
		RowNumber: row + 1,
	}, v.options)

	return !(v.options.StopOnFirstError && !result.IsValid)
}
