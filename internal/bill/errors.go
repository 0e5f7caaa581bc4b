package bill

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/bill-generator/internal/types"
)

var (
	// ErrInvalidDirection is returned when a premium type is neither
	// "above" nor "below".
	ErrInvalidDirection = errors.New("invalid premium direction")

	// ErrMissingSheet is returned by Compute when the workbook lacks one of
	// its three worksheets.
	ErrMissingSheet = errors.New("missing worksheet")

	// ErrWorkOrderAmount reports that the work-order amount used by the
	// note sheet cannot be computed from the Work Order sheet.
	ErrWorkOrderAmount = errors.New("work order amount cannot be computed")
)

// CellError pinpoints a cell that could not be read where a number was
// required. Row and Col are zero-based.
type CellError struct {
	Sheet string
	Row   int
	Col   int
	Cell  types.Cell
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s!R%dC%d (%s %q): %v",
		e.Sheet, e.Row+1, e.Col+1, e.Cell.Kind, e.Cell.String(), e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }
