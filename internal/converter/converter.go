// =============================================================================
// Bill Generator - Converter Module
// =============================================================================
//
// Orchestrates the bill pipeline for a single input, from loading the
// workbook to writing the bill documents.
//
// PIPELINE:
//   1. Load the three worksheets (xlsx, xls or a CSV bundle directory)
//   2. Resolve and validate the tender premium
//   3. Validate the workbook layout and cell contents
//   4. Compute the bill
//   5. Write the bill as JSON, XML and/or XLSX
//   6. Archive the input and the outputs
//
// CONCURRENCY:
//   A Converter handles one input and shares nothing with other converters,
//   so a batch may run any number of them concurrently.
//
// =============================================================================

package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/bill"
	"github.com/ginjaninja78/bill-generator/internal/config"
	"github.com/ginjaninja78/bill-generator/internal/validation"
	"github.com/ginjaninja78/bill-generator/internal/xlsxexport"
	"github.com/ginjaninja78/bill-generator/internal/xlsxparser"
	"github.com/ginjaninja78/bill-generator/internal/xmlwriter"
	"github.com/ginjaninja78/bill-generator/pkg/utils"
	"github.com/google/uuid"
)

// Pipeline stages, reported on failure.
const (
	StageLoad       = "load"
	StagePremium    = "premium"
	StageValidation = "validation"
	StageCompute    = "compute"
	StageWrite      = "write"
)

// ErrValidationFailed is returned when the workbook has error-level findings
// and the run is not configured to continue on error.
var ErrValidationFailed = errors.New("validation failed")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single input.
type Result struct {
	// FilePath is the input workbook or bundle directory.
	FilePath string

	// RunID identifies this run in output names and documents.
	RunID string

	// Office is the code of the office profile used.
	Office string

	// Bill is the computed bill, nil if processing failed before computing.
	Bill *bill.Result

	// Findings are the validation findings, warnings included.
	Findings []*validation.ValidationError

	// OutputFiles are the written documents, empty on a dry run.
	OutputFiles []string

	// ArchivePath is where the input was moved, empty when not archived.
	ArchivePath string

	Success bool

	// Error and Stage describe the failure when Success is false.
	Error error
	Stage string

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	WorkOrderItems  int
	ExtraItems      int
	SuppressedItems int

	RowsValidated      int
	ValidationErrors   int
	ValidationWarnings int

	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// PremiumOverride replaces the office profile's default premium. A nil
// Percent or an empty Type keeps the profile's value.
type PremiumOverride struct {
	Percent *float64
	Type    string
}

// Converter produces the bill for a single input.
type Converter struct {
	inputPath  string
	profile    *config.OfficeProfile
	mainConfig *config.MainConfig

	loader  xlsxparser.Loader
	files   *utils.FileManager
	premium PremiumOverride
	dryRun  bool
	runID   string
	logger  Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger replaces the default stdout logger.
func WithLogger(l Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithLoader replaces the file-extension based loader.
func WithLoader(l xlsxparser.Loader) Option {
	return func(c *Converter) { c.loader = l }
}

// WithPremium overrides the profile's tender premium.
func WithPremium(p PremiumOverride) Option {
	return func(c *Converter) { c.premium = p }
}

// WithDryRun computes the bill without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithRunID sets the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(c *Converter) { c.runID = id }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The workbook file or CSV bundle directory.
//   - profile: The office profile; nil selects the default profile.
//   - mainConfig: The main application configuration.
func New(inputPath string, profile *config.OfficeProfile, mainConfig *config.MainConfig, opts ...Option) *Converter {
	if profile == nil {
		profile = config.DefaultOfficeProfile()
	}
	c := &Converter{
		inputPath:  inputPath,
		profile:    profile,
		mainConfig: mainConfig,
		loader:     xlsxparser.NewLoader(profile),
		files: utils.NewFileManager(
			mainConfig.InputDir,
			mainConfig.OutputDir,
			mainConfig.InputArchiveDir,
			mainConfig.OutputArchiveDir,
		),
		logger: DefaultLogger(),
	}
	c.files.UseTimestampSubdirs = mainConfig.ArchiveDateSubdirs
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = uuid.New().String()
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline and reports the outcome. It never panics on bad
// input; every failure is returned in the Result.
func (c *Converter) Run() Result {
	start := time.Now()
	result := Result{
		FilePath: c.inputPath,
		RunID:    c.runID,
		Office:   c.profile.OfficeCode,
	}
	fail := func(stage string, err error) Result {
		result.Stage = stage
		result.Error = err
		result.Stats.ProcessingTime = time.Since(start)
		c.logger.Error("%s: %s failed: %v", filepath.Base(c.inputPath), stage, err)
		return result
	}

	c.logger.Info("Processing %s (office %s, run %s)", c.inputPath, c.profile.OfficeCode, c.runID)

	// STEP 1: load
	wb, err := c.loader.Load(c.inputPath)
	if err != nil {
		return fail(StageLoad, fmt.Errorf("failed to load workbook: %w", err))
	}
	c.logger.Debug("Loaded %s: work order %d rows, bill quantity %d rows, extra items %d rows",
		wb.Source, wb.WorkOrder.Rows(), wb.BillQuantity.Rows(), wb.ExtraItems.Rows())

	// STEP 2: premium
	percent, direction := c.premiumParams()
	spec, err := validation.ValidatePremium(percent, direction)
	if err != nil {
		return fail(StagePremium, err)
	}
	c.logger.Debug("Tender premium %s%% %s", spec.Percent.String(), spec.Direction)

	// STEP 3: validation
	opts := BillOptions(c.profile)
	validator := validation.NewValidatorWithOptions(opts.Layout, validation.ValidationOptions{
		DateLayouts: opts.Notes.DateLayouts,
	})
	vr := validator.ValidateWorkbook(wb)
	result.Findings = vr.Errors
	result.Stats.RowsValidated = vr.RowsValidated
	result.Stats.ValidationErrors = vr.ErrorCount
	result.Stats.ValidationWarnings = vr.WarningCount
	for _, finding := range vr.Errors {
		if finding.Severity == validation.SeverityError {
			c.logger.Error("%s", finding.Error())
		} else {
			c.logger.Warn("%s", finding.Error())
		}
	}
	if !vr.IsValid && !c.mainConfig.ContinueOnError {
		return fail(StageValidation, fmt.Errorf("%w with %d errors", ErrValidationFailed, vr.ErrorCount))
	}

	// STEP 4: compute
	res, err := bill.Compute(wb, spec, opts)
	if err != nil {
		return fail(StageCompute, fmt.Errorf("failed to compute bill: %w", err))
	}
	result.Bill = res
	result.Stats.WorkOrderItems = len(res.FirstPage.WorkOrderItems)
	result.Stats.ExtraItems = len(res.FirstPage.ExtraItems)
	for _, row := range res.FirstPage.Rows() {
		if !row.Divider && row.Suppressed() {
			result.Stats.SuppressedItems++
		}
	}
	c.logger.Info("%s: payable %s (%s)", filepath.Base(c.inputPath),
		res.LastPage.PayableAmount.String(), res.LastPage.AmountWords)
	if msg := res.NoteSheet.WorkOrderAmountError; msg != "" {
		c.logger.Warn("%s: note sheet without work order amount: %s", filepath.Base(c.inputPath), msg)
	}

	if c.dryRun {
		result.Success = true
		result.Stats.ProcessingTime = time.Since(start)
		return result
	}

	// STEP 5: write
	outputs, err := c.writeOutputs(res)
	result.OutputFiles = outputs
	if err != nil {
		return fail(StageWrite, err)
	}

	// STEP 6: archive
	if c.mainConfig.ArchiveInputs {
		if err := c.archive(&result); err != nil {
			c.logger.Warn("Failed to archive files: %v", err)
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	return result
}

// premiumParams applies the override on top of the profile defaults.
func (c *Converter) premiumParams() (float64, string) {
	percent, direction := c.profile.Premium.Percent, c.profile.Premium.Type
	if c.premium.Percent != nil {
		percent = *c.premium.Percent
	}
	if c.premium.Type != "" {
		direction = c.premium.Type
	}
	return percent, direction
}

// BillOptions builds the computation options from an office profile.
// Unset note wording keeps the built-in defaults.
func BillOptions(p *config.OfficeProfile) bill.Options {
	opts := bill.DefaultOptions()

	l := p.Layout
	opts.Layout = bill.Layout{
		HeaderRows:      l.HeaderRows,
		HeaderCols:      l.HeaderCols,
		WorkOrderStart:  l.WorkOrderStartRow,
		ExtraItemsStart: l.ExtraItemsStartRow,
	}

	n := p.Notes
	if n.ApprovingAuthority != "" {
		opts.Notes.ApprovingAuthority = n.ApprovingAuthority
	}
	if n.SignatoryName != "" {
		opts.Notes.SignatoryName = n.SignatoryName
	}
	if n.SignatoryDesignation != "" {
		opts.Notes.SignatoryDesignation = n.SignatoryDesignation
	}
	if len(n.DateLayouts) > 0 {
		opts.Notes.DateLayouts = n.DateLayouts
	}
	return opts
}

// =============================================================================
// OUTPUT
// =============================================================================

// document is the JSON output: the bill plus run metadata.
type document struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Office      string    `json:"office"`
	GeneratedAt time.Time `json:"generated_at"`
	*bill.Result
}

// writeOutputs renders res in every configured format and returns the
// paths written so far.
func (c *Converter) writeOutputs(res *bill.Result) ([]string, error) {
	params := map[string]string{
		"uuid":   c.runID,
		"office": c.profile.OfficeCode,
		"name":   strings.TrimSuffix(filepath.Base(c.inputPath), filepath.Ext(c.inputPath)),
		"ext":    strings.TrimPrefix(filepath.Ext(c.inputPath), "."),
	}

	var written []string
	for _, format := range c.mainConfig.Outputs {
		format = strings.ToLower(format)
		data, err := c.render(format, res)
		if err != nil {
			return written, fmt.Errorf("failed to render %s: %w", format, err)
		}

		path := filepath.Join(c.mainConfig.OutputDir, utils.OutputFileName(c.mainConfig.UUIDFormat, params, format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write file: %w", err)
		}
		written = append(written, path)
		c.logger.Info("Wrote %s", path)
	}
	return written, nil
}

func (c *Converter) render(format string, res *bill.Result) ([]byte, error) {
	switch format {
	case config.FormatJSON:
		return json.MarshalIndent(document{
			RunID:       c.runID,
			Source:      c.inputPath,
			Office:      c.profile.OfficeCode,
			GeneratedAt: time.Now().UTC(),
			Result:      res,
		}, "", "  ")
	case config.FormatXML:
		opts := xmlwriter.DefaultGenerateOptions()
		opts.RootAttributes["runId"] = c.runID
		opts.RootAttributes["source"] = filepath.Base(c.inputPath)
		opts.RootAttributes["office"] = c.profile.OfficeCode
		return xmlwriter.GenerateWithOptions(res, opts)
	case config.FormatXLSX:
		return xlsxexport.GenerateExcel(res)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// archive moves the input to the input archive and copies the outputs to
// the output archive.
func (c *Converter) archive(result *Result) error {
	for _, out := range result.OutputFiles {
		if _, err := c.files.ArchiveOutput(out, c.runID); err != nil {
			return err
		}
	}
	path, err := c.files.ArchiveInput(c.inputPath, c.runID)
	if err != nil {
		return err
	}
	result.ArchivePath = path
	c.logger.Debug("Archived %s to %s", c.inputPath, path)
	return nil
}
