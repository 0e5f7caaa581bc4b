// =============================================================================
// Bill Generator - Process Command
// =============================================================================
//
// COMMAND USAGE:
//   billgen process [flags]
//
// FLAGS:
//   --dry-run          : Compute bills without writing or archiving anything
//   --single           : Process only the input given with --file
//   --file             : Workbook or CSV bundle directory (used with --single)
//   --office           : Process only inputs of this office; with --single,
//                        bill the input under this office
//   --premium-percent  : Override the office's tender premium percent
//   --premium-type     : Override the office's premium type (above/below)
//
// PROCESSING PIPELINE:
//   1. Load configuration and office profiles
//   2. Discover workbooks and CSV bundles in the input directory
//   3. Match each input to an office profile
//   4. Bill the inputs concurrently, at most max_concurrency at a time
//   5. Write the error log and the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/config"
	"github.com/ginjaninja78/bill-generator/internal/converter"
	"github.com/ginjaninja78/bill-generator/internal/csvparser"
	"github.com/ginjaninja78/bill-generator/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun         bool
	singleFile     bool
	filePath       string
	office         string
	premiumPercent float64
	premiumType    string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate bills for the inputs in the input directory",
	Long: `The process command scans the input directory for workbooks and CSV
bundle directories, matches each to an office profile and generates its bill.

On success:
  - The bill documents are written to the output directory
  - With archive_inputs, the input is moved to the input archive and the
    documents are copied to the output archive
  - A summary report is written next to the log file

On error:
  - An error log is written next to the log file
  - The input remains in the input directory
  - Other inputs are still processed when continue_on_error is set`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute bills without writing output files")
	processCmd.Flags().BoolVar(&singleFile, "single", false, "Process only a single input (use with --file)")
	processCmd.Flags().StringVar(&filePath, "file", "", "Workbook or CSV bundle directory to process (used with --single)")
	processCmd.Flags().StringVar(&office, "office", "", "Process only inputs of this office code")
	processCmd.Flags().Float64Var(&premiumPercent, "premium-percent", 0, "Tender premium percent, overriding the office profile")
	processCmd.Flags().StringVar(&premiumType, "premium-type", "", "Tender premium type: above or below")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	jobs, err := planJobs(env)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		env.logger.Info("No inputs found in %s", env.cfg.InputDir)
		return nil
	}

	var override converter.PremiumOverride
	if cmd.Flags().Changed("premium-percent") {
		p := premiumPercent
		override.Percent = &p
	}
	override.Type = premiumType

	report := runBatch(cmdContext(cmd), env, jobs, batchOptions{
		premium: override,
		dryRun:  dryRun,
	})
	printReport(cmd, report)

	if report.failed > 0 {
		return fmt.Errorf("%d of %d bills failed", report.failed, len(jobs))
	}
	return nil
}

// job pairs an input with the office it is billed under.
type job struct {
	path    string
	profile *config.OfficeProfile
}

// planJobs lists the inputs of this run and their offices.
func planJobs(env *environment) ([]job, error) {
	if singleFile {
		if filePath == "" {
			return nil, fmt.Errorf("--single requires --file")
		}
		profile := env.profileFor(filePath)
		if office != "" {
			p, err := env.profileByCode(office)
			if err != nil {
				return nil, err
			}
			profile = p
		}
		return []job{{path: filePath, profile: profile}}, nil
	}

	inputs, err := discoverInputs(env)
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, path := range inputs {
		profile := env.profileFor(path)
		if office != "" && profile.OfficeCode != office {
			env.logger.Debug("Skipping %s: office %s", path, profile.OfficeCode)
			continue
		}
		jobs = append(jobs, job{path: path, profile: profile})
	}
	return jobs, nil
}

// discoverInputs lists the workbooks and CSV bundles in the input directory.
// A directory is a bundle when it holds the CSV files of any office.
func discoverInputs(env *environment) ([]string, error) {
	settings := []config.CSVSettings{config.DefaultOfficeProfile().CSVSettings}
	for _, p := range env.profiles {
		settings = append(settings, p.CSVSettings)
	}
	isBundle := func(dir string) bool {
		for _, s := range settings {
			if csvparser.IsBundle(dir, s) {
				return true
			}
		}
		return false
	}

	fm := utils.NewFileManager(env.cfg.InputDir, env.cfg.OutputDir, env.cfg.InputArchiveDir, env.cfg.OutputArchiveDir)
	inputs, err := fm.DiscoverInputs(env.cfg.InputPatterns, isBundle)
	if err != nil {
		return nil, fmt.Errorf("failed to discover inputs: %w", err)
	}
	return inputs, nil
}

// =============================================================================
// BATCH
// =============================================================================

type batchOptions struct {
	premium converter.PremiumOverride
	dryRun  bool
}

// batchReport is the outcome of one batch.
type batchReport struct {
	runID     string
	dryRun    bool
	results   []converter.Result
	failed    int
	skipped   int
	errorLog  string
	summary   string
	startTime time.Time
}

// runBatch bills every job, at most MaxConcurrency at a time. Without
// continue_on_error the first failure stops jobs that have not started.
func runBatch(ctx context.Context, env *environment, jobs []job, opts batchOptions) batchReport {
	report := batchReport{
		runID:     uuid.New().String(),
		dryRun:    opts.dryRun,
		results:   make([]converter.Result, len(jobs)),
		startTime: time.Now(),
	}
	env.logger.Info("Batch %s: %d input(s)", report.runID, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(env.cfg.MaxConcurrency)

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.results[i] = converter.Result{FilePath: j.path, Error: err, Stage: "skipped"}
				return nil
			}
			conv := converter.New(j.path, j.profile, env.cfg,
				converter.WithLogger(env.logger),
				converter.WithPremium(opts.premium),
				converter.WithDryRun(opts.dryRun),
			)
			res := conv.Run()
			report.results[i] = res
			if !res.Success && !env.cfg.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(j.path), res.Error)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		env.logger.Error("Batch stopped: %v", err)
	}

	for _, res := range report.results {
		switch {
		case res.Stage == "skipped":
			report.skipped++
		case !res.Success:
			report.failed++
		}
	}

	if !opts.dryRun {
		writeReports(env, &report)
	}
	return report
}

// writeReports writes the error log and the summary next to the log file.
func writeReports(env *environment, report *batchReport) {
	dir := filepath.Dir(env.cfg.LogFile)
	summary := utils.ProcessingSummary{
		RunID:      report.runID,
		StartTime:  report.startTime,
		EndTime:    time.Now(),
		TotalFiles: len(report.results),
	}
	var entries []utils.ErrorLogEntry

	for _, res := range report.results {
		name := filepath.Base(res.FilePath)
		for _, f := range res.Findings {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: time.Now(),
				FileName:  name,
				ErrorType: converter.StageValidation + "/" + f.Severity,
				Message:   f.Message,
				Sheet:     f.Sheet,
				RowNumber: f.RowNumber,
				FieldName: f.Field,
				Value:     f.Value,
			})
		}
		summary.ValidationWarnings += res.Stats.ValidationWarnings

		if !res.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    res.FilePath,
				ErrorMessage: fmt.Sprint(res.Error),
			})
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: time.Now(),
				FileName:  name,
				ErrorType: res.Stage,
				Message:   fmt.Sprint(res.Error),
			})
			continue
		}

		summary.SuccessfulFiles++
		items := res.Stats.WorkOrderItems + res.Stats.ExtraItems
		summary.TotalLineItems += items
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:     res.FilePath,
			Office:        res.Office,
			OutputFiles:   res.OutputFiles,
			LineItems:     items,
			PayableAmount: res.Bill.LastPage.PayableAmount.String(),
			ProcessTime:   res.Stats.ProcessingTime,
		})
	}

	var err error
	if report.errorLog, err = utils.WriteErrorLog(entries, dir); err != nil {
		env.logger.Warn("Failed to write error log: %v", err)
	}
	if report.summary, err = utils.WriteSummaryLog(summary, dir); err != nil {
		env.logger.Warn("Failed to write summary: %v", err)
	}
}

func printReport(cmd *cobra.Command, report batchReport) {
	out := cmd.OutOrStdout()
	for _, res := range report.results {
		name := filepath.Base(res.FilePath)
		switch {
		case res.Success && report.dryRun:
			fmt.Fprintf(out, "  ✓ %s: payable %s (dry run)\n", name, res.Bill.LastPage.PayableAmount.String())
		case res.Success:
			fmt.Fprintf(out, "  ✓ %s -> %d file(s)\n", name, len(res.OutputFiles))
		default:
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, res.Error)
		}
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total inputs:  %d\n", len(report.results))
	fmt.Fprintf(out, "Successful:    %d\n", len(report.results)-report.failed-report.skipped)
	fmt.Fprintf(out, "Failed:        %d\n", report.failed)
	if report.skipped > 0 {
		fmt.Fprintf(out, "Skipped:       %d\n", report.skipped)
	}
	fmt.Fprintf(out, "Time elapsed:  %s\n", time.Since(report.startTime).Round(time.Millisecond))
	if report.errorLog != "" {
		fmt.Fprintf(out, "Error log:     %s\n", report.errorLog)
	}
	if report.summary != "" {
		fmt.Fprintf(out, "Summary:       %s\n", report.summary)
	}
}
