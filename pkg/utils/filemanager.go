// =============================================================================
// Bill Generator - File Manager Utility
// =============================================================================
//
// File handling around a batch run:
//   - Discovering workbooks and CSV bundle directories in the input directory
//   - Archiving processed inputs and generated outputs
//   - Naming output files
//   - Writing the error log and the processing summary
//
// ARCHIVAL STRATEGY:
//   - Inputs (workbook files or whole bundle directories) are moved to
//     input_archive after a successful run
//   - Outputs are copied to output_archive and stay in the output directory
//   - Failed inputs remain where they are so the next run picks them up
//   - An archived name already taken gets the run's tag, then a counter,
//     appended; nothing in an archive is ever overwritten
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a batch run.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/bill.xlsx
	UseTimestampSubdirs bool

	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		now:              time.Now,
	}
}

// =============================================================================
// INPUT DISCOVERY
// =============================================================================

// DiscoverInputs lists the workbooks in the input directory matching any of
// patterns, plus every subdirectory for which isBundle reports true. Office
// lock files (~$name.xlsx) are skipped. The result is sorted and free of
// duplicates.
func (fm *FileManager) DiscoverInputs(patterns []string, isBundle func(dir string) bool) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan input directory: %w", err)
		}
		for _, path := range matches {
			if seen[path] || strings.HasPrefix(filepath.Base(path), "~$") {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			seen[path] = true
			inputs = append(inputs, path)
		}
	}

	if isBundle != nil {
		entries, err := os.ReadDir(fm.InputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read input directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(fm.InputDir, entry.Name())
			if isBundle(dir) && !seen[dir] {
				seen[dir] = true
				inputs = append(inputs, dir)
			}
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

// =============================================================================
// ARCHIVAL
// =============================================================================

// ArchiveInput moves a processed input, file or bundle directory, to the
// input archive and returns its new path. tag, usually the run ID,
// disambiguates a name that is already archived.
func (fm *FileManager) ArchiveInput(path, tag string) (string, error) {
	archivePath, err := fm.archivePath(fm.InputArchiveDir, path, tag)
	if err != nil {
		return "", err
	}

	if err := os.Rename(path, archivePath); err != nil {
		info, statErr := os.Stat(path)
		if statErr != nil || info.IsDir() {
			return "", fmt.Errorf("failed to move %s to archive: %w", path, err)
		}
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(path, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

// ArchiveOutput copies a generated file to the output archive.
func (fm *FileManager) ArchiveOutput(path, tag string) (string, error) {
	archivePath, err := fm.archivePath(fm.OutputArchiveDir, path, tag)
	if err != nil {
		return "", err
	}
	if err := copyFile(path, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

// archivePath picks a free name for path inside archiveDir and creates its
// directory.
func (fm *FileManager) archivePath(archiveDir, path, tag string) (string, error) {
	dir := archiveDir
	if fm.UseTimestampSubdirs {
		now := fm.now()
		dir = filepath.Join(archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	if tag != "" && pathExists(candidate) {
		candidate = filepath.Join(dir, stem+"_"+safeName(tag)+ext)
		stem += "_" + safeName(tag)
	}
	for n := 1; pathExists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	return candidate, nil
}

// pathExists reports whether anything, file or directory, is at path.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputFileName expands a naming format and appends ext.
//
// PARAMETERS:
//   - format: The name format. Built-in placeholders:
//     {uuid}      - A random UUID unless params supplies one
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {ext}       - Empty unless params supplies one
//   - params: Extra placeholder values, keyed without braces.
//   - ext: The extension, with or without the leading dot.
//
// EXAMPLE:
//
//	format: "{office}_{name}_{timestamp}"
//	params: {"office": "UDR", "name": "bill_07"}
//	output: "UDR_bill_07_20240115_143022.xlsx"
func OutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()
	replacements := map[string]string{
		"uuid":      uuid.New().String(),
		"timestamp": now.Format("20060102_150405"),
		"date":      now.Format("20060102"),
		"ext":       "",
	}
	for key, value := range params {
		replacements[key] = value
	}

	name := format
	for key, value := range replacements {
		name = strings.ReplaceAll(name, "{"+key+"}", safeName(value))
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}

// safeName keeps placeholder values from introducing path separators.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one entry of the error log.
type ErrorLogEntry struct {
	Timestamp time.Time
	FileName  string

	// ErrorType is "load", "validation", "compute" or "write".
	ErrorType string
	Message   string

	Sheet     string
	RowNumber int
	FieldName string
	Value     string
}

// WriteErrorLog writes error entries to a timestamped file in dir and returns
// its path. Nothing is written when entries is empty.
func WriteErrorLog(entries []ErrorLogEntry, dir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(dir, fmt.Sprintf("error_log_%s.txt", time.Now().Format("20060102_150405")))
	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "Bill Generator - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(w, "Error #%d\n"+
			"  Timestamp:  %s\n"+
			"  File:       %s\n"+
			"  Error Type: %s\n"+
			"  Message:    %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.Message)
		if entry.Sheet != "" {
			fmt.Fprintf(w, "  Sheet:      %s\n", entry.Sheet)
		}
		if entry.RowNumber > 0 {
			fmt.Fprintf(w, "  Row Number: %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(w, "  Field:      %s\n", entry.FieldName)
		}
		if entry.Value != "" {
			fmt.Fprintf(w, "  Value:      %s\n", entry.Value)
		}
		w.WriteString("\n")
	}

	w.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary describes one batch run.
type ProcessingSummary struct {
	RunID              string
	StartTime          time.Time
	EndTime            time.Time
	TotalFiles         int
	SuccessfulFiles    int
	FailedFiles        int
	TotalLineItems     int
	ValidationWarnings int
	ProcessedFiles     []ProcessedFileInfo
	FailedFilesList    []FailedFileInfo
}

// ProcessedFileInfo describes a bill that was generated.
type ProcessedFileInfo struct {
	InputFile     string
	Office        string
	OutputFiles   []string
	LineItems     int
	PayableAmount string
	ProcessTime   time.Duration
}

// FailedFileInfo describes an input that could not be billed.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes the summary to a timestamped file in dir and
// returns its path.
func WriteSummaryLog(summary ProcessingSummary, dir string) (string, error) {
	summaryPath := filepath.Join(dir, fmt.Sprintf("processing_summary_%s.txt", time.Now().Format("20060102_150405")))
	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := writeSummary(w, summary); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

func writeSummary(w io.Writer, summary ProcessingSummary) error {
	_, err := fmt.Fprintf(w, "Bill Generator - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:     %s\n"+
		"  Start Time: %s\n"+
		"  End Time:   %s\n"+
		"  Duration:   %s\n\n"+
		"Statistics:\n"+
		"  Total Files:         %d\n"+
		"  Successful:          %d\n"+
		"  Failed:              %d\n"+
		"  Total Line Items:    %d\n"+
		"  Validation Warnings: %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalLineItems,
		summary.ValidationWarnings)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if len(summary.ProcessedFiles) > 0 {
		fmt.Fprintf(w, "Successful Files:\n")
		fmt.Fprintf(w, "--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(w, "  Office:       %s\n", pf.Office)
			for _, out := range pf.OutputFiles {
				fmt.Fprintf(w, "  Output:       %s\n", out)
			}
			fmt.Fprintf(w, "  Line Items:   %d\n", pf.LineItems)
			fmt.Fprintf(w, "  Payable:      %s\n", pf.PayableAmount)
			fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		fmt.Fprintf(w, "Failed Files:\n")
		fmt.Fprintf(w, "--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	_, err = fmt.Fprintf(w, "================================================================================\n"+
		"End of Summary\n")
	return err
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
