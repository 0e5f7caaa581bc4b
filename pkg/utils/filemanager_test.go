package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xlsx"))
	touch(t, filepath.Join(dir, "a.xls"))
	touch(t, filepath.Join(dir, "~$b.xlsx"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "bundle", "work_order.csv"))
	touch(t, filepath.Join(dir, "other", "readme.md"))

	fm := NewFileManager(dir, "", "", "")
	isBundle := func(d string) bool { return FileExists(filepath.Join(d, "work_order.csv")) }

	got, err := fm.DiscoverInputs([]string{"*.xlsx", "*.xls", "*.xlsx"}, isBundle)
	if err != nil {
		t.Fatalf("DiscoverInputs: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.xls"),
		filepath.Join(dir, "b.xlsx"),
		filepath.Join(dir, "bundle"),
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("DiscoverInputs = %v, want %v", got, want)
	}
}

func TestArchive(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "in"),
		filepath.Join(root, "out"),
		filepath.Join(root, "in_archive"),
		filepath.Join(root, "out_archive"),
	)

	t.Run("Input file is moved", func(t *testing.T) {
		src := filepath.Join(fm.InputDir, "bill.xlsx")
		touch(t, src)
		dst, err := fm.ArchiveInput(src, "run-1")
		if err != nil {
			t.Fatalf("ArchiveInput: %v", err)
		}
		if FileExists(src) || !FileExists(dst) {
			t.Errorf("src exists=%v, dst exists=%v", FileExists(src), FileExists(dst))
		}
	})

	t.Run("Bundle directory is moved", func(t *testing.T) {
		src := filepath.Join(fm.InputDir, "bundle")
		touch(t, filepath.Join(src, "work_order.csv"))
		dst, err := fm.ArchiveInput(src, "run-1")
		if err != nil {
			t.Fatalf("ArchiveInput: %v", err)
		}
		if !FileExists(filepath.Join(dst, "work_order.csv")) {
			t.Error("bundle content not archived")
		}
	})

	t.Run("Output file is copied", func(t *testing.T) {
		src := filepath.Join(fm.OutputDir, "bill.json")
		touch(t, src)
		dst, err := fm.ArchiveOutput(src, "run-1")
		if err != nil {
			t.Fatalf("ArchiveOutput: %v", err)
		}
		if !FileExists(src) || !FileExists(dst) {
			t.Error("output copy missing")
		}
	})

	t.Run("Timestamp subdirectories", func(t *testing.T) {
		fm.UseTimestampSubdirs = true
		fm.now = func() time.Time { return time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) }
		defer func() { fm.UseTimestampSubdirs = false }()

		arch := filepath.Join(root, "dated")
		got, err := fm.archivePath(arch, "x/bill.xlsx", "run-1")
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(arch, "2024", "01", "05", "bill.xlsx")
		if got != want {
			t.Errorf("archivePath = %q, want %q", got, want)
		}
	})
}

func TestArchiveNeverOverwrites(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "in"), "", filepath.Join(root, "in_archive"), "")

	archiveRun := func(content, tag string) string {
		t.Helper()
		src := filepath.Join(fm.InputDir, "bill.xlsx")
		if err := os.MkdirAll(fm.InputDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(src, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		dst, err := fm.ArchiveInput(src, tag)
		if err != nil {
			t.Fatalf("ArchiveInput: %v", err)
		}
		return dst
	}

	first := archiveRun("first run", "run-1")
	second := archiveRun("second run", "run-2")
	third := archiveRun("third run", "run-2")

	wantNames := []string{"bill.xlsx", "bill_run-2.xlsx", "bill_run-2_1.xlsx"}
	for i, got := range []string{first, second, third} {
		if filepath.Base(got) != wantNames[i] {
			t.Errorf("archive %d = %q, want %q", i+1, filepath.Base(got), wantNames[i])
		}
	}
	for path, want := range map[string]string{first: "first run", second: "second run", third: "third run"} {
		if data, _ := os.ReadFile(path); string(data) != want {
			t.Errorf("%s holds %q, want %q", filepath.Base(path), data, want)
		}
	}

	t.Run("Bundle directory", func(t *testing.T) {
		for i, tag := range []string{"run-1", "run-2"} {
			src := filepath.Join(fm.InputDir, "bundle")
			touch(t, filepath.Join(src, "work_order.csv"))
			dst, err := fm.ArchiveInput(src, tag)
			if err != nil {
				t.Fatalf("ArchiveInput #%d: %v", i+1, err)
			}
			if !FileExists(filepath.Join(dst, "work_order.csv")) {
				t.Errorf("bundle #%d not archived at %s", i+1, dst)
			}
		}
		if !FileExists(filepath.Join(fm.InputArchiveDir, "bundle_run-2", "work_order.csv")) {
			t.Error("second bundle not archived under its run tag")
		}
	})
}

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		name   string
		format string
		params map[string]string
		ext    string
		want   string
	}{
		{"Placeholders", "{office}_{name}", map[string]string{"office": "UDR", "name": "bill"}, "json", "UDR_bill.json"},
		{"Dotted extension", "{name}", map[string]string{"name": "bill"}, ".xlsx", "bill.xlsx"},
		{"Extension kept", "{name}.xml", map[string]string{"name": "bill"}, "xml", "bill.xml"},
		{"Supplied uuid", "{uuid}", map[string]string{"uuid": "run-1"}, "xml", "run-1.xml"},
		{"Separators replaced", "{name}", map[string]string{"name": "a/b"}, "json", "a_b.json"},
		{"Source extension", "{name}_{ext}", map[string]string{"name": "bill", "ext": "xls"}, "json", "bill_xls.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputFileName(tt.format, tt.params, tt.ext); got != tt.want {
				t.Errorf("OutputFileName = %q, want %q", got, tt.want)
			}
		})
	}

	a := OutputFileName("{name}_{timestamp}_{uuid}", map[string]string{"name": "bill"}, "json")
	b := OutputFileName("{name}_{timestamp}_{uuid}", map[string]string{"name": "bill"}, "json")
	if a == b {
		t.Errorf("two runs named %q", a)
	}

	if got := OutputFileName("{uuid}", nil, "json"); len(got) != len("00000000-0000-0000-0000-000000000000.json") {
		t.Errorf("generated uuid name = %q", got)
	}
}

func TestWriteLogs(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	if err != nil || path != "" {
		t.Errorf("empty error log: path=%q err=%v", path, err)
	}

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp: time.Now(),
		FileName:  "bill.xlsx",
		ErrorType: "validation",
		Message:   "not a number",
		Sheet:     "Work Order",
		RowNumber: 22,
		FieldName: "rate",
		Value:     "abc",
	}}, dir)
	if err != nil {
		t.Fatalf("WriteErrorLog: %v", err)
	}
	data, _ := os.ReadFile(path)
	for _, want := range []string{"Total Errors: 1", "Row Number: 22", "Value:      abc"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("error log lacks %q", want)
		}
	}

	start := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	path, err = WriteSummaryLog(ProcessingSummary{
		RunID:           "run-1",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		ProcessedFiles: []ProcessedFileInfo{{
			InputFile:     "a.xlsx",
			Office:        "UDR",
			OutputFiles:   []string{"a.json", "a.xml"},
			PayableAmount: "59185",
		}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.xlsx", ErrorMessage: "missing sheet"}},
	}, dir)
	if err != nil {
		t.Fatalf("WriteSummaryLog: %v", err)
	}
	data, _ = os.ReadFile(path)
	for _, want := range []string{"Run ID:     run-1", "Duration:   2s", "Output:       a.xml", "Error: missing sheet"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary lacks %q", want)
		}
	}
}
