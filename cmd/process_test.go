package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/bill-generator/internal/bill"
	"github.com/ginjaninja78/bill-generator/internal/converter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func TestPrintReport(t *testing.T) {
	billed := &bill.Result{LastPage: bill.LastPage{PayableAmount: decimal.NewFromInt(500)}}

	tests := []struct {
		name    string
		report  batchReport
		want    []string
		notWant []string
	}{
		{
			name: "Dry run",
			report: batchReport{
				dryRun:  true,
				results: []converter.Result{{FilePath: "in/a.xlsx", Success: true, Bill: billed}},
			},
			want: []string{"✓ a.xlsx: payable 500 (dry run)"},
		},
		{
			name: "Real run without configured outputs",
			report: batchReport{
				results: []converter.Result{{FilePath: "in/a.xlsx", Success: true, Bill: billed}},
			},
			want:    []string{"✓ a.xlsx -> 0 file(s)"},
			notWant: []string{"dry run"},
		},
		{
			name: "Failure",
			report: batchReport{
				failed: 1,
				results: []converter.Result{
					{FilePath: "in/a.xlsx", Success: true, Bill: billed, OutputFiles: []string{"out/a.json"}},
					{FilePath: "in/b.xlsx", Error: errors.New("missing worksheet")},
				},
			},
			want: []string{"✓ a.xlsx -> 1 file(s)", "✗ b.xlsx: missing worksheet", "Failed:        1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &cobra.Command{}
			c.SetOut(&buf)
			tt.report.startTime = time.Now()

			printReport(c, tt.report)

			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("report lacks %q:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("report contains %q:\n%s", notWant, out)
				}
			}
		})
	}
}
