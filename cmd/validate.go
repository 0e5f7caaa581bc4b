// =============================================================================
// Bill Generator - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   billgen validate [input ...]
//
// Loads the configuration and office profiles, then checks each input's
// worksheets without computing a bill. With no arguments every input in the
// input directory is checked.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ginjaninja78/bill-generator/internal/converter"
	"github.com/ginjaninja78/bill-generator/internal/validation"
	"github.com/ginjaninja78/bill-generator/internal/xlsxparser"
	"github.com/spf13/cobra"
)

var strictValidation bool

var validateCmd = &cobra.Command{
	Use:   "validate [input ...]",
	Short: "Check configuration and input workbooks without generating bills",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration OK: %d office profile(s)\n", len(env.profiles))
	for _, code := range sortedProfileCodes(env) {
		p := env.profiles[code]
		if _, err := validation.ValidatePremium(p.Premium.Percent, p.Premium.Type); err != nil {
			return fmt.Errorf("office %s: %w", code, err)
		}
		fmt.Fprintf(out, "  %s (%s): premium %.2f%% %s\n", code, p.OfficeName, p.Premium.Percent, p.Premium.Type)
	}

	inputs := args
	if len(inputs) == 0 {
		if inputs, err = discoverInputs(env); err != nil {
			return err
		}
	}

	invalid := 0
	for _, path := range inputs {
		profile := env.profileFor(path)
		opts := converter.BillOptions(profile)

		wb, err := xlsxparser.NewLoader(profile).Load(path)
		if err != nil {
			invalid++
			fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(path), err)
			continue
		}

		result := validation.NewValidatorWithOptions(opts.Layout, validation.ValidationOptions{
			TreatWarningsAsErrors: strictValidation,
			DateLayouts:           opts.Notes.DateLayouts,
		}).ValidateWorkbook(wb)

		mark := "✓"
		if !result.IsValid {
			mark = "✗"
			invalid++
		}
		fmt.Fprintf(out, "%s %s (office %s): %d error(s), %d warning(s), %d row(s) checked\n",
			mark, filepath.Base(path), profile.OfficeCode, result.ErrorCount, result.WarningCount, result.RowsValidated)
		for _, finding := range result.Errors {
			fmt.Fprintf(out, "    %s\n", finding.Error())
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d input(s) failed validation", invalid, len(inputs))
	}
	return nil
}

func sortedProfileCodes(env *environment) []string {
	codes := make([]string, 0, len(env.profiles))
	for code := range env.profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
