// =============================================================================
// Bill Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   billgen process   - Generate bills for every input in the input directory
//   billgen validate  - Check configuration and workbooks without billing
//   billgen watch     - Generate bills on a cron schedule
//   billgen version   - Display the application version
//
// LAYOUT:
//   cmd/       : CLI commands (Cobra)
//   internal/  : Bill computation, loaders, validation and renderers
//   pkg/       : Shared file utilities
//   configs/   : Office profiles
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/bill-generator/cmd"
)

func main() {
	cmd.Execute()
}
