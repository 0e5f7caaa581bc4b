// =============================================================================
// Bill Generator - Root Command
// =============================================================================
//
// COBRA CLI STRUCTURE:
//   rootCmd (billgen)
//   ├── processCmd  (billgen process)
//   ├── validateCmd (billgen validate)
//   ├── watchCmd    (billgen watch)
//   └── versionCmd  (billgen version)
//
// ENVIRONMENT:
//   A .env file in the working directory is loaded first. Real environment
//   variables win over it.
//     BILLGEN_CONFIG     - main configuration file, unless --config is given
//     BILLGEN_LOG_LEVEL  - overrides log_level from the configuration
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/bill-generator/internal/config"
	"github.com/ginjaninja78/bill-generator/internal/converter"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables read by the CLI.
const (
	envConfig   = "BILLGEN_CONFIG"
	envLogLevel = "BILLGEN_LOG_LEVEL"
)

const defaultConfigFile = "config.yaml"

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "billgen",
	Short: "Bill Generator - Contractor bills from work-order workbooks",
	Long: `Bill Generator reads a contractor's Work Order, Bill Quantity and Extra
Items worksheets and produces the running bill: the first page with totals and
tender premium, the last page with the amount in words, the deviation
statement, the extra-items statement and the note sheet.

Inputs may be .xlsx or .xls workbooks, or directories holding the three sheets
as CSV files. Each input is matched to an office profile by file name.

Example Usage:
  billgen process                                  # Bill every input
  billgen process --single --file bill.xlsx        # Bill one workbook
  billgen process --premium-percent 4.5 --premium-type below
  billgen validate bill.xlsx                       # Check a workbook only
  billgen watch                                    # Bill new inputs on a schedule`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is normal.
		_ = godotenv.Load()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file (env "+envConfig+")",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// environment is everything a command needs once configuration is loaded.
type environment struct {
	cfg      *config.MainConfig
	profiles map[string]*config.OfficeProfile
	logger   converter.Logger
	closer   io.Closer
}

func (e *environment) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// setup loads the main configuration and the office profiles and opens the
// log file. The default configuration is used when the default config file
// does not exist.
func setup(cmd *cobra.Command) (*environment, error) {
	path := cfgFile
	if !cmd.Flags().Changed("config") {
		if env := os.Getenv(envConfig); env != "" {
			path = env
		}
	}

	var cfg *config.MainConfig
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigFile {
		cfg = config.DefaultMainConfig()
		if err := config.EnsureDirs(cfg); err != nil {
			return nil, err
		}
	} else {
		loaded, err := config.LoadMainConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
		cfg = loaded
	}

	if level := os.Getenv(envLogLevel); level != "" {
		cfg.LogLevel = level
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	profiles, err := config.LoadOfficeProfiles(cfg.ConfigsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load office profiles: %w", err)
	}

	env := &environment{cfg: cfg, profiles: profiles}

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		env.closer = f
		out = io.MultiWriter(os.Stdout, f)
	}
	env.logger = converter.NewLogger(out, converter.ParseLevel(cfg.LogLevel))

	env.logger.Debug("Loaded configuration %s with %d office profile(s)", path, len(profiles))
	return env, nil
}

// profileFor returns the profile matching path, or the default profile.
func (e *environment) profileFor(path string) *config.OfficeProfile {
	if p := config.MatchProfile(e.profiles, path); p != nil {
		return p
	}
	return config.DefaultOfficeProfile()
}

// profileByCode looks an office up by its code.
func (e *environment) profileByCode(code string) (*config.OfficeProfile, error) {
	if p, ok := e.profiles[code]; ok {
		return p, nil
	}
	for _, p := range e.profiles {
		if p.OfficeCode == code {
			return p, nil
		}
	}
	if code == config.DefaultOfficeProfile().OfficeCode {
		return config.DefaultOfficeProfile(), nil
	}
	return nil, fmt.Errorf("unknown office %q", code)
}
