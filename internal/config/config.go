// =============================================================================
// Bill Generator - Configuration Module
// =============================================================================
//
// Two kinds of configuration drive a run:
//
//   1. Main configuration (config.yaml): directories, logging, output naming
//      and batch behaviour.
//   2. Office profiles (configs/*.yaml): one file per issuing office, holding
//      the workbook layout, the default tender premium and the wording of the
//      note sheet.
//
// A workbook is matched to an office profile by its file name.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION
// =============================================================================

// MainConfig holds the global settings of the bill generator.
type MainConfig struct {
	// InputDir is scanned for workbooks (.xlsx, .xls) and CSV bundles.
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated bill documents.
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir and OutputArchiveDir receive copies of processed
	// inputs and outputs after a successful run.
	InputArchiveDir  string `yaml:"input_archive_dir"`
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ConfigsDir holds the office profiles.
	ConfigsDir string `yaml:"configs_dir"`

	// LogFile receives the error and summary logs of batch runs.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// UUIDFormat names the output files. Placeholders: {uuid} (the run ID),
	// {timestamp}, {date}, {office}, {name} and {ext} (the input's extension,
	// empty for a CSV bundle). The extension is added per output format.
	UUIDFormat string `yaml:"uuid_format"`

	// Outputs lists the formats to write: json, xml, xlsx.
	Outputs []string `yaml:"outputs"`

	// InputPatterns are glob patterns matched against file names in InputDir.
	InputPatterns []string `yaml:"input_patterns"`

	// MaxConcurrency bounds the number of workbooks computed at once.
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps a batch going after a workbook fails.
	ContinueOnError bool `yaml:"continue_on_error"`

	// ArchiveInputs moves processed workbooks into InputArchiveDir.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// ArchiveDateSubdirs files archived inputs and outputs under YYYY/MM/DD.
	ArchiveDateSubdirs bool `yaml:"archive_date_subdirs"`

	// WatchSchedule is the cron expression used by the watch command.
	WatchSchedule string `yaml:"watch_schedule"`

	// WatchTimezone is the IANA zone the schedule is evaluated in.
	WatchTimezone string `yaml:"watch_timezone"`
}

// Supported output formats.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
)

// =============================================================================
// OFFICE PROFILES
// =============================================================================

// OfficeProfile holds the settings of one issuing office.
type OfficeProfile struct {
	OfficeName string `yaml:"office_name"`
	OfficeCode string `yaml:"office_code"`

	// FileMatchingPatterns are glob patterns; a workbook whose base name
	// matches any of them is billed under this office.
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	Premium     PremiumSettings `yaml:"premium"`
	Layout      LayoutSettings  `yaml:"layout"`
	CSVSettings CSVSettings     `yaml:"csv_settings"`
	Notes       NoteSettings    `yaml:"notes"`
}

// PremiumSettings is the default tender premium of an office. Command-line
// flags override it.
type PremiumSettings struct {
	Percent float64 `yaml:"percent"`
	Type    string  `yaml:"type"`
}

// LayoutSettings describes where things are in the input workbook. Rows
// are zero-based.
type LayoutSettings struct {
	WorkOrderSheet    string `yaml:"work_order_sheet"`
	BillQuantitySheet string `yaml:"bill_quantity_sheet"`
	ExtraItemsSheet   string `yaml:"extra_items_sheet"`

	HeaderRows         int `yaml:"header_rows"`
	HeaderCols         int `yaml:"header_cols"`
	WorkOrderStartRow  int `yaml:"work_order_start_row"`
	ExtraItemsStartRow int `yaml:"extra_items_start_row"`
}

// CSVSettings configures reading a bill from three CSV files.
type CSVSettings struct {
	Delimiter string `yaml:"delimiter"`

	WorkOrderFile    string `yaml:"work_order_file"`
	BillQuantityFile string `yaml:"bill_quantity_file"`
	ExtraItemsFile   string `yaml:"extra_items_file"`
}

// NoteSettings holds the office-specific wording of the note sheet.
type NoteSettings struct {
	ApprovingAuthority   string   `yaml:"approving_authority"`
	SignatoryName        string   `yaml:"signatory_name"`
	SignatoryDesignation string   `yaml:"signatory_designation"`
	DateLayouts          []string `yaml:"date_layouts"`
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig reads and parses the main configuration file.
//
// PARAMETERS:
//   - configPath: The path to the config.yaml file.
//
// RETURNS:
//   - The parsed configuration with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseMainConfig(data)
	if err != nil {
		return nil, err
	}

	if err := EnsureDirs(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ParseMainConfig parses main configuration YAML and applies defaults
// without touching the filesystem.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&cfg)

	if err := validateMainConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultMainConfig returns the configuration used when no config file
// exists.
func DefaultMainConfig() *MainConfig {
	var cfg MainConfig
	applyMainConfigDefaults(&cfg)
	return &cfg
}

func applyMainConfigDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.OutputArchiveDir == "" {
		cfg.OutputArchiveDir = "./output_archive"
	}
	if cfg.ConfigsDir == "" {
		cfg.ConfigsDir = "./configs"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "./logs/billgen.log"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.UUIDFormat == "" {
		cfg.UUIDFormat = "{name}_{timestamp}_{uuid}"
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = []string{FormatJSON, FormatXML, FormatXLSX}
	}
	if len(cfg.InputPatterns) == 0 {
		cfg.InputPatterns = []string{"*.xlsx", "*.xls"}
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.WatchSchedule == "" {
		cfg.WatchSchedule = "*/5 * * * *"
	}
	if cfg.WatchTimezone == "" {
		cfg.WatchTimezone = "Asia/Kolkata"
	}
}

func validateMainConfig(cfg *MainConfig) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}

	for _, format := range cfg.Outputs {
		switch strings.ToLower(format) {
		case FormatJSON, FormatXML, FormatXLSX:
		default:
			return fmt.Errorf("unknown output format %q", format)
		}
	}

	if cfg.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", cfg.MaxConcurrency)
	}

	for _, pattern := range cfg.InputPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad input pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// EnsureDirs creates the working directories if they are missing.
func EnsureDirs(cfg *MainConfig) error {
	dirs := []string{
		cfg.InputDir,
		cfg.OutputDir,
		cfg.InputArchiveDir,
		cfg.OutputArchiveDir,
		cfg.ConfigsDir,
		filepath.Dir(cfg.LogFile),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LoadOfficeProfiles loads every *.yaml and *.yml file in configsDir.
//
// RETURNS:
//   - Profiles keyed by office code (or file name when the code is empty).
//   - An error if any profile cannot be read or parsed.
func LoadOfficeProfiles(configsDir string) (map[string]*OfficeProfile, error) {
	profiles := make(map[string]*OfficeProfile)

	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := loadOfficeProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := profile.OfficeCode
		if key == "" {
			key = filepath.Base(file)
		}
		profiles[key] = profile
	}

	return profiles, nil
}

func loadOfficeProfile(filePath string) (*OfficeProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseOfficeProfile(data)
}

// ParseOfficeProfile parses one office profile and applies defaults.
func ParseOfficeProfile(data []byte) (*OfficeProfile, error) {
	var profile OfficeProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	ApplyOfficeDefaults(&profile)
	return &profile, nil
}

// DefaultOfficeProfile returns the profile used when no office matches.
func DefaultOfficeProfile() *OfficeProfile {
	profile := &OfficeProfile{OfficeName: "Default", OfficeCode: "default"}
	ApplyOfficeDefaults(profile)
	return profile
}

// ApplyOfficeDefaults fills every unset field with the conventional
// statutory bill layout.
func ApplyOfficeDefaults(p *OfficeProfile) {
	if p.Premium.Type == "" {
		p.Premium.Type = "above"
	}

	l := &p.Layout
	if l.WorkOrderSheet == "" {
		l.WorkOrderSheet = "Work Order"
	}
	if l.BillQuantitySheet == "" {
		l.BillQuantitySheet = "Bill Quantity"
	}
	if l.ExtraItemsSheet == "" {
		l.ExtraItemsSheet = "Extra Items"
	}
	if l.HeaderRows == 0 {
		l.HeaderRows = 19
	}
	if l.HeaderCols == 0 {
		l.HeaderCols = 7
	}
	if l.WorkOrderStartRow == 0 {
		l.WorkOrderStartRow = 21
	}
	if l.ExtraItemsStartRow == 0 {
		l.ExtraItemsStartRow = 6
	}

	c := &p.CSVSettings
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if c.WorkOrderFile == "" {
		c.WorkOrderFile = "work_order.csv"
	}
	if c.BillQuantityFile == "" {
		c.BillQuantityFile = "bill_quantity.csv"
	}
	if c.ExtraItemsFile == "" {
		c.ExtraItemsFile = "extra_items.csv"
	}

	n := &p.Notes
	if n.ApprovingAuthority == "" {
		n.ApprovingAuthority = "Superintending Engineer, PWD Electrical Circle, Udaipur"
	}
	if n.SignatoryName == "" {
		n.SignatoryName = "Premlata Jain"
	}
	if n.SignatoryDesignation == "" {
		n.SignatoryDesignation = "AAO- As Auditor"
	}
}

// =============================================================================
// PROFILE MATCHING
// =============================================================================

// MatchProfile returns the profile whose file_matching_patterns match the
// base name of path. Profiles are tried in office-code order so the result
// is stable. It returns nil when nothing matches.
func MatchProfile(profiles map[string]*OfficeProfile, path string) *OfficeProfile {
	name := strings.ToLower(filepath.Base(path))
	for _, key := range sortedKeys(profiles) {
		profile := profiles[key]
		for _, pattern := range profile.FileMatchingPatterns {
			if ok, _ := filepath.Match(strings.ToLower(pattern), name); ok {
				return profile
			}
		}
	}
	return nil
}

func sortedKeys(profiles map[string]*OfficeProfile) []string {
	keys := make([]string, 0, len(profiles))
	for k := range profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
