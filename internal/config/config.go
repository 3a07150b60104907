// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Field declares one payroll line item backed by a source column.
type Field struct {
	Key      string `yaml:"column" validate:"required"` // Source column name, also the lookup key
	Label    string `yaml:"label" validate:"required"`  // Display label on the payslip
	Required bool   `yaml:"required"`                   // Absence in the source fails the run
}

// Company holds the identity lines printed in the payslip header.
type Company struct {
	Line1          string `yaml:"line1" validate:"required"`
	Line2          string `yaml:"line2"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

// Data locates the payroll spreadsheet.
type Data struct {
	SourcePath string `yaml:"data_source_xlsx" validate:"required"`
	SheetName  string `yaml:"sheet_name"`
}

// Branding locates and constrains the logo and signature images.
type Branding struct {
	LogoPath            string   `yaml:"logo_path" validate:"required"`
	SignaturePath       string   `yaml:"signature_path" validate:"required"`
	AllowedExtensions   []string `yaml:"allowed_extensions"`
	EnforceResolution   bool     `yaml:"enforce_resolution"`
	LogoRequiredPx      []int    `yaml:"logo_required_px" validate:"omitempty,len=2"`
	SignatureRequiredPx []int    `yaml:"signature_required_px" validate:"omitempty,len=2"`
}

// Fields groups the configured earnings and deductions.
type Fields struct {
	Earnings   []Field `yaml:"earnings" validate:"min=1,dive"`
	Deductions []Field `yaml:"deductions" validate:"dive"`
}

// Run controls period resolution and failure behavior.
type Run struct {
	PeriodMode    string `yaml:"period_mode" validate:"omitempty,oneof=previous current manual"`
	ManualYear    int    `yaml:"manual_year" validate:"omitempty,min=2000,max=2200"`
	ManualMonth   int    `yaml:"manual_month" validate:"omitempty,min=1,max=12"`
	ReferenceDate string `yaml:"reference_date"` // YYYY-MM-DD, defaults to today
	FailFast      bool   `yaml:"fail_fast"`
}

// Output controls where generated artifacts land.
type Output struct {
	RootDir string `yaml:"root_dir"`
}

// Footer customizes the approval block at the bottom of each payslip.
type Footer struct {
	ApprovedByLabel string `yaml:"approved_by_label"`
	ApprovedByName  string `yaml:"approved_by_name"`
}

// TotalsLabels overrides the captions of the three computed totals lines.
type TotalsLabels struct {
	GrossIncome    string `yaml:"gross_income_label"`
	TotalDeduction string `yaml:"total_deduction_label"`
	NetPay         string `yaml:"net_pay_label"`
}

// Config is the full settings file. Non-developers edit the YAML, so loading is
// permissive and validation reports every problem with the offending key.
type Config struct {
	Company      Company      `yaml:"company"`
	Data         Data         `yaml:"data"`
	Branding     Branding     `yaml:"branding"`
	Fields       Fields       `yaml:"fields"`
	Run          Run          `yaml:"run"`
	Output       Output       `yaml:"output"`
	Footer       Footer       `yaml:"footer"`
	TotalsLabels TotalsLabels `yaml:"totals_labels"`
}

const (
	defaultSheetName  = "Data Source"
	defaultOutputRoot = "output"
	defaultPeriodMode = "previous"
)

// Load reads and parses the YAML settings file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Data.SheetName == "" {
		c.Data.SheetName = defaultSheetName
	}
	if c.Output.RootDir == "" {
		c.Output.RootDir = defaultOutputRoot
	}
	if c.Run.PeriodMode == "" {
		c.Run.PeriodMode = defaultPeriodMode
	}
	if len(c.Branding.AllowedExtensions) == 0 {
		c.Branding.AllowedExtensions = []string{".png", ".jpg", ".jpeg"}
	}
	if c.TotalsLabels.GrossIncome == "" {
		c.TotalsLabels.GrossIncome = "GROSS INCOME"
	}
	if c.TotalsLabels.TotalDeduction == "" {
		c.TotalsLabels.TotalDeduction = "TOTAL DEDUCTION"
	}
	if c.TotalsLabels.NetPay == "" {
		c.TotalsLabels.NetPay = "NET PAY"
	}
	if c.Footer.ApprovedByLabel == "" {
		c.Footer.ApprovedByLabel = "Approved By:"
	}
}

// Validate checks the configuration and reports every problem found, not just
// the first, so operators can fix the settings file in one pass.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	var problems []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config validation failed: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s: failed %q constraint", fe.Namespace(), fe.Tag()))
		}
	}

	if c.Run.PeriodMode == "manual" && (c.Run.ManualYear == 0 || c.Run.ManualMonth == 0) {
		problems = append(problems, "run.manual_year and run.manual_month are required when period_mode is manual")
	}

	// Duplicate field keys would make amounts ambiguous.
	seen := make(map[string]bool)
	for _, f := range c.AllFields() {
		if seen[f.Key] {
			problems = append(problems, fmt.Sprintf("fields: duplicate column %q", f.Key))
		}
		seen[f.Key] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("config error:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// AllFields returns earnings followed by deductions, preserving config order
// within each category.
func (c *Config) AllFields() []Field {
	all := make([]Field, 0, len(c.Fields.Earnings)+len(c.Fields.Deductions))
	all = append(all, c.Fields.Earnings...)
	all = append(all, c.Fields.Deductions...)
	return all
}
