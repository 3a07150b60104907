package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/payslip-forge/internal/assets"
	"github.com/jonathan/payslip-forge/internal/config"
	"github.com/jonathan/payslip-forge/internal/period"
	"github.com/jonathan/payslip-forge/internal/schema"
	"github.com/jonathan/payslip-forge/internal/source"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration, branding assets, and the data source schema",
	Long: `Performs every run-fatal check without generating any output: loads and
validates the settings file, resolves the payroll period, validates the
branding assets, opens the spreadsheet, and resolves the configured field
schema against its columns. Exits non-zero if the generate command would
refuse to run.`,
	RunE: runValidate,
}

var validateConfigPath string

func init() {
	validateCommand.Flags().StringVarP(&validateConfigPath, "config", "c", "config/settings.yml", "Path to the YAML settings file")
	rootCmd.AddCommand(validateCommand)
}

func runValidate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(validateConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Println("✓ settings file valid")

	p, err := period.Resolve(period.Options{
		Mode:          period.Mode(cfg.Run.PeriodMode),
		ManualYear:    cfg.Run.ManualYear,
		ManualMonth:   cfg.Run.ManualMonth,
		ReferenceDate: cfg.Run.ReferenceDate,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ period resolved: %s (%s)\n", p.Display(), p.ID())

	logoPx := cfg.Branding.LogoRequiredPx
	sigPx := cfg.Branding.SignatureRequiredPx
	if !cfg.Branding.EnforceResolution {
		logoPx, sigPx = nil, nil
	}
	if _, err := assets.ValidateBundle(
		assets.Spec{Label: "logo", Path: cfg.Branding.LogoPath, AllowedExtensions: cfg.Branding.AllowedExtensions, RequiredPx: logoPx},
		assets.Spec{Label: "signature", Path: cfg.Branding.SignaturePath, AllowedExtensions: cfg.Branding.AllowedExtensions, RequiredPx: sigPx},
	); err != nil {
		return err
	}
	fmt.Println("✓ branding assets valid")

	sheet, err := source.Load(cfg.Data.SourcePath, cfg.Data.SheetName)
	if err != nil {
		return err
	}
	fmt.Printf("✓ data source readable: %d row(s)\n", len(sheet.Rows))

	res, err := schema.Resolve(cfg.Fields, sheet.Columns)
	if err != nil {
		return err
	}
	fmt.Printf("✓ schema resolved: %d field(s) accepted\n", len(res.Fields))
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	return nil
}
