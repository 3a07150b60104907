// Package main provides the payslipgen CLI: configuration-driven payslip PDF
// generation from an XLSX payroll sheet, with an auditable run manifest.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "payslipgen",
	Short: "Generate payslip PDFs from a payroll spreadsheet",
	Long: `payslipgen converts tabular payroll records into one formatted payslip PDF
per employee, driven by a declarative earnings/deductions configuration, and
writes a run manifest auditing every attempted record.`,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
