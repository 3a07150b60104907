// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/payslip-forge/internal/pipeline"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer handles formatted run output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs a human-readable summary of a completed run.
func (p *Printer) PrintRunSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Period:     %s\n", result.Period.Display()))
	sb.WriteString(fmt.Sprintf("Run ID:     %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Rows read:  %d\n", result.RowsRead))
	sb.WriteString(fmt.Sprintf("Succeeded:  %d\n", result.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:     %d\n", result.Failed))
	if result.ManifestPath != "" {
		sb.WriteString(fmt.Sprintf("Manifest:   %s", result.ManifestPath))
	}

	p.printBox("Payslip Run Summary", sb.String())

	if len(result.Warnings) > 0 {
		p.printBox("Schema Warnings", strings.Join(result.Warnings, "\n"))
	}
}
