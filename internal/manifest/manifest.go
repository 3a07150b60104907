// Package manifest accumulates the run's audit table: one row per attempted
// record, serialized once at run end.
package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// Status of one attempted record.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Row is the audit entry for one attempted record.
type Row struct {
	Reference  string
	Name       string
	Status     Status
	Error      string // Failure detail, empty on success
	Gross      decimal.Decimal
	Deductions decimal.Decimal
	Net        decimal.Decimal
	OutputPath string // Empty on failure
}

// Builder collects rows in the order records were read. Append-only during a
// run; the manifest is the single source of truth for what happened.
type Builder struct {
	rows []Row
}

// NewBuilder returns an empty manifest builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Append records the outcome of one attempted record. Exactly one call per
// record read from the source, in source order.
func (b *Builder) Append(row Row) {
	b.rows = append(b.rows, row)
}

// Rows returns the accumulated rows in append order.
func (b *Builder) Rows() []Row {
	return b.rows
}

// Len reports how many records have been recorded.
func (b *Builder) Len() int {
	return len(b.rows)
}

// header is the stable manifest column order.
var header = []string{"reference", "name", "status", "error", "gross", "deductions", "net", "output_path"}

// WriteCSV serializes the full ordered manifest to path, creating parent
// directories as needed. The file is written even when every record failed,
// or none were attempted, so operators always have one artifact to consult.
func (b *Builder) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	for _, row := range b.rows {
		var gross, deductions, net string
		if row.Status == StatusSuccess {
			gross = row.Gross.StringFixed(2)
			deductions = row.Deductions.StringFixed(2)
			net = row.Net.StringFixed(2)
		}
		rec := []string{
			row.Reference, row.Name, string(row.Status), row.Error,
			gross, deductions, net, row.OutputPath,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write manifest row for %s: %w", row.Reference, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	return nil
}
