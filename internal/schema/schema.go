// Package schema resolves the configured payroll field list against the
// columns actually present in a data source.
package schema

import (
	"fmt"
	"strings"

	"github.com/jonathan/payslip-forge/internal/config"
)

// Category tells the totals calculator which side of the ledger a field is on.
type Category string

const (
	CategoryEarning   Category = "earning"
	CategoryDeduction Category = "deduction"
)

// FieldSpec is one accepted payroll line item for a run. Immutable once the
// resolution is built.
type FieldSpec struct {
	Key      string   // Source column name, unique within a run
	Label    string   // Display label on the payslip
	Category Category // earning or deduction
	Required bool
}

// Resolution is the accepted, ordered field set for a run plus any warnings
// raised during resolution. It is built once per run and shared read-only by
// every per-record stage.
type Resolution struct {
	Fields   []FieldSpec // Configuration order, earnings then deductions
	Warnings []string    // Unrecognized source columns, for operator review
}

// Earnings returns the accepted earning fields in display order.
func (r *Resolution) Earnings() []FieldSpec {
	return r.byCategory(CategoryEarning)
}

// Deductions returns the accepted deduction fields in display order.
func (r *Resolution) Deductions() []FieldSpec {
	return r.byCategory(CategoryDeduction)
}

func (r *Resolution) byCategory(cat Category) []FieldSpec {
	var out []FieldSpec
	for _, f := range r.Fields {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

// Error is the run-fatal schema resolution failure. It carries every missing
// required field so operators see all problems in one pass.
type Error struct {
	MissingFields []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema error: required field(s) missing from data source: %s",
		strings.Join(e.MissingFields, ", "))
}

// Identity column names checked case-sensitively against the source header.
const (
	ColumnReference   = "Reference Number"
	ColumnName        = "Employee Name"
	ColumnDesignation = "Designation"
	ColumnDepartment  = "Department"
	ColumnEmail       = "Email"
)

// IdentityColumns lists the identity columns every source must provide.
func IdentityColumns() []string {
	return []string{ColumnReference, ColumnName, ColumnDesignation, ColumnDepartment, ColumnEmail}
}

// Resolve merges the configured field list with the columns observed in the
// data source. Configured fields present in the source are accepted in
// configuration order. Required fields absent from the source are collected
// into a single *Error. Non-required absent fields are skipped. Source columns
// matching no configuration entry (and no identity column) become warnings.
func Resolve(fields config.Fields, columns []string) (*Resolution, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var missing []string
	for _, c := range IdentityColumns() {
		if !present[c] {
			missing = append(missing, c)
		}
	}

	res := &Resolution{}
	claimed := make(map[string]bool)

	accept := func(f config.Field, cat Category) {
		claimed[f.Key] = true
		if !present[f.Key] {
			if f.Required {
				missing = append(missing, f.Key)
			}
			return
		}
		res.Fields = append(res.Fields, FieldSpec{
			Key:      f.Key,
			Label:    f.Label,
			Category: cat,
			Required: f.Required,
		})
	}

	for _, f := range fields.Earnings {
		accept(f, CategoryEarning)
	}
	for _, f := range fields.Deductions {
		accept(f, CategoryDeduction)
	}

	if len(missing) > 0 {
		return nil, &Error{MissingFields: missing}
	}

	identity := make(map[string]bool)
	for _, c := range IdentityColumns() {
		identity[c] = true
	}
	for _, c := range columns {
		if !claimed[c] && !identity[c] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("source column %q matches no configured field", c))
		}
	}

	return res, nil
}
