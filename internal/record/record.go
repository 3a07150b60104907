// Package record turns raw source rows into typed payroll records and computes
// their totals in fixed-precision decimal arithmetic.
package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonathan/payslip-forge/internal/schema"
	"github.com/jonathan/payslip-forge/internal/source"
)

// Record is one employee's normalized payroll data for the run. Amounts is
// keyed by accepted FieldSpec key and always holds an entry for every accepted
// field (zero when the source cell was blank). Not mutated after totals are
// attached.
type Record struct {
	Reference   string
	Name        string
	Designation string
	Department  string
	Email       string

	Amounts map[string]decimal.Decimal

	Totals *Totals // Attached once by CalculateTotals
}

// Totals holds the three computed sums for a record. Net may be negative;
// that is a presentation concern, not an error.
type Totals struct {
	Gross      decimal.Decimal
	Deductions decimal.Decimal
	Net        decimal.Decimal
}

// InvalidRecordError is the row-scoped normalization failure. It names the
// offending field and, for coercion failures, the raw value.
type InvalidRecordError struct {
	Field    string
	RawValue string
	Reason   string
}

func (e *InvalidRecordError) Error() string {
	if e.RawValue != "" {
		return fmt.Sprintf("invalid record: field %q %s (raw value %q)", e.Field, e.Reason, e.RawValue)
	}
	return fmt.Sprintf("invalid record: field %q %s", e.Field, e.Reason)
}

// Normalize converts one raw row into a Record. Identity fields are trimmed
// and must be non-blank. Numeric fields follow the missing-value policy:
// blank or absent cells become 0.00, non-numeric text fails the row, numeric
// text is normalized to two decimal places with round-half-up.
func Normalize(row source.Row, res *schema.Resolution) (*Record, error) {
	rec := &Record{
		Amounts: make(map[string]decimal.Decimal, len(res.Fields)),
	}

	identity := []struct {
		column string
		dest   *string
	}{
		{schema.ColumnReference, &rec.Reference},
		{schema.ColumnName, &rec.Name},
		{schema.ColumnDesignation, &rec.Designation},
		{schema.ColumnDepartment, &rec.Department},
		{schema.ColumnEmail, &rec.Email},
	}
	for _, id := range identity {
		v := strings.TrimSpace(row[id.column])
		if v == "" {
			return nil, &InvalidRecordError{Field: id.column, Reason: "is missing or blank"}
		}
		*id.dest = v
	}

	for _, f := range res.Fields {
		raw := strings.TrimSpace(row[f.Key])
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, &InvalidRecordError{Field: f.Key, RawValue: raw, Reason: "is not numeric"}
		}
		rec.Amounts[f.Key] = amount
	}

	return rec, nil
}

// parseAmount applies the numeric coercion policy to one cell. Thousands
// separators are tolerated since spreadsheet exports often format amounts.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Decimal{}, err
	}
	// Round half up to two fractional digits.
	return d.Round(2), nil
}

// CalculateTotals sums earnings and deductions and attaches the result to the
// record. Pure: identical inputs always yield identical totals.
func CalculateTotals(rec *Record, res *schema.Resolution) Totals {
	gross := decimal.Zero
	for _, f := range res.Earnings() {
		gross = gross.Add(rec.Amounts[f.Key])
	}

	deductions := decimal.Zero
	for _, f := range res.Deductions() {
		deductions = deductions.Add(rec.Amounts[f.Key])
	}

	totals := Totals{
		Gross:      gross,
		Deductions: deductions,
		Net:        gross.Sub(deductions),
	}
	rec.Totals = &totals
	return totals
}
