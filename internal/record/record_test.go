package record

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/payslip-forge/internal/schema"
	"github.com/jonathan/payslip-forge/internal/source"
)

func testResolution() *schema.Resolution {
	return &schema.Resolution{
		Fields: []schema.FieldSpec{
			{Key: "Basic", Label: "Basic Salary", Category: schema.CategoryEarning, Required: true},
			{Key: "Bonus", Label: "Performance Bonus", Category: schema.CategoryEarning},
			{Key: "Tax", Label: "PAYE Tax", Category: schema.CategoryDeduction, Required: true},
		},
	}
}

func testRow() source.Row {
	return source.Row{
		schema.ColumnReference:   "EMP-001",
		schema.ColumnName:        "Ada Obi",
		schema.ColumnDesignation: "Engineer",
		schema.ColumnDepartment:  "Platform",
		schema.ColumnEmail:       "ada@example.com",
		"Basic":                  "1000.00",
		"Bonus":                  "50.50",
		"Tax":                    "100.25",
	}
}

func TestNormalize_ValidRow(t *testing.T) {
	rec, err := Normalize(testRow(), testResolution())
	require.NoError(t, err)

	assert.Equal(t, "EMP-001", rec.Reference)
	assert.Equal(t, "Ada Obi", rec.Name)
	assert.Equal(t, "Engineer", rec.Designation)
	assert.Equal(t, "Platform", rec.Department)
	assert.Equal(t, "ada@example.com", rec.Email)
	assert.True(t, rec.Amounts["Basic"].Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, rec.Amounts["Bonus"].Equal(decimal.RequireFromString("50.50")))
}

func TestNormalize_TrimsIdentityFields(t *testing.T) {
	row := testRow()
	row[schema.ColumnName] = "  Ada Obi  "

	rec, err := Normalize(row, testResolution())
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", rec.Name)
}

func TestNormalize_BlankIdentityFieldFailsRow(t *testing.T) {
	row := testRow()
	row[schema.ColumnReference] = "   "

	_, err := Normalize(row, testResolution())
	require.Error(t, err)

	var ierr *InvalidRecordError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ColumnReference, ierr.Field)
}

func TestNormalize_AbsentIdentityFieldFailsRow(t *testing.T) {
	row := testRow()
	delete(row, schema.ColumnEmail)

	_, err := Normalize(row, testResolution())
	var ierr *InvalidRecordError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ColumnEmail, ierr.Field)
}

func TestNormalize_BlankNumericCellBecomesZero(t *testing.T) {
	row := testRow()
	row["Bonus"] = ""

	rec, err := Normalize(row, testResolution())
	require.NoError(t, err)
	assert.True(t, rec.Amounts["Bonus"].IsZero())
}

func TestNormalize_AbsentNumericCellBecomesZero(t *testing.T) {
	row := testRow()
	delete(row, "Bonus")

	rec, err := Normalize(row, testResolution())
	require.NoError(t, err)
	assert.True(t, rec.Amounts["Bonus"].IsZero())
}

func TestNormalize_NonNumericCellFailsRowNamingFieldAndValue(t *testing.T) {
	row := testRow()
	row["Tax"] = "N/A"

	_, err := Normalize(row, testResolution())
	require.Error(t, err)

	var ierr *InvalidRecordError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, "Tax", ierr.Field)
	assert.Equal(t, "N/A", ierr.RawValue)
	assert.Contains(t, err.Error(), `"N/A"`)
}

func TestNormalize_RoundsHalfUpToTwoPlaces(t *testing.T) {
	row := testRow()
	row["Basic"] = "10.005"
	row["Bonus"] = "10.004"

	rec, err := Normalize(row, testResolution())
	require.NoError(t, err)
	assert.Equal(t, "10.01", rec.Amounts["Basic"].StringFixed(2))
	assert.Equal(t, "10.00", rec.Amounts["Bonus"].StringFixed(2))
}

func TestNormalize_ToleratesThousandsSeparators(t *testing.T) {
	row := testRow()
	row["Basic"] = "450,468.97"

	rec, err := Normalize(row, testResolution())
	require.NoError(t, err)
	assert.Equal(t, "450468.97", rec.Amounts["Basic"].StringFixed(2))
}

func TestCalculateTotals_ScenarioSums(t *testing.T) {
	// Earnings {Basic: 1000.00, Bonus: 50.50}, deductions {Tax: 100.25}.
	rec, err := Normalize(testRow(), testResolution())
	require.NoError(t, err)

	totals := CalculateTotals(rec, testResolution())
	assert.Equal(t, "1050.50", totals.Gross.StringFixed(2))
	assert.Equal(t, "100.25", totals.Deductions.StringFixed(2))
	assert.Equal(t, "950.25", totals.Net.StringFixed(2))
	require.NotNil(t, rec.Totals)
	assert.Equal(t, "950.25", rec.Totals.Net.StringFixed(2))
}

func TestCalculateTotals_NetEqualsGrossMinusDeductions(t *testing.T) {
	rec, err := Normalize(testRow(), testResolution())
	require.NoError(t, err)

	totals := CalculateTotals(rec, testResolution())
	assert.True(t, totals.Net.Equal(totals.Gross.Sub(totals.Deductions)))
}

func TestCalculateTotals_NegativeNetIsNotAnError(t *testing.T) {
	row := testRow()
	row["Basic"] = "50.00"
	row["Bonus"] = "0"
	row["Tax"] = "100.25"

	rec, err := Normalize(row, testResolution())
	require.NoError(t, err)

	totals := CalculateTotals(rec, testResolution())
	assert.Equal(t, "-50.25", totals.Net.StringFixed(2))
}

func TestCalculateTotals_NoPennyDriftAcrossManyAdditions(t *testing.T) {
	// 1000 additions of 0.01 must be exactly 10.00, which float64
	// accumulation does not guarantee.
	res := &schema.Resolution{}
	row := source.Row{
		schema.ColumnReference:   "EMP-001",
		schema.ColumnName:        "Ada Obi",
		schema.ColumnDesignation: "Engineer",
		schema.ColumnDepartment:  "Platform",
		schema.ColumnEmail:       "ada@example.com",
	}
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("Allowance %d", i)
		res.Fields = append(res.Fields, schema.FieldSpec{
			Key: key, Label: key, Category: schema.CategoryEarning,
		})
		row[key] = "0.01"
	}

	rec, err := Normalize(row, res)
	require.NoError(t, err)

	totals := CalculateTotals(rec, res)
	assert.Equal(t, "10.00", totals.Gross.StringFixed(2))
	assert.Equal(t, "10.00", totals.Net.StringFixed(2))
}

func TestCalculateTotals_Deterministic(t *testing.T) {
	res := testResolution()
	a, err := Normalize(testRow(), res)
	require.NoError(t, err)
	b, err := Normalize(testRow(), res)
	require.NoError(t, err)

	ta := CalculateTotals(a, res)
	tb := CalculateTotals(b, res)
	assert.True(t, ta.Gross.Equal(tb.Gross))
	assert.True(t, ta.Deductions.Equal(tb.Deductions))
	assert.True(t, ta.Net.Equal(tb.Net))
}
