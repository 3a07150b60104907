package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/payslip-forge/internal/assets"
	"github.com/jonathan/payslip-forge/internal/record"
	"github.com/jonathan/payslip-forge/internal/schema"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	dir := t.TempDir()
	bundle := &assets.Bundle{
		LogoPath:      writePNG(t, dir, "logo.png", 300, 120),
		SignaturePath: writePNG(t, dir, "sig.png", 200, 80),
	}
	r, err := New(Options{
		OutputDir:      filepath.Join(dir, "pdf"),
		CompanyLine1:   "Acme Holdings Ltd",
		CompanyLine2:   "Payroll Office",
		PeriodDisplay:  "January 2026",
		PeriodID:       "2026-01",
		CurrencySymbol: "NGN ",
		GrossLabel:     "GROSS INCOME",
		DeductionLabel: "TOTAL DEDUCTION",
		NetPayLabel:    "NET PAY",
		ApprovedByText: "Approved By:",
		ApprovedByName: "C. Okafor",
		GeneratedAt:    "2026-02-01 09:00:00",
		Assets:         bundle,
	})
	require.NoError(t, err)
	return r
}

func testRecord() (*record.Record, *schema.Resolution) {
	res := &schema.Resolution{
		Fields: []schema.FieldSpec{
			{Key: "Basic", Label: "Basic Salary", Category: schema.CategoryEarning, Required: true},
			{Key: "Bonus", Label: "Performance Bonus", Category: schema.CategoryEarning},
			{Key: "Tax", Label: "PAYE Tax", Category: schema.CategoryDeduction, Required: true},
		},
	}
	rec := &record.Record{
		Reference:   "EMP-001",
		Name:        "Ada Obi",
		Designation: "Engineer",
		Department:  "Platform",
		Email:       "ada@example.com",
		Amounts: map[string]decimal.Decimal{
			"Basic": decimal.RequireFromString("1000.00"),
			"Bonus": decimal.RequireFromString("50.50"),
			"Tax":   decimal.RequireFromString("100.25"),
		},
	}
	record.CalculateTotals(rec, res)
	return rec, res
}

func TestRender_WritesOnePDF(t *testing.T) {
	r := testRenderer(t)
	rec, res := testRecord()

	doc, err := r.Render(rec, res)
	require.NoError(t, err)

	assert.Equal(t, "EMP-001_Ada_Obi_2026-01.pdf", filepath.Base(doc.Path))
	assert.Equal(t, "EMP-001", doc.Reference)
	assert.Greater(t, doc.Bytes, int64(0))

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.True(t, len(data) > 4 && string(data[:4]) == "%PDF")
}

func TestRender_NameCollisionFailsSecondRecord(t *testing.T) {
	r := testRenderer(t)
	rec, res := testRecord()

	first, err := r.Render(rec, res)
	require.NoError(t, err)

	// Same reference and name resolves to the same file name.
	dup, _ := testRecord()
	_, err = r.Render(dup, res)
	require.Error(t, err)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Message, "collision")

	// First document is unaffected.
	info, err := os.Stat(first.Path)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes, info.Size())
}

func TestRender_TotalsMustBeAttached(t *testing.T) {
	r := testRenderer(t)
	rec, res := testRecord()
	rec.Totals = nil

	_, err := r.Render(rec, res)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Message, "totals")
}

func TestRender_NegativeNetStillRenders(t *testing.T) {
	r := testRenderer(t)
	rec, res := testRecord()
	rec.Amounts["Tax"] = decimal.RequireFromString("5000.00")
	record.CalculateTotals(rec, res)
	require.True(t, rec.Totals.Net.IsNegative())

	doc, err := r.Render(rec, res)
	require.NoError(t, err)
	assert.Greater(t, doc.Bytes, int64(0))
}

func TestRender_ManyFieldsOverflowToSecondPage(t *testing.T) {
	r := testRenderer(t)

	res := &schema.Resolution{}
	rec := &record.Record{
		Reference:   "EMP-042",
		Name:        "Ben Eze",
		Designation: "Analyst",
		Department:  "Finance",
		Email:       "ben@example.com",
		Amounts:     map[string]decimal.Decimal{},
	}
	// Enough rows to overflow one A4 page.
	for i := 0; i < 60; i++ {
		key := fmt.Sprintf("Allowance %02d", i)
		res.Fields = append(res.Fields, schema.FieldSpec{
			Key: key, Label: key, Category: schema.CategoryEarning, Required: true,
		})
		rec.Amounts[key] = decimal.RequireFromString("10.00")
	}
	record.CalculateTotals(rec, res)

	doc, err := r.Render(rec, res)
	require.NoError(t, err)

	// Content continues onto following pages instead of truncating.
	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.True(t, string(data[:4]) == "%PDF")
	assert.Regexp(t, `/Count [2-9]`, string(data))
}

func TestRender_MissingAssetsStillRenders(t *testing.T) {
	dir := t.TempDir()
	r, err := New(Options{
		OutputDir:      dir,
		CompanyLine1:   "Acme",
		PeriodDisplay:  "January 2026",
		PeriodID:       "2026-01",
		GrossLabel:     "GROSS INCOME",
		DeductionLabel: "TOTAL DEDUCTION",
		NetPayLabel:    "NET PAY",
		ApprovedByText: "Approved By:",
		GeneratedAt:    "2026-02-01 09:00:00",
	})
	require.NoError(t, err)

	rec, res := testRecord()
	doc, err := r.Render(rec, res)
	require.NoError(t, err)
	assert.Greater(t, doc.Bytes, int64(0))
}
