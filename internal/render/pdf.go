// Package render lays out one payslip PDF per payroll record.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/jonathan/payslip-forge/internal/assets"
	"github.com/jonathan/payslip-forge/internal/record"
	"github.com/jonathan/payslip-forge/internal/schema"
)

// Error is a row-scoped rendering failure, including output name collisions.
type Error struct {
	Reference string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error for %s: %s: %v", e.Reference, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error for %s: %s", e.Reference, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Document is the durable output of rendering one record. The file on disk is
// the artifact; this handle exists for manifest bookkeeping.
type Document struct {
	Path      string
	Bytes     int64
	Reference string
}

// Options configures a Renderer for one run.
type Options struct {
	OutputDir      string // <output-root>/<period-id>/pdf
	CompanyLine1   string
	CompanyLine2   string
	PeriodDisplay  string // e.g. "January 2026"
	PeriodID       string // e.g. "2026-01"
	CurrencySymbol string
	GrossLabel     string
	DeductionLabel string
	NetPayLabel    string
	ApprovedByText string
	ApprovedByName string
	GeneratedAt    string // Printed in the page footer
	Assets         *assets.Bundle
}

// Renderer writes payslip PDFs for one run. It tracks every name it has
// written so a second record resolving to the same file fails instead of
// silently overwriting the first. Safe for concurrent use: names are reserved
// before rendering starts.
type Renderer struct {
	opts    Options
	mu      sync.Mutex
	written map[string]bool
}

// Page geometry in millimetres.
const (
	pageMargin   = 14.0
	lineHeight   = 7.0
	logoBoxW     = 60.0
	logoBoxH     = 32.0
	sigW         = 45.0
	sigH         = 18.0
	footerMargin = 20.0
	// headerHeight is the vertical space the repeated page header occupies.
	headerHeight = 40.0
)

// New creates a Renderer and ensures the output directory exists.
func New(opts Options) (*Renderer, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", opts.OutputDir, err)
	}
	return &Renderer{opts: opts, written: make(map[string]bool)}, nil
}

// Render produces exactly one paginated PDF for the record. Content that
// overflows a page continues on a following page with the header and footer
// repeated; truncating payroll rows is never acceptable.
func (r *Renderer) Render(rec *record.Record, res *schema.Resolution) (*Document, error) {
	if rec.Totals == nil {
		return nil, &Error{Reference: rec.Reference, Message: "totals not computed before rendering"}
	}

	filename := FileName(rec.Reference, rec.Name, r.opts.PeriodID)
	if err := r.reserve(filename); err != nil {
		return nil, &Error{Reference: rec.Reference, Message: err.Error()}
	}
	outPath := filepath.Join(r.opts.OutputDir, filename)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", rec.Reference, r.opts.PeriodID), false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, footerMargin)
	pdf.SetHeaderFunc(func() { r.drawHeader(pdf) })
	pdf.SetFooterFunc(func() { r.drawFooter(pdf) })
	pdf.AddPage()

	r.drawIdentityBlock(pdf, rec)

	r.drawSection(pdf, "EARNINGS:", res.Earnings(), rec)
	r.drawTotalLine(pdf, r.opts.GrossLabel, rec.Totals.Gross, false)
	r.separator(pdf)

	r.drawSection(pdf, "DEDUCTIONS:", res.Deductions(), rec)
	r.drawTotalLine(pdf, r.opts.DeductionLabel, rec.Totals.Deductions, false)
	r.separator(pdf)

	r.drawTotalLine(pdf, r.opts.NetPayLabel, rec.Totals.Net, true)
	r.separator(pdf)

	r.drawSignatureBlock(pdf)

	if pdf.Err() {
		r.release(filename)
		return nil, &Error{Reference: rec.Reference, Message: "pdf generation failed", Cause: pdf.Error()}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		r.release(filename)
		return nil, &Error{Reference: rec.Reference, Message: "failed to write pdf", Cause: err}
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, &Error{Reference: rec.Reference, Message: "written pdf is not readable", Cause: err}
	}
	return &Document{Path: outPath, Bytes: info.Size(), Reference: rec.Reference}, nil
}

// reserve claims an output name for the caller. A name already claimed this
// run is a collision.
func (r *Renderer) reserve(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.written[filename] {
		return fmt.Errorf("output name collision: %s already written this run", filename)
	}
	r.written[filename] = true
	return nil
}

// release frees a reserved name after a failed render so the reservation does
// not outlive the file it was meant to protect.
func (r *Renderer) release(filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.written, filename)
}

// drawHeader paints the fixed page header: company lines and period centred,
// logo in a fixed box at the top right. Repeated on every page.
func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf) {
	pageW, _ := pdf.GetPageSize()

	if r.opts.Assets != nil && r.opts.Assets.LogoPath != "" {
		pdf.ImageOptions(r.opts.Assets.LogoPath,
			pageW-pageMargin-logoBoxW, 2, logoBoxW, logoBoxH, false,
			gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pdf.SetY(pageMargin)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 6, r.opts.CompanyLine1, "", 1, "C", false, 0, "")
	if r.opts.CompanyLine2 != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 6, r.opts.CompanyLine2, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, r.opts.PeriodDisplay, "", 1, "C", false, 0, "")

	pdf.SetLineWidth(1.0)
	pdf.Line(pageMargin, headerHeight-4, pageW-pageMargin, headerHeight-4)
	pdf.SetY(headerHeight)
}

// drawFooter paints the generation timestamp bottom-right on every page.
func (r *Renderer) drawFooter(pdf *gofpdf.Fpdf) {
	pdf.SetY(-12)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", r.opts.GeneratedAt), "", 0, "R", false, 0, "")
}

// drawIdentityBlock paints the employee identity rows: labels left, values in
// a second column.
func (r *Renderer) drawIdentityBlock(pdf *gofpdf.Fpdf, rec *record.Record) {
	rows := []struct{ label, value string }{
		{"EMPLOYEE REFERENCE NO", rec.Reference},
		{"NAME", rec.Name},
		{"DESIGNATION", rec.Designation},
		{"DEPARTMENT", rec.Department},
		{"EMAIL", rec.Email},
		{"MONTH", r.opts.PeriodDisplay},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(70, lineHeight, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, lineHeight, row.value, "", 1, "L", false, 0, "")
	}
	r.separator(pdf)
}

// drawSection paints one earnings/deductions table in schema order. Zero
// amounts are shown only for required fields; optional fields that happen to
// be zero would just be noise on the slip.
func (r *Renderer) drawSection(pdf *gofpdf.Fpdf, title string, fields []schema.FieldSpec, rec *record.Record) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, lineHeight, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, f := range fields {
		amount := rec.Amounts[f.Key]
		if amount.IsZero() && !f.Required {
			continue
		}
		pdf.CellFormat(110, lineHeight, f.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, lineHeight, r.money(amount), "", 1, "R", false, 0, "")
	}
}

// drawTotalLine paints one computed total. The net pay line is highlighted
// and always present, even at zero or negative.
func (r *Renderer) drawTotalLine(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal, highlight bool) {
	if highlight {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetFillColor(255, 244, 199)
		pdf.CellFormat(110, lineHeight+2, label, "", 0, "L", true, 0, "")
		pdf.CellFormat(0, lineHeight+2, r.money(amount), "", 1, "R", true, 0, "")
		return
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(110, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, r.money(amount), "", 1, "R", false, 0, "")
}

// drawSignatureBlock paints the approval footer: label, signature image, and
// printed approver name, anchored bottom-left. If the current page cannot fit
// it above the footer margin the block moves to a fresh page rather than
// colliding with the page footer.
func (r *Renderer) drawSignatureBlock(pdf *gofpdf.Fpdf) {
	_, pageH := pdf.GetPageSize()
	blockH := lineHeight + sigH + lineHeight
	if pdf.GetY() > pageH-footerMargin-blockH {
		pdf.AddPage()
	}

	pdf.SetY(pageH - footerMargin - blockH)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, r.opts.ApprovedByText, "", 1, "L", false, 0, "")

	if r.opts.Assets != nil && r.opts.Assets.SignaturePath != "" {
		pdf.ImageOptions(r.opts.Assets.SignaturePath,
			pageMargin, pdf.GetY(), sigW, sigH, false,
			gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	pdf.SetY(pdf.GetY() + sigH)

	if r.opts.ApprovedByName != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, lineHeight, r.opts.ApprovedByName, "", 1, "L", false, 0, "")
	}
}

func (r *Renderer) separator(pdf *gofpdf.Fpdf) {
	pageW, _ := pdf.GetPageSize()
	y := pdf.GetY() + 2
	pdf.SetLineWidth(0.8)
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	pdf.SetY(y + 4)
}

// money formats an amount with the run's currency symbol and thousands
// separators, e.g. "NGN 450,468.97".
func (r *Renderer) money(d decimal.Decimal) string {
	return r.opts.CurrencySymbol + groupThousands(d.StringFixed(2))
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}

	out := b.String()
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
