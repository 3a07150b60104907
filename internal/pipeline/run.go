// Package pipeline orchestrates a payslip generation run: schema resolution,
// per-record normalization, totals, rendering, and the run manifest.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/payslip-forge/internal/assets"
	"github.com/jonathan/payslip-forge/internal/config"
	"github.com/jonathan/payslip-forge/internal/manifest"
	"github.com/jonathan/payslip-forge/internal/period"
	"github.com/jonathan/payslip-forge/internal/record"
	"github.com/jonathan/payslip-forge/internal/render"
	"github.com/jonathan/payslip-forge/internal/schema"
	"github.com/jonathan/payslip-forge/internal/source"
)

// Options configures one run.
type Options struct {
	Config  *config.Config
	Period  period.Period
	Now     time.Time // Run timestamp; drives manifest naming and footers
	Workers int       // <=1 processes records sequentially
	DryRun  bool      // Resolve and normalize but write no documents or manifest
	Logger  *slog.Logger
}

// Output is one successful document plus the identity fields the downstream
// email/approval stage needs. Exposed directly so consumers never re-parse
// the manifest.
type Output struct {
	Reference string
	Name      string
	Email     string
	Path      string
}

// Result is the public outcome of a run.
type Result struct {
	RunID        string
	Period       period.Period
	ManifestPath string
	Warnings     []string // Schema warnings, for operator review
	RowsRead     int
	Succeeded    int
	Failed       int
	Outputs      []Output // Successful documents only, in source order
}

// DuplicateReferenceError is run-fatal: two source rows claiming the same
// reference number would silently produce two payslips for one employee.
type DuplicateReferenceError struct {
	References []string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("schema error: duplicate reference number(s) in data source: %s",
		strings.Join(e.References, ", "))
}

// rowOutcome is the per-record result collected before manifest assembly.
type rowOutcome struct {
	row manifest.Row
	out *Output
}

// Run executes the pipeline. Run-fatal failures (assets, unreadable source,
// schema resolution, duplicate references) return an error before any output
// is written. Row-scoped failures never abort the run; they become failed
// manifest rows. The manifest is written even when every record failed.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID, "period", opts.Period.ID())

	// Branding assets must be valid before any record is read.
	bundle, err := assets.ValidateBundle(
		assets.Spec{
			Label: "logo", Path: cfg.Branding.LogoPath,
			AllowedExtensions: cfg.Branding.AllowedExtensions,
			RequiredPx:        requiredPx(cfg.Branding.EnforceResolution, cfg.Branding.LogoRequiredPx),
		},
		assets.Spec{
			Label: "signature", Path: cfg.Branding.SignaturePath,
			AllowedExtensions: cfg.Branding.AllowedExtensions,
			RequiredPx:        requiredPx(cfg.Branding.EnforceResolution, cfg.Branding.SignatureRequiredPx),
		},
	)
	if err != nil {
		return nil, err
	}

	sheet, err := source.Load(cfg.Data.SourcePath, cfg.Data.SheetName)
	if err != nil {
		return nil, err
	}
	log.Info("data source loaded", "rows", len(sheet.Rows), "columns", len(sheet.Columns))

	res, err := schema.Resolve(cfg.Fields, sheet.Columns)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		log.Warn("schema warning", "detail", w)
	}

	if err := checkDuplicateReferences(sheet.Rows); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    runID,
		Period:   opts.Period,
		Warnings: res.Warnings,
		RowsRead: len(sheet.Rows),
	}

	if opts.DryRun {
		log.Info("dry run: schema resolved, no documents written",
			"accepted_fields", len(res.Fields), "rows", len(sheet.Rows))
		return result, nil
	}

	runRoot := filepath.Join(cfg.Output.RootDir, opts.Period.ID())
	renderer, err := render.New(render.Options{
		OutputDir:      filepath.Join(runRoot, "pdf"),
		CompanyLine1:   cfg.Company.Line1,
		CompanyLine2:   cfg.Company.Line2,
		PeriodDisplay:  opts.Period.Display(),
		PeriodID:       opts.Period.ID(),
		CurrencySymbol: cfg.Company.CurrencySymbol,
		GrossLabel:     cfg.TotalsLabels.GrossIncome,
		DeductionLabel: cfg.TotalsLabels.TotalDeduction,
		NetPayLabel:    cfg.TotalsLabels.NetPay,
		ApprovedByText: cfg.Footer.ApprovedByLabel,
		ApprovedByName: cfg.Footer.ApprovedByName,
		GeneratedAt:    opts.Now.Format("2006-01-02 15:04:05"),
		Assets:         bundle,
	})
	if err != nil {
		return nil, err
	}

	outcomes, err := processRows(ctx, sheet.Rows, res, renderer, opts, log)
	if err != nil && outcomes == nil {
		return nil, err
	}
	// err may be a fail_fast abort; the manifest below still covers every
	// attempted row.

	builder := manifest.NewBuilder()
	for _, oc := range outcomes {
		builder.Append(oc.row)
		if oc.out != nil {
			result.Outputs = append(result.Outputs, *oc.out)
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	manifestPath := filepath.Join(runRoot, "summary",
		fmt.Sprintf("manifest_%s.csv", opts.Now.Format("2006-01-02_15-04-05")))
	if werr := builder.WriteCSV(manifestPath); werr != nil {
		return nil, werr
	}
	result.ManifestPath = manifestPath

	log.Info("run complete",
		"attempted", builder.Len(), "succeeded", result.Succeeded, "failed", result.Failed,
		"manifest", manifestPath)
	return result, err
}

// processRows runs the per-record stages. Sequential by default; with
// Workers > 1 records render in parallel and outcomes are collected by row
// index so manifest order always matches source order.
func processRows(ctx context.Context, rows []source.Row, res *schema.Resolution,
	renderer *render.Renderer, opts Options, log *slog.Logger) ([]rowOutcome, error) {

	outcomes := make([]rowOutcome, len(rows))

	if opts.Workers <= 1 {
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = processRow(row, res, renderer, log)
			if opts.Config.Run.FailFast && outcomes[i].out == nil {
				return outcomes[:i+1], fmt.Errorf("fail_fast: aborting after row %d: %s", i+1, outcomes[i].row.Error)
			}
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = processRow(row, res, renderer, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Config.Run.FailFast {
		for i, oc := range outcomes {
			if oc.out == nil {
				return outcomes, fmt.Errorf("fail_fast: row %d failed: %s", i+1, oc.row.Error)
			}
		}
	}
	return outcomes, nil
}

// processRow normalizes, totals, and renders one record. Failures are
// row-scoped: they produce a failed manifest row, never an abort.
func processRow(row source.Row, res *schema.Resolution, renderer *render.Renderer, log *slog.Logger) rowOutcome {
	reference := strings.TrimSpace(row[schema.ColumnReference])
	name := strings.TrimSpace(row[schema.ColumnName])

	fail := func(err error) rowOutcome {
		log.Warn("record failed", "reference", reference, "name", name, "error", err.Error())
		return rowOutcome{row: manifest.Row{
			Reference: reference,
			Name:      name,
			Status:    manifest.StatusFailed,
			Error:     err.Error(),
		}}
	}

	rec, err := record.Normalize(row, res)
	if err != nil {
		return fail(err)
	}
	totals := record.CalculateTotals(rec, res)

	doc, err := renderer.Render(rec, res)
	if err != nil {
		return fail(err)
	}

	log.Info("payslip generated", "reference", rec.Reference, "file", filepath.Base(doc.Path),
		"net", totals.Net.StringFixed(2))
	return rowOutcome{
		row: manifest.Row{
			Reference:  rec.Reference,
			Name:       rec.Name,
			Status:     manifest.StatusSuccess,
			Gross:      totals.Gross,
			Deductions: totals.Deductions,
			Net:        totals.Net,
			OutputPath: doc.Path,
		},
		out: &Output{
			Reference: rec.Reference,
			Name:      rec.Name,
			Email:     rec.Email,
			Path:      doc.Path,
		},
	}
}

// checkDuplicateReferences fails the run when two rows share a reference
// number. Silently producing two payslips for one employee is worse than
// stopping the run.
func checkDuplicateReferences(rows []source.Row) error {
	seen := make(map[string]int)
	for _, row := range rows {
		ref := strings.TrimSpace(row[schema.ColumnReference])
		if ref == "" {
			continue // Blank references fail row-scoped during normalization.
		}
		seen[ref]++
	}

	var dups []string
	for ref, n := range seen {
		if n > 1 {
			dups = append(dups, ref)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return &DuplicateReferenceError{References: dups}
	}
	return nil
}

func requiredPx(enforce bool, px []int) []int {
	if !enforce {
		return nil
	}
	return px
}
