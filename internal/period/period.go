// Package period resolves the payroll period a run is generating payslips for.
package period

import (
	"fmt"
	"time"
)

// Mode selects how the payroll period is derived from the run date.
type Mode string

const (
	// ModePrevious targets the month before the reference date. This is the
	// default: payroll for a month is normally processed early the next month.
	ModePrevious Mode = "previous"
	// ModeCurrent targets the month of the reference date.
	ModeCurrent Mode = "current"
	// ModeManual targets an explicitly configured year and month.
	ModeManual Mode = "manual"
)

// Period is the month a run's payslips cover. All outputs of a run are grouped
// under its ID.
type Period struct {
	Year  int
	Month time.Month
}

// ID returns the filesystem-safe period identifier, e.g. "2026-01".
func (p Period) ID() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Display returns the human-readable label used in payslip headers,
// e.g. "January 2026".
func (p Period) Display() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

// Options configures Resolve.
type Options struct {
	Mode          Mode
	ManualYear    int
	ManualMonth   int
	ReferenceDate string // YYYY-MM-DD; empty means time.Now()
}

// Resolve determines the payroll period for a run.
func Resolve(opts Options) (Period, error) {
	ref := time.Now()
	if opts.ReferenceDate != "" {
		parsed, err := time.Parse("2006-01-02", opts.ReferenceDate)
		if err != nil {
			return Period{}, fmt.Errorf("invalid reference_date %q, expected YYYY-MM-DD: %w", opts.ReferenceDate, err)
		}
		ref = parsed
	}

	switch opts.Mode {
	case ModeManual:
		if opts.ManualMonth < 1 || opts.ManualMonth > 12 {
			return Period{}, fmt.Errorf("manual period month %d out of range 1-12", opts.ManualMonth)
		}
		if opts.ManualYear < 1 {
			return Period{}, fmt.Errorf("manual period year %d is invalid", opts.ManualYear)
		}
		return Period{Year: opts.ManualYear, Month: time.Month(opts.ManualMonth)}, nil

	case ModeCurrent:
		return Period{Year: ref.Year(), Month: ref.Month()}, nil

	case ModePrevious:
		year, month := ref.Year(), ref.Month()
		if month == time.January {
			return Period{Year: year - 1, Month: time.December}, nil
		}
		return Period{Year: year, Month: month - 1}, nil

	default:
		return Period{}, fmt.Errorf("period mode must be one of previous, current, manual; got %q", opts.Mode)
	}
}
