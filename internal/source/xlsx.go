// Package source reads payroll rows from an XLSX data source.
package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one source row keyed by column header. Values are the raw cell text;
// blank cells are present with an empty string so downstream stages can apply
// the missing-value policy uniformly.
type Row map[string]string

// Sheet is the loaded data source: the observed header and the ordered data
// rows beneath it.
type Sheet struct {
	Columns []string // Header order as it appears in the file
	Rows    []Row
}

// Load opens the workbook at path and reads the named sheet. The first row is
// the header; headers are trimmed before use. Rows with every cell blank are
// skipped, matching how spreadsheet tools leave trailing empty rows behind.
func Load(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data source %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q from %s: %w", sheetName, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q in %s is empty", sheetName, path)
	}

	var columns []string
	for _, h := range rows[0] {
		columns = append(columns, strings.TrimSpace(h))
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sheet %q in %s has no header row", sheetName, path)
	}

	sheet := &Sheet{Columns: columns}
	for _, cells := range rows[1:] {
		row := make(Row, len(columns))
		blank := true
		for i, col := range columns {
			if col == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			if v != "" {
				blank = false
			}
			row[col] = v
		}
		if blank {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("no data rows found in sheet %q of %s", sheetName, path)
	}
	return sheet, nil
}
