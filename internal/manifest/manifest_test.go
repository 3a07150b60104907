package manifest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successRow(ref, name string) Row {
	return Row{
		Reference:  ref,
		Name:       name,
		Status:     StatusSuccess,
		Gross:      decimal.RequireFromString("1050.50"),
		Deductions: decimal.RequireFromString("100.25"),
		Net:        decimal.RequireFromString("950.25"),
		OutputPath: "/out/" + ref + ".pdf",
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBuilder_PreservesAppendOrder(t *testing.T) {
	b := NewBuilder()
	b.Append(successRow("EMP-002", "Ben Eze"))
	b.Append(Row{Reference: "EMP-001", Name: "Ada Obi", Status: StatusFailed, Error: "boom"})
	b.Append(successRow("EMP-003", "Chi Ugo"))

	rows := b.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "EMP-002", rows[0].Reference)
	assert.Equal(t, "EMP-001", rows[1].Reference)
	assert.Equal(t, "EMP-003", rows[2].Reference)
	assert.Equal(t, 3, b.Len())
}

func TestWriteCSV_StableColumnOrder(t *testing.T) {
	b := NewBuilder()
	b.Append(successRow("EMP-001", "Ada Obi"))

	path := filepath.Join(t.TempDir(), "summary", "manifest.csv")
	require.NoError(t, b.WriteCSV(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"reference", "name", "status", "error", "gross", "deductions", "net", "output_path"}, rows[0])
	assert.Equal(t, []string{"EMP-001", "Ada Obi", "success", "", "1050.50", "100.25", "950.25", "/out/EMP-001.pdf"}, rows[1])
}

func TestWriteCSV_FailedRowHasErrorAndNoTotals(t *testing.T) {
	b := NewBuilder()
	b.Append(Row{
		Reference: "EMP-001",
		Name:      "Ada Obi",
		Status:    StatusFailed,
		Error:     `invalid record: field "Tax" is not numeric (raw value "N/A")`,
	})

	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, b.WriteCSV(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "failed", rows[1][2])
	assert.Contains(t, rows[1][3], "Tax")
	assert.Equal(t, "", rows[1][4])
	assert.Equal(t, "", rows[1][7])
}

func TestWriteCSV_EmptyRunStillProducesManifest(t *testing.T) {
	b := NewBuilder()

	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, b.WriteCSV(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 1) // header only
}
