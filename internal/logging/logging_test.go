package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestSetup_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "2026-02-01", "run_log.log")

	logger, closeLog, err := Setup(slog.LevelInfo, path)
	require.NoError(t, err)

	logger.Info("payslip run started", "run_id", "test")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "payslip run started")
	assert.Contains(t, string(data), `"run_id":"test"`)
}

func TestSetup_NoFilePath(t *testing.T) {
	logger, closeLog, err := Setup(slog.LevelInfo, "")
	require.NoError(t, err)
	logger.Info("ok")
	assert.NoError(t, closeLog())
}
