package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Invoice.HeaderRow)
	assert.Equal(t, 10, cfg.Sample.Size)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "bilagskontroll_rapport.xlsx", cfg.Report.OutputPath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
invoice:
  path: fakturaliste.xlsx
ledger:
  path: hovedbok.xlsx
sample:
  size: 25
  year: 2024
engagement:
  client: Eksempel AS
  reviewer: MK
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fakturaliste.xlsx", cfg.Invoice.Path)
	assert.Equal(t, "hovedbok.xlsx", cfg.Ledger.Path)
	assert.Equal(t, 25, cfg.Sample.Size)
	assert.Equal(t, 2024, cfg.Sample.Year)
	assert.Equal(t, "Eksempel AS", cfg.Engagement.Client)
	// Defaults still apply for keys the file omits.
	assert.Equal(t, 4, cfg.Invoice.HeaderRow)
}

func TestLoadRejectsInvalidSampleSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample:\n  size: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
