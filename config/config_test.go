package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  path: panel.csv
  generator:
    seed: 7
training:
  cv_folds: 3
forecast:
  horizon: 5
store:
  enabled: true
  driver: postgres
  dsn: postgres://localhost/forecasts
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "panel.csv", cfg.Data.Path)
	assert.Equal(t, int64(7), cfg.Data.Generator.Seed)
	assert.Equal(t, 168, cfg.Data.Generator.Months)
	assert.Equal(t, 3, cfg.Training.CVFolds)
	assert.Equal(t, 100, cfg.Training.Boosting.NumTrees)
	assert.Equal(t, 5, cfg.Forecast.Horizon)
	assert.Equal(t, 2024, cfg.Forecast.StartYear)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvSeed, "123")
	t.Setenv(EnvData, "/tmp/panel.csv")
	t.Setenv(EnvOutputDir, "/tmp/out")
	t.Setenv(EnvStoreDSN, "/tmp/runs.db")
	t.Setenv(EnvAddr, ":9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(123), cfg.Data.Generator.Seed)
	assert.Equal(t, "/tmp/panel.csv", cfg.Data.Path)
	assert.Equal(t, "/tmp/out/automotive_analysis_results.json", cfg.ResultsPath())
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "/tmp/runs.db", cfg.Store.DSN)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestEnvOverrideInvalidSeed(t *testing.T) {
	t.Setenv(EnvSeed, "abc")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Forecast.Horizon = 3
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Forecast.Horizon)
	assert.Equal(t, cfg.Data.Generator.Start.Unix(), loaded.Data.Generator.Start.Unix())
	assert.Equal(t, cfg.Forecast.Weights, loaded.Forecast.Weights)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Enabled = true
	cfg.Store.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Forecast.Horizon = 0
	assert.Error(t, cfg.Validate())
}
