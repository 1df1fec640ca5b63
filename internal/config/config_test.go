package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "KEN", cfg.Scope.CountryCode)
	assert.Equal(t, 4, cfg.Scope.UnitLevel)
	assert.Empty(t, cfg.Scope.DateMin)
	assert.Equal(t, "postgres", cfg.Source.Driver)
	assert.Equal(t, 60, cfg.Source.TimeoutSecs)
	assert.InDelta(t, 5.0, cfg.Source.RatePerSec, 0.001)
	assert.Equal(t, "zscore", cfg.Outlier.Method)
	assert.InDelta(t, 3.0, cfg.Outlier.ZThreshold, 0.001)
	assert.InDelta(t, 1.5, cfg.Outlier.IQRMultiplier, 0.001)
	assert.Equal(t, 3, cfg.Outlier.MinGroupSize)
	assert.False(t, cfg.Outlier.GroupByUnit)
	assert.Equal(t, 0, cfg.Derived.SmoothingWindow)
	assert.Equal(t, "unit_code", cfg.Geo.UnitIDField)
	assert.Equal(t, "dq_review.xlsx", cfg.Export.WorkbookPath)
	assert.Equal(t, "dq_runs.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
scope:
  country_code: NGA
  unit_level: 3
  date_min: "2019-01"
source:
  driver: csv
  path: extract.csv
outlier:
  method: iqr
  group_by_unit: true
log:
  level: debug
  format: console
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NGA", cfg.Scope.CountryCode)
	assert.Equal(t, 3, cfg.Scope.UnitLevel)
	assert.Equal(t, "2019-01", cfg.Scope.DateMin)
	assert.Equal(t, "csv", cfg.Source.Driver)
	assert.Equal(t, "extract.csv", cfg.Source.Path)
	assert.Equal(t, "iqr", cfg.Outlier.Method)
	assert.True(t, cfg.Outlier.GroupByUnit)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Outlier.MinGroupSize)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	dir, _ := os.Getwd()
	yaml := "scope:\n  country_code: NGA\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DQ_SCOPE_COUNTRY_CODE", "UGA")
	t.Setenv("DQ_SERVER_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UGA", cfg.Scope.CountryCode)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"json info", LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", LogConfig{Level: "debug", Format: "console"}, false},
		{"bad level", LogConfig{Level: "verbose", Format: "json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, zap.L())
		})
	}
	zap.ReplaceGlobals(zap.NewNop())
}
