package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahead-health/dq-cli/internal/config"
	"github.com/ahead-health/dq-cli/internal/source"
)

func TestScopeFromConfig(t *testing.T) {
	scope, err := scopeFromConfig(config.ScopeConfig{
		CountryCode: "KEN",
		UnitLevel:   4,
		DateMin:     "2024-01",
		DateMax:     "2024-06",
	})
	require.NoError(t, err)

	assert.Equal(t, "KEN", scope.CountryCode)
	assert.Equal(t, 4, scope.UnitLevel)
	require.NotNil(t, scope.DateMin)
	assert.Equal(t, time.January, scope.DateMin.Month)
	require.NotNil(t, scope.DateMax)
	assert.Equal(t, time.June, scope.DateMax.Month)
}

func TestScopeFromConfig_OpenEnded(t *testing.T) {
	scope, err := scopeFromConfig(config.ScopeConfig{CountryCode: "UGA", UnitLevel: 3})
	require.NoError(t, err)
	assert.Nil(t, scope.DateMin)
	assert.Nil(t, scope.DateMax)
}

func TestScopeFromConfig_BadPeriod(t *testing.T) {
	_, err := scopeFromConfig(config.ScopeConfig{DateMin: "not-a-period"})
	assert.Error(t, err)
}

func TestScopeFromConfig_InvertedRange(t *testing.T) {
	_, err := scopeFromConfig(config.ScopeConfig{
		DateMin: "2024-06",
		DateMax: "2024-01",
	})
	assert.Error(t, err)
}

func TestNewSource_Drivers(t *testing.T) {
	ctx := context.Background()

	src, cleanup, err := newSource(ctx, config.SourceConfig{Driver: "csv", Path: "obs.csv"})
	require.NoError(t, err)
	cleanup()
	assert.IsType(t, &source.CSVSource{}, src)

	src, cleanup, err = newSource(ctx, config.SourceConfig{Driver: "http", URL: "https://hmis.example.org/api"})
	require.NoError(t, err)
	cleanup()
	assert.IsType(t, &source.HTTPSource{}, src)

	src, cleanup, err = newSource(ctx, config.SourceConfig{Driver: "ftp", URL: "ftp://dumps.example.org/obs.csv"})
	require.NoError(t, err)
	cleanup()
	assert.IsType(t, &source.FTPSource{}, src)
}

func TestNewSource_MissingSettings(t *testing.T) {
	ctx := context.Background()

	_, _, err := newSource(ctx, config.SourceConfig{Driver: "csv"})
	assert.Error(t, err)

	_, _, err = newSource(ctx, config.SourceConfig{Driver: "http"})
	assert.Error(t, err)

	_, _, err = newSource(ctx, config.SourceConfig{Driver: "ftp"})
	assert.Error(t, err)

	_, _, err = newSource(ctx, config.SourceConfig{Driver: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestLoadIndicatorRegistry_Unconfigured(t *testing.T) {
	reg, err := loadIndicatorRegistry(context.Background(), config.RegistryConfig{})
	require.NoError(t, err)
	assert.Nil(t, reg)
}
