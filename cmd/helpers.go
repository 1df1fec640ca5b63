package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/config"
	"github.com/ahead-health/dq-cli/internal/dq"
	"github.com/ahead-health/dq-cli/internal/model"
	"github.com/ahead-health/dq-cli/internal/registry"
	"github.com/ahead-health/dq-cli/internal/source"
	"github.com/ahead-health/dq-cli/internal/store"
	"github.com/ahead-health/dq-cli/pkg/notion"
)

func initStore() (store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		path = "dq_runs.db"
	}
	return store.NewSQLite(path)
}

// scopeFromConfig builds the run scope, applying flag overrides where set.
func scopeFromConfig(sc config.ScopeConfig) (model.Scope, error) {
	scope := model.Scope{
		CountryCode: sc.CountryCode,
		UnitLevel:   sc.UnitLevel,
	}

	if sc.DateMin != "" {
		p, err := model.ParsePeriod(sc.DateMin)
		if err != nil {
			return scope, eris.Wrapf(err, "parse date_min %q", sc.DateMin)
		}
		scope.DateMin = &p
	}
	if sc.DateMax != "" {
		p, err := model.ParsePeriod(sc.DateMax)
		if err != nil {
			return scope, eris.Wrapf(err, "parse date_max %q", sc.DateMax)
		}
		scope.DateMax = &p
	}
	if scope.DateMin != nil && scope.DateMax != nil && scope.DateMax.Before(*scope.DateMin) {
		return scope, eris.Errorf("date_max %s precedes date_min %s", scope.DateMax, scope.DateMin)
	}

	return scope, nil
}

// newSource builds the configured observation source. The returned cleanup
// releases any connection pool.
func newSource(ctx context.Context, sc config.SourceConfig) (source.DataSource, func(), error) {
	noop := func() {}

	switch sc.Driver {
	case "postgres":
		src, err := source.NewPostgres(ctx, sc.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	case "csv":
		if sc.Path == "" {
			return nil, noop, eris.New("csv source requires source.path")
		}
		return source.NewCSV(sc.Path), noop, nil
	case "http":
		if sc.URL == "" {
			return nil, noop, eris.New("http source requires source.url")
		}
		return source.NewHTTP(sc.URL, source.HTTPOptions{
			Token:      sc.Token,
			Timeout:    time.Duration(sc.TimeoutSecs) * time.Second,
			MaxRetries: sc.MaxRetries,
			RatePerSec: sc.RatePerSec,
		}), noop, nil
	case "ftp":
		if sc.URL == "" {
			return nil, noop, eris.New("ftp source requires source.url")
		}
		return source.NewFTP(sc.URL, time.Duration(sc.TimeoutSecs)*time.Second), noop, nil
	default:
		return nil, noop, eris.Errorf("unsupported source driver: %s", sc.Driver)
	}
}

// loadIndicatorRegistry loads the configured indicator registry, or nil when
// none is configured.
func loadIndicatorRegistry(ctx context.Context, rc config.RegistryConfig) (*model.IndicatorRegistry, error) {
	switch {
	case rc.NotionToken != "" && rc.NotionDB != "":
		client := notion.NewClient(rc.NotionToken)
		return registry.LoadIndicatorNotion(ctx, client, rc.NotionDB)
	case rc.MappingPath != "":
		return registry.LoadIndicatorCSV(rc.MappingPath)
	default:
		return nil, nil
	}
}

// engineConfig assembles the engine configuration from the app config: the
// registry pins the indicator axis of the expected grid, the derived registry
// file overrides the built-in definitions.
func engineConfig(ctx context.Context, scope model.Scope) (dq.Config, error) {
	ec := dq.DefaultConfig()

	ec.Outlier = dq.OutlierConfig{
		Method:        dq.OutlierMethod(cfg.Outlier.Method),
		ZThreshold:    cfg.Outlier.ZThreshold,
		IQRMultiplier: cfg.Outlier.IQRMultiplier,
		MinGroupSize:  cfg.Outlier.MinGroupSize,
		GroupByUnit:   cfg.Outlier.GroupByUnit,
	}
	ec.SmoothingWindow = cfg.Derived.SmoothingWindow

	if scope.DateMin != nil {
		ec.Start = *scope.DateMin
	}
	if scope.DateMax != nil {
		ec.End = *scope.DateMax
	}

	reg, err := loadIndicatorRegistry(ctx, cfg.Registry)
	if err != nil {
		return ec, eris.Wrap(err, "load indicator registry")
	}
	if reg != nil {
		for _, m := range reg.Active() {
			ec.Indicators = append(ec.Indicators, m.Code)
		}
		zap.L().Info("indicator registry loaded",
			zap.Int("total", reg.Len()),
			zap.Int("active", len(ec.Indicators)),
		)
	}

	if cfg.Derived.RegistryPath != "" {
		defs, err := registry.LoadDerivedDefinitions(cfg.Derived.RegistryPath)
		if err != nil {
			return ec, eris.Wrap(err, "load derived definitions")
		}
		ec.Derived = defs
	}

	return ec, nil
}
