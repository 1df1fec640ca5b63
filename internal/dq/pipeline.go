package dq

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahead-health/dq-cli/internal/model"
)

// Config is the immutable per-run configuration passed into the engine. It is
// supplied explicitly rather than read from ambient state so each stage stays
// independently testable with synthetic inputs.
type Config struct {
	// Units and Indicators define the expected grid. When empty they default
	// to the distinct values observed in the raw records.
	Units      []string
	Indicators []string
	// Start and End bound the grid's period range inclusively. Zero values
	// default to the observed range.
	Start model.Period
	End   model.Period

	Outlier OutlierConfig
	Derived []model.DerivedDefinition
	// SmoothingWindow, when >= 2, applies a trailing moving average over the
	// already-scaled derived percentages.
	SmoothingWindow int
}

// DefaultConfig returns a engine configuration with standard outlier tuning
// and the built-in derived registry.
func DefaultConfig() Config {
	return Config{
		Outlier: DefaultOutlierConfig(),
		Derived: DefaultDerivedDefinitions(),
	}
}

// Run executes the full quality assessment over one immutable raw snapshot:
// duplicate resolution, expected-grid construction, then completeness,
// outlier detection, and derived-indicator computation fanned out in
// parallel. The fan-out is safe because each stage only reads the resolved
// set and writes its own output. Partial results are never returned: a
// cancelled context discards the run.
func Run(ctx context.Context, raw []model.RawRecord, cfg Config) (*model.RunResult, error) {
	log := zap.L().With(zap.String("component", "dq_engine"))

	resolved := Resolve(raw)
	log.Info("duplicate resolution complete",
		zap.Int("raw", len(raw)),
		zap.Int("resolved", len(resolved.Records)),
		zap.Int("duplicates_removed", resolved.DuplicatesRemoved),
		zap.Int("rejected", resolved.Rejected),
	)

	grid := BuildGrid(gridSpec(raw, cfg))
	if len(grid) == 0 {
		log.Warn("expected grid is empty; completeness will be not-applicable")
	}

	result := &model.RunResult{
		NRaw:              len(raw),
		NResolved:         len(resolved.Records),
		DuplicatesRemoved: resolved.DuplicatesRemoved,
		Rejected:          resolved.Rejected,
		GridSize:          len(grid),
		Duplicates:        resolved.Duplicates,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		c := ComputeCompleteness(grid, resolved.Records)
		result.ByIndicator = c.ByIndicator
		result.ByUnit = c.ByUnit
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		result.Flags = DetectOutliers(resolved.Records, cfg.Outlier)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		derived := ComputeDerived(resolved.Records, cfg.Derived)
		if cfg.SmoothingWindow >= 2 {
			derived = TrailingMean(derived, cfg.SmoothingWindow)
		}
		result.Derived = derived
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, f := range result.Flags {
		if f.IsOutlier {
			result.NOutliers++
		}
		if f.IsNegative {
			result.NNegative++
		}
	}

	log.Info("quality assessment complete",
		zap.Int("grid_size", result.GridSize),
		zap.Int("outliers", result.NOutliers),
		zap.Int("negative", result.NNegative),
		zap.Int("derived", len(result.Derived)),
	)
	return result, nil
}

// gridSpec resolves the grid factors, defaulting open ends and empty sets
// from the observed records.
func gridSpec(raw []model.RawRecord, cfg Config) GridSpec {
	spec := GridSpec{
		Units:      cfg.Units,
		Indicators: cfg.Indicators,
		Start:      cfg.Start,
		End:        cfg.End,
	}
	if len(spec.Units) == 0 {
		spec.Units = ObservedUnits(raw)
	}
	if len(spec.Indicators) == 0 {
		spec.Indicators = ObservedIndicators(raw)
	}
	if spec.Start.IsZero() || spec.End.IsZero() {
		start, end, ok := ObservedPeriodRange(raw)
		if ok {
			if spec.Start.IsZero() {
				spec.Start = start
			}
			if spec.End.IsZero() {
				spec.End = end
			}
		}
	}
	return spec
}
