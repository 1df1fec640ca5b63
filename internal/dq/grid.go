// Package dq implements the data-quality engine: expected-grid construction,
// duplicate resolution, completeness arithmetic, outlier detection, and
// derived-indicator computation. Every stage is a pure transformation from
// one immutable collection to another.
package dq

import (
	"sort"

	"github.com/ahead-health/dq-cli/internal/model"
)

// GridSpec defines the combinatorial space of cells that should exist.
// Start and End are inclusive; either may be zero, in which case the caller
// is expected to default them from the observed period range.
type GridSpec struct {
	Units      []string
	Indicators []string
	Start      model.Period
	End        model.Period
}

// Size returns |units| x |indicators| x |periods| without materializing the
// grid.
func (s GridSpec) Size() int {
	return len(s.Units) * len(s.Indicators) * len(model.PeriodRange(s.Start, s.End))
}

// BuildGrid materializes the full cross product of units, indicators, and
// monthly periods as expected cells. The grid is generated explicitly rather
// than derived from observed keys so the completeness denominator stays
// auditable independent of source coverage. Any empty factor yields an empty
// grid.
func BuildGrid(spec GridSpec) []model.ExpectedCell {
	periods := model.PeriodRange(spec.Start, spec.End)
	if len(spec.Units) == 0 || len(spec.Indicators) == 0 || len(periods) == 0 {
		return nil
	}

	cells := make([]model.ExpectedCell, 0, spec.Size())
	for _, unit := range spec.Units {
		for _, ind := range spec.Indicators {
			for _, p := range periods {
				cells = append(cells, model.ExpectedCell{UnitID: unit, IndicatorID: ind, Period: p})
			}
		}
	}
	return cells
}

// ObservedPeriodRange returns the earliest and latest period present in the
// records. ok is false when no record carries a period.
func ObservedPeriodRange(records []model.RawRecord) (start, end model.Period, ok bool) {
	for _, r := range records {
		if r.Period.IsZero() {
			continue
		}
		if !ok {
			start, end, ok = r.Period, r.Period, true
			continue
		}
		if r.Period.Before(start) {
			start = r.Period
		}
		if r.Period.After(end) {
			end = r.Period
		}
	}
	return start, end, ok
}

// ObservedUnits returns the sorted distinct unit IDs present in the records.
func ObservedUnits(records []model.RawRecord) []string {
	return distinct(records, func(r model.RawRecord) string { return r.UnitID })
}

// ObservedIndicators returns the sorted distinct indicator IDs present in the
// records.
func ObservedIndicators(records []model.RawRecord) []string {
	return distinct(records, func(r model.RawRecord) string { return r.IndicatorID })
}

func distinct(records []model.RawRecord, key func(model.RawRecord) string) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
