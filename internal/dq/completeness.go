package dq

import (
	"sort"

	"github.com/ahead-health/dq-cli/internal/model"
)

// Completeness holds the two completeness roll-ups of one run.
type Completeness struct {
	ByIndicator []model.CompletenessSummary
	ByUnit      []model.CompletenessSummary
}

// ComputeCompleteness computes indicator-level and unit-level completeness
// against the synthesized expected grid. A cell counts as reported only when
// a resolved record exists for it with a non-nil value_clean. The denominator
// is always the grid size for the key, never the count of observed keys;
// resolved records outside the grid do not inflate either side.
func ComputeCompleteness(grid []model.ExpectedCell, records []model.ResolvedRecord) Completeness {
	reported := make(map[model.CellKey]bool, len(records))
	names := map[string]string{}
	for _, r := range records {
		if r.Reported() {
			reported[r.Key()] = true
		}
		if r.UnitName != "" {
			names["u:"+r.UnitID] = r.UnitName
		}
		if r.IndicatorName != "" {
			names["i:"+r.IndicatorID] = r.IndicatorName
		}
	}

	byIndicator := map[string]*tally{}
	byUnit := map[string]*tally{}
	bump := func(m map[string]*tally, key string, hit bool) {
		t := m[key]
		if t == nil {
			t = &tally{}
			m[key] = t
		}
		t.expected++
		if hit {
			t.got++
		}
	}

	for _, cell := range grid {
		hit := reported[cell.Key()]
		bump(byIndicator, cell.IndicatorID, hit)
		bump(byUnit, cell.UnitID, hit)
	}

	return Completeness{
		ByIndicator: summarize(byIndicator, model.SummaryByIndicator, names, "i:"),
		ByUnit:      summarize(byUnit, model.SummaryByUnit, names, "u:"),
	}
}

type tally struct{ expected, got int }

func summarize(tallies map[string]*tally, level model.SummaryLevel, names map[string]string, prefix string) []model.CompletenessSummary {
	out := make([]model.CompletenessSummary, 0, len(tallies))
	for key, t := range tallies {
		s := model.CompletenessSummary{
			Level:     level,
			Key:       key,
			Name:      names[prefix+key],
			NExpected: t.expected,
			NReported: t.got,
			NMissing:  t.expected - t.got,
		}
		if t.expected > 0 {
			s.Applicable = true
			s.PctReported = 100 * float64(t.got) / float64(t.expected)
			s.PctMissing = 100 - s.PctReported
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
