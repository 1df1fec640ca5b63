package dq

import (
	"sort"

	"github.com/ahead-health/dq-cli/internal/model"
)

// DefaultDerivedDefinitions is the built-in derived-indicator registry,
// used when no registry file is configured. Codes and operand pairs follow
// the standard maternal/child health coverage ratios.
func DefaultDerivedDefinitions() []model.DerivedDefinition {
	return []model.DerivedDefinition{
		{Code: "pct_anc4", NumeratorID: "anc4", DenominatorID: "anc1"},
		{Code: "pct_anc8", NumeratorID: "anc8", DenominatorID: "anc1"},
		{Code: "pct_penta3", NumeratorID: "penta3", DenominatorID: "penta1"},
		{Code: "pct_measles2", NumeratorID: "measles2", DenominatorID: "measles1"},
		{Code: "pct_bcg", NumeratorID: "bcg", DenominatorID: "delivery"},
		{Code: "pct_skilled_del", NumeratorID: "skilled_del", DenominatorID: "delivery"},
		{Code: "pct_csection", NumeratorID: "csection", DenominatorID: "delivery"},
		{Code: "pct_fp_new", NumeratorID: "fp_new", DenominatorID: "anc1"},
		{Code: "pct_syphilis_testing_anc", NumeratorID: "anc_hbv_test", DenominatorID: "anc1"},
		{Code: "pct_hiv_testing_anc", NumeratorID: "anc_hiv_test", DenominatorID: "anc1"},
	}
}

// ComputeDerived produces the percentage time series for every derived
// definition. A record is emitted only for (unit, period) cells where both
// operands exist with non-nil values and the denominator is non-zero;
// undefined cells are omitted, never stored as 0, NaN, or infinity.
//
// pct_value is 100 * numerator/denominator: exactly one scaling by 100 occurs
// between the raw ratio and the stored percentage. Any later smoothing or
// re-aggregation must consume these already-scaled values without multiplying
// again (see TrailingMean and AggregateAcrossUnits).
func ComputeDerived(records []model.ResolvedRecord, defs []model.DerivedDefinition) []model.DerivedIndicatorRecord {
	type cell struct{ unit, indicator string }
	byCell := map[cell]map[model.Period]float64{}
	unitNames := map[string]string{}
	for _, r := range records {
		if !r.Reported() {
			continue
		}
		c := cell{r.UnitID, r.IndicatorID}
		if byCell[c] == nil {
			byCell[c] = map[model.Period]float64{}
		}
		byCell[c][r.Period] = *r.ValueClean
		if r.UnitName != "" {
			unitNames[r.UnitID] = r.UnitName
		}
	}

	units := map[string]struct{}{}
	for c := range byCell {
		units[c.unit] = struct{}{}
	}
	sortedUnits := make([]string, 0, len(units))
	for u := range units {
		sortedUnits = append(sortedUnits, u)
	}
	sort.Strings(sortedUnits)

	var out []model.DerivedIndicatorRecord
	for _, def := range defs {
		for _, unit := range sortedUnits {
			nums := byCell[cell{unit, def.NumeratorID}]
			dens := byCell[cell{unit, def.DenominatorID}]
			if nums == nil || dens == nil {
				continue
			}
			periods := make([]model.Period, 0, len(nums))
			for p := range nums {
				periods = append(periods, p)
			}
			sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

			for _, p := range periods {
				den, ok := dens[p]
				if !ok || den == 0 {
					continue
				}
				num := nums[p]
				out = append(out, model.DerivedIndicatorRecord{
					UnitID:           unit,
					UnitName:         unitNames[unit],
					DerivedCode:      def.Code,
					Period:           p,
					NumeratorValue:   num,
					DenominatorValue: den,
					PctValue:         100 * num / den,
				})
			}
		}
	}
	return out
}

// TrailingMean smooths each (unit, derived_code) series with a trailing
// moving average of the given window. It operates on the already-scaled
// pct_value only; operand values pass through untouched and no further
// scaling occurs. Windows shorter than the series start are averaged over the
// available prefix. A window below 2 returns the input unchanged.
func TrailingMean(records []model.DerivedIndicatorRecord, window int) []model.DerivedIndicatorRecord {
	if window < 2 {
		return records
	}

	type series struct{ unit, code string }
	index := map[series][]int{}
	for i, r := range records {
		s := series{r.UnitID, r.DerivedCode}
		index[s] = append(index[s], i)
	}

	out := append([]model.DerivedIndicatorRecord(nil), records...)
	for _, idxs := range index {
		sort.Slice(idxs, func(i, j int) bool {
			return records[idxs[i]].Period.Before(records[idxs[j]].Period)
		})
		for i := range idxs {
			lo := i - window + 1
			if lo < 0 {
				lo = 0
			}
			var sum float64
			for _, j := range idxs[lo : i+1] {
				sum += records[j].PctValue
			}
			out[idxs[i]].PctValue = sum / float64(i+1-lo)
		}
	}
	return out
}

// AggregateAcrossUnits rolls a derived series up across units per
// (derived_code, period). It sums numerators and denominators first and
// scales the combined ratio once, rather than averaging per-unit percentages:
// percentages from non-comparable numerator/denominator pairs are not
// additive, and re-scaling already-scaled values is how percentages have
// historically compounded past 100%.
func AggregateAcrossUnits(records []model.DerivedIndicatorRecord) []model.DerivedIndicatorRecord {
	type key struct {
		code   string
		period model.Period
	}
	type sums struct{ num, den float64 }
	acc := map[key]*sums{}
	for _, r := range records {
		k := key{r.DerivedCode, r.Period}
		s := acc[k]
		if s == nil {
			s = &sums{}
			acc[k] = s
		}
		s.num += r.NumeratorValue
		s.den += r.DenominatorValue
	}

	out := make([]model.DerivedIndicatorRecord, 0, len(acc))
	for k, s := range acc {
		if s.den == 0 {
			continue
		}
		out = append(out, model.DerivedIndicatorRecord{
			DerivedCode:      k.code,
			Period:           k.period,
			NumeratorValue:   s.num,
			DenominatorValue: s.den,
			PctValue:         100 * s.num / s.den,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DerivedCode != out[j].DerivedCode {
			return out[i].DerivedCode < out[j].DerivedCode
		}
		return out[i].Period.Before(out[j].Period)
	})
	return out
}
