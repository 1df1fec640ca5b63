package dq

import (
	"math"
	"sort"

	"github.com/ahead-health/dq-cli/internal/model"
)

// OutlierMethod selects the baselining strategy.
type OutlierMethod string

const (
	// MethodZScore flags values beyond mean +/- k*stddev within their group.
	MethodZScore OutlierMethod = "zscore"
	// MethodIQR flags values beyond [Q1 - m*IQR, Q3 + m*IQR] within their
	// group, the method the original review pipeline used.
	MethodIQR OutlierMethod = "iqr"
)

// OutlierConfig tunes the detector. The zero value is not usable; start from
// DefaultOutlierConfig.
type OutlierConfig struct {
	Method OutlierMethod `json:"method"`
	// ZThreshold is k in mean +/- k*stddev.
	ZThreshold float64 `json:"z_threshold"`
	// IQRMultiplier is m in Q1 - m*IQR / Q3 + m*IQR.
	IQRMultiplier float64 `json:"iqr_multiplier"`
	// MinGroupSize is the smallest group for which a baseline is computed;
	// smaller groups are marked insufficient_history rather than forced into
	// a spurious flag.
	MinGroupSize int `json:"min_group_size"`
	// GroupByUnit narrows the baseline group from (indicator) to
	// (unit, indicator). The default is per-indicator across all units:
	// single-unit monthly history is usually too short for a stable baseline,
	// and a narrower key materially raises flagging sensitivity.
	GroupByUnit bool `json:"group_by_unit"`
}

// DefaultOutlierConfig returns the standard detector tuning: per-indicator
// z-score baseline with k=3 and a minimum group size of 3.
func DefaultOutlierConfig() OutlierConfig {
	return OutlierConfig{
		Method:        MethodZScore,
		ZThreshold:    3,
		IQRMultiplier: 1.5,
		MinGroupSize:  3,
	}
}

// groupStats is the per-group aggregate baseline, computed once per run.
type groupStats struct {
	n      int
	mean   float64
	stddev float64
	lo     float64
	hi     float64
}

// DetectOutliers annotates every resolved record with a non-nil value_clean.
// It only classifies: values are never modified or removed. Records in groups
// below MinGroupSize or with zero variance carry Evaluable=false and a
// reason; their is_outlier is always false. is_negative is independent of the
// distributional check and is set whenever value_clean < 0.
func DetectOutliers(records []model.ResolvedRecord, cfg OutlierConfig) []model.OutlierFlag {
	groupKey := func(r model.ResolvedRecord) string {
		if cfg.GroupByUnit {
			return r.UnitID + "\x00" + r.IndicatorID
		}
		return r.IndicatorID
	}

	values := map[string][]float64{}
	for _, r := range records {
		if !r.Reported() {
			continue
		}
		k := groupKey(r)
		values[k] = append(values[k], *r.ValueClean)
	}

	stats := make(map[string]groupStats, len(values))
	for k, vs := range values {
		stats[k] = computeStats(vs, cfg)
	}

	var flags []model.OutlierFlag
	for _, r := range records {
		if !r.Reported() {
			continue
		}
		v := *r.ValueClean
		st := stats[groupKey(r)]

		f := model.OutlierFlag{
			UnitID:        r.UnitID,
			UnitName:      r.UnitName,
			IndicatorID:   r.IndicatorID,
			IndicatorName: r.IndicatorName,
			Period:        r.Period,
			ValueClean:    v,
			GroupMean:     st.mean,
			GroupStddev:   st.stddev,
			ThresholdLo:   st.lo,
			ThresholdHi:   st.hi,
			IsNegative:    v < 0,
		}

		switch {
		case st.n < cfg.MinGroupSize:
			f.Reason = model.ReasonInsufficientHistory
		case st.stddev == 0:
			// Constant series: z-score is undefined and no member is ever
			// flagged regardless of magnitude.
			f.Reason = model.ReasonZeroVariance
		default:
			f.Evaluable = true
			f.ZScore = (v - st.mean) / st.stddev
			f.IsOutlier = v < st.lo || v > st.hi
		}

		flags = append(flags, f)
	}

	sort.Slice(flags, func(i, j int) bool {
		a, b := flags[i], flags[j]
		if a.IndicatorID != b.IndicatorID {
			return a.IndicatorID < b.IndicatorID
		}
		if a.UnitID != b.UnitID {
			return a.UnitID < b.UnitID
		}
		return a.Period.Before(b.Period)
	})
	return flags
}

func computeStats(vs []float64, cfg OutlierConfig) groupStats {
	st := groupStats{n: len(vs)}
	if st.n == 0 {
		return st
	}

	var sum float64
	for _, v := range vs {
		sum += v
	}
	st.mean = sum / float64(st.n)

	if st.n > 1 {
		var ss float64
		for _, v := range vs {
			d := v - st.mean
			ss += d * d
		}
		// Sample standard deviation (n-1 denominator).
		st.stddev = math.Sqrt(ss / float64(st.n-1))
	}

	switch cfg.Method {
	case MethodIQR:
		sorted := append([]float64(nil), vs...)
		sort.Float64s(sorted)
		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		st.lo = q1 - cfg.IQRMultiplier*iqr
		st.hi = q3 + cfg.IQRMultiplier*iqr
	default:
		st.lo = st.mean - cfg.ZThreshold*st.stddev
		st.hi = st.mean + cfg.ZThreshold*st.stddev
	}
	return st
}

// quantile computes the q-th quantile of sorted values using linear
// interpolation between closest ranks, matching the original pipeline's
// pandas quantile behavior.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
