package model

// SummaryLevel distinguishes the two completeness roll-ups.
type SummaryLevel string

const (
	SummaryByIndicator SummaryLevel = "indicator"
	SummaryByUnit      SummaryLevel = "unit"
)

// CompletenessSummary is one completeness/missingness row, keyed by either an
// indicator or a unit. The denominator is always the synthesized expected
// grid, never the set of keys observed in raw data. Percentages are on the
// 0-100 scale. Applicable is false when NExpected is zero, in which case the
// percentage fields are meaningless and rendered as "n/a" by consumers.
type CompletenessSummary struct {
	Level       SummaryLevel `json:"level"`
	Key         string       `json:"key"`
	Name        string       `json:"name,omitempty"`
	NExpected   int          `json:"n_expected"`
	NReported   int          `json:"n_reported"`
	PctReported float64      `json:"pct_reported"`
	NMissing    int          `json:"n_missing"`
	PctMissing  float64      `json:"pct_missing"`
	Applicable  bool         `json:"applicable"`
}

// NotEvaluableReason explains why a record's statistical flag was suppressed.
type NotEvaluableReason string

const (
	ReasonInsufficientHistory NotEvaluableReason = "insufficient_history"
	ReasonZeroVariance        NotEvaluableReason = "zero_variance"
)

// OutlierFlag annotates one resolved record with its group baseline and flag
// state. The underlying value is never modified or removed. When Evaluable is
// false the z-score and outlier flag are suppressed and Reason says why;
// IsNegative is reported unconditionally either way.
type OutlierFlag struct {
	UnitID        string             `json:"unit_id"`
	UnitName      string             `json:"unit_name,omitempty"`
	IndicatorID   string             `json:"indicator_id"`
	IndicatorName string             `json:"indicator_name,omitempty"`
	Period        Period             `json:"period"`
	ValueClean    float64            `json:"value_clean"`
	GroupMean     float64            `json:"group_mean"`
	GroupStddev   float64            `json:"group_stddev"`
	ZScore        float64            `json:"zscore"`
	ThresholdLo   float64            `json:"threshold_lo"`
	ThresholdHi   float64            `json:"threshold_hi"`
	IsOutlier     bool               `json:"is_outlier"`
	IsNegative    bool               `json:"is_negative"`
	Evaluable     bool               `json:"evaluable"`
	Reason        NotEvaluableReason `json:"reason,omitempty"`
}

// DerivedDefinition declares one derived (ratio) indicator.
type DerivedDefinition struct {
	Code          string `json:"code" yaml:"code"`
	NumeratorID   string `json:"numerator_indicator_id" yaml:"numerator"`
	DenominatorID string `json:"denominator_indicator_id" yaml:"denominator"`
}

// DerivedIndicatorRecord is one computed percentage cell. It exists only
// where both operands exist with non-nil values and the denominator is
// non-zero. PctValue is on the 0-100 scale and is the result of exactly one
// multiplication by 100 of the numerator/denominator ratio.
type DerivedIndicatorRecord struct {
	UnitID           string  `json:"unit_id"`
	UnitName         string  `json:"unit_name,omitempty"`
	DerivedCode      string  `json:"derived_code"`
	Period           Period  `json:"period"`
	NumeratorValue   float64 `json:"numerator_value"`
	DenominatorValue float64 `json:"denominator_value"`
	PctValue         float64 `json:"pct_value"`
}

// IndicatorMapping is one row of the indicator registry.
type IndicatorMapping struct {
	Code   string `json:"indicator_code"`
	Name   string `json:"indicator_name"`
	Type   string `json:"indicator_type"`
	Active bool   `json:"active"`
}
