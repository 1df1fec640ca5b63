package model

import "time"

// RunStatus represents the current state of a quality-assessment run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Scope describes the slice of the warehouse a run assesses.
type Scope struct {
	CountryCode string  `json:"country_code"`
	UnitLevel   int     `json:"unit_level"`
	DateMin     *Period `json:"date_min,omitempty"`
	DateMax     *Period `json:"date_max,omitempty"`
}

// Run is one recorded pipeline execution.
type Run struct {
	ID        string     `json:"id"`
	Scope     Scope      `json:"scope"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult carries the full set of annotations a run produced. Every field
// is recomputed from source on each run; nothing here is incremental state.
type RunResult struct {
	NRaw              int `json:"n_raw"`
	NResolved         int `json:"n_resolved"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	Rejected          int `json:"rejected"`
	GridSize          int `json:"grid_size"`
	NOutliers         int `json:"n_outliers"`
	NNegative         int `json:"n_negative"`

	ByIndicator []CompletenessSummary    `json:"completeness_by_indicator"`
	ByUnit      []CompletenessSummary    `json:"completeness_by_unit"`
	Flags       []OutlierFlag            `json:"outlier_flags"`
	Derived     []DerivedIndicatorRecord `json:"derived_indicators"`
	Duplicates  []RawRecord              `json:"duplicates,omitempty"`
}
