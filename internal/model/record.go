package model

import "time"

// RawRecord is one observation as delivered by the data source. Value is nil
// when the facility submitted a report without a value for this indicator.
// Raw records are immutable once fetched.
type RawRecord struct {
	UnitID        string    `json:"unit_id"`
	UnitName      string    `json:"unit_name,omitempty"`
	IndicatorID   string    `json:"indicator_id"`
	IndicatorName string    `json:"indicator_name,omitempty"`
	Period        Period    `json:"period"`
	Value         *float64  `json:"value"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// CellKey identifies one (unit, indicator, period) cell. It is comparable and
// used as the grouping key throughout the engine.
type CellKey struct {
	UnitID      string `json:"unit_id"`
	IndicatorID string `json:"indicator_id"`
	Period      Period `json:"period"`
}

// Key returns the record's cell identity.
func (r RawRecord) Key() CellKey {
	return CellKey{UnitID: r.UnitID, IndicatorID: r.IndicatorID, Period: r.Period}
}

// HasKey reports whether all required key fields are present. Records failing
// this check are rejected and counted, never coerced.
func (r RawRecord) HasKey() bool {
	return r.UnitID != "" && r.IndicatorID != "" && !r.Period.IsZero()
}

// ExpectedCell is one synthesized cell of the expected reporting grid. It is
// never observed; the grid builder owns its identity.
type ExpectedCell struct {
	UnitID      string `json:"unit_id"`
	IndicatorID string `json:"indicator_id"`
	Period      Period `json:"period"`
}

// Key returns the cell identity.
func (c ExpectedCell) Key() CellKey {
	return CellKey{UnitID: c.UnitID, IndicatorID: c.IndicatorID, Period: c.Period}
}

// ResolvedRecord is the single surviving record for a cell after duplicate
// resolution. ValueClean is the resolved numeric value all downstream stages
// read; it is nil when the winning record carried no value.
type ResolvedRecord struct {
	UnitID        string    `json:"unit_id"`
	UnitName      string    `json:"unit_name,omitempty"`
	IndicatorID   string    `json:"indicator_id"`
	IndicatorName string    `json:"indicator_name,omitempty"`
	Period        Period    `json:"period"`
	ValueClean    *float64  `json:"value_clean"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Key returns the record's cell identity.
func (r ResolvedRecord) Key() CellKey {
	return CellKey{UnitID: r.UnitID, IndicatorID: r.IndicatorID, Period: r.Period}
}

// Reported reports whether the cell carries an actual numeric value.
func (r ResolvedRecord) Reported() bool {
	return r.ValueClean != nil
}
