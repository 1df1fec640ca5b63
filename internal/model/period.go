package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// periodLayout is the canonical wire format for a reporting period.
const periodLayout = "2006-01"

// Period is a calendar month in which a facility may report a value.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a "YYYY-MM" string. It also accepts full dates
// ("YYYY-MM-DD"), truncating to the month, since warehouse extracts carry
// day-level dates for monthly data.
func ParsePeriod(s string) (Period, error) {
	if t, err := time.Parse(periodLayout, s); err == nil {
		return PeriodOf(t), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Period{}, eris.Errorf("model: invalid period %q", s)
	}
	return PeriodOf(t), nil
}

// String renders the period as "YYYY-MM".
func (p Period) String() string {
	return p.Time().Format(periodLayout)
}

// Time returns midnight UTC on the first day of the month.
func (p Period) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	return PeriodOf(p.Time().AddDate(0, 1, 0))
}

// Before reports whether p precedes q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// After reports whether p follows q.
func (p Period) After(q Period) bool {
	return q.Before(p)
}

// MarshalText renders the period in its canonical "YYYY-MM" form.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a period from its canonical form.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PeriodRange returns every month from start to end inclusive.
// An inverted range yields nil.
func PeriodRange(start, end Period) []Period {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	var out []Period
	for p := start; !p.After(end); p = p.Next() {
		out = append(out, p)
	}
	return out
}
