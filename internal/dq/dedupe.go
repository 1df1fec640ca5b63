package dq

import (
	"sort"

	"github.com/ahead-health/dq-cli/internal/model"
)

// ResolveResult is the output of duplicate resolution. DuplicatesRemoved and
// Rejected are reported metrics, not silent drops; Duplicates retains the
// losing records for the review workbook.
type ResolveResult struct {
	Records           []model.ResolvedRecord
	Duplicates        []model.RawRecord
	DuplicatesRemoved int
	Rejected          int
}

// Resolve collapses raw records sharing a (unit, indicator, period) key to a
// single resolved record. Within a key group the record with the greatest
// submitted_at wins; among records sharing that maximum, the last one in
// input order wins. The result is deterministic for a stable input ordering
// and never depends on map iteration order.
//
// Records missing a key field are rejected and counted. Resolution is a pure
// function of the input sequence; it is idempotent over its own output.
func Resolve(raw []model.RawRecord) ResolveResult {
	var res ResolveResult

	winners := make(map[model.CellKey]int, len(raw))
	for i, r := range raw {
		if !r.HasKey() {
			res.Rejected++
			continue
		}

		key := r.Key()
		prev, seen := winners[key]
		if !seen {
			winners[key] = i
			continue
		}

		res.DuplicatesRemoved++
		// Later record wins on a strictly newer or equal submitted_at
		// (last-seen wins ties).
		if !r.SubmittedAt.Before(raw[prev].SubmittedAt) {
			res.Duplicates = append(res.Duplicates, raw[prev])
			winners[key] = i
		} else {
			res.Duplicates = append(res.Duplicates, r)
		}
	}

	// Emit winners in input order of their surviving record, then sort by key
	// so downstream output is stable regardless of source ordering.
	res.Records = make([]model.ResolvedRecord, 0, len(winners))
	for _, idx := range winners {
		r := raw[idx]
		res.Records = append(res.Records, model.ResolvedRecord{
			UnitID:        r.UnitID,
			UnitName:      r.UnitName,
			IndicatorID:   r.IndicatorID,
			IndicatorName: r.IndicatorName,
			Period:        r.Period,
			ValueClean:    r.Value,
			SubmittedAt:   r.SubmittedAt,
		})
	}
	sortResolved(res.Records)

	return res
}

func sortResolved(records []model.ResolvedRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.UnitID != b.UnitID {
			return a.UnitID < b.UnitID
		}
		if a.IndicatorID != b.IndicatorID {
			return a.IndicatorID < b.IndicatorID
		}
		return a.Period.Before(b.Period)
	})
}
