package unitmaster

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
)

// GeoRow is one unit's quality result joined to its coordinates, ready for
// the map layer export.
type GeoRow struct {
	UnitID      string  `json:"unit_id"`
	UnitName    string  `json:"unit_name"`
	PctReported float64 `json:"pct_reported"`
	PctMissing  float64 `json:"pct_missing"`
	NOutliers   int     `json:"n_outliers"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// JoinGeo matches per-unit completeness and outlier counts against the unit
// master. Units without coordinates are dropped from the geo layer only; the
// tabular outputs retain them. Returns rows sorted by unit id.
func JoinGeo(units []Unit, completeness []model.CompletenessSummary, flags []model.OutlierFlag) []GeoRow {
	byID := make(map[string]Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}

	outliers := make(map[string]int)
	for _, f := range flags {
		if f.IsOutlier {
			outliers[f.UnitID]++
		}
	}

	var rows []GeoRow
	var unmatched, noCoords int
	for _, s := range completeness {
		if s.Level != model.SummaryByUnit {
			continue
		}
		u, ok := byID[s.Key]
		if !ok {
			unmatched++
			continue
		}
		if !u.HasCoords {
			noCoords++
			continue
		}

		name := s.Name
		if name == "" {
			name = u.Name
		}
		rows = append(rows, GeoRow{
			UnitID:      s.Key,
			UnitName:    name,
			PctReported: s.PctReported,
			PctMissing:  s.PctMissing,
			NOutliers:   outliers[s.Key],
			Lat:         u.Lat,
			Lon:         u.Lon,
		})
	}

	if unmatched > 0 || noCoords > 0 {
		zap.L().Warn("units missing from geo layer",
			zap.Int("not_in_master", unmatched),
			zap.Int("no_coordinates", noCoords),
		)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].UnitID < rows[j].UnitID })
	return rows
}
