package unitmaster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahead-health/dq-cli/internal/model"
)

func unitSummary(key, name string, pctReported float64) model.CompletenessSummary {
	return model.CompletenessSummary{
		Level:       model.SummaryByUnit,
		Key:         key,
		Name:        name,
		PctReported: pctReported,
		PctMissing:  100 - pctReported,
		Applicable:  true,
	}
}

func TestJoinGeo(t *testing.T) {
	units := []Unit{
		{ID: "F001", Name: "Kiambu Clinic", Lat: -1.17, Lon: 36.83, HasCoords: true},
		{ID: "F002", Name: "Thika HC", Lat: -1.03, Lon: 37.07, HasCoords: true},
	}
	summaries := []model.CompletenessSummary{
		unitSummary("F002", "Thika HC", 50),
		unitSummary("F001", "Kiambu Clinic", 75),
	}
	flags := []model.OutlierFlag{
		{UnitID: "F001", IndicatorID: "anc1", Period: model.Period{Year: 2024, Month: time.March}, IsOutlier: true},
		{UnitID: "F001", IndicatorID: "anc1", Period: model.Period{Year: 2024, Month: time.April}, IsOutlier: false},
		{UnitID: "F002", IndicatorID: "anc1", Period: model.Period{Year: 2024, Month: time.March}, IsOutlier: true},
		{UnitID: "F002", IndicatorID: "penta3", Period: model.Period{Year: 2024, Month: time.March}, IsOutlier: true},
	}

	rows := JoinGeo(units, summaries, flags)
	require.Len(t, rows, 2)

	// Sorted by unit id regardless of summary order.
	assert.Equal(t, "F001", rows[0].UnitID)
	assert.Equal(t, 75.0, rows[0].PctReported)
	assert.Equal(t, 1, rows[0].NOutliers)
	assert.InDelta(t, -1.17, rows[0].Lat, 1e-9)

	assert.Equal(t, "F002", rows[1].UnitID)
	assert.Equal(t, 2, rows[1].NOutliers)
}

func TestJoinGeo_DropsUnitsWithoutCoordinates(t *testing.T) {
	units := []Unit{
		{ID: "F001", Name: "Kiambu Clinic", Lat: -1.17, Lon: 36.83, HasCoords: true},
		{ID: "F003", Name: "Mobile Outreach"}, // no coordinates in master
	}
	summaries := []model.CompletenessSummary{
		unitSummary("F001", "Kiambu Clinic", 80),
		unitSummary("F003", "Mobile Outreach", 60),
		unitSummary("F999", "Not In Master", 40),
	}

	rows := JoinGeo(units, summaries, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "F001", rows[0].UnitID)
}

func TestJoinGeo_IgnoresIndicatorSummaries(t *testing.T) {
	units := []Unit{{ID: "anc1", HasCoords: true}}
	summaries := []model.CompletenessSummary{
		{Level: model.SummaryByIndicator, Key: "anc1", PctReported: 50},
	}

	rows := JoinGeo(units, summaries, nil)
	assert.Empty(t, rows)
}

func TestJoinGeo_NameFallsBackToMaster(t *testing.T) {
	units := []Unit{{ID: "F001", Name: "Kiambu Clinic", HasCoords: true}}
	summaries := []model.CompletenessSummary{unitSummary("F001", "", 100)}

	rows := JoinGeo(units, summaries, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kiambu Clinic", rows[0].UnitName)
}
