package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahead-health/dq-cli/internal/unitmaster"
)

func TestWriteGeoCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dq_unit_with_outliers.csv")
	rows := []unitmaster.GeoRow{
		{UnitID: "F001", UnitName: "Kiambu Clinic", PctReported: 75, PctMissing: 25,
			NOutliers: 2, Lat: -1.17, Lon: 36.83},
		{UnitID: "F002", UnitName: "Thika HC", PctReported: 100, NOutliers: 0,
			Lat: -1.03, Lon: 37.07},
	}
	require.NoError(t, WriteGeoCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, geoColumns, records[0])
	assert.Equal(t, []string{"F001", "Kiambu Clinic", "75.00", "25.00", "2", "-1.170000", "36.830000"}, records[1])
	assert.Equal(t, "F002", records[2][0])
}

func TestWriteGeoCSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteGeoCSV(path, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1) // header only
}

func TestWriteGeoCSV_BadPath(t *testing.T) {
	err := WriteGeoCSV(filepath.Join(t.TempDir(), "no-such-dir", "out.csv"), nil)
	assert.Error(t, err)
}
