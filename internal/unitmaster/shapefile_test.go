package unitmaster

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePointShapefile builds a small point-layer unit master on disk.
func writePointShapefile(t *testing.T, rows []Unit) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "units.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("unit_code", 25),
		shp.StringField("unit_name", 50),
	})

	for n, u := range rows {
		w.Write(&shp.Point{X: u.Lon, Y: u.Lat})
		w.WriteAttribute(n, 0, u.ID)
		w.WriteAttribute(n, 1, u.Name)
	}
	w.Close()
	return path
}

func TestLoadUnits(t *testing.T) {
	path := writePointShapefile(t, []Unit{
		{ID: "F001", Name: "Kiambu Clinic", Lon: 36.83, Lat: -1.17},
		{ID: "F002", Name: "Thika HC", Lon: 37.07, Lat: -1.03},
	})

	units, err := LoadUnits(path, "unit_code", "unit_name")
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "F001", units[0].ID)
	assert.Equal(t, "Kiambu Clinic", units[0].Name)
	assert.True(t, units[0].HasCoords)
	assert.InDelta(t, 36.83, units[0].Lon, 1e-6)
	assert.InDelta(t, -1.17, units[0].Lat, 1e-6)
}

func TestLoadUnits_SkipsRowsWithoutCode(t *testing.T) {
	path := writePointShapefile(t, []Unit{
		{ID: "F001", Name: "Kiambu Clinic", Lon: 36.83, Lat: -1.17},
		{ID: "", Name: "Nameless", Lon: 37.0, Lat: -1.0},
	})

	units, err := LoadUnits(path, "unit_code", "unit_name")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "F001", units[0].ID)
}

func TestLoadUnits_MissingCodeField(t *testing.T) {
	path := writePointShapefile(t, []Unit{
		{ID: "F001", Name: "Kiambu Clinic", Lon: 36.83, Lat: -1.17},
	})

	_, err := LoadUnits(path, "facility_id", "unit_name")
	assert.Error(t, err)
}

func TestLoadUnits_MissingFile(t *testing.T) {
	_, err := LoadUnits(filepath.Join(t.TempDir(), "nope.shp"), "unit_code", "unit_name")
	assert.Error(t, err)
}
