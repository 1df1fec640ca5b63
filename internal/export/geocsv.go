package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/unitmaster"
)

// geoColumns defines the ordered geo CSV output columns.
var geoColumns = []string{
	"unit_id",
	"unit_name",
	"pct_reported",
	"pct_missing",
	"n_outliers",
	"lat",
	"lon",
}

// WriteGeoCSV writes the per-unit map layer. Rows arrive pre-joined; units
// without coordinates were already dropped upstream.
func WriteGeoCSV(path string, rows []unitmaster.GeoRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create geo csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(geoColumns); err != nil {
		return eris.Wrap(err, "export: write geo header")
	}

	for _, r := range rows {
		record := []string{
			r.UnitID,
			r.UnitName,
			strconv.FormatFloat(r.PctReported, 'f', 2, 64),
			strconv.FormatFloat(r.PctMissing, 'f', 2, 64),
			strconv.Itoa(r.NOutliers),
			strconv.FormatFloat(r.Lat, 'f', 6, 64),
			strconv.FormatFloat(r.Lon, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "export: write geo row")
		}
	}

	zap.L().Info("wrote geo layer",
		zap.String("path", path),
		zap.Int("units", len(rows)),
	)
	return nil
}
