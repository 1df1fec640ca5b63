// Package unitmaster loads the health unit master list from an administrative
// boundary shapefile and joins unit coordinates to quality results.
package unitmaster

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Unit is one entry of the unit master list. Lat/Lon are the centroid of the
// unit's boundary, or the point itself for point layers.
type Unit struct {
	ID        string
	Name      string
	Lat       float64
	Lon       float64
	HasCoords bool
}

// LoadUnits reads the unit master shapefile. codeField and nameField name the
// attribute columns holding the unit code and display name; matching is
// case-insensitive. Units whose geometry cannot be reduced to a centroid are
// kept without coordinates so tabular outputs still include them.
func LoadUnits(shpPath, codeField, nameField string) ([]Unit, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "unitmaster: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	codeIdx, ok := fieldIdx[strings.ToLower(codeField)]
	if !ok {
		return nil, eris.Errorf("unitmaster: shapefile has no %q attribute", codeField)
	}
	nameIdx, hasName := fieldIdx[strings.ToLower(nameField)]

	attr := func(idx int) string {
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var units []Unit
	var skipped, noCoords int

	for reader.Next() {
		_, shape := reader.Shape()

		u := Unit{ID: attr(codeIdx)}
		if u.ID == "" {
			skipped++
			continue
		}
		if hasName {
			u.Name = attr(nameIdx)
		}

		if lon, lat, ok := Centroid(shape); ok {
			u.Lon = lon
			u.Lat = lat
			u.HasCoords = true
		} else {
			noCoords++
		}

		units = append(units, u)
	}

	if skipped > 0 || noCoords > 0 {
		zap.L().Debug("unitmaster: shapefile anomalies",
			zap.Int("skipped_no_code", skipped),
			zap.Int("no_coordinates", noCoords),
		)
	}

	zap.L().Info("loaded unit master",
		zap.String("path", shpPath),
		zap.Int("units", len(units)),
	)
	return units, nil
}
