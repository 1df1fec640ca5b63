package unitmaster

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// Centroid reduces a shapefile geometry to a single lon/lat. Point layers
// pass through; lines and polygons are converted to go-geom types and
// averaged with the xy centroid routines. Returns ok=false for nil or
// unsupported shapes.
func Centroid(shape shp.Shape) (lon, lat float64, ok bool) {
	switch s := shape.(type) {
	case *shp.Point:
		return s.X, s.Y, true

	case *shp.PointZ:
		return s.X, s.Y, true

	case *shp.PolyLine:
		lines := polyLineToLineStrings(s)
		if len(lines) == 0 {
			return 0, 0, false
		}
		c := xy.LinesCentroid(lines[0], lines[1:]...)
		return c[0], c[1], true

	case *shp.Polygon:
		polys := polygonToPolygons((*shp.PolyLine)(s))
		if len(polys) == 0 {
			return 0, 0, false
		}
		c := xy.PolygonsCentroid(polys[0], polys[1:]...)
		return c[0], c[1], true

	default:
		return 0, 0, false
	}
}

// polyLineToLineStrings converts a shapefile PolyLine's parts to LineStrings.
func polyLineToLineStrings(pl *shp.PolyLine) []*geom.LineString {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	var lines []*geom.LineString
	for i := int32(0); i < pl.NumParts; i++ {
		start, end := partRange(pl.Parts, i, pl.NumParts, len(pl.Points))
		if end-start < 2 {
			continue
		}
		lines = append(lines, geom.NewLineStringFlat(geom.XY, flatPoints(pl.Points[start:end])).SetSRID(4326))
	}
	return lines
}

// polygonToPolygons converts each ring of a shapefile Polygon to its own
// go-geom Polygon. Ring nesting is not reconstructed; the area-weighted
// centroid is unaffected for the admin boundaries we load.
func polygonToPolygons(pl *shp.PolyLine) []*geom.Polygon {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	for i := int32(0); i < pl.NumParts; i++ {
		start, end := partRange(pl.Parts, i, pl.NumParts, len(pl.Points))
		if end-start < 4 {
			continue
		}

		ring := geom.NewLinearRingFlat(geom.XY, flatPoints(pl.Points[start:end]))
		poly := geom.NewPolygon(geom.XY).SetSRID(4326)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("unitmaster: skipping malformed polygon ring",
				zap.Int32("part", i),
				zap.Error(err),
			)
			continue
		}
		polys = append(polys, poly)
	}
	return polys
}

func partRange(parts []int32, i, numParts int32, numPoints int) (int32, int32) {
	start := parts[i]
	if i+1 < numParts {
		return start, parts[i+1]
	}
	return start, int32(numPoints)
}

// flatPoints converts shapefile points to flat coordinate pairs for go-geom.
func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
