// Package aggregate implements the sea-level aggregator (C4): it takes
// every tile-local polygon extracted for one sea level, drops anything
// under the minimum area, reprojects survivors into geographic
// coordinates, and hands the result to the output writer.
package aggregate

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/kantsteen/floodzone-pipeline/internal/geo"
	"github.com/kantsteen/floodzone-pipeline/internal/geojson"
	"github.com/kantsteen/floodzone-pipeline/internal/vectorize"
)

// Summary reports what happened while aggregating one sea level, used for
// progress reporting by the driver.
type Summary struct {
	SeaLevelM    float64
	PolysIn      int
	FeatsOut     int
	SkippedSmall int
	BytesWritten int64
}

// Level aggregates and writes one sea level's polygons. polygons are in
// the tile's projected CRS (UTM meters); projection converts them to
// WGS84 for the emitted GeoJSON.
func Level(outputDir string, seaLevelM float64, roundedCm int, polygons []orb.Polygon, minPolyAreaM2 float64, regionName string, projection geo.UTM) (Summary, error) {
	summary := Summary{SeaLevelM: seaLevelM, PolysIn: len(polygons)}

	features := make([]geojson.FloodFeature, 0, len(polygons))
	for _, poly := range polygons {
		if vectorize.PolygonArea(poly) < minPolyAreaM2 {
			summary.SkippedSmall++
			continue
		}

		reprojected := reproject(poly, projection)
		features = append(features, geojson.FloodFeature{
			Geometry:      reprojected,
			RegionName:    regionName,
			SeaLevelRiseM: seaLevelM,
		})
	}
	summary.FeatsOut = len(features)

	written, err := geojson.WriteLevel(outputDir, roundedCm, features)
	if err != nil {
		return summary, fmt.Errorf("aggregate level %dcm: %w", roundedCm, err)
	}
	summary.BytesWritten = written

	return summary, nil
}

// reproject converts every ring of p from the source projected CRS to
// WGS84 longitude/latitude, rounding to 6 fractional digits.
func reproject(p orb.Polygon, projection geo.UTM) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		newRing := make(orb.Ring, len(ring))
		for j, pt := range ring {
			lon, lat := projection.ToLonLat(pt[0], pt[1])
			newRing[j] = orb.Point{geo.Round6(lon), geo.Round6(lat)}
		}
		out[i] = newRing
	}
	return out
}
