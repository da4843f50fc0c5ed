// Package geo reprojects tile-local UTM coordinates into WGS84 longitude
// and latitude for GeoJSON output.
//
// No projection library appears anywhere in the retrieval pack (orb ships
// geometry types and encodings but no CRS transform machinery), so this
// hand-rolls the inverse transverse Mercator series the same way the
// sibling example pspoerri-geotiff2pmtiles hand-rolls its Mercator/Swiss
// grid conversions in internal/coord — a closed-form implementation is
// preferable here to pulling in a cgo PROJ binding for a single,
// fixed-zone transform.
package geo

import "math"

// WGS84 ellipsoid constants.
const (
	wgs84A = 6378137.0         // semi-major axis, meters
	wgs84F = 1 / 298.257223563 // flattening
)

// UTM holds the parameters of a single UTM zone/hemisphere for inverse
// projection to geographic coordinates.
type UTM struct {
	ZoneNumber int
	Northern   bool
}

// Zone32N is EPSG:25832, ETRS89 / UTM zone 32N — the source CRS every
// elevation tile in this pipeline is delivered in.
var Zone32N = UTM{ZoneNumber: 32, Northern: true}

const (
	utmScale      = 0.9996
	utmFalseEast  = 500000.0
	utmFalseNorth = 0.0 // northern hemisphere; southern would use 10,000,000
)

// ToLonLat converts a projected UTM easting/northing (meters) to WGS84
// longitude/latitude (decimal degrees), using the standard Karney/Krüger
// inverse series truncated to the terms needed for sub-centimeter accuracy
// well within a UTM zone.
func (z UTM) ToLonLat(easting, northing float64) (lon, lat float64) {
	a := wgs84A
	f := wgs84F
	n := f / (2 - f)

	northingAdj := northing
	if !z.Northern {
		northingAdj -= 10000000.0
	}

	A := a / (1 + n) * (1 + n*n/4 + n*n*n*n/64)

	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n

	beta := []float64{
		0,
		n/2 - 2*n2/3 + 37*n3/96 - n4/360,
		n2/48 + n3/15 - 437*n4/1440,
		17*n3/480 - 37*n4/840,
		4397 * n4 / 161280,
	}
	delta := []float64{
		0,
		2*n - 2*n2/3 - 2*n3 + 116*n4/45,
		7*n2/3 - 8*n3/5 - 227*n4/45,
		56*n3/15 - 136*n4/35,
		4279 * n4 / 630,
	}

	xi := northingAdj / (utmScale * A)
	eta := (easting - utmFalseEast) / (utmScale * A)

	xiPrime := xi
	etaPrime := eta
	for j := 1; j <= 4; j++ {
		xiPrime -= beta[j] * math.Sin(2*float64(j)*xi) * math.Cosh(2*float64(j)*eta)
		etaPrime -= beta[j] * math.Cos(2*float64(j)*xi) * math.Sinh(2*float64(j)*eta)
	}

	chi := math.Asin(math.Sin(xiPrime) / math.Cosh(etaPrime))

	latRad := chi
	for j := 1; j <= 4; j++ {
		latRad += delta[j] * math.Sin(2*float64(j)*chi)
	}

	lonOriginRad := (float64(z.ZoneNumber)*6 - 183) * math.Pi / 180
	lonRad := lonOriginRad + math.Atan2(math.Sinh(etaPrime), math.Cos(xiPrime))

	return lonRad * 180 / math.Pi, latRad * 180 / math.Pi
}

// Round6 rounds a decimal-degree coordinate to 6 fractional digits, the
// precision every emitted geographic feature uses.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
