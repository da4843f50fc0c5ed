// Package terrain builds smoothly varying synthetic elevation surfaces for
// tests. Real DEM fixtures are large binary GeoTIFFs and checking them in is
// undesirable; a Perlin-noise surface gives tests something closer to real
// terrain than a flat or hand-enumerated grid, without a checked-in fixture
// file, for exercising downsampling, masking, and monotonicity across many
// sea levels.
//
// Ported from the teacher's GeneratePerlinNoiseWithOffset
// (internal/mask/processor.go), which used the same generator to paint
// watercolor paper-grain texture; here the noise drives elevation in meters
// instead of an 8-bit alpha channel.
package terrain

import (
	"github.com/aquilax/go-perlin"
)

// Octaves mirror the teacher's alpha=2.0, beta=2.0, n=3 noise parameters.
const (
	alpha = 2.0
	beta  = 2.0
	n     = 3
)

// Elevation returns a width*height row-major float32 elevation grid (meters)
// centered on baselineM, varying by +/- amplitudeM, sampled from Perlin
// noise at the given scale (larger scale = smoother, lower-frequency
// terrain) and seed (for reproducible fixtures).
func Elevation(width, height int, scale, amplitudeM, baselineM float64, seed int64) []float32 {
	p := perlin.NewPerlin(alpha, beta, n, seed)

	out := make([]float32, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			nx := float64(col) / scale
			ny := float64(row) / scale
			val := p.Noise2D(nx, ny) // approximately [-1, 1]
			out[row*width+col] = float32(baselineM + val*amplitudeM)
		}
	}
	return out
}
