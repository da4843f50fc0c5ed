// Package extract implements the tile flood extractor (C3): reads one
// elevation tile, optionally downsamples it, and vectorizes the flood
// mask at every requested sea level, applying the early-exit and
// monotonicity shortcuts spec.md calls out.
package extract

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/kantsteen/floodzone-pipeline/internal/mask"
	"github.com/kantsteen/floodzone-pipeline/internal/raster"
	"github.com/kantsteen/floodzone-pipeline/internal/vectorize"
)

// Options bundles the tuning knobs extraction needs, independent of run
// configuration plumbing so the function is easy to unit test directly.
type Options struct {
	WaterThresholdM    float64
	SimplifyToleranceM float64
	MinPolygonAreaM2   float64
	DownsampleFactor   int
}

// Result is one tile's contribution to the pipeline: the polygons found
// at every sea level that produced geometry, plus the pixel count behind
// each level (a supplemental diagnostic surfaced in progress/logging).
type Result struct {
	TilePath    string
	Polygons    map[float64][]orb.Polygon
	PixelCounts map[float64]int
}

// FloodedLevels reports how many sea levels produced geometry for this tile.
func (r Result) FloodedLevels() int {
	return len(r.Polygons)
}

// TotalPixels sums the flooded pixel count recorded across every level, a
// diagnostic surfaced in per-tile progress logging.
func (r Result) TotalPixels() int {
	total := 0
	for _, n := range r.PixelCounts {
		total += n
	}
	return total
}

// Tile runs the full per-tile extraction pipeline against tilePath for
// every sea level in seaLevelsM (must be ascending).
func Tile(tilePath string, seaLevelsM []float64, opts Options) (Result, error) {
	result := Result{
		TilePath:    tilePath,
		Polygons:    map[float64][]orb.Polygon{},
		PixelCounts: map[float64]int{},
	}

	grid, err := raster.ReadGrid(tilePath)
	if err != nil {
		return result, fmt.Errorf("read tile %s: %w", tilePath, err)
	}

	factor := opts.DownsampleFactor
	if factor > 1 {
		grid, err = raster.Downsample(grid, factor)
		if err != nil {
			return result, fmt.Errorf("downsample tile %s: %w", tilePath, err)
		}
	}

	minElev, maxElev, ok := grid.MinMax()
	if !ok || float64(maxElev) < opts.WaterThresholdM {
		return result, nil
	}

	above := mask.AboveWater(grid, opts.WaterThresholdM)

	var lastPolys []orb.Polygon
	havePrev := false

	for _, level := range seaLevelsM {
		if float64(minElev) >= level {
			continue
		}
		if float64(maxElev) < level {
			// The tile's highest point is already under this sea level, so
			// the flood mask equals the full above-water mask. If an earlier
			// level already produced geometry, its polygons are reused as-is
			// (monotonicity shortcut); they are not recomputed, so when that
			// earlier level was only partly flooded the reused polygons cover
			// less than the full above-water mask. Only when no earlier level
			// produced geometry is the above-water mask vectorized here.
			if havePrev {
				result.Polygons[level] = lastPolys
				continue
			}
			kept := vectorizeAndFilter(above, grid.Transform, opts)
			if len(kept) == 0 {
				continue
			}
			result.Polygons[level] = kept
			result.PixelCounts[level] = above.Count()
			lastPolys = kept
			havePrev = true
			continue
		}

		flood := mask.Flood(above, grid, level)
		if flood.Empty() {
			continue
		}

		kept := vectorizeAndFilter(flood, grid.Transform, opts)
		if len(kept) == 0 {
			continue
		}

		result.Polygons[level] = kept
		result.PixelCounts[level] = flood.Count()
		lastPolys = kept
		havePrev = true
	}

	return result, nil
}

// vectorizeAndFilter traces m's polygons, drops anything under the
// configured minimum area, and simplifies the survivors.
func vectorizeAndFilter(m *mask.Mask, transform raster.Affine, opts Options) []orb.Polygon {
	raw := vectorize.Extract(m, transform)
	kept := make([]orb.Polygon, 0, len(raw))
	for _, poly := range raw {
		if vectorize.PolygonArea(poly) < opts.MinPolygonAreaM2 {
			continue
		}
		kept = append(kept, vectorize.Simplify(poly, opts.SimplifyToleranceM))
	}
	return kept
}
