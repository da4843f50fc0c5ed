package raster

import "fmt"

// Downsample reduces g by averaging factor x factor pixel blocks, matching
// spec.md §4.3 step 1: elevations are area-averaged (not point-sampled) so
// that sub-tile terrain variation still influences the flood boundary at
// coarse resolutions. A block containing only nodata pixels stays nodata;
// a partially-nodata block averages over its valid pixels only.
//
// The affine transform is rescaled so pixel (0,0)'s top-left corner still
// maps to the same projected point — only the pixel size changes — which
// holds for the axis-aligned (no rotation/shear) rasters this pipeline
// supports.
func Downsample(g *Grid, factor int) (*Grid, error) {
	if factor <= 1 {
		return g, nil
	}
	if g.Width == 0 || g.Height == 0 {
		return nil, fmt.Errorf("cannot downsample an empty grid")
	}

	outW := ceilDiv(g.Width, factor)
	outH := ceilDiv(g.Height, factor)
	out := make([]float32, outW*outH)

	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			var sum float32
			var n int
			y0 := oy * factor
			x0 := ox * factor
			y1 := min(y0+factor, g.Height)
			x1 := min(x0+factor, g.Width)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					v := g.At(x, y)
					if g.IsNoData(v) {
						continue
					}
					sum += v
					n++
				}
			}
			idx := oy*outW + ox
			if n == 0 {
				if g.NoData != nil {
					out[idx] = *g.NoData
				}
				continue
			}
			out[idx] = sum / float32(n)
		}
	}

	transform := g.Transform
	transform.A *= float64(factor)
	transform.E *= float64(factor)
	transform.B *= float64(factor)
	transform.D *= float64(factor)

	return &Grid{
		Width:     outW,
		Height:    outH,
		Transform: transform,
		Data:      out,
		NoData:    g.NoData,
	}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
