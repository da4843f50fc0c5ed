// Package mask builds and combines the boolean pixel masks C3 vectorizes:
// the base land mask ("above water") and, per sea level, the flood mask
// that feeds the raster-to-polygon extractor.
//
// This is adapted from the teacher's alpha-mask compositing package: the
// same pixel-wise combination idiom (there: union of anti-aliased alpha
// channels) applies directly to boolean elevation masks, just without the
// grayscale intermediate values an image mask carries.
package mask

import "github.com/kantsteen/floodzone-pipeline/internal/raster"

// Mask is a boolean grid the same shape as the elevation tile it was
// derived from.
type Mask struct {
	Width, Height int
	bits          []bool
}

// New returns an all-false mask of the given dimensions.
func New(width, height int) *Mask {
	return &Mask{Width: width, Height: height, bits: make([]bool, width*height)}
}

// At reports whether (col, row) is set.
func (m *Mask) At(col, row int) bool {
	return m.bits[row*m.Width+col]
}

// Set assigns (col, row).
func (m *Mask) Set(col, row int, v bool) {
	m.bits[row*m.Width+col] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.bits {
		if v {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	for _, v := range m.bits {
		if v {
			return false
		}
	}
	return true
}

// AboveWater returns the base land mask: elevation >= waterThresholdM,
// excluding nodata pixels. This filters out existing sea pixels so that
// their expansion under rising water is never reported as newly flooded
// (spec behavior preserved deliberately — see DESIGN.md).
func AboveWater(g *raster.Grid, waterThresholdM float64) *Mask {
	out := New(g.Width, g.Height)
	threshold := float32(waterThresholdM)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v := g.At(col, row)
			if g.IsNoData(v) {
				continue
			}
			out.Set(col, row, v >= threshold)
		}
	}
	return out
}

// Flood computes aboveWater AND (elevation < seaLevelM): the set of
// currently-dry pixels that go under at this sea level.
func Flood(aboveWater *Mask, g *raster.Grid, seaLevelM float64) *Mask {
	out := New(g.Width, g.Height)
	level := float32(seaLevelM)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if !aboveWater.At(col, row) {
				continue
			}
			v := g.At(col, row)
			if g.IsNoData(v) {
				continue
			}
			out.Set(col, row, v < level)
		}
	}
	return out
}

// Union computes the pixel-wise OR of two same-shape masks, the combinator
// dissolve-mode aggregation uses to merge each polygon's rasterized mask
// into a batch's shared grid before revectorizing.
func Union(a, b *Mask) *Mask {
	out := New(a.Width, a.Height)
	for i := range out.bits {
		out.bits[i] = a.bits[i] || b.bits[i]
	}
	return out
}
