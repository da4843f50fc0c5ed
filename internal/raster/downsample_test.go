package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsample_Averages(t *testing.T) {
	g := &Grid{
		Width: 4, Height: 4,
		Transform: Affine{A: 1, E: -1, C: 100, F: 200},
		Data: []float32{
			1, 2, 3, 4,
			5, 6, 7, 8,
			9, 10, 11, 12,
			13, 14, 15, 16,
		},
	}

	out, err := Downsample(g, 2)
	require.NoError(t, err)
	require.Equal(t, 2, out.Width)
	require.Equal(t, 2, out.Height)

	assert.Equal(t, float32(3.5), out.At(0, 0))  // avg(1,2,5,6)
	assert.Equal(t, float32(5.5), out.At(1, 0))  // avg(3,4,7,8)
	assert.Equal(t, float32(11.5), out.At(0, 1)) // avg(9,10,13,14)
	assert.Equal(t, float32(13.5), out.At(1, 1)) // avg(11,12,15,16)

	assert.Equal(t, 2.0, out.Transform.A)
	assert.Equal(t, -2.0, out.Transform.E)
	x, y := out.Transform.ToProjected(0, 0)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 200.0, y)
}

func TestDownsample_FactorOne(t *testing.T) {
	g := &Grid{Width: 2, Height: 2, Data: []float32{1, 2, 3, 4}}
	out, err := Downsample(g, 1)
	require.NoError(t, err)
	assert.Same(t, g, out)
}

func TestDownsample_UnevenDimensions(t *testing.T) {
	g := &Grid{
		Width: 3, Height: 3,
		Data: []float32{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		},
	}
	out, err := Downsample(g, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, float32(3), out.At(0, 0))   // avg(1,2,4,5)
	assert.Equal(t, float32(4.5), out.At(1, 0)) // avg(3,6) - partial block, one column remains
	assert.Equal(t, float32(7.5), out.At(0, 1)) // avg(7,8)
	assert.Equal(t, float32(9), out.At(1, 1))   // single-pixel remainder block
}

func TestDownsample_SkipsNoDataInAverage(t *testing.T) {
	nodata := float32(-9999)
	g := &Grid{
		Width: 2, Height: 2,
		Data:   []float32{10, -9999, 20, -9999},
		NoData: &nodata,
	}
	out, err := Downsample(g, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(15), out.At(0, 0)) // avg(10,20), nodata pixels excluded
}

func TestDownsample_AllNoDataBlockStaysNoData(t *testing.T) {
	nodata := float32(-9999)
	g := &Grid{
		Width: 2, Height: 2,
		Data:   []float32{-9999, -9999, -9999, -9999},
		NoData: &nodata,
	}
	out, err := Downsample(g, 2)
	require.NoError(t, err)
	assert.True(t, out.IsNoData(out.At(0, 0)))
}
