package raster

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldSpec describes one IFD entry for the synthetic-TIFF builder below.
// Only the data types this package actually parses are supported.
type fieldSpec struct {
	tag      uint16
	dataType uint16
	ints     []uint32
	floats   []float64
	ascii    string
}

// buildTIFF assembles a minimal little-endian classic TIFF with a single
// strip, for round-tripping through decodeGrid without needing a real
// elevation export on disk.
func buildTIFF(t *testing.T, fields []fieldSpec, stripData []byte) []byte {
	t.Helper()
	order := binary.LittleEndian

	typeSizes := map[uint16]int{dtShort: 2, dtLong: 4, dtDouble: 8, dtASCII: 1}

	var overflow bytes.Buffer
	type resolved struct {
		spec   fieldSpec
		offset uint32 // into overflow, valid only if needsOverflow
		inline bool
	}
	resolveds := make([]resolved, len(fields))

	ifdSize := 2 + 12*len(fields) + 4
	baseOverflow := uint32(8 + ifdSize)

	for i, f := range fields {
		size := typeSizes[f.dataType]
		count := fieldCount(f)
		total := size * count
		r := resolved{spec: f}
		if total <= 4 {
			r.inline = true
		} else {
			r.offset = baseOverflow + uint32(overflow.Len())
			writeFieldValues(&overflow, order, f)
			if overflow.Len()%2 == 1 {
				overflow.WriteByte(0)
			}
		}
		resolveds[i] = r
	}

	pixelDataOffset := baseOverflow + uint32(overflow.Len())

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(8))

	binary.Write(&buf, order, uint16(len(fields)))
	for _, r := range resolveds {
		f := r.spec
		binary.Write(&buf, order, f.tag)
		binary.Write(&buf, order, f.dataType)
		binary.Write(&buf, order, uint32(fieldCount(f)))

		valueField := make([]byte, 4)
		switch {
		case f.tag == tagStripOffsets:
			order.PutUint32(valueField, pixelDataOffset)
		case r.inline:
			var inlineBuf bytes.Buffer
			writeFieldValues(&inlineBuf, order, f)
			copy(valueField, inlineBuf.Bytes())
		default:
			order.PutUint32(valueField, r.offset)
		}
		buf.Write(valueField)
	}
	binary.Write(&buf, order, uint32(0)) // next IFD offset

	buf.Write(overflow.Bytes())
	require.Equal(t, int(pixelDataOffset), buf.Len(), "pixel data offset mismatch")
	buf.Write(stripData)

	return buf.Bytes()
}

func fieldCount(f fieldSpec) int {
	switch f.dataType {
	case dtASCII:
		return len(f.ascii) + 1
	case dtDouble:
		return len(f.floats)
	default:
		return len(f.ints)
	}
}

func writeFieldValues(buf *bytes.Buffer, order binary.ByteOrder, f fieldSpec) {
	switch f.dataType {
	case dtShort:
		for _, v := range f.ints {
			binary.Write(buf, order, uint16(v))
		}
	case dtLong:
		for _, v := range f.ints {
			binary.Write(buf, order, uint32(v))
		}
	case dtDouble:
		for _, v := range f.floats {
			binary.Write(buf, order, math.Float64bits(v))
		}
	case dtASCII:
		buf.WriteString(f.ascii)
		buf.WriteByte(0)
	}
}

func float32Bytes(vs ...float32) []byte {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func baseFields(width, height uint32, compression uint32) []fieldSpec {
	return []fieldSpec{
		{tag: tagImageWidth, dataType: dtShort, ints: []uint32{width}},
		{tag: tagImageLength, dataType: dtShort, ints: []uint32{height}},
		{tag: tagBitsPerSample, dataType: dtShort, ints: []uint32{32}},
		{tag: tagCompression, dataType: dtShort, ints: []uint32{compression}},
		{tag: tagStripOffsets, dataType: dtLong, ints: []uint32{0}}, // patched by builder
		{tag: tagSamplesPerPixel, dataType: dtShort, ints: []uint32{1}},
		{tag: tagRowsPerStrip, dataType: dtShort, ints: []uint32{height}},
		{tag: tagStripByteCounts, dataType: dtLong, ints: []uint32{width * height * 4}},
		{tag: tagSampleFormat, dataType: dtShort, ints: []uint32{3}},
		{tag: tagModelPixelScaleTag, dataType: dtDouble, floats: []float64{1, 1, 0}},
		{tag: tagModelTiepointTag, dataType: dtDouble, floats: []float64{0, 0, 0, 500000, 6000000, 0}},
	}
}

func TestReadGrid_Uncompressed(t *testing.T) {
	pixels := float32Bytes(10, 20, 30, 40)
	data := buildTIFF(t, baseFields(2, 2, compressionNone), pixels)

	path := filepath.Join(t.TempDir(), "tile.tif")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	grid, err := ReadGrid(path)
	require.NoError(t, err)

	assert.Equal(t, 2, grid.Width)
	assert.Equal(t, 2, grid.Height)
	assert.Equal(t, []float32{10, 20, 30, 40}, grid.Data)
	assert.Equal(t, float32(10), grid.At(0, 0))
	assert.Equal(t, float32(40), grid.At(1, 1))

	x, y := grid.Transform.ToProjected(0, 0)
	assert.Equal(t, 500000.0, x)
	assert.Equal(t, 6000000.0, y)
	x, y = grid.Transform.ToProjected(2, 2)
	assert.Equal(t, 500002.0, x)
	assert.Equal(t, 5999998.0, y, "row axis must flip: y decreases as row increases")

	min, max, ok := grid.MinMax()
	require.True(t, ok)
	assert.Equal(t, float32(10), min)
	assert.Equal(t, float32(40), max)
}

func TestReadGrid_Deflate(t *testing.T) {
	pixels := float32Bytes(1, 2, 3, 4)
	var compressed bytes.Buffer
	w, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(pixels)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	fields := baseFields(2, 2, compressionDeflate1)
	for i := range fields {
		if fields[i].tag == tagStripByteCounts {
			fields[i].ints = []uint32{uint32(compressed.Len())}
		}
	}
	data := buildTIFF(t, fields, compressed.Bytes())

	path := filepath.Join(t.TempDir(), "tile.tif")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	grid, err := ReadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, grid.Data)
}

func TestReadGrid_NoData(t *testing.T) {
	pixels := float32Bytes(-9999, 2, 3, 4)
	fields := append(baseFields(2, 2, compressionNone), fieldSpec{
		tag: tagGDALNoData, dataType: dtASCII, ascii: "-9999",
	})
	data := buildTIFF(t, fields, pixels)

	path := filepath.Join(t.TempDir(), "tile.tif")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	grid, err := ReadGrid(path)
	require.NoError(t, err)
	require.NotNil(t, grid.NoData)
	assert.True(t, grid.IsNoData(grid.At(0, 0)))
	assert.False(t, grid.IsNoData(grid.At(1, 0)))

	min, max, ok := grid.MinMax()
	require.True(t, ok)
	assert.Equal(t, float32(2), min)
	assert.Equal(t, float32(4), max)
}

func TestReadGrid_TiledUnsupported(t *testing.T) {
	fields := []fieldSpec{
		{tag: tagImageWidth, dataType: dtShort, ints: []uint32{2}},
		{tag: tagImageLength, dataType: dtShort, ints: []uint32{2}},
		{tag: tagBitsPerSample, dataType: dtShort, ints: []uint32{32}},
		{tag: tagSampleFormat, dataType: dtShort, ints: []uint32{3}},
		{tag: tagModelPixelScaleTag, dataType: dtDouble, floats: []float64{1, 1, 0}},
		{tag: tagModelTiepointTag, dataType: dtDouble, floats: []float64{0, 0, 0, 0, 0, 0}},
	}
	data := buildTIFF(t, fields, nil)

	path := filepath.Join(t.TempDir(), "tile.tif")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := ReadGrid(path)
	require.Error(t, err)
}
