package lutdecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vaelin/lutmark/pkg/colorcube"
)

var le = binary.LittleEndian

// binLayout describes where and how samples sit in a raw binary LUT.
type binLayout struct {
	size     int
	offset   int  // first sample byte
	channels int  // 3 or 4 (4th byte ignored in byte mode)
	float32s bool // 12-byte little-endian float triples instead of bytes
	bgr      bool // channels 0 and 2 swapped in storage
}

// Known byte-exact file sizes for headerless vendor dumps. Several camera
// bundles ship these with no header at all.
var headerlessSizes = map[int]struct {
	size     int
	channels int
}{
	16384:  {16, 4},
	131072: {32, 4},
	98304:  {32, 3},
	12288:  {16, 3},
}

var (
	magicLUT3  = []byte("LUT3")
	magicMSLUT = []byte(".MS-LUT ")
)

// parseBinary decodes a raw binary LUT. Detection runs in priority order:
// the "LUT3" vendor header, the ".MS-LUT " header, then headerless
// heuristics over the remaining payload.
func parseBinary(data []byte) (*colorcube.Cube, error) {
	layout, err := detectBinaryLayout(data)
	if err != nil {
		return nil, err
	}
	layout.bgr = detectBGR(data, layout)
	return readBinarySamples(data, layout)
}

func detectBinaryLayout(data []byte) (binLayout, error) {
	if len(data) >= 12 && bytes.Equal(data[:4], magicLUT3) {
		size := int(le.Uint32(data[4:8]))
		entries := int(le.Uint32(data[8:12]))
		if size >= 2 && entries == size*size*size {
			return binLayout{size: size, offset: 12, channels: 3}, nil
		}
		// Header lied about the entry count; the payload still starts at 12.
		return detectHeaderless(data, 12)
	}

	if len(data) >= 0x2C && bytes.Equal(data[:8], magicMSLUT) {
		if layout, ok := detectMSLUT(data); ok {
			return layout, nil
		}
		return detectHeaderless(data, 0)
	}

	return detectHeaderless(data, 0)
}

// detectMSLUT interprets the ".MS-LUT " header: size at 0x0C, data offset at
// 0x28, an optional format-hint byte at 0x10 forcing float samples. An
// internally inconsistent header falls through to the headerless heuristics.
func detectMSLUT(data []byte) (binLayout, bool) {
	size := int(le.Uint32(data[0x0C:0x10]))
	dataOffset := int(le.Uint32(data[0x28:0x2C]))
	if size < 8 || size > 128 || dataOffset < 48 || dataOffset > 4096 {
		return binLayout{}, false
	}
	if dataOffset > len(data) {
		return binLayout{}, false
	}

	entries := size * size * size
	perSample := (len(data) - dataOffset) / entries

	layout := binLayout{size: size, offset: dataOffset}
	switch perSample {
	case 12:
		layout.float32s = true
		layout.channels = 3
	case 4:
		layout.channels = 4
	default:
		layout.channels = 3
	}
	if data[0x10] == 1 {
		layout.float32s = true
		layout.channels = 3
	}
	return layout, true
}

// detectHeaderless infers the layout of a LUT with no usable header. Float
// triples are tried first, then the table of known byte-exact sizes, then a
// cube-root solve assuming 4 channels, then 3.
func detectHeaderless(data []byte, offset int) (binLayout, error) {
	payload := len(data) - offset
	if payload <= 0 {
		return binLayout{}, fmt.Errorf("%w: %d payload bytes", ErrTruncatedData, payload)
	}

	if payload%12 == 0 {
		if n := exactCubeRoot(payload / 12); n > 0 {
			return binLayout{size: n, offset: offset, channels: 3, float32s: true}, nil
		}
	}

	if known, ok := headerlessSizes[payload]; ok {
		return binLayout{size: known.size, offset: offset, channels: known.channels}, nil
	}

	for _, channels := range []int{4, 3} {
		if payload%channels != 0 {
			continue
		}
		if n := exactCubeRoot(payload / channels); n > 0 {
			return binLayout{size: n, offset: offset, channels: channels}, nil
		}
	}

	return binLayout{}, fmt.Errorf("%w: %d bytes match no known binary LUT shape", ErrSizeMismatch, payload)
}

// exactCubeRoot returns n when entries == n³ exactly, else 0.
func exactCubeRoot(entries int) int {
	n := int(math.Round(math.Cbrt(float64(entries))))
	if n >= 2 && n*n*n == entries {
		return n
	}
	return 0
}

// detectBGR decides whether samples are stored blue-first. In a correctly
// ordered file the red index varies fastest, so across the first few entries
// only channel 0 should ramp; a ramp showing up in channel 2 instead means
// the storage order is BGR and channels 0/2 must be swapped on read.
func detectBGR(data []byte, layout binLayout) bool {
	count := layout.size
	if count > 4 {
		count = 4
	}
	if count < 2 {
		return false
	}

	var min0, max0, min2, max2 float64
	for i := 0; i < count; i++ {
		v0, ok0 := sampleChannel(data, layout, i, 0)
		v2, ok2 := sampleChannel(data, layout, i, 2)
		if !ok0 || !ok2 {
			return false
		}
		if i == 0 {
			min0, max0 = v0, v0
			min2, max2 = v2, v2
			continue
		}
		min0, max0 = math.Min(min0, v0), math.Max(max0, v0)
		min2, max2 = math.Min(min2, v2), math.Max(max2, v2)
	}

	return (max2 - min2) > (max0 - min0)
}

// sampleChannel reads one raw channel value of sample idx, before any BGR
// reordering.
func sampleChannel(data []byte, layout binLayout, idx, ch int) (float64, bool) {
	if layout.float32s {
		pos := layout.offset + idx*12 + ch*4
		if pos+4 > len(data) {
			return 0, false
		}
		return float64(math.Float32frombits(le.Uint32(data[pos:]))), true
	}
	pos := layout.offset + idx*layout.channels + ch
	if pos >= len(data) {
		return 0, false
	}
	return float64(data[pos]) / 255, true
}

func readBinarySamples(data []byte, layout binLayout) (*colorcube.Cube, error) {
	entries := layout.size * layout.size * layout.size
	perSample := layout.channels
	if layout.float32s {
		perSample = 12
	}
	if layout.offset+entries*perSample > len(data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedData, entries*perSample, layout.offset, len(data)-layout.offset)
	}

	samples := make([]colorcube.RGB, entries)
	for i := range samples {
		var r, g, b float32
		if layout.float32s {
			pos := layout.offset + i*12
			r = math.Float32frombits(le.Uint32(data[pos:]))
			g = math.Float32frombits(le.Uint32(data[pos+4:]))
			b = math.Float32frombits(le.Uint32(data[pos+8:]))
		} else {
			pos := layout.offset + i*layout.channels
			r = float32(data[pos]) / 255
			g = float32(data[pos+1]) / 255
			b = float32(data[pos+2]) / 255
		}
		if layout.bgr {
			r, b = b, r
		}
		samples[i] = colorcube.RGB{
			R: colorcube.Clamp01(r),
			G: colorcube.Clamp01(g),
			B: colorcube.Clamp01(b),
		}
	}

	return colorcube.New(layout.size, samples)
}
