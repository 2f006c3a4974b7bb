// Package colorcube defines the canonical 3D color lookup table model.
//
// Every vendor LUT encoding the decoder understands is normalized into a
// Cube: N³ RGB samples in [0,1], ordered with red varying fastest, then
// green, then blue. A Cube is immutable once built and safe to share across
// goroutines.
package colorcube

import "fmt"

// RGB is a single normalized color sample.
type RGB struct {
	R, G, B float32
}

// Cube is a 3D color lookup table of Size³ samples.
// Sample index for grid point (r, g, b) is r + g·Size + b·Size².
type Cube struct {
	Size    int
	Samples []RGB
}

// New validates the sample count against size and wraps the slice.
// The caller must not modify samples afterwards.
func New(size int, samples []RGB) (*Cube, error) {
	if size < 2 {
		return nil, fmt.Errorf("cube size %d: must be at least 2", size)
	}
	if want := size * size * size; len(samples) != want {
		return nil, fmt.Errorf("cube size %d: have %d samples, want %d", size, len(samples), want)
	}
	return &Cube{Size: size, Samples: samples}, nil
}

// Index returns the flat sample index for grid point (r, g, b).
func (c *Cube) Index(r, g, b int) int {
	return r + g*c.Size + b*c.Size*c.Size
}

// At returns the sample at grid point (r, g, b).
func (c *Cube) At(r, g, b int) RGB {
	return c.Samples[c.Index(r, g, b)]
}

// Clamp01 clamps v to the unit interval. Applied to every channel at parse
// time so downstream interpolation never sees out-of-range values.
func Clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
