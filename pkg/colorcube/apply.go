package colorcube

import (
	"context"
	"image"
	"image/color"
)

// Lookup maps an input color through the cube using trilinear interpolation.
// Inputs are in [0, 1].
func (c *Cube) Lookup(r, g, b float32) RGB {
	n := c.Size
	if n < 2 {
		if len(c.Samples) > 0 {
			return c.Samples[0]
		}
		return RGB{}
	}

	scale := float32(n - 1)
	rPos := Clamp01(r) * scale
	gPos := Clamp01(g) * scale
	bPos := Clamp01(b) * scale

	ri, gi, bi := int(rPos), int(gPos), int(bPos)
	if ri >= n-1 {
		ri = n - 2
	}
	if gi >= n-1 {
		gi = n - 2
	}
	if bi >= n-1 {
		bi = n - 2
	}

	fr := rPos - float32(ri)
	fg := gPos - float32(gi)
	fb := bPos - float32(bi)

	// 8 cube corners around the input point.
	c000 := c.At(ri, gi, bi)
	c100 := c.At(ri+1, gi, bi)
	c010 := c.At(ri, gi+1, bi)
	c110 := c.At(ri+1, gi+1, bi)
	c001 := c.At(ri, gi, bi+1)
	c101 := c.At(ri+1, gi, bi+1)
	c011 := c.At(ri, gi+1, bi+1)
	c111 := c.At(ri+1, gi+1, bi+1)

	lerp := func(a, b RGB, t float32) RGB {
		return RGB{
			R: a.R + (b.R-a.R)*t,
			G: a.G + (b.G-a.G)*t,
			B: a.B + (b.B-a.B)*t,
		}
	}

	c00 := lerp(c000, c100, fr)
	c10 := lerp(c010, c110, fr)
	c01 := lerp(c001, c101, fr)
	c11 := lerp(c011, c111, fr)

	c0 := lerp(c00, c10, fg)
	c1 := lerp(c01, c11, fg)

	return lerp(c0, c1, fb)
}

// Apply maps every pixel of src through the cube and returns the filtered
// image. Alpha is passed through untouched. The context is checked once per
// row so long renders can be abandoned cooperatively.
func (c *Cube) Apply(ctx context.Context, src image.Image) (*image.RGBA, error) {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			out := c.Lookup(float32(r)/65535, float32(g)/65535, float32(b)/65535)
			dst.SetRGBA(x, y, color.RGBA{
				R: uint8(out.R*255 + 0.5),
				G: uint8(out.G*255 + 0.5),
				B: uint8(out.B*255 + 0.5),
				A: uint8(a >> 8),
			})
		}
	}

	return dst, nil
}
