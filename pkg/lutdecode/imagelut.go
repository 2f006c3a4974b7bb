package lutdecode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"github.com/vaelin/lutmark/pkg/colorcube"
)

// parseImageLUT decodes an image-encoded LUT. The pixels are first pulled
// into an NRGBA buffer so channel order is deterministic regardless of the
// source image's native representation, then three shape hypotheses are
// tried in order: HALD square, Strip A (wide), Strip B (tall).
func parseImageLUT(data []byte) (*colorcube.Cube, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	bounds := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(img, img.Bounds(), src, bounds.Min, draw.Src)

	w, h := img.Rect.Dx(), img.Rect.Dy()

	if w == h {
		if cube, ok := parseHALD(img, w); ok {
			return cube, nil
		}
	}
	if w == h*h && h >= 8 && h <= 128 {
		return parseStrip(img, h, stripWide), nil
	}
	if h == w*w && w >= 8 && w <= 128 {
		return parseStrip(img, w, stripTall), nil
	}

	return nil, fmt.Errorf("%w: %dx%d image matches no LUT layout", ErrSizeMismatch, w, h)
}

// parseHALD interprets a square image as a HALD grid: tilesPerRow² tiles of
// size×size pixels, one tile per blue level. The size derived from the width
// is retried against the common power-of-two sizes in case of rounding.
func parseHALD(img *image.NRGBA, width int) (*colorcube.Cube, bool) {
	derived := int(math.Round(math.Pow(float64(width), 2.0/3.0)))
	for _, size := range []int{derived, 16, 32, 64} {
		if size < 2 {
			continue
		}
		tiles := int(math.Round(math.Sqrt(float64(size))))
		if tiles*tiles != size || size*tiles != width {
			continue
		}

		samples := make([]colorcube.RGB, 0, size*size*size)
		for b := 0; b < size; b++ {
			tileX := b % tiles
			tileY := b / tiles
			for g := 0; g < size; g++ {
				for r := 0; r < size; r++ {
					samples = append(samples, pixelRGB(img, tileX*size+r, tileY*size+g))
				}
			}
		}
		cube, err := colorcube.New(size, samples)
		if err != nil {
			return nil, false
		}
		return cube, true
	}
	return nil, false
}

type stripKind int

const (
	stripWide stripKind = iota // width == size², red+green along x, blue along y
	stripTall                  // height == size², red along x, green+blue along y
)

func parseStrip(img *image.NRGBA, size int, kind stripKind) *colorcube.Cube {
	samples := make([]colorcube.RGB, 0, size*size*size)
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				if kind == stripWide {
					samples = append(samples, pixelRGB(img, r+g*size, b))
				} else {
					samples = append(samples, pixelRGB(img, r, b*size+g))
				}
			}
		}
	}
	cube, _ := colorcube.New(size, samples)
	return cube
}

func pixelRGB(img *image.NRGBA, x, y int) colorcube.RGB {
	i := img.PixOffset(x, y)
	return colorcube.RGB{
		R: float32(img.Pix[i]) / 255,
		G: float32(img.Pix[i+1]) / 255,
		B: float32(img.Pix[i+2]) / 255,
	}
}
