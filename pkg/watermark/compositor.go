// compositor.go — Paint a resolved layout onto a photo.
// The canvas is the photo plus a solid-color bar below it; elements are then
// drawn in list order (list order is z-order). Any element that fails to
// load or draw is skipped with a warning — a render degrades to photo + bar
// rather than failing.
package watermark

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/vaelin/lutmark/pkg/assets"
)

// Compositor renders resolved layouts. Icons are loaded through the asset
// provider and scaled to their resolved rectangles.
type Compositor struct {
	Assets assets.Provider
	Fonts  *FontManager
}

// NewCompositor builds a compositor sharing the font manager used for
// measurement, so drawn text matches the measured layout exactly.
func NewCompositor(p assets.Provider, fonts *FontManager) *Compositor {
	return &Compositor{Assets: p, Fonts: fonts}
}

// Compose draws layout onto photo and returns the combined image along with
// warnings for any skipped elements. The context is checked between elements
// so a cancelled preview abandons cleanly.
func (c *Compositor) Compose(ctx context.Context, photo image.Image, layout *Layout) (*image.RGBA, []string, error) {
	if photo == nil {
		return nil, nil, fmt.Errorf("compose: nil photo")
	}

	pb := photo.Bounds()
	barH := int(layout.BarHeightPx + 0.5)
	canvas := image.NewRGBA(image.Rect(0, 0, pb.Dx(), pb.Dy()+barH))

	draw.Draw(canvas, image.Rect(0, 0, pb.Dx(), pb.Dy()), photo, pb.Min, draw.Src)

	barColor := ParseHexColor(layout.BarColor)
	draw.Draw(canvas, image.Rect(0, pb.Dy(), pb.Dx(), pb.Dy()+barH),
		&image.Uniform{barColor}, image.Point{}, draw.Src)

	warnings := append([]string(nil), layout.Skipped...)
	for i, elem := range layout.Elements {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		var err error
		switch elem.Kind {
		case ElementImage:
			err = c.drawIcon(canvas, elem)
		case ElementText:
			err = c.drawText(canvas, elem)
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("element %d: %v", i, err))
		}
	}

	return canvas, warnings, nil
}

func (c *Compositor) drawIcon(canvas *image.RGBA, elem ResolvedElement) error {
	if c.Assets == nil {
		return fmt.Errorf("no asset provider for icon %q", elem.Asset)
	}
	data, err := c.Assets.Load(elem.Asset)
	if err != nil {
		return err
	}
	icon, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode icon %q: %w", elem.Asset, err)
	}

	w := int(elem.Rect.W + 0.5)
	h := int(elem.Rect.H + 0.5)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("icon %q: empty target rect", elem.Asset)
	}
	scaled := resize.Resize(uint(w), uint(h), icon, resize.Bilinear)

	x := int(elem.Rect.X + 0.5)
	y := int(elem.Rect.Y + 0.5)
	draw.Draw(canvas, image.Rect(x, y, x+w, y+h), scaled, image.Point{}, draw.Over)
	return nil
}

func (c *Compositor) drawText(canvas *image.RGBA, elem ResolvedElement) error {
	if c.Fonts == nil {
		return fmt.Errorf("no font manager for text %q", elem.Text)
	}
	face, err := c.Fonts.Face(elem.FontAsset, elem.FontSizePx)
	if err != nil {
		return err
	}

	// The layout's rect top is the glyph box top; the drawer wants a
	// baseline position.
	ascent := face.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(ParseHexColor(elem.Color)),
		Face: face,
		Dot:  fixed.P(int(elem.Rect.X+0.5), int(elem.Rect.Y+0.5)+ascent),
	}
	drawer.DrawString(elem.Text)
	return nil
}

// ParseHexColor converts "#rrggbb" or "#rrggbbaa" to a color.
// Returns opaque white on any parse error (safe default for rendering).
func ParseHexColor(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{255, 255, 255, 255}
	}

	parse := func(s string) uint8 {
		v, _ := strconv.ParseUint(s, 16, 8)
		return uint8(v)
	}

	c := color.RGBA{R: parse(hex[0:2]), G: parse(hex[2:4]), B: parse(hex[4:6]), A: 255}
	if len(hex) == 8 {
		c.A = parse(hex[6:8])
	}
	return c
}
