// fonts.go — Font loading and text measurement with embedded fallback.
// Fonts are fetched through the asset provider; anything that fails to load
// or parse falls back to the embedded Go Regular font so layout and
// compositing always have working metrics.
package watermark

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/vaelin/lutmark/pkg/assets"
)

// FontManager loads template fonts by asset key and caches parsed fonts and
// faces. It implements TextMeasurer for the layout resolver.
type FontManager struct {
	provider assets.Provider
	fallback *opentype.Font

	mu     sync.Mutex
	parsed map[string]*opentype.Font
	faces  map[faceKey]font.Face
}

type faceKey struct {
	asset string
	size  float64
}

// NewFontManager creates a font manager reading fonts from p.
func NewFontManager(p assets.Provider) (*FontManager, error) {
	fallback, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	return &FontManager{
		provider: p,
		fallback: fallback,
		parsed:   make(map[string]*opentype.Font),
		faces:    make(map[faceKey]font.Face),
	}, nil
}

// Face returns a font face for the given asset at sizePx. An empty or
// unloadable asset key yields the embedded fallback face.
func (fm *FontManager) Face(asset string, sizePx float64) (font.Face, error) {
	if sizePx <= 0 {
		sizePx = 12
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	key := faceKey{asset: asset, size: sizePx}
	if face, ok := fm.faces[key]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(fm.lookupFontLocked(asset), &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72, // 72 DPI makes point size equal pixel size
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face for %q: %w", asset, err)
	}

	fm.faces[key] = face
	return face, nil
}

func (fm *FontManager) lookupFontLocked(asset string) *opentype.Font {
	if asset == "" {
		return fm.fallback
	}
	if f, ok := fm.parsed[asset]; ok {
		return f
	}

	f := fm.fallback
	if fm.provider != nil {
		if data, err := fm.provider.Load(asset); err == nil {
			if parsed, err := opentype.Parse(data); err == nil {
				f = parsed
			}
		}
	}
	fm.parsed[asset] = f
	return f
}

// MeasureText returns the advance width of text in pixels.
func (fm *FontManager) MeasureText(fontAsset string, sizePx float64, text string) float64 {
	face, err := fm.Face(fontAsset, sizePx)
	if err != nil {
		return 0.6 * sizePx * float64(len([]rune(text)))
	}
	return float64(font.MeasureString(face, text)) / 64
}
