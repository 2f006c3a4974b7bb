package watermark

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The Tecno mode table is one JSON object: a WM_LAYOUTS field naming which
// modes are valid per orientation, plus one entry per mode keyed by mode
// name. Geometry is selected purely by mode name; orientation only gates
// availability.

type tecnoMode struct {
	BarColor string      `json:"BAR_COLOR"`
	BarSize  float64     `json:"BAR_SIZE"`
	RefWidth float64     `json:"REF_WIDTH"`
	Brand    string      `json:"BRAND_PROFILE"`
	Backdrop *tecnoIcon  `json:"BACKDROP_PROFILE"`
	Icons    []tecnoIcon `json:"ICON_PROFILES"`
	Texts    []tecnoText `json:"TEXT_PROFILES"`
}

type tecnoIcon struct {
	X         float64 `json:"X"`
	Y         float64 `json:"Y"`
	Width     float64 `json:"WIDTH"`
	Height    float64 `json:"HEIGHT"`
	Source    string  `json:"SOURCE"`
	RelyIndex *int    `json:"RELY_INDEX"`
	RelyLeft  bool    `json:"RELY_LEFT"`
}

type tecnoText struct {
	X         float64 `json:"X"`
	Y         float64 `json:"Y"`
	Font      string  `json:"FONT"`
	FontSize  float64 `json:"FONT_SIZE"`
	Color     string  `json:"COLOR"`
	Direction string  `json:"DIRECTION"` // "LTR" (default) or "RTL"
	TextType  string  `json:"TEXT_TYPE"`
	Text      string  `json:"TEXT"`
	RelyIndex *int    `json:"RELY_INDEX"`
	RelyLeft  bool    `json:"RELY_LEFT"`
}

// tecnoDefaultRefWidth applies when a mode omits REF_WIDTH; Tecno tables are
// authored against a 360-unit nominal width.
const tecnoDefaultRefWidth = 360

// ParseTecnoModes parses the JSON mode table into per-(mode, orientation)
// configs. A mode listed in WM_LAYOUTS with no matching mode entry is
// skipped; a table with no usable mode at all is an error.
func ParseTecnoModes(data []byte) (map[ModeKey]*ModeConfig, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSyntax, err)
	}

	layoutsRaw, ok := raw["WM_LAYOUTS"]
	if !ok {
		return nil, fmt.Errorf("%w: WM_LAYOUTS", ErrMissingRequiredField)
	}
	var layouts [][]string
	if err := json.Unmarshal(layoutsRaw, &layouts); err != nil {
		return nil, fmt.Errorf("%w: WM_LAYOUTS: %v", ErrMalformedSyntax, err)
	}

	configs := make(map[ModeKey]*ModeConfig)
	for i, names := range layouts {
		if i > int(Landscape) {
			break
		}
		orientation := Orientation(i)
		for _, name := range names {
			modeRaw, ok := raw[name]
			if !ok {
				continue
			}
			var mode tecnoMode
			if err := json.Unmarshal(modeRaw, &mode); err != nil {
				continue
			}
			configs[ModeKey{Mode: name, Orientation: orientation}] = mode.toConfig()
		}
	}

	if len(configs) == 0 {
		return nil, ErrEmptyTemplate
	}
	return configs, nil
}

// ModeFor looks up the config for a mode under the given orientation. The
// orientation is part of the key solely to validate availability.
func ModeFor(configs map[ModeKey]*ModeConfig, mode string, orientation Orientation) (*ModeConfig, error) {
	cfg, ok := configs[ModeKey{Mode: mode, Orientation: orientation}]
	if !ok {
		return nil, fmt.Errorf("%w: mode %q not available for orientation %d", ErrMissingRequiredField, mode, orientation)
	}
	return cfg, nil
}

func (m *tecnoMode) toConfig() *ModeConfig {
	cfg := &ModeConfig{
		BarColor:  m.BarColor,
		BarSize:   m.BarSize,
		RefWidth:  m.RefWidth,
		BrandName: m.Brand,
	}
	if cfg.RefWidth <= 0 {
		cfg.RefWidth = tecnoDefaultRefWidth
	}
	if m.Backdrop != nil {
		icon := m.Backdrop.toProfile()
		cfg.Backdrop = &icon
	}
	for _, ic := range m.Icons {
		cfg.Icons = append(cfg.Icons, ic.toProfile())
	}
	for _, tx := range m.Texts {
		cfg.Texts = append(cfg.Texts, tx.toProfile())
	}
	return cfg
}

func (ic *tecnoIcon) toProfile() IconProfile {
	p := IconProfile{
		Rect:  Rect{X: ic.X, Y: ic.Y, W: ic.Width, H: ic.Height},
		Asset: ic.Source,
	}
	if ic.RelyIndex != nil {
		p.Rely = &RelyRef{Target: *ic.RelyIndex, AnchorLeft: ic.RelyLeft}
	}
	return p
}

func (tx *tecnoText) toProfile() TextProfile {
	p := TextProfile{
		X:         tx.X,
		Y:         tx.Y,
		FontAsset: tx.Font,
		FontSize:  tx.FontSize,
		Color:     tx.Color,
		RTL:       strings.EqualFold(tx.Direction, "RTL"),
		Type:      parseTextType(tx.TextType),
		Literal:   tx.Text,
	}
	if tx.RelyIndex != nil {
		p.Rely = &RelyRef{Target: *tx.RelyIndex, AnchorLeft: tx.RelyLeft}
	}
	return p
}
