package watermark

import "fmt"

// ResolveTecno lays out a Tecno mode config against the output image size.
// Tecno geometry is absolute in reference space: no line packing, just
// scaling, RTL-aware text anchoring and rely references into the mode's
// texts array.
func (r *Resolver) ResolveTecno(cfg *ModeConfig, content RuntimeContent, outW, outH int) *Layout {
	refW := cfg.RefWidth
	if refW <= 0 {
		refW = tecnoDefaultRefWidth
	}
	scale := float64(outW) / refW

	layout := &Layout{
		Scale:       scale,
		BarColor:    cfg.BarColor,
		BarTopPx:    float64(outH),
		BarHeightPx: cfg.BarSize * scale,
	}
	barTop := layout.BarTopPx

	if cfg.Backdrop != nil {
		rect := cfg.Backdrop.Rect
		px := PixelRect{
			X: rect.X * scale,
			Y: barTop + rect.Y*scale,
			W: rect.W * scale,
			H: rect.H * scale,
		}
		if rect.W <= 0 || rect.H <= 0 {
			// A backdrop with no size covers the whole bar.
			px = PixelRect{X: 0, Y: barTop, W: float64(outW), H: layout.BarHeightPx}
		}
		layout.Elements = append(layout.Elements, ResolvedElement{
			Kind:  ElementImage,
			Rect:  px,
			Asset: cfg.Backdrop.Asset,
		})
	}

	// Texts resolve first: icons may rely on their measured geometry.
	placed := make([]*placedText, len(cfg.Texts))
	resolvedTexts := make([]*ResolvedElement, len(cfg.Texts))

	for ti := range cfg.Texts {
		txt := &cfg.Texts[ti]
		if txt.Rely != nil {
			continue
		}
		elem, pt, ok := r.placeTecnoText(txt, content, scale, barTop)
		if !ok {
			layout.Skipped = append(layout.Skipped, fmt.Sprintf("text %d: content unavailable", ti))
			continue
		}
		placed[ti] = pt
		resolvedTexts[ti] = elem
	}

	for ti := range cfg.Texts {
		txt := &cfg.Texts[ti]
		if txt.Rely == nil {
			continue
		}
		target := relyTarget(placed, txt.Rely)
		if target == nil {
			layout.Skipped = append(layout.Skipped, fmt.Sprintf("text %d: rely target missing", ti))
			continue
		}
		text, ok := resolveContent(txt.Type, txt.Literal, content)
		if !ok {
			layout.Skipped = append(layout.Skipped, fmt.Sprintf("text %d: content unavailable", ti))
			continue
		}
		w := r.measure(txt.FontAsset, txt.FontSize*scale, text)
		x := relyX(target, txt.Rely, txt.X*scale, w)
		y := barTop + txt.Y*scale
		placed[ti] = &placedText{x: x, y: y, w: w}
		resolvedTexts[ti] = &ResolvedElement{
			Kind:       ElementText,
			Rect:       PixelRect{X: x, Y: y, W: w, H: txt.FontSize * scale},
			Text:       text,
			FontAsset:  txt.FontAsset,
			FontSizePx: txt.FontSize * scale,
			Color:      txt.Color,
			RTL:        txt.RTL,
		}
	}

	for ii := range cfg.Icons {
		icon := &cfg.Icons[ii]
		w := icon.Rect.W * scale
		h := icon.Rect.H * scale
		var x, y float64
		if icon.Rely != nil {
			target := relyTarget(placed, icon.Rely)
			if target == nil {
				layout.Skipped = append(layout.Skipped, fmt.Sprintf("icon %d: rely target missing", ii))
				continue
			}
			x = relyX(target, icon.Rely, icon.Rect.X*scale, w)
			y = barTop + icon.Rect.Y*scale + h*relyIconBaselineShift
		} else {
			x = icon.Rect.X * scale
			y = barTop + icon.Rect.Y*scale
		}
		layout.Elements = append(layout.Elements, ResolvedElement{
			Kind:  ElementImage,
			Rect:  PixelRect{X: x, Y: y, W: w, H: h},
			Asset: icon.Asset,
		})
	}

	for _, elem := range resolvedTexts {
		if elem != nil {
			layout.Elements = append(layout.Elements, *elem)
		}
	}

	return layout
}

// placeTecnoText positions an independent text profile. RTL text anchors at
// its right edge, so the measured width backs the origin off to the left.
func (r *Resolver) placeTecnoText(txt *TextProfile, content RuntimeContent, scale, barTop float64) (*ResolvedElement, *placedText, bool) {
	text, ok := resolveContent(txt.Type, txt.Literal, content)
	if !ok {
		return nil, nil, false
	}
	w := r.measure(txt.FontAsset, txt.FontSize*scale, text)
	x := txt.X * scale
	if txt.RTL {
		x -= w
	}
	y := barTop + txt.Y*scale

	elem := &ResolvedElement{
		Kind:       ElementText,
		Rect:       PixelRect{X: x, Y: y, W: w, H: txt.FontSize * scale},
		Text:       text,
		FontAsset:  txt.FontAsset,
		FontSizePx: txt.FontSize * scale,
		Color:      txt.Color,
		RTL:        txt.RTL,
	}
	return elem, &placedText{x: x, y: y, w: w}, true
}
