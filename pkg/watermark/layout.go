package watermark

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ── Runtime inputs ──

// RuntimeContent is the per-render text content. Empty strings mean "absent"
// and drive subgroup variant selection.
type RuntimeContent struct {
	DeviceName   string
	LensInfo     string
	TimeText     string
	LocationText string
}

// TextMeasurer reports the pixel width of a text run at a given font size.
// The font manager implements this; layout depends only on the measurement.
type TextMeasurer interface {
	MeasureText(fontAsset string, sizePx float64, text string) float64
}

// ── Resolved output ──

// ElementKind discriminates resolved elements.
type ElementKind int

const (
	ElementImage ElementKind = iota
	ElementText
)

// PixelRect is an absolute rectangle in output pixel space.
type PixelRect struct {
	X, Y, W, H float64
}

// ResolvedElement is one adornment ready for compositing. List order is
// z-order.
type ResolvedElement struct {
	Kind       ElementKind
	Rect       PixelRect
	Text       string
	Asset      string
	FontAsset  string
	FontSizePx float64
	Color      string
	RTL        bool
}

// Layout is the fully resolved geometry for one render. The bar sits below
// the photo: element coordinates are in the combined canvas where the photo
// occupies y ∈ [0, BarTopPx).
type Layout struct {
	Scale       float64
	BarColor    string
	BarTopPx    float64
	BarHeightPx float64
	Elements    []ResolvedElement
	Skipped     []string // one note per element dropped during resolution
}

// Resolver turns templates plus runtime content into layouts. Resolution
// never hard-fails: an element that cannot be resolved is skipped and noted
// in Layout.Skipped.
type Resolver struct {
	Measure TextMeasurer
}

// Vertical nudge applied to icons that are rely-positioned against text, as
// a fraction of the icon's own height, so the icon sits on the optical
// baseline instead of the text bounding box.
const relyIconBaselineShift = 0.1

// Bar height fallback when a Vivo template carries no usable paths.
const defaultBarRatio = 0.15

const defaultVivoRefWidth = 1080

// ResolveVivo lays out a Vivo template against the output image size.
func (r *Resolver) ResolveVivo(tpl *Template, content RuntimeContent, outW, outH int) *Layout {
	refW := tpl.Frame.Width
	if refW <= 0 {
		refW = defaultVivoRefWidth
	}
	scale := float64(outW) / refW

	barRef := vivoBarHeight(tpl)
	layout := &Layout{
		Scale:       scale,
		BarColor:    tpl.Frame.BarColor,
		BarTopPx:    float64(outH),
		BarHeightPx: barRef * scale,
	}

	for gi := range tpl.Groups {
		group := &tpl.Groups[gi]
		sub := selectSubgroup(group, content)
		if sub == nil {
			layout.Skipped = append(layout.Skipped, fmt.Sprintf("group %d: no selectable subgroup", gi))
			continue
		}
		r.resolveVivoSubgroup(layout, tpl, group, sub, content, outW, barRef)
	}

	return layout
}

// vivoBarHeight derives the extension bar height in reference units from the
// gap between the lowest path point and the template height.
func vivoBarHeight(tpl *Template) float64 {
	refH := tpl.Frame.Height
	maxY := 0.0
	seen := false
	for _, path := range tpl.Paths {
		for _, pt := range path {
			if !seen || pt.Y > maxY {
				maxY = pt.Y
				seen = true
			}
		}
	}
	if seen && refH > maxY {
		return refH - maxY
	}
	if refH > 0 {
		return refH * defaultBarRatio
	}
	return tpl.Frame.Width * defaultBarRatio
}

// placedText is a measured, positioned text element, kept around so rely
// references can anchor against it.
type placedText struct {
	x, y, w float64
}

func (r *Resolver) resolveVivoSubgroup(layout *Layout, tpl *Template, group *Group, sub *Subgroup, content RuntimeContent, outW int, barRef float64) {
	scale := layout.Scale

	// Vertical packing: each line's extent is the union of its elements'
	// rectangles; lines stack top to bottom separated by their own
	// marginBottom, and the stack is centered inside the bar.
	type lineExtent struct {
		minY, height float64
	}
	extents := make([]lineExtent, len(sub.Lines))
	stackRef := 0.0
	for i, line := range sub.Lines {
		minY, maxY, any := 0.0, 0.0, false
		scan := func(rect Rect) {
			if !any {
				minY, maxY = rect.Y, rect.Y+rect.H
				any = true
				return
			}
			minY = min(minY, rect.Y)
			maxY = max(maxY, rect.Y+rect.H)
		}
		for _, img := range line.Images {
			scan(img.Rect)
		}
		for _, txt := range line.Texts {
			scan(txt.Rect)
		}
		extents[i] = lineExtent{minY: minY, height: maxY - minY}
		stackRef += extents[i].height
		if i < len(sub.Lines)-1 {
			stackRef += line.MarginBottom
		}
	}

	lineTop := (barRef - stackRef) / 2
	if lineTop < 0 {
		lineTop = 0
	}

	marginStart := tpl.Frame.MarginStart
	marginEnd := group.MarginEnd
	if marginEnd <= 0 {
		marginEnd = tpl.Frame.MarginEnd
	}

	for i := range sub.Lines {
		line := &sub.Lines[i]
		yOf := func(rect Rect) float64 {
			return layout.BarTopPx + (lineTop+(rect.Y-extents[i].minY))*scale
		}

		// First pass: independent elements. Texts are indexed so rely
		// references can find them afterwards.
		placed := make([]*placedText, len(line.Texts))
		var deferredImages []int
		var deferredTexts []int

		for ii := range line.Images {
			img := &line.Images[ii]
			if img.Rely != nil {
				deferredImages = append(deferredImages, ii)
				continue
			}
			w := img.Rect.W * scale
			x := anchorX(img.Gravity, img.Rect.X, w, marginStart, marginEnd, scale, outW)
			layout.Elements = append(layout.Elements, ResolvedElement{
				Kind:  ElementImage,
				Rect:  PixelRect{X: x, Y: yOf(img.Rect), W: w, H: img.Rect.H * scale},
				Asset: img.Asset,
			})
		}

		for ti := range line.Texts {
			txt := &line.Texts[ti]
			if txt.Rely != nil {
				deferredTexts = append(deferredTexts, ti)
				continue
			}
			text, ok := resolveContent(txt.Type, txt.Literal, content)
			if !ok {
				layout.Skipped = append(layout.Skipped, fmt.Sprintf("line %d text %d: content unavailable", i, ti))
				continue
			}
			w := r.measure(txt.FontAsset, txt.FontSize*scale, text)
			x := anchorX(txt.Gravity, txt.Rect.X, w, marginStart, marginEnd, scale, outW)
			y := yOf(txt.Rect)
			placed[ti] = &placedText{x: x, y: y, w: w}
			layout.Elements = append(layout.Elements, ResolvedElement{
				Kind:       ElementText,
				Rect:       PixelRect{X: x, Y: y, W: txt.Rect.W * scale, H: txt.Rect.H * scale},
				Text:       text,
				FontAsset:  txt.FontAsset,
				FontSizePx: txt.FontSize * scale,
				Color:      txt.Color,
			})
		}

		// Second pass: rely elements anchor against the measured targets.
		// Dependency depth is always 1, so a direct lookup suffices.
		for _, ii := range deferredImages {
			img := &line.Images[ii]
			target := relyTarget(placed, img.Rely)
			if target == nil {
				layout.Skipped = append(layout.Skipped, fmt.Sprintf("line %d image %d: rely target missing", i, ii))
				continue
			}
			w := img.Rect.W * scale
			h := img.Rect.H * scale
			x := relyX(target, img.Rely, img.Rect.X*scale, w)
			y := yOf(img.Rect) + h*relyIconBaselineShift
			layout.Elements = append(layout.Elements, ResolvedElement{
				Kind:  ElementImage,
				Rect:  PixelRect{X: x, Y: y, W: w, H: h},
				Asset: img.Asset,
			})
		}

		for _, ti := range deferredTexts {
			txt := &line.Texts[ti]
			target := relyTarget(placed, txt.Rely)
			if target == nil {
				layout.Skipped = append(layout.Skipped, fmt.Sprintf("line %d text %d: rely target missing", i, ti))
				continue
			}
			text, ok := resolveContent(txt.Type, txt.Literal, content)
			if !ok {
				layout.Skipped = append(layout.Skipped, fmt.Sprintf("line %d text %d: content unavailable", i, ti))
				continue
			}
			w := r.measure(txt.FontAsset, txt.FontSize*scale, text)
			x := relyX(target, txt.Rely, txt.Rect.X*scale, w)
			layout.Elements = append(layout.Elements, ResolvedElement{
				Kind:       ElementText,
				Rect:       PixelRect{X: x, Y: yOf(txt.Rect), W: txt.Rect.W * scale, H: txt.Rect.H * scale},
				Text:       text,
				FontAsset:  txt.FontAsset,
				FontSizePx: txt.FontSize * scale,
				Color:      txt.Color,
			})
		}

		lineTop += extents[i].height + line.MarginBottom
	}
}

// anchorX places an element horizontally by gravity. Start gravity offsets
// from the start margin, end gravity backs off from the far edge by the
// measured width, center splits the difference; the element's own reference
// X acts as an additional offset in all three cases.
func anchorX(g Gravity, refX, widthPx, marginStart, marginEnd, scale float64, outW int) float64 {
	switch g {
	case GravityEnd:
		return float64(outW) - (marginEnd+refX)*scale - widthPx
	case GravityCenter:
		return (float64(outW)-widthPx)/2 + refX*scale
	default:
		return (marginStart + refX) * scale
	}
}

func relyTarget(placed []*placedText, rely *RelyRef) *placedText {
	if rely == nil || rely.Target < 0 || rely.Target >= len(placed) {
		return nil
	}
	return placed[rely.Target]
}

// relyX computes a dependent element's x from its target's measured edges:
// anchored on the target's left edge the element sits to the left (its own
// width backed off), otherwise it continues past the target's right edge.
// offsetPx is the element's own reference-space offset, already scaled.
func relyX(target *placedText, rely *RelyRef, offsetPx, widthPx float64) float64 {
	if rely.AnchorLeft {
		return target.x + offsetPx - widthPx
	}
	return target.x + target.w + offsetPx
}

// ── Subgroup variant selection ──

// selectSubgroup picks the layout variant for a group. A sole subgroup wins
// outright. Groups whose subgroups carry no variant numbering use the first
// visible one. Otherwise the variant is chosen by which runtime content is
// available, falling back to variant 0 when the preferred one is absent.
func selectSubgroup(group *Group, content RuntimeContent) *Subgroup {
	subs := group.Subgroups
	if len(subs) == 0 {
		return nil
	}
	if len(subs) == 1 {
		return &subs[0]
	}

	varied := false
	for i := range subs {
		if subs[i].Index != subs[0].Index {
			varied = true
			break
		}
	}
	if !varied {
		for i := range subs {
			if subs[i].Visible {
				return &subs[i]
			}
		}
		if sg := subgroupByIndex(subs, 0); sg != nil {
			return sg
		}
		return &subs[0]
	}

	if sg := subgroupByIndex(subs, variantIndex(content)); sg != nil {
		return sg
	}
	if sg := subgroupByIndex(subs, 0); sg != nil {
		return sg
	}
	return &subs[0]
}

func subgroupByIndex(subs []Subgroup, index int) *Subgroup {
	for i := range subs {
		if subs[i].Index == index {
			return &subs[i]
		}
	}
	return nil
}

// variantIndex maps content availability to the preferred subgroup number.
func variantIndex(c RuntimeContent) int {
	lens := c.LensInfo != ""
	time := c.TimeText != ""
	loc := c.LocationText != ""
	switch {
	case lens && time && loc:
		return 0
	case lens && time:
		return 5
	case lens && loc:
		return 6
	case lens:
		return 1
	case time && loc:
		return 4
	case time:
		return 3
	case loc:
		return 2
	default:
		return 7
	}
}

// ── Content resolution ──

// resolveContent substitutes a text element's runtime string. ok is false
// when the requested content is unavailable and the element must be skipped.
func resolveContent(t TextType, literal string, c RuntimeContent) (string, bool) {
	var s string
	switch t {
	case TextLiteral:
		s = literal
	case TextDevice:
		s = c.DeviceName
	case TextLensToken0, TextLensToken1, TextLensToken2, TextLensToken3:
		tokens := strings.Fields(c.LensInfo)
		idx := int(t - TextLensToken0)
		if idx >= len(tokens) {
			return "", false
		}
		s = tokens[idx]
	case TextLensFull:
		s = c.LensInfo
	case TextTime:
		s = c.TimeText
	case TextLocation:
		s = c.LocationText
	case TextDeviceZeiss:
		if c.DeviceName == "" {
			s = "ZEISS"
		} else {
			s = c.DeviceName + " | ZEISS"
		}
	}
	return s, s != ""
}

// measure falls back to a rough monospace estimate when no measurer is set,
// so layout stays usable in tools that never rasterize text.
func (r *Resolver) measure(fontAsset string, sizePx float64, text string) float64 {
	if r.Measure != nil {
		return r.Measure.MeasureText(fontAsset, sizePx, text)
	}
	return 0.6 * sizePx * float64(utf8.RuneCountInString(text))
}
