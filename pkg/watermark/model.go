// Package watermark parses vendor watermark templates and resolves them into
// absolute pixel geometry for compositing onto a photo.
//
// Two template dialects are supported: the Vivo tag-markup DSL and the Tecno
// JSON mode table. Both express geometry in a reference coordinate space tied
// to a nominal template width; a single scale factor maps every coordinate to
// output pixels. Templates are parsed once and never mutated — runtime text
// (device name, lens info, timestamp, location) is supplied per render call.
package watermark

// ── Shared geometry ──

// Point is a coordinate in template reference space.
type Point struct {
	X, Y float64
}

// Rect is a rectangle in template reference space.
type Rect struct {
	X, Y, W, H float64
}

// Gravity selects the horizontal anchor of an element.
type Gravity int

const (
	GravityStart Gravity = iota
	GravityCenter
	GravityEnd
)

// RelyRef marks an element whose position is computed relative to a sibling
// text element instead of from its own rectangle. Target indexes the sibling
// list; AnchorLeft picks the target's left edge as the anchor instead of the
// right one.
type RelyRef struct {
	Target     int
	AnchorLeft bool
}

// TextType selects what runtime content fills a text element.
type TextType int

const (
	TextLiteral TextType = iota
	TextDevice
	TextLensToken0 // whitespace-split lens-info tokens
	TextLensToken1
	TextLensToken2
	TextLensToken3
	TextLensFull
	TextTime
	TextLocation
	TextDeviceZeiss // "{device} | ZEISS", device omitted when absent
)

// ── Vivo template model ──

// FrameConfig holds the Vivo template's frame-level settings.
type FrameConfig struct {
	BarColor    string
	Width       float64 // reference template width
	Height      float64 // reference template height
	MarginStart float64
	MarginEnd   float64
	Adaptive    bool
}

// Template is a parsed Vivo watermark template.
type Template struct {
	Frame  FrameConfig
	Paths  [][]Point // content-area outlines; the lowest point bounds the photo
	Groups []Group
}

// Group is a horizontally anchored cluster of alternative subgroups.
type Group struct {
	Gravity   Gravity
	MarginEnd float64
	Subgroups []Subgroup
}

// Subgroup is one layout variant of a group, chosen at render time by which
// runtime content is available.
type Subgroup struct {
	Index   int
	Visible bool
	Lines   []Line
}

// Line is one vertical slot of a subgroup.
type Line struct {
	MarginBottom float64
	Images       []ImageElement
	Texts        []TextElement
}

// ImageElement is an icon placed by rectangle or by a rely reference.
// LineNum, when positive, reassigns the element to that 1-based line of its
// subgroup at parse time; zero keeps the enclosing block's line.
type ImageElement struct {
	Rect    Rect
	LineNum int
	Gravity Gravity
	Rely    *RelyRef
	Asset   string
}

// TextElement is a text slot filled from runtime content.
type TextElement struct {
	Rect      Rect
	LineNum   int
	Gravity   Gravity
	Rely      *RelyRef
	Type      TextType
	Literal   string
	FontAsset string
	FontSize  float64
	Color     string
}

// ── Tecno mode model ──

// Orientation gates which modes are selectable; it never alters geometry.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

// ModeKey identifies one Tecno watermark configuration.
type ModeKey struct {
	Mode        string
	Orientation Orientation
}

// IconProfile places one icon in a Tecno mode.
type IconProfile struct {
	Rect  Rect
	Asset string
	Rely  *RelyRef
}

// TextProfile places one text run in a Tecno mode.
type TextProfile struct {
	X, Y      float64
	FontAsset string
	FontSize  float64
	Color     string
	RTL       bool // right-to-left: the anchor is the text's right edge
	Type      TextType
	Literal   string
	Rely      *RelyRef
}

// ModeConfig is the full layout of one Tecno watermark mode.
type ModeConfig struct {
	BarColor  string
	BarSize   float64 // bar height in reference units
	RefWidth  float64 // reference template width
	BrandName string
	Backdrop  *IconProfile
	Icons     []IconProfile
	Texts     []TextProfile
}
