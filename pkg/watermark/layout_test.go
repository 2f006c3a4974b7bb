package watermark

import (
	"math"
	"testing"
)

// fixedMeasurer reports the same width for every text run.
type fixedMeasurer struct {
	width float64
}

func (m fixedMeasurer) MeasureText(fontAsset string, sizePx float64, text string) float64 {
	return m.width
}

func subgroupSet(indices ...int) []Subgroup {
	subs := make([]Subgroup, len(indices))
	for i, idx := range indices {
		subs[i] = Subgroup{Index: idx, Visible: true}
	}
	return subs
}

func TestVariantSelection(t *testing.T) {
	full := &Group{Subgroups: subgroupSet(0, 1, 2, 3, 4, 5, 6, 7)}

	tests := []struct {
		name    string
		group   *Group
		content RuntimeContent
		want    int
	}{
		{"all present", full, RuntimeContent{LensInfo: "l", TimeText: "t", LocationText: "p"}, 0},
		{"lens and time", full, RuntimeContent{LensInfo: "l", TimeText: "t"}, 5},
		{"lens and location", full, RuntimeContent{LensInfo: "x", LocationText: "y"}, 6},
		{"lens only", full, RuntimeContent{LensInfo: "l"}, 1},
		{"time and location", full, RuntimeContent{TimeText: "t", LocationText: "p"}, 4},
		{"time only", full, RuntimeContent{TimeText: "t"}, 3},
		{"location only", full, RuntimeContent{LocationText: "p"}, 2},
		{"nothing", full, RuntimeContent{}, 7},
		{
			"absent variant falls back to 0",
			&Group{Subgroups: subgroupSet(0, 1, 2, 3)},
			RuntimeContent{LensInfo: "x", LocationText: "y"}, // wants 6
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sg := selectSubgroup(tt.group, tt.content)
			if sg == nil {
				t.Fatal("selectSubgroup returned nil")
			}
			if sg.Index != tt.want {
				t.Errorf("selected subgroup %d, want %d", sg.Index, tt.want)
			}
		})
	}
}

func TestVariantSelectionSoleAndUnnumbered(t *testing.T) {
	sole := &Group{Subgroups: []Subgroup{{Index: 3, Visible: false}}}
	if sg := selectSubgroup(sole, RuntimeContent{}); sg.Index != 3 {
		t.Errorf("sole subgroup not selected: got %d", sg.Index)
	}

	unnumbered := &Group{Subgroups: []Subgroup{
		{Index: 0, Visible: false},
		{Index: 0, Visible: true},
	}}
	sg := selectSubgroup(unnumbered, RuntimeContent{LensInfo: "x"})
	if sg == nil || !sg.Visible {
		t.Errorf("expected first visible subgroup, got %+v", sg)
	}
}

func TestRelyPositioning(t *testing.T) {
	// Reference width 540 at output 1080 gives scale 2.0. The text sits at
	// reference x=100 with gravity start and no margin, so its resolved left
	// edge is 200px. The icon relies on the text's left edge with its own
	// offset of -5 reference units and a width of 20 reference units:
	// x = 100·2 − 5·2 − 40 = 150.
	tpl := &Template{
		Frame: FrameConfig{Width: 540, Height: 540, BarColor: "#000000"},
		Groups: []Group{{
			Subgroups: []Subgroup{{
				Visible: true,
				Lines: []Line{{
					Images: []ImageElement{{
						Rect:  Rect{X: -5, Y: 0, W: 20, H: 20},
						Rely:  &RelyRef{Target: 0, AnchorLeft: true},
						Asset: "icon.png",
					}},
					Texts: []TextElement{{
						Rect:     Rect{X: 100, Y: 0, W: 50, H: 24},
						Type:     TextLiteral,
						Literal:  "hello",
						FontSize: 12,
					}},
				}},
			}},
		}},
	}

	r := &Resolver{Measure: fixedMeasurer{width: 50}}
	layout := r.ResolveVivo(tpl, RuntimeContent{}, 1080, 1440)

	if layout.Scale != 2.0 {
		t.Fatalf("Scale = %v, want 2.0", layout.Scale)
	}

	var icon *ResolvedElement
	for i := range layout.Elements {
		if layout.Elements[i].Kind == ElementImage {
			icon = &layout.Elements[i]
		}
	}
	if icon == nil {
		t.Fatalf("no image element resolved; skipped: %v", layout.Skipped)
	}

	want := 100*2.0 - 5*2.0 - icon.Rect.W
	if math.Abs(icon.Rect.X-want) > 1e-9 {
		t.Errorf("icon x = %v, want %v", icon.Rect.X, want)
	}
	if icon.Rect.W != 40 {
		t.Errorf("icon width = %v, want 40", icon.Rect.W)
	}
}

func TestRelyMissingTargetSkips(t *testing.T) {
	tpl := &Template{
		Frame: FrameConfig{Width: 540, Height: 540},
		Groups: []Group{{
			Subgroups: []Subgroup{{
				Visible: true,
				Lines: []Line{{
					Images: []ImageElement{{
						Rect: Rect{W: 20, H: 20},
						Rely: &RelyRef{Target: 4},
					}},
				}},
			}},
		}},
	}

	r := &Resolver{}
	layout := r.ResolveVivo(tpl, RuntimeContent{}, 1080, 1440)

	if len(layout.Elements) != 0 {
		t.Errorf("elements = %d, want 0", len(layout.Elements))
	}
	if len(layout.Skipped) == 0 {
		t.Error("expected a skipped-element note")
	}
}

func TestEndToEndVivoScale(t *testing.T) {
	// A one-line, one-text template resolved at 1080px output
	// must yield exactly one element whose rect is the reference rect scaled
	// by 1080/templateWidth.
	tpl, err := ParseVivo([]byte(sampleVivoTemplate))
	if err != nil {
		t.Fatalf("ParseVivo: %v", err)
	}
	// Drop the rely icon so exactly one element resolves.
	tpl.Groups[0].Subgroups[0].Lines[0].Images = nil

	r := &Resolver{Measure: fixedMeasurer{width: 200}}
	content := RuntimeContent{DeviceName: "X200 Pro"}
	layout := r.ResolveVivo(tpl, content, 1080, 1440)

	if len(layout.Elements) != 1 {
		t.Fatalf("elements = %d, want 1 (skipped: %v)", len(layout.Elements), layout.Skipped)
	}
	elem := layout.Elements[0]
	if elem.Kind != ElementText || elem.Text != "X200 Pro" {
		t.Errorf("element = %+v", elem)
	}

	scale := 1080.0 / tpl.Frame.Width
	wantW := 320 * scale
	wantH := 48 * scale
	if elem.Rect.W != wantW || elem.Rect.H != wantH {
		t.Errorf("rect = %vx%v, want %vx%v", elem.Rect.W, elem.Rect.H, wantW, wantH)
	}
}

func TestVivoBarHeightFromPaths(t *testing.T) {
	tpl := &Template{
		Frame: FrameConfig{Width: 1080, Height: 1620},
		Paths: [][]Point{{{X: 0, Y: 1350}, {X: 1080, Y: 1350}}},
	}
	r := &Resolver{}
	layout := r.ResolveVivo(tpl, RuntimeContent{}, 1080, 1350)

	// Gap between lowest path point (1350) and template height (1620),
	// scaled 1:1.
	if layout.BarHeightPx != 270 {
		t.Errorf("BarHeightPx = %v, want 270", layout.BarHeightPx)
	}
	if layout.BarTopPx != 1350 {
		t.Errorf("BarTopPx = %v, want 1350", layout.BarTopPx)
	}
}

func TestResolveContent(t *testing.T) {
	c := RuntimeContent{
		DeviceName:   "V30",
		LensInfo:     "24mm f/1.9 1/120s ISO100",
		TimeText:     "2024.03.01 10:00",
		LocationText: "31°N 121°E",
	}

	tests := []struct {
		typ  TextType
		want string
	}{
		{TextDevice, "V30"},
		{TextLensToken0, "24mm"},
		{TextLensToken1, "f/1.9"},
		{TextLensToken2, "1/120s"},
		{TextLensToken3, "ISO100"},
		{TextLensFull, "24mm f/1.9 1/120s ISO100"},
		{TextTime, "2024.03.01 10:00"},
		{TextLocation, "31°N 121°E"},
		{TextDeviceZeiss, "V30 | ZEISS"},
	}
	for _, tt := range tests {
		got, ok := resolveContent(tt.typ, "", c)
		if !ok || got != tt.want {
			t.Errorf("resolveContent(%d) = %q, %v; want %q", tt.typ, got, ok, tt.want)
		}
	}

	if got, _ := resolveContent(TextDeviceZeiss, "", RuntimeContent{}); got != "ZEISS" {
		t.Errorf("device-less ZEISS content = %q", got)
	}
	if _, ok := resolveContent(TextLensToken3, "", RuntimeContent{LensInfo: "24mm f/1.9"}); ok {
		t.Error("out-of-range lens token should be unavailable")
	}
}
