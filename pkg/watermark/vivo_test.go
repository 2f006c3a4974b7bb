package watermark

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleVivoTemplate = `SETIN
<barcolor>#1A1A1A</barcolor>
<width>1080</width>
<height>1620</height>
<marginstart>48</marginstart>
<marginend>48</marginend>
<adaptive>1</adaptive>
CLOSE
PATHSETIN
<point>(0,1350)</point>
<point>(1080,1350)</point>
PATHCLOSE
PARAMSETIN
<group>
<gravity>end</gravity>
<marginend>40</marginend>
<subgroup>
<num>0</num>
<visible>1</visible>
<line>
<marginbottom>12</marginbottom>
<picparam>
<point>(-5,0)</point>
<point>(59,64)</point>
<src>icons/zeiss.png</src>
<rely>0</rely>
<relyleft>1</relyleft>
</picparam>
<textparam>
<point>(100,0)</point>
<point>(420,48)</point>
<texttype>device</texttype>
<fontsize>36</fontsize>
<color>#FFFFFF</color>
<font>fonts/vivo_sans.ttf</font>
</textparam>
</line>
</subgroup>
</group>
PARAMCLOSE
`

func TestParseVivo(t *testing.T) {
	tpl, err := ParseVivo([]byte(sampleVivoTemplate))
	if err != nil {
		t.Fatalf("ParseVivo: %v", err)
	}

	wantFrame := FrameConfig{
		BarColor:    "#1A1A1A",
		Width:       1080,
		Height:      1620,
		MarginStart: 48,
		MarginEnd:   48,
		Adaptive:    true,
	}
	if diff := cmp.Diff(wantFrame, tpl.Frame); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}

	if len(tpl.Paths) != 1 || len(tpl.Paths[0]) != 2 {
		t.Fatalf("paths = %v, want one path of two points", tpl.Paths)
	}
	if tpl.Paths[0][1] != (Point{X: 1080, Y: 1350}) {
		t.Errorf("path point = %+v", tpl.Paths[0][1])
	}

	if len(tpl.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(tpl.Groups))
	}
	group := tpl.Groups[0]
	if group.Gravity != GravityEnd || group.MarginEnd != 40 {
		t.Errorf("group = %+v", group)
	}
	if len(group.Subgroups) != 1 || len(group.Subgroups[0].Lines) != 1 {
		t.Fatalf("subgroup/line structure = %+v", group.Subgroups)
	}

	line := group.Subgroups[0].Lines[0]
	if line.MarginBottom != 12 {
		t.Errorf("marginBottom = %v, want 12", line.MarginBottom)
	}
	if len(line.Images) != 1 || len(line.Texts) != 1 {
		t.Fatalf("line elements = %d images, %d texts", len(line.Images), len(line.Texts))
	}

	img := line.Images[0]
	wantImg := ImageElement{
		Rect:  Rect{X: -5, Y: 0, W: 64, H: 64},
		Asset: "icons/zeiss.png",
		Rely:  &RelyRef{Target: 0, AnchorLeft: true},
	}
	if diff := cmp.Diff(wantImg, img); diff != "" {
		t.Errorf("image mismatch (-want +got):\n%s", diff)
	}

	txt := line.Texts[0]
	if txt.Type != TextDevice || txt.FontSize != 36 || txt.FontAsset != "fonts/vivo_sans.ttf" {
		t.Errorf("text = %+v", txt)
	}
	if txt.Rect != (Rect{X: 100, Y: 0, W: 320, H: 48}) {
		t.Errorf("text rect = %+v", txt.Rect)
	}
}

func TestParseVivoEmpty(t *testing.T) {
	_, err := ParseVivo([]byte("SETIN\n<width>1080</width>\nCLOSE\n"))
	if !errors.Is(err, ErrEmptyTemplate) {
		t.Errorf("error = %v, want ErrEmptyTemplate", err)
	}
}

func TestParseVivoMalformed(t *testing.T) {
	tests := []string{
		"PARAMSETIN\nnot a tag\nPARAMCLOSE\n",
		"PARAMSETIN\n<group>\n<gravity>end</marginend>\n",
		"PATHSETIN\n<point>nope</point>\nPATHCLOSE\n",
		"SETIN\n<width>12px</width>\nCLOSE\n",
		"PARAMSETIN\n<group>\n<subgroup>\n<line>\n<textparam>\n<fontsize>big</fontsize>\nPARAMCLOSE\n",
	}
	for _, src := range tests {
		if _, err := ParseVivo([]byte(src)); !errors.Is(err, ErrMalformedSyntax) {
			t.Errorf("%q: error = %v, want ErrMalformedSyntax", src, err)
		}
	}
}

func TestParseVivoOrphanedTags(t *testing.T) {
	// A stray element close or a block opened under the wrong parent leaves
	// the parser at a level whose object was never created. Tags arriving
	// there must error, not crash.
	tests := []string{
		"PARAMSETIN\n<picparam>\n</picparam>\n<marginbottom>1</marginbottom>\nPARAMCLOSE\n",
		"PARAMSETIN\n<textparam>\n</textparam>\n<marginbottom>1</marginbottom>\nPARAMCLOSE\n",
		"PARAMSETIN\n<group>\n<subgroup>\n</subgroup>\n<line>\n</line>\n<num>1</num>\nPARAMCLOSE\n",
	}
	for _, src := range tests {
		if _, err := ParseVivo([]byte(src)); !errors.Is(err, ErrMalformedSyntax) {
			t.Errorf("%q: error = %v, want ErrMalformedSyntax", src, err)
		}
	}
}

func TestParseVivoLineNumRegrouping(t *testing.T) {
	// Elements carrying explicit <linenum> values land on the line they
	// name, regardless of which <line> block they were written in.
	src := `PARAMSETIN
<group>
<subgroup>
<line>
<textparam>
<point>(0,0)</point>
<point>(10,10)</point>
<text>first</text>
</textparam>
<textparam>
<point>(0,20)</point>
<point>(10,30)</point>
<text>second</text>
<linenum>2</linenum>
</textparam>
</line>
</subgroup>
</group>
PARAMCLOSE
`
	tpl, err := ParseVivo([]byte(src))
	if err != nil {
		t.Fatalf("ParseVivo: %v", err)
	}
	lines := tpl.Groups[0].Subgroups[0].Lines
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if len(lines[0].Texts) != 1 || lines[0].Texts[0].Literal != "first" {
		t.Errorf("line 1 texts = %+v", lines[0].Texts)
	}
	if len(lines[1].Texts) != 1 || lines[1].Texts[0].Literal != "second" {
		t.Errorf("line 2 texts = %+v", lines[1].Texts)
	}
}

func TestParseVivoImplicitCloses(t *testing.T) {
	// PARAMCLOSE with blocks still open must commit everything.
	src := `PARAMSETIN
<group>
<subgroup>
<line>
<textparam>
<point>(0,0)</point>
<point>(10,10)</point>
<texttype>time</texttype>
PARAMCLOSE
`
	tpl, err := ParseVivo([]byte(src))
	if err != nil {
		t.Fatalf("ParseVivo: %v", err)
	}
	if len(tpl.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(tpl.Groups))
	}
	texts := tpl.Groups[0].Subgroups[0].Lines[0].Texts
	if len(texts) != 1 || texts[0].Type != TextTime {
		t.Errorf("texts = %+v", texts)
	}
}
