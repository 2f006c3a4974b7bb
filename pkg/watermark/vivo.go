package watermark

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The Vivo DSL is line oriented. Three marker-delimited sections hold the
// frame config (SETIN…CLOSE), the content-area paths (PATHSETIN…PATHCLOSE)
// and the element groups (PARAMSETIN…PARAMCLOSE). Inside the params section,
// block tags (<group>, <subgroup>, <line>, <picparam>, <textparam>) nest;
// single-line tags of the form <name>value</name> mutate whichever block is
// currently open. A close marker commits the open element to its parent.

var pointRe = regexp.MustCompile(`\((-?\d+\.?\d*),(-?\d+\.?\d*)\)`)

var tagRe = regexp.MustCompile(`^<([a-z][a-z0-9]*)>(.*)</([a-z][a-z0-9]*)>$`)

// vivoBlock identifies which params-section block is open. Exactly one block
// is open at each nesting depth, which keeps illegal nesting unrepresentable.
type vivoBlock int

const (
	blockNone vivoBlock = iota
	blockGroup
	blockSubgroup
	blockLine
	blockPic
	blockText
)

type vivoSection int

const (
	sectionNone vivoSection = iota
	sectionFrame
	sectionPaths
	sectionParams
)

type vivoParser struct {
	tpl     Template
	section vivoSection
	block   vivoBlock

	group *Group
	sub   *Subgroup
	line  *Line
	pic   *ImageElement
	text  *TextElement

	path      []Point
	picPoints []Point
	txtPoints []Point
}

// ParseVivo parses the Vivo tag-markup template DSL.
func ParseVivo(data []byte) (*Template, error) {
	p := &vivoParser{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := p.handleLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}

	if len(p.tpl.Paths) == 0 && len(p.tpl.Groups) == 0 {
		return nil, ErrEmptyTemplate
	}
	return &p.tpl, nil
}

func (p *vivoParser) handleLine(line string) error {
	switch line {
	case "SETIN":
		p.section = sectionFrame
		return nil
	case "CLOSE":
		p.section = sectionNone
		return nil
	case "PATHSETIN":
		p.section = sectionPaths
		return nil
	case "PATHCLOSE":
		p.commitPath()
		p.section = sectionNone
		return nil
	case "PARAMSETIN":
		p.section = sectionParams
		return nil
	case "PARAMCLOSE":
		p.closeBlocksDownTo(blockNone)
		p.section = sectionNone
		return nil
	case "<group>":
		p.closeBlocksDownTo(blockNone)
		p.group = &Group{}
		p.block = blockGroup
		return nil
	case "</group>":
		p.closeBlocksDownTo(blockGroup)
		p.commitGroup()
		return nil
	case "<subgroup>":
		p.closeBlocksDownTo(blockGroup)
		p.sub = &Subgroup{Visible: true}
		p.block = blockSubgroup
		return nil
	case "</subgroup>":
		p.closeBlocksDownTo(blockSubgroup)
		p.commitSubgroup()
		return nil
	case "<line>":
		p.closeBlocksDownTo(blockSubgroup)
		p.line = &Line{}
		p.block = blockLine
		return nil
	case "</line>":
		p.closeBlocksDownTo(blockLine)
		p.commitLine()
		return nil
	case "<picparam>":
		p.closeBlocksDownTo(blockLine)
		p.pic = &ImageElement{}
		p.picPoints = nil
		p.block = blockPic
		return nil
	case "</picparam>":
		p.commitPic()
		return nil
	case "<textparam>":
		p.closeBlocksDownTo(blockLine)
		p.text = &TextElement{}
		p.txtPoints = nil
		p.block = blockText
		return nil
	case "</textparam>":
		p.commitText()
		return nil
	case "<path>":
		p.commitPath()
		return nil
	case "</path>":
		p.commitPath()
		return nil
	}

	m := tagRe.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrMalformedSyntax, line)
	}
	if m[1] != m[3] {
		return fmt.Errorf("%w: mismatched tags <%s>…</%s>", ErrMalformedSyntax, m[1], m[3])
	}
	return p.handleTag(m[1], m[2])
}

// closeBlocksDownTo commits open blocks inner-first until the open block is
// target (or nothing is open).
func (p *vivoParser) closeBlocksDownTo(target vivoBlock) {
	for p.block > target {
		switch p.block {
		case blockText:
			p.commitText()
		case blockPic:
			p.commitPic()
		case blockLine:
			p.commitLine()
		case blockSubgroup:
			p.commitSubgroup()
		case blockGroup:
			p.commitGroup()
		}
	}
}

func (p *vivoParser) commitGroup() {
	if p.group != nil {
		p.tpl.Groups = append(p.tpl.Groups, *p.group)
		p.group = nil
	}
	p.block = blockNone
}

func (p *vivoParser) commitSubgroup() {
	if p.sub != nil && p.group != nil {
		regroupByLineNum(p.sub)
		p.group.Subgroups = append(p.group.Subgroups, *p.sub)
	}
	p.sub = nil
	p.block = blockGroup
}

// regroupByLineNum honors explicit <linenum> tags: an element carrying a
// 1-based line number moves to that line, growing the line list as needed.
// Subgroups without any explicit numbers keep their literal block order.
func regroupByLineNum(sub *Subgroup) {
	explicit := false
	for _, ln := range sub.Lines {
		for _, img := range ln.Images {
			if img.LineNum > 0 {
				explicit = true
			}
		}
		for _, txt := range ln.Texts {
			if txt.LineNum > 0 {
				explicit = true
			}
		}
	}
	if !explicit {
		return
	}

	out := make([]Line, len(sub.Lines))
	for i, ln := range sub.Lines {
		out[i].MarginBottom = ln.MarginBottom
	}
	grow := func(n int) {
		for len(out) < n {
			out = append(out, Line{})
		}
	}
	for i, ln := range sub.Lines {
		for _, img := range ln.Images {
			dest := i
			if img.LineNum > 0 {
				dest = img.LineNum - 1
			}
			grow(dest + 1)
			out[dest].Images = append(out[dest].Images, img)
		}
		for _, txt := range ln.Texts {
			dest := i
			if txt.LineNum > 0 {
				dest = txt.LineNum - 1
			}
			grow(dest + 1)
			out[dest].Texts = append(out[dest].Texts, txt)
		}
	}
	sub.Lines = out
}

func (p *vivoParser) commitLine() {
	if p.line != nil && p.sub != nil {
		p.sub.Lines = append(p.sub.Lines, *p.line)
	}
	p.line = nil
	p.block = blockSubgroup
}

func (p *vivoParser) commitPic() {
	if p.pic != nil && p.line != nil {
		p.pic.Rect = rectFromPoints(p.picPoints)
		p.line.Images = append(p.line.Images, *p.pic)
	}
	p.pic = nil
	p.block = blockLine
}

func (p *vivoParser) commitText() {
	if p.text != nil && p.line != nil {
		p.text.Rect = rectFromPoints(p.txtPoints)
		p.line.Texts = append(p.line.Texts, *p.text)
	}
	p.text = nil
	p.block = blockLine
}

func (p *vivoParser) commitPath() {
	if len(p.path) > 0 {
		p.tpl.Paths = append(p.tpl.Paths, p.path)
		p.path = nil
	}
}

func (p *vivoParser) handleTag(name, value string) error {
	switch p.section {
	case sectionFrame:
		return p.frameTag(name, value)
	case sectionPaths:
		if name == "point" {
			pt, err := parsePoint(value)
			if err != nil {
				return err
			}
			p.path = append(p.path, pt)
			return nil
		}
		return fmt.Errorf("%w: tag <%s> in path section", ErrMalformedSyntax, name)
	case sectionParams:
		return p.paramTag(name, value)
	}
	return fmt.Errorf("%w: tag <%s> outside any section", ErrMalformedSyntax, name)
}

func (p *vivoParser) frameTag(name, value string) error {
	var err error
	switch name {
	case "barcolor":
		p.tpl.Frame.BarColor = value
	case "width":
		p.tpl.Frame.Width, err = parseFloat(value)
	case "height":
		p.tpl.Frame.Height, err = parseFloat(value)
	case "marginstart":
		p.tpl.Frame.MarginStart, err = parseFloat(value)
	case "marginend":
		p.tpl.Frame.MarginEnd, err = parseFloat(value)
	case "adaptive":
		p.tpl.Frame.Adaptive = value == "1" || value == "true"
	}
	// Unknown frame tags are vendor noise; ignored.
	return err
}

// paramTag applies a single-line tag to the open block. A commit can leave
// the block level pointing at a parent that was never opened (a stray close
// tag, or an element outside a <line>), so every case re-checks its pointer
// before writing through it.
func (p *vivoParser) paramTag(name, value string) error {
	var err error
	switch p.block {
	case blockGroup:
		if p.group == nil {
			return fmt.Errorf("%w: <%s> outside <group>", ErrMalformedSyntax, name)
		}
		switch name {
		case "gravity":
			p.group.Gravity = parseGravity(value)
		case "marginend":
			p.group.MarginEnd, err = parseFloat(value)
		}
	case blockSubgroup:
		if p.sub == nil {
			return fmt.Errorf("%w: <%s> outside <subgroup>", ErrMalformedSyntax, name)
		}
		switch name {
		case "num":
			p.sub.Index, err = parseInt(value)
		case "visible":
			p.sub.Visible = value == "1" || value == "true"
		}
	case blockLine:
		if p.line == nil {
			return fmt.Errorf("%w: <%s> outside <line>", ErrMalformedSyntax, name)
		}
		switch name {
		case "marginbottom":
			p.line.MarginBottom, err = parseFloat(value)
		}
	case blockPic:
		if p.pic == nil {
			return fmt.Errorf("%w: <%s> outside <picparam>", ErrMalformedSyntax, name)
		}
		switch name {
		case "point":
			pt, perr := parsePoint(value)
			if perr != nil {
				return perr
			}
			p.picPoints = append(p.picPoints, pt)
		case "src":
			p.pic.Asset = value
		case "linenum":
			p.pic.LineNum, err = parseInt(value)
		case "gravity":
			p.pic.Gravity = parseGravity(value)
		case "rely":
			p.pic.Rely = relyOf(p.pic.Rely)
			p.pic.Rely.Target, err = parseInt(value)
		case "relyleft":
			p.pic.Rely = relyOf(p.pic.Rely)
			p.pic.Rely.AnchorLeft = value == "1" || value == "true"
		}
	case blockText:
		if p.text == nil {
			return fmt.Errorf("%w: <%s> outside <textparam>", ErrMalformedSyntax, name)
		}
		switch name {
		case "point":
			pt, perr := parsePoint(value)
			if perr != nil {
				return perr
			}
			p.txtPoints = append(p.txtPoints, pt)
		case "texttype":
			p.text.Type = parseTextType(value)
		case "text":
			p.text.Literal = value
		case "font":
			p.text.FontAsset = value
		case "fontsize":
			p.text.FontSize, err = parseFloat(value)
		case "color":
			p.text.Color = value
		case "linenum":
			p.text.LineNum, err = parseInt(value)
		case "gravity":
			p.text.Gravity = parseGravity(value)
		case "rely":
			p.text.Rely = relyOf(p.text.Rely)
			p.text.Rely.Target, err = parseInt(value)
		case "relyleft":
			p.text.Rely = relyOf(p.text.Rely)
			p.text.Rely.AnchorLeft = value == "1" || value == "true"
		}
	default:
		return fmt.Errorf("%w: tag <%s> outside a block", ErrMalformedSyntax, name)
	}
	return err
}

func relyOf(r *RelyRef) *RelyRef {
	if r == nil {
		return &RelyRef{}
	}
	return r
}

func parsePoint(value string) (Point, error) {
	m := pointRe.FindStringSubmatch(value)
	if m == nil {
		return Point{}, fmt.Errorf("%w: bad point %q", ErrMalformedSyntax, value)
	}
	x, _ := strconv.ParseFloat(m[1], 64)
	y, _ := strconv.ParseFloat(m[2], 64)
	return Point{X: x, Y: y}, nil
}

// rectFromPoints turns a 2-point list into the rectangle they span.
func rectFromPoints(pts []Point) Rect {
	if len(pts) < 2 {
		if len(pts) == 1 {
			return Rect{X: pts[0].X, Y: pts[0].Y}
		}
		return Rect{}
	}
	return Rect{
		X: pts[0].X,
		Y: pts[0].Y,
		W: pts[1].X - pts[0].X,
		H: pts[1].Y - pts[0].Y,
	}
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrMalformedSyntax, s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	v, err := parseFloat(s)
	return int(v), err
}

func parseGravity(s string) Gravity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center":
		return GravityCenter
	case "end":
		return GravityEnd
	default:
		return GravityStart
	}
}

func parseTextType(s string) TextType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "device":
		return TextDevice
	case "lens0":
		return TextLensToken0
	case "lens1":
		return TextLensToken1
	case "lens2":
		return TextLensToken2
	case "lens3":
		return TextLensToken3
	case "lens":
		return TextLensFull
	case "time":
		return TextTime
	case "location":
		return TextLocation
	case "devicezeiss":
		return TextDeviceZeiss
	default:
		return TextLiteral
	}
}
