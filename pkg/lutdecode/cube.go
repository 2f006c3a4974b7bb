package lutdecode

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/vaelin/lutmark/pkg/colorcube"
)

// parseCubeText parses the Adobe/IRIDAS .cube text format. Only LUT_3D_SIZE
// and the sample lines matter; TITLE and DOMAIN_* directives are skipped.
func parseCubeText(data []byte) (*colorcube.Cube, error) {
	var (
		size    int
		samples []colorcube.RGB
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "TITLE") || strings.HasPrefix(line, "DOMAIN_") {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "LUT_3D_SIZE"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil || n < 2 {
				return nil, fmt.Errorf("%w: line %d: bad LUT_3D_SIZE %q", ErrInvalidHeader, lineNo, strings.TrimSpace(rest))
			}
			size = n
			samples = make([]colorcube.RGB, 0, n*n*n)
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: expected 3 values, got %d", ErrSizeMismatch, lineNo, len(fields))
		}
		var v [3]float32
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrSizeMismatch, lineNo, f)
			}
			v[i] = colorcube.Clamp01(float32(x))
		}
		samples = append(samples, colorcube.RGB{R: v[0], G: v[1], B: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan cube text: %w", err)
	}

	if size == 0 {
		return nil, fmt.Errorf("%w: no LUT_3D_SIZE directive", ErrInvalidHeader)
	}
	if want := size * size * size; len(samples) != want {
		return nil, fmt.Errorf("%w: have %d samples, want %d", ErrSizeMismatch, len(samples), want)
	}

	return colorcube.New(size, samples)
}
