package lutdecode

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vaelin/lutmark/pkg/colorcube"
)

// identityCubeText builds a .cube file whose sample at (r,g,b) is
// (r,g,b)/(n-1), written in red-fastest order.
func identityCubeText(n int) string {
	var sb strings.Builder
	sb.WriteString("# synthetic identity LUT\n")
	sb.WriteString("TITLE \"identity\"\n")
	fmt.Fprintf(&sb, "LUT_3D_SIZE %d\n", n)
	sb.WriteString("DOMAIN_MIN 0.0 0.0 0.0\n")
	sb.WriteString("DOMAIN_MAX 1.0 1.0 1.0\n")
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				fmt.Fprintf(&sb, "%f %f %f\n",
					float64(r)/float64(n-1),
					float64(g)/float64(n-1),
					float64(b)/float64(n-1))
			}
		}
	}
	return sb.String()
}

func identitySamples(n int) []colorcube.RGB {
	samples := make([]colorcube.RGB, 0, n*n*n)
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				samples = append(samples, colorcube.RGB{
					R: float32(r) / float32(n-1),
					G: float32(g) / float32(n-1),
					B: float32(b) / float32(n-1),
				})
			}
		}
	}
	return samples
}

func TestParseCubeTextRoundTrip(t *testing.T) {
	const n = 16
	cube, err := DecodeBytes([]byte(identityCubeText(n)), ".cube")
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	if cube.Size != n {
		t.Errorf("Size = %d, want %d", cube.Size, n)
	}
	if diff := cmp.Diff(identitySamples(n), cube.Samples, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCubeTextClamps(t *testing.T) {
	text := "LUT_3D_SIZE 2\n"
	for i := 0; i < 8; i++ {
		text += "-0.5 1.5 0.25\n"
	}
	cube, err := DecodeBytes([]byte(text), ".cube")
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	want := colorcube.RGB{R: 0, G: 1, B: 0.25}
	if cube.Samples[0] != want {
		t.Errorf("Samples[0] = %+v, want %+v", cube.Samples[0], want)
	}
}

func TestParseCubeTextErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"no size directive", "0.0 0.0 0.0\n", ErrInvalidHeader},
		{"wrong sample count", "LUT_3D_SIZE 2\n0.0 0.0 0.0\n", ErrSizeMismatch},
		{"bad size value", "LUT_3D_SIZE potato\n", ErrInvalidHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.text), ".cube")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBytesUnsupportedExtension(t *testing.T) {
	_, err := DecodeBytes([]byte("x"), ".xmp")
	if !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("error = %v, want ErrUnsupportedExtension", err)
	}
}
