package colorcube

import (
	"bufio"
	"fmt"
	"io"
)

// WriteCube emits the cube in Adobe/IRIDAS .cube text form, the canonical
// interchange format. Samples are written in storage order (red fastest).
func WriteCube(w io.Writer, c *Cube, title string) error {
	bw := bufio.NewWriter(w)

	if title != "" {
		fmt.Fprintf(bw, "TITLE %q\n", title)
	}
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", c.Size)
	fmt.Fprintln(bw, "DOMAIN_MIN 0.0 0.0 0.0")
	fmt.Fprintln(bw, "DOMAIN_MAX 1.0 1.0 1.0")

	for _, s := range c.Samples {
		if _, err := fmt.Fprintf(bw, "%.6f %.6f %.6f\n", s.R, s.G, s.B); err != nil {
			return fmt.Errorf("write cube: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write cube: %w", err)
	}
	return nil
}
