// Package lutdecode normalizes vendor 3D LUT files into colorcube.Cube.
//
// Vendors ship LUTs in wildly incompatible encodings: Adobe-style .cube
// text, raw binary dumps with and without headers, and image-encoded tables
// (HALD squares and two strip layouts). Dispatch is by file extension; an
// extensionless key is treated as a raw binary LUT, which is the common case
// for payloads extracted from camera app bundles.
package lutdecode

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/vaelin/lutmark/pkg/assets"
	"github.com/vaelin/lutmark/pkg/colorcube"
)

// Decode failure kinds. Callers match with errors.Is and treat any of them
// as "not a valid LUT", dropping the asset from selectable presets.
var (
	ErrUnsupportedExtension = errors.New("lutdecode: unsupported file extension")
	ErrTruncatedData        = errors.New("lutdecode: truncated LUT data")
	ErrSizeMismatch         = errors.New("lutdecode: sample count does not match declared size")
	ErrInvalidHeader        = errors.New("lutdecode: invalid LUT header")
)

// Decoder turns asset keys into cubes via a byte provider.
type Decoder struct {
	Assets assets.Provider
}

// New returns a decoder reading from p.
func New(p assets.Provider) *Decoder {
	return &Decoder{Assets: p}
}

// Decode loads and parses the LUT at key. The format is chosen by the key's
// extension: ".cube" is the text format, image extensions are image-encoded
// LUTs, and ".bin" or no extension at all is a raw binary LUT.
func (d *Decoder) Decode(key string) (*colorcube.Cube, error) {
	data, err := d.Assets.Load(key)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data, path.Ext(key))
}

// DecodeFunc adapts the decoder for use with colorcube.Cache.
func (d *Decoder) DecodeFunc() colorcube.DecodeFunc {
	return func(ctx context.Context, key string) (*colorcube.Cube, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return d.Decode(key)
	}
}

// DecodeBytes parses raw LUT bytes, with the format selected by ext
// (including the leading dot; empty means raw binary).
func DecodeBytes(data []byte, ext string) (*colorcube.Cube, error) {
	switch strings.ToLower(ext) {
	case ".cube":
		return parseCubeText(data)
	case ".png", ".jpg", ".jpeg":
		return parseImageLUT(data)
	case "", ".bin":
		return parseBinary(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
}
