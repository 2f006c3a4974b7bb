package watermark

import "errors"

// Parse failure kinds. Layout resolution never hard-fails: an element that
// cannot be resolved is skipped and the render degrades to photo + bar.
var (
	ErrMalformedSyntax      = errors.New("watermark: malformed template syntax")
	ErrEmptyTemplate        = errors.New("watermark: template has no paths and no groups")
	ErrMissingRequiredField = errors.New("watermark: missing required field")
)
