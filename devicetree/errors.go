package devicetree

import "errors"

var (
	// ErrBadMagic indicates the blob does not start with the flattened
	// device tree magic number.
	ErrBadMagic = errors.New("devicetree: bad magic")

	// ErrTruncated indicates the blob is shorter than its header claims.
	ErrTruncated = errors.New("devicetree: blob truncated")

	// ErrMalformed indicates a structurally invalid blob: blocks out of
	// bounds, unterminated lists, or a corrupt structure walk.
	ErrMalformed = errors.New("devicetree: malformed blob")
)
