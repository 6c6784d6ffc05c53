package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the free list is empty. Expected and
	// recoverable: callers may release frames and retry.
	ErrOutOfMemory = errors.New("alloc: out of physical memory")

	// ErrImageMismatch indicates the layout's range is not covered by the image.
	ErrImageMismatch = errors.New("alloc: layout not covered by image")
)
