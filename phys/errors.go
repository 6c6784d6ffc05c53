package phys

import "errors"

var (
	// ErrBadSignature indicates the file does not start with the image signature.
	ErrBadSignature = errors.New("phys: bad image signature")

	// ErrBadVersion indicates an unsupported image format version.
	ErrBadVersion = errors.New("phys: unsupported image version")

	// ErrBadChecksum indicates the header checksum does not match its contents.
	ErrBadChecksum = errors.New("phys: header checksum mismatch")

	// ErrTruncated indicates the file is too small for its header or geometry.
	ErrTruncated = errors.New("phys: image truncated")

	// ErrOutOfRange indicates an address or window outside the modeled memory.
	ErrOutOfRange = errors.New("phys: address out of range")
)
