package phys

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/framekit/internal/format"
)

// Header represents the 4KiB metadata block at the start of an image file.
// Zero-copy: all accessors read directly from h.raw.
type Header struct {
	raw []byte // len >= format.HeaderSize
}

// isImage is a fast, zero-alloc check for the image signature.
func isImage(b []byte) bool {
	const off = format.ImageSignatureOffset
	const n = format.ImageSignatureSize
	if len(b) < off+n {
		return false
	}
	return bytes.Equal(b[off:off+n], format.ImageSignature)
}

// ParseHeader validates the signature and returns a header view.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < format.HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for header", ErrTruncated, len(b), format.HeaderSize)
	}
	if !isImage(b) {
		return nil, ErrBadSignature
	}
	return &Header{raw: b[:format.HeaderSize]}, nil
}

// Raw returns the raw bytes of the header block.
func (h *Header) Raw() []byte { return h.raw }

// Signature returns the "pmem" signature bytes.
func (h *Header) Signature() []byte {
	return h.raw[format.ImageSignatureOffset : format.ImageSignatureOffset+format.ImageSignatureSize]
}

// Version returns the image format version.
func (h *Header) Version() uint32 { return format.ReadU32(h.raw, format.ImageVersionOffset) }

// Base returns the base physical address of the modeled memory.
func (h *Header) Base() PhysAddr { return PhysAddr(format.ReadU64(h.raw, format.ImageBaseOffset)) }

// MemSize returns the modeled memory size in bytes.
func (h *Header) MemSize() uint64 { return format.ReadU64(h.raw, format.ImageSizeOffset) }

// RangeStart returns the start of the manageable range. Memory between
// Base and RangeStart models the kernel image and is never allocated.
func (h *Header) RangeStart() PhysAddr {
	return PhysAddr(format.ReadU64(h.raw, format.ImageRangeStartOffset))
}

// StoredChecksum returns the checksum value stored in the header.
func (h *Header) StoredChecksum() uint32 {
	return format.ReadU32(h.raw, format.ImageChecksumOffset)
}

// ChecksumOK computes the XOR checksum over the header words preceding the
// checksum field and compares it to the stored value.
func (h *Header) ChecksumOK() bool {
	return headerChecksum(h.raw) == h.StoredChecksum()
}

// Validate performs a thorough header validation with descriptive errors.
// It checks only the header block against the provided fileSize (the whole
// image file length).
//
// Policy:
//   - Signature must be "pmem" (checked by ParseHeader, rechecked here)
//   - Version must be the current format version
//   - Checksum must match
//   - Memory size must be frame-aligned
//   - Base + size must not wrap the address space
//   - Range start must be frame-aligned and inside [base, base+size]
//   - File size must equal header + memory size exactly
func (h *Header) Validate(fileSize int) error {
	if len(h.raw) < format.HeaderSize {
		return fmt.Errorf("%w: header %d bytes, need %d", ErrTruncated, len(h.raw), format.HeaderSize)
	}
	if !isImage(h.raw) {
		return ErrBadSignature
	}
	if v := h.Version(); v != format.ImageVersion {
		return fmt.Errorf("%w: %d (expected %d)", ErrBadVersion, v, format.ImageVersion)
	}
	if !h.ChecksumOK() {
		return fmt.Errorf("%w: stored=0x%08X computed=0x%08X",
			ErrBadChecksum, h.StoredChecksum(), headerChecksum(h.raw))
	}

	size := h.MemSize()
	if size%FrameSize != 0 {
		return fmt.Errorf("phys: memory size not frame aligned: 0x%X", size)
	}
	if top := uint64(h.Base()) + size; top < uint64(h.Base()) {
		return fmt.Errorf("phys: image range wraps the address space (base=%s size=0x%X)", h.Base(), size)
	}
	rs := h.RangeStart()
	if !IsAligned(rs) {
		return fmt.Errorf("phys: range start not frame aligned: %s", rs)
	}
	if rs < h.Base() || uint64(rs) > uint64(h.Base())+size {
		return fmt.Errorf("phys: range start %s outside image [%s, 0x%x)", rs, h.Base(), uint64(h.Base())+size)
	}

	expected := int64(format.HeaderSize) + int64(size)
	if int64(fileSize) != expected {
		return fmt.Errorf("%w: file size %d, header geometry needs %d", ErrTruncated, fileSize, expected)
	}
	return nil
}

// writeHeader fills buf with a valid header for the given geometry,
// including the checksum. buf must be at least format.HeaderSize bytes.
func writeHeader(buf []byte, base PhysAddr, size uint64, rangeStart PhysAddr) {
	copy(buf[format.ImageSignatureOffset:], format.ImageSignature)
	format.PutU32(buf, format.ImageVersionOffset, format.ImageVersion)
	format.PutU64(buf, format.ImageBaseOffset, uint64(base))
	format.PutU64(buf, format.ImageSizeOffset, size)
	format.PutU64(buf, format.ImageRangeStartOffset, uint64(rangeStart))
	format.PutU32(buf, format.ImageChecksumOffset, headerChecksum(buf))
}

// headerChecksum XORs the header words preceding the checksum field.
func headerChecksum(raw []byte) uint32 {
	var xor uint32
	for i := 0; i < format.ChecksumDwords; i++ {
		xor ^= format.ReadU32(raw, i*4)
	}
	return xor
}
