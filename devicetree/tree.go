package devicetree

import (
	"fmt"

	"github.com/joshuapare/framekit/internal/format"
)

// Magic is the big-endian value every flattened device tree starts with.
const Magic uint32 = 0xd00dfeed

// headerSize is the size of the fixed blob header: ten big-endian u32
// fields.
const headerSize = 40

// Header holds the decoded blob header. All fields are stored big-endian
// on the wire.
type Header struct {
	Magic           uint32 // always 0xd00dfeed
	TotalSize       uint32 // size of the whole blob in bytes
	StructOffset    uint32 // structure block offset from the blob start
	StringsOffset   uint32 // strings block offset from the blob start
	MemMapOffset    uint32 // memory reservation map offset
	Version         uint32
	LastCompVersion uint32 // oldest compatible version
	BootCPUID       uint32
	StringsSize     uint32 // strings block size in bytes
	StructSize      uint32 // structure block size in bytes
}

// Region is a contiguous physical memory extent.
type Region struct {
	Base uint64
	Size uint64
}

// End returns the first address past the region.
func (r Region) End() uint64 { return r.Base + r.Size }

// String formats the region as a half-open address interval.
func (r Region) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Base, r.End())
}

// Tree is a parsed flattened device tree. The blob is referenced, not
// copied; it must stay intact while the Tree is in use.
type Tree struct {
	raw []byte
	hdr Header
}

// Parse validates the header and block geometry of blob and returns a
// Tree over it. Malformed input is an ordinary error, never a panic: boot
// configuration arrives from outside and is untrusted.
func Parse(blob []byte) (*Tree, error) {
	if len(blob) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncated, len(blob), headerSize)
	}

	hdr := Header{
		Magic:           format.ReadU32BE(blob, 0),
		TotalSize:       format.ReadU32BE(blob, 4),
		StructOffset:    format.ReadU32BE(blob, 8),
		StringsOffset:   format.ReadU32BE(blob, 12),
		MemMapOffset:    format.ReadU32BE(blob, 16),
		Version:         format.ReadU32BE(blob, 20),
		LastCompVersion: format.ReadU32BE(blob, 24),
		BootCPUID:       format.ReadU32BE(blob, 28),
		StringsSize:     format.ReadU32BE(blob, 32),
		StructSize:      format.ReadU32BE(blob, 36),
	}

	if hdr.Magic != Magic {
		return nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrBadMagic, hdr.Magic, Magic)
	}
	if uint32(len(blob)) < hdr.TotalSize {
		return nil, fmt.Errorf("%w: blob is %d bytes, header claims %d", ErrTruncated, len(blob), hdr.TotalSize)
	}
	if hdr.TotalSize < headerSize {
		return nil, fmt.Errorf("%w: total size %d smaller than header", ErrMalformed, hdr.TotalSize)
	}
	if err := checkBlock(hdr, "structure", hdr.StructOffset, hdr.StructSize); err != nil {
		return nil, err
	}
	if err := checkBlock(hdr, "strings", hdr.StringsOffset, hdr.StringsSize); err != nil {
		return nil, err
	}
	if hdr.MemMapOffset >= hdr.TotalSize {
		return nil, fmt.Errorf("%w: reservation map offset 0x%X outside blob", ErrMalformed, hdr.MemMapOffset)
	}

	return &Tree{raw: blob[:hdr.TotalSize], hdr: hdr}, nil
}

// checkBlock verifies a block described by the header lies inside the blob.
func checkBlock(hdr Header, name string, off, size uint32) error {
	end := uint64(off) + uint64(size)
	if end > uint64(hdr.TotalSize) {
		return fmt.Errorf("%w: %s block [0x%X, 0x%X) outside blob of 0x%X bytes",
			ErrMalformed, name, off, end, hdr.TotalSize)
	}
	return nil
}

// Header returns the decoded blob header.
func (t *Tree) Header() Header { return t.hdr }

// ReservedRegions decodes the memory reservation map: big-endian
// (base, size) u64 pairs terminated by a zero pair. Firmware lists memory
// the kernel must never hand to the allocator here.
func (t *Tree) ReservedRegions() ([]Region, error) {
	var regions []Region

	pos := int(t.hdr.MemMapOffset)
	for {
		if pos+16 > len(t.raw) {
			return nil, fmt.Errorf("%w: reservation map not terminated", ErrMalformed)
		}
		base := format.ReadU64BE(t.raw, pos)
		size := format.ReadU64BE(t.raw, pos+8)
		if base == 0 && size == 0 {
			return regions, nil
		}
		regions = append(regions, Region{Base: base, Size: size})
		pos += 16
	}
}
