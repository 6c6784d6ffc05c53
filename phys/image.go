package phys

import (
	"fmt"
	"os"

	"github.com/joshuapare/framekit/internal/format"
)

// Image is the modeled physical memory: a contiguous byte range covering
// the physical addresses [Base, Top). File-backed images are mmapped
// (unix/darwin) or buffered (others); anonymous images live entirely in
// process memory.
type Image struct {
	f    *os.File
	data []byte // full file view including the header; nil when anonymous
	mem  []byte // modeled memory only
	hdr  *Header
	base PhysAddr
	size uint64
}

// New returns an anonymous in-memory image of size bytes based at base.
// Anonymous images have no header and no backing file; Sync is a no-op.
func New(base PhysAddr, size uint64) *Image {
	return &Image{
		mem:  make([]byte, size),
		base: base,
		size: size,
	}
}

// Bytes returns the modeled memory. For file-backed images this excludes
// the header block; byte 0 corresponds to physical address Base.
func (im *Image) Bytes() []byte { return im.mem }

// Base returns the base physical address of the modeled memory.
func (im *Image) Base() PhysAddr { return im.base }

// Size returns the modeled memory size in bytes.
func (im *Image) Size() uint64 { return im.size }

// Top returns the first physical address past the modeled memory.
func (im *Image) Top() PhysAddr { return im.base + PhysAddr(im.size) }

// Contains reports whether addr lies inside [Base, Top).
func (im *Image) Contains(addr PhysAddr) bool {
	return addr >= im.base && addr < im.Top()
}

// Header returns the parsed image file header, or nil for anonymous images.
func (im *Image) Header() *Header { return im.hdr }

// Managed returns the manageable range recorded for this image: from the
// header's range start (file-backed) or the image base (anonymous) up to
// Top.
func (im *Image) Managed() Layout {
	start := im.base
	if im.hdr != nil {
		start = im.hdr.RangeStart()
	}
	return Layout{RangeStart: start, RangeEnd: im.Top()}
}

// Window returns the n bytes of modeled memory starting at addr as a view
// into the image. The window must lie entirely inside [Base, Top).
func (im *Image) Window(addr PhysAddr, n uint64) ([]byte, error) {
	if addr < im.base || uint64(addr-im.base)+n > im.size {
		return nil, fmt.Errorf("%w: window [%s, +0x%X) outside [%s, %s)",
			ErrOutOfRange, addr, n, im.base, im.Top())
	}
	off := uint64(addr - im.base)
	return im.mem[off : off+n], nil
}

// FD returns the backing file descriptor, or -1 for anonymous images.
func (im *Image) FD() int {
	if im == nil || im.f == nil {
		return -1
	}
	return int(im.f.Fd())
}

// fileSize returns the on-disk size for the image geometry.
func fileSize(size uint64) int64 {
	return int64(format.HeaderSize) + int64(size)
}

// checkGeometry validates Create parameters before any file is touched.
func checkGeometry(base PhysAddr, size uint64, rangeStart PhysAddr) error {
	if !IsAligned(base) {
		return fmt.Errorf("phys: image base %s not frame aligned", base)
	}
	if size%FrameSize != 0 {
		return fmt.Errorf("phys: image size 0x%X not frame aligned", size)
	}
	if top := uint64(base) + size; top < uint64(base) {
		return fmt.Errorf("phys: image range wraps the address space (base=%s size=0x%X)", base, size)
	}
	if !IsAligned(rangeStart) {
		return fmt.Errorf("phys: range start %s not frame aligned", rangeStart)
	}
	if rangeStart < base || uint64(rangeStart) > uint64(base)+size {
		return fmt.Errorf("phys: range start %s outside image [%s, 0x%x)", rangeStart, base, uint64(base)+size)
	}
	return nil
}
