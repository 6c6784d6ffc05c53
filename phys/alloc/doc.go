// Package alloc provides kernel-style physical frame allocation with
// per-frame reference counting.
//
// # Overview
//
// This package implements the page allocator of a small operating system
// kernel in library form. It hands out fixed 4096-byte frames from the
// manageable range of a phys.Image, tracks sharing through per-frame
// reference counts, and keeps reclaimed frames on a LIFO free list
// threaded through the frames' own storage.
//
// # Core Operations
//
//   - New: bootstrap an allocator over an image, placing every manageable
//     frame on the free list
//   - Alloc: pop one frame, fill it with AllocFill, return its address
//   - Free: drop one reference; the last reference scrubs the frame with
//     FreeFill and pushes it back on the list
//   - Retain: add a reference to an owned frame (shared mappings)
//   - Ref: read a frame's current reference count
//
// # Usage Example
//
//	img := phys.New(0x8000_0000, 64*phys.FrameSize)
//	a, err := alloc.New(img, phys.Layout{
//	    RangeStart: 0x8000_0000,
//	    RangeEnd:   0x8004_0000,
//	}, nil)
//	if err != nil {
//	    return err
//	}
//
//	addr, err := a.Alloc()
//	if errors.Is(err, alloc.ErrOutOfMemory) {
//	    // expected condition: all frames are owned
//	}
//
//	a.Retain(addr) // second owner
//	a.Free(addr)   // frame stays owned, content intact
//	a.Free(addr)   // last owner: frame is scrubbed and reclaimed
//
// # Errors and Faults
//
// Exhaustion is an expected outcome and surfaces as ErrOutOfMemory.
// Everything else that can go wrong is a caller bug or corrupted state:
// misaligned or out-of-range addresses, releasing a frame nobody owns,
// a free frame with a nonzero count. Those conditions panic with *Fault,
// the library analog of a kernel panic. A Fault is not meant to be
// recovered from in production use; the allocator's state is suspect once
// one has fired.
//
// # Free List
//
// The free list borrows the frames' own storage, the way kernel
// allocators overlay a run structure on freed pages: the first 8 bytes of
// a free frame hold the physical address of the next free frame,
// little-endian, with zero terminating the list. The rest of a free frame
// is FreeFill bytes, so stale data never survives in the pool and a
// hexdump of an image file shows the pool structure directly.
//
// # Sentinel Fills
//
// Granted frames are filled with AllocFill (0x05) before they are handed
// out; reclaimed frames are scrubbed with FreeFill (0x01) before they are
// linked into the pool. Code that relies on uninitialized frame content
// breaks loudly, and the two patterns make frame states recognizable in
// memory dumps.
//
// # Thread Safety
//
// All operations are safe for arbitrary concurrent use once New returns.
// Two lock domains exist: one mutex per frame descriptor and one for the
// free-list head. No operation holds more than one lock at a time, and no
// operation blocks on anything but those mutexes. Allocation order is
// LIFO with respect to completed frees; racing callers get whichever
// frames they get.
//
// # Related Packages
//
//   - github.com/joshuapare/framekit/phys: Addresses, layouts, and the memory backing
//   - github.com/joshuapare/framekit/devicetree: Boot-time discovery of the memory extent
package alloc
