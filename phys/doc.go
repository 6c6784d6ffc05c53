// Package phys models a machine's physical memory for userspace kernel
// simulation.
//
// # Overview
//
// This package provides the address arithmetic, range bookkeeping, and
// memory backing that the frame allocator in phys/alloc operates on.
// Physical memory is presented as a flat byte slice covering a contiguous
// address interval; it can live entirely in process memory or be backed by
// an image file on disk.
//
// # Key Types
//
//   - PhysAddr: A physical byte address
//   - Frame: A zero-based frame index within a Layout
//   - Layout: The frame-aligned address range available for allocation
//   - Image: The modeled memory, anonymous or file-backed
//   - Header: The 4KB image file header containing geometry metadata
//
// # Frames
//
// Memory is managed in fixed 4096-byte frames (FrameSize). Alignment
// helpers AlignUp, AlignDown, and IsAligned operate on frame boundaries.
//
// # Image Files
//
// A file-backed image consists of:
//
//	[Header - 4KB] [modeled memory bytes]
//
// The header records the base physical address, the memory size and the
// start of the manageable range, and is protected by an XOR checksum. On
// Unix/Linux/macOS the file is memory-mapped read-write; on other
// platforms it is read into memory and written back on Sync.
//
//	img, err := phys.Open("machine.pmem")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer img.Close()
//
// Image.Bytes returns the modeled memory only; the header is never part of
// the physical address space.
//
// # Thread Safety
//
// Image instances are plain memory: concurrent access follows the usual Go
// memory model rules. The allocator in phys/alloc adds the locking
// discipline for frame ownership.
//
// # Related Packages
//
//   - github.com/joshuapare/framekit/phys/alloc: Frame allocation with reference counting
//   - github.com/joshuapare/framekit/devicetree: Boot-time memory discovery
package phys
