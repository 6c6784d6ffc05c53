// Package devicetree reads flattened device tree blobs, the boot-time
// description of a machine's hardware.
//
// # Overview
//
// Firmware hands the kernel a single binary blob describing the platform.
// This package decodes the two parts of it that physical memory setup
// needs: the memory reservation map, and the memory nodes of the
// structure block. Everything else in the tree is walked past, not
// interpreted.
//
// # Blob Layout
//
// A blob starts with a 40-byte header of ten big-endian u32 fields
// (magic 0xd00dfeed, total size, block offsets and sizes). Three blocks
// follow:
//
//   - Memory reservation map: (base, size) u64 pairs ending at a zero pair
//   - Structure block: the node tree as BEGIN_NODE/END_NODE/PROP tokens
//   - Strings block: NUL-terminated property names
//
// # Usage
//
// Parsing a blob and extracting installable memory:
//
//	tree, err := devicetree.Parse(blob)
//	if err != nil {
//	    return err
//	}
//	regions, err := tree.MemoryRegions()
//
// MemoryRegions returns the extents of every node with device_type
// "memory", decoded with the parent's #address-cells and #size-cells
// (defaults 2 and 1 when unset). ReservedRegions returns the ranges
// firmware forbids handing to the allocator.
//
// # Error Handling
//
// Blobs come from outside the program, so every malformed input is an
// ordinary error (ErrBadMagic, ErrTruncated, ErrMalformed), never a
// panic.
//
// # Related Packages
//
//   - github.com/joshuapare/framekit/phys: layouts built from the regions found here
//   - github.com/joshuapare/framekit/internal/format: big-endian field helpers
package devicetree
