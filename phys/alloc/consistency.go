package alloc

import (
	"fmt"

	"github.com/joshuapare/framekit/internal/format"
	"github.com/joshuapare/framekit/phys"
)

// CheckConsistency sweeps the free list and the descriptor table and
// returns the first violated invariant, or nil. Unlike the engine it
// reports instead of faulting, so tools can diagnose a damaged image
// without crashing.
//
// The sweep takes the allocator's locks one domain at a time. Run it only
// on a quiescent allocator: concurrent engine calls make the snapshot
// stale before it is checked.
func (a *Allocator) CheckConsistency() error {
	frames, err := a.snapshotFreeList()
	if err != nil {
		return err
	}

	// Free frames carry no owners and keep their scrub pattern outside
	// the link word.
	for _, addr := range frames {
		f, _ := a.layout.IndexOf(addr)
		d := &a.descs[f]
		d.mu.Lock()
		ref := d.ref
		d.mu.Unlock()
		if ref != 0 {
			return fmt.Errorf("alloc: free frame %s has refcount %d", addr, ref)
		}

		fb := a.frameBytes(f)
		for i := format.LinkSize; i < len(fb); i++ {
			if fb[i] != FreeFill {
				return fmt.Errorf("alloc: free frame %s modified at offset 0x%X (0x%02X)", addr, i, fb[i])
			}
		}
	}

	// No descriptor may go negative, free or owned.
	for i := range a.descs {
		d := &a.descs[i]
		d.mu.Lock()
		ref := d.ref
		d.mu.Unlock()
		if ref < 0 {
			return fmt.Errorf("alloc: frame %s has negative refcount %d",
				a.layout.AddrOf(phys.Frame(i)), ref)
		}
	}

	return nil
}

// snapshotFreeList collects the free list under the list lock, validating
// every link as it goes.
func (a *Allocator) snapshotFreeList() ([]phys.PhysAddr, error) {
	a.listMu.Lock()
	defer a.listMu.Unlock()

	frames := make([]phys.PhysAddr, 0, len(a.descs))
	seen := make(map[phys.PhysAddr]struct{}, len(a.descs))

	for addr := a.head; addr != nilLink; {
		f, ok := a.layout.IndexOf(addr)
		if !ok {
			return nil, fmt.Errorf("alloc: free list entry %s is not a managed frame", addr)
		}
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("alloc: free list cycles at %s", addr)
		}
		seen[addr] = struct{}{}
		frames = append(frames, addr)

		addr = phys.PhysAddr(format.ReadU64(a.frameBytes(f), format.LinkOffset))
	}
	return frames, nil
}
