package phys

import "fmt"

// Layout describes the manageable physical range: the frame-aligned,
// half-open interval [RangeStart, RangeEnd) handed to the allocator at
// boot. Memory below RangeStart belongs to the kernel image and is never
// allocated; RangeEnd is the first byte past the modeled memory.
//
// A Layout is a plain value. It is fixed once the allocator is
// constructed.
type Layout struct {
	RangeStart PhysAddr
	RangeEnd   PhysAddr
}

// AfterKernel derives the layout for the memory remaining after a kernel
// image: the first frame boundary at or above kernelTop through the last
// frame boundary at or below top.
func AfterKernel(kernelTop, top PhysAddr) Layout {
	return Layout{
		RangeStart: AlignUp(kernelTop),
		RangeEnd:   AlignDown(top),
	}
}

// Validate checks the structural constraints on the range. Address zero is
// reserved: the managed range always sits above the kernel image, and the
// free list uses a zero link word as its terminator.
func (l Layout) Validate() error {
	if !IsAligned(l.RangeStart) {
		return fmt.Errorf("phys: range start %s not frame aligned", l.RangeStart)
	}
	if !IsAligned(l.RangeEnd) {
		return fmt.Errorf("phys: range end %s not frame aligned", l.RangeEnd)
	}
	if l.RangeStart == 0 {
		return fmt.Errorf("phys: range start must be above the kernel image")
	}
	if l.RangeEnd < l.RangeStart {
		return fmt.Errorf("phys: range end %s below range start %s", l.RangeEnd, l.RangeStart)
	}
	return nil
}

// FrameCount returns the number of frames in the range.
func (l Layout) FrameCount() int {
	return int((l.RangeEnd - l.RangeStart) >> FrameShift)
}

// Contains reports whether addr lies inside [RangeStart, RangeEnd).
// The end address itself is outside the range.
func (l Layout) Contains(addr PhysAddr) bool {
	return addr >= l.RangeStart && addr < l.RangeEnd
}

// IndexOf maps a frame-aligned address inside the range to its frame
// index. It is the one place frame-index arithmetic happens; callers that
// need the fatal-on-invalid behavior wrap it (see alloc.FrameIndex).
func (l Layout) IndexOf(addr PhysAddr) (Frame, bool) {
	if !IsAligned(addr) || !l.Contains(addr) {
		return 0, false
	}
	return Frame((addr - l.RangeStart) >> FrameShift), true
}

// AddrOf returns the physical address of frame f. The inverse of IndexOf
// for in-range indices; out-of-range indices produce out-of-range
// addresses, which IndexOf will reject.
func (l Layout) AddrOf(f Frame) PhysAddr {
	return l.RangeStart + PhysAddr(f)<<FrameShift
}
