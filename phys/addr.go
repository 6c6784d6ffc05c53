package phys

import "fmt"

// PhysAddr is a physical byte address in the modeled memory.
type PhysAddr uint64

// Frame is a zero-based frame index within a Layout's manageable range.
type Frame uint64

const (
	// FrameSize is the size of a physical memory frame in bytes.
	FrameSize = 4096

	// FrameShift is the base-2 logarithm of FrameSize.
	FrameShift = 12

	// FrameMask is the bitmask covering the offset bits within a frame.
	FrameMask = FrameSize - 1
)

// AlignUp returns a aligned up to the next frame boundary.
//
// Example:
//
//	AlignUp(0x1001) = 0x2000
//	AlignUp(0x2000) = 0x2000
func AlignUp(a PhysAddr) PhysAddr {
	return (a + FrameMask) &^ FrameMask
}

// AlignDown returns a aligned down to the previous frame boundary.
//
// Example:
//
//	AlignDown(0x1FFF) = 0x1000
//	AlignDown(0x2000) = 0x2000
func AlignDown(a PhysAddr) PhysAddr {
	return a &^ FrameMask
}

// IsAligned reports whether a lies on a frame boundary.
func IsAligned(a PhysAddr) bool {
	return a&FrameMask == 0
}

// String formats the address in the 0x%x form used across logs and tools.
func (a PhysAddr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}
