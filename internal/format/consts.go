// Package format houses the low-level layout constants and byte-order
// helpers for the framekit memory image format. The goal is to keep the
// raw offsets and encoding in one place so higher-level packages can
// present the data in a more ergonomic form.
package format

var (
	// ImageSignature is the four-byte signature at the start of every image file.
	// Layout:
	//   0x00  'p' 'm' 'e' 'm'
	ImageSignature = []byte{'p', 'm', 'e', 'm'}
)

const (
	// HeaderSize is the size of the image file header in bytes. The header
	// occupies exactly one memory frame; the modeled memory begins right
	// after it.
	HeaderSize = 4096

	// ImageVersion is the current image format version.
	ImageVersion = 1

	// Image header field offsets. All fields are little-endian.
	ImageSignatureOffset  = 0x000 // 4 bytes, "pmem"
	ImageSignatureSize    = 4
	ImageVersionOffset    = 0x004 // u32, format version
	ImageBaseOffset       = 0x008 // u64, base physical address of the modeled memory
	ImageSizeOffset       = 0x010 // u64, modeled memory size in bytes
	ImageRangeStartOffset = 0x018 // u64, start of the manageable range (first frame after the kernel region)
	ImageChecksumOffset   = 0x1FC // u32, XOR checksum of the preceding header words

	// ChecksumRegionLen is the number of header bytes covered by the checksum.
	ChecksumRegionLen = 0x1FC

	// ChecksumDwords is the number of 32-bit words XORed into the checksum.
	ChecksumDwords = ChecksumRegionLen / 4

	// FrameAlignment is the required alignment of frame-sized structures
	// within an image file. Matches the frame size.
	FrameAlignment = 0x1000

	// FrameAlignmentMask is the bitmask used for aligning to frame boundaries.
	FrameAlignmentMask = FrameAlignment - 1

	// LinkOffset and LinkSize describe the free-list link word stored in the
	// first bytes of a free frame: the physical address of the next free
	// frame, or zero at the end of the list.
	LinkOffset = 0
	LinkSize   = 8
)
