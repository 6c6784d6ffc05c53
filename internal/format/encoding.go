package format

import "encoding/binary"

// Binary encoding utilities for the integers that appear in framekit data.
//
// Image headers and free-list link words are little-endian. Device tree
// blobs are big-endian, so both byte orders live here rather than spreading
// raw binary.ByteOrder calls across packages.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutU32BE writes a uint32 value to the buffer at the specified offset in big-endian format.
func PutU32BE(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:off+4], v)
}

// PutU64BE writes a uint64 value to the buffer at the specified offset in big-endian format.
func PutU64BE(b []byte, off int, v uint64) {
	binary.BigEndian.PutUint64(b[off:off+8], v)
}

// ReadU32BE reads a uint32 value from the buffer at the specified offset in big-endian format.
func ReadU32BE(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}

// ReadU64BE reads a uint64 value from the buffer at the specified offset in big-endian format.
func ReadU64BE(b []byte, off int) uint64 {
	return binary.BigEndian.Uint64(b[off : off+8])
}
