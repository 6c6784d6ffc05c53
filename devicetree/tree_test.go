package devicetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/framekit/internal/format"
)

// fdtBuilder assembles a blob token by token so tests control the exact
// wire layout. Blocks are laid out as header, reservation map, structure,
// strings.
type fdtBuilder struct {
	structBlk []byte
	strings   []byte
	strOffs   map[string]uint32
	reserved  []Region
	version   uint32
	bootCPU   uint32
}

func newFDT() *fdtBuilder {
	return &fdtBuilder{strOffs: make(map[string]uint32), version: 17}
}

func (b *fdtBuilder) token(v uint32) {
	var w [4]byte
	format.PutU32BE(w[:], 0, v)
	b.structBlk = append(b.structBlk, w[:]...)
}

func (b *fdtBuilder) pad4() {
	for len(b.structBlk)%4 != 0 {
		b.structBlk = append(b.structBlk, 0)
	}
}

func (b *fdtBuilder) beginNode(name string) {
	b.token(tokenBeginNode)
	b.structBlk = append(b.structBlk, name...)
	b.structBlk = append(b.structBlk, 0)
	b.pad4()
}

func (b *fdtBuilder) endNode() { b.token(tokenEndNode) }
func (b *fdtBuilder) nop()     { b.token(tokenNop) }
func (b *fdtBuilder) end()     { b.token(tokenEnd) }

func (b *fdtBuilder) stringOff(name string) uint32 {
	if off, ok := b.strOffs[name]; ok {
		return off
	}
	off := uint32(len(b.strings))
	b.strings = append(b.strings, name...)
	b.strings = append(b.strings, 0)
	b.strOffs[name] = off
	return off
}

func (b *fdtBuilder) prop(name string, value []byte) {
	b.token(tokenProp)
	var w [8]byte
	format.PutU32BE(w[:], 0, uint32(len(value)))
	format.PutU32BE(w[:], 4, b.stringOff(name))
	b.structBlk = append(b.structBlk, w[:]...)
	b.structBlk = append(b.structBlk, value...)
	b.pad4()
}

func (b *fdtBuilder) propU32(name string, v uint32) {
	var w [4]byte
	format.PutU32BE(w[:], 0, v)
	b.prop(name, w[:])
}

func (b *fdtBuilder) propString(name, v string) {
	b.prop(name, append([]byte(v), 0))
}

func (b *fdtBuilder) reserve(base, size uint64) {
	b.reserved = append(b.reserved, Region{Base: base, Size: size})
}

func (b *fdtBuilder) build() []byte {
	rsvOff := uint32(headerSize)
	rsvLen := uint32((len(b.reserved) + 1) * 16)
	structOff := rsvOff + rsvLen
	stringsOff := structOff + uint32(len(b.structBlk))
	total := stringsOff + uint32(len(b.strings))

	blob := make([]byte, total)
	format.PutU32BE(blob, 0, Magic)
	format.PutU32BE(blob, 4, total)
	format.PutU32BE(blob, 8, structOff)
	format.PutU32BE(blob, 12, stringsOff)
	format.PutU32BE(blob, 16, rsvOff)
	format.PutU32BE(blob, 20, b.version)
	format.PutU32BE(blob, 24, 16)
	format.PutU32BE(blob, 28, b.bootCPU)
	format.PutU32BE(blob, 32, uint32(len(b.strings)))
	format.PutU32BE(blob, 36, uint32(len(b.structBlk)))

	pos := int(rsvOff)
	for _, r := range b.reserved {
		format.PutU64BE(blob, pos, r.Base)
		format.PutU64BE(blob, pos+8, r.Size)
		pos += 16
	}
	// The terminating zero pair is already zeroed.

	copy(blob[structOff:], b.structBlk)
	copy(blob[stringsOff:], b.strings)
	return blob
}

// regCells packs big-endian u32 cells for a reg property value.
func regCells(vals ...uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		format.PutU32BE(out, i*4, v)
	}
	return out
}

// minimalBlob is a root with a single memory node under the default cell
// counts: two address cells, one size cell.
func minimalBlob() []byte {
	b := newFDT()
	b.beginNode("")
	b.beginNode("memory@80000000")
	b.propString("device_type", "memory")
	b.prop("reg", regCells(0, 0x8000_0000, 0x80_0000))
	b.endNode()
	b.endNode()
	b.end()
	return b.build()
}

func Test_Parse_HeaderFields(t *testing.T) {
	blob := minimalBlob()

	tree, err := Parse(blob)
	require.NoError(t, err)

	hdr := tree.Header()
	assert.Equal(t, Magic, hdr.Magic)
	assert.Equal(t, uint32(len(blob)), hdr.TotalSize)
	assert.Equal(t, uint32(17), hdr.Version)
	assert.Equal(t, uint32(16), hdr.LastCompVersion)
	assert.Equal(t, uint32(0), hdr.BootCPUID)

	// One terminator pair sits between the header and the structure block.
	assert.Equal(t, uint32(headerSize), hdr.MemMapOffset)
	assert.Equal(t, uint32(headerSize+16), hdr.StructOffset)
	assert.Equal(t, hdr.StructOffset+hdr.StructSize, hdr.StringsOffset)
	assert.Equal(t, hdr.StringsOffset+hdr.StringsSize, hdr.TotalSize)
}

func Test_Parse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func([]byte) []byte
		wantErr    error
		wantSubstr string
	}{
		{
			name:       "blob shorter than header",
			mutate:     func(b []byte) []byte { return b[:20] },
			wantErr:    ErrTruncated,
			wantSubstr: "header needs",
		},
		{
			name: "bad magic",
			mutate: func(b []byte) []byte {
				format.PutU32BE(b, 0, 0xfeedface)
				return b
			},
			wantErr: ErrBadMagic,
		},
		{
			name:       "blob shorter than total size",
			mutate:     func(b []byte) []byte { return b[:len(b)-8] },
			wantErr:    ErrTruncated,
			wantSubstr: "header claims",
		},
		{
			name: "structure block out of bounds",
			mutate: func(b []byte) []byte {
				format.PutU32BE(b, 8, uint32(len(b)))
				return b
			},
			wantErr:    ErrMalformed,
			wantSubstr: "structure block",
		},
		{
			name: "strings block out of bounds",
			mutate: func(b []byte) []byte {
				format.PutU32BE(b, 32, 0xFFFF)
				return b
			},
			wantErr:    ErrMalformed,
			wantSubstr: "strings block",
		},
		{
			name: "reservation map out of bounds",
			mutate: func(b []byte) []byte {
				format.PutU32BE(b, 16, uint32(len(b)+4))
				return b
			},
			wantErr:    ErrMalformed,
			wantSubstr: "reservation map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.mutate(minimalBlob()))
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantSubstr != "" {
				require.Contains(t, err.Error(), tt.wantSubstr)
			}
		})
	}
}

func Test_ReservedRegions(t *testing.T) {
	b := newFDT()
	b.reserve(0x0, 0x1000)
	b.reserve(0x8000_0000, 0x20_0000)
	b.beginNode("")
	b.endNode()
	b.end()

	tree, err := Parse(b.build())
	require.NoError(t, err)

	regions, err := tree.ReservedRegions()
	require.NoError(t, err)
	assert.Equal(t, []Region{
		{Base: 0x0, Size: 0x1000},
		{Base: 0x8000_0000, Size: 0x20_0000},
	}, regions)
}

func Test_ReservedRegions_Empty(t *testing.T) {
	tree, err := Parse(minimalBlob())
	require.NoError(t, err)

	regions, err := tree.ReservedRegions()
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func Test_ReservedRegions_Unterminated(t *testing.T) {
	blob := minimalBlob()

	// Re-aim the map at the blob tail so the walk runs out of bytes
	// before it sees a zero pair.
	format.PutU32BE(blob, 16, uint32(len(blob)-8))

	tree, err := Parse(blob)
	require.NoError(t, err)

	_, err = tree.ReservedRegions()
	require.ErrorIs(t, err, ErrMalformed)
	require.Contains(t, err.Error(), "not terminated")
}

func Test_MemoryRegions_DefaultCells(t *testing.T) {
	tree, err := Parse(minimalBlob())
	require.NoError(t, err)

	regions, err := tree.MemoryRegions()
	require.NoError(t, err)
	assert.Equal(t, []Region{{Base: 0x8000_0000, Size: 0x80_0000}}, regions)
}

func Test_MemoryRegions_ExplicitCells(t *testing.T) {
	b := newFDT()
	b.beginNode("")
	b.propU32("#address-cells", 2)
	b.propU32("#size-cells", 2)
	b.beginNode("memory@100000000")
	b.propString("device_type", "memory")
	b.prop("reg", regCells(
		0x1, 0x0, 0x0, 0x4000_0000,
		0x2, 0x1000, 0x0, 0x2000,
	))
	b.endNode()
	b.endNode()
	b.end()

	tree, err := Parse(b.build())
	require.NoError(t, err)

	regions, err := tree.MemoryRegions()
	require.NoError(t, err)
	assert.Equal(t, []Region{
		{Base: 0x1_0000_0000, Size: 0x4000_0000},
		{Base: 0x2_0000_1000, Size: 0x2000},
	}, regions)
}

func Test_MemoryRegions_SkipsOtherNodes(t *testing.T) {
	b := newFDT()
	b.beginNode("")
	b.nop()
	b.beginNode("cpus")
	b.beginNode("cpu@0")
	b.propString("device_type", "cpu")
	b.prop("reg", regCells(0, 0, 0))
	b.endNode()
	b.endNode()

	// A bus with its own cell counts. They govern the serial child and
	// must not leak out to the sibling memory node.
	b.beginNode("soc")
	b.propU32("#address-cells", 1)
	b.propU32("#size-cells", 1)
	b.beginNode("serial@10000000")
	b.prop("reg", regCells(0x1000_0000, 0x100))
	b.endNode()
	b.endNode()

	b.nop()
	b.beginNode("memory@80000000")
	b.propString("device_type", "memory")
	b.prop("reg", regCells(0, 0x8000_0000, 0x100_0000))
	b.endNode()
	b.endNode()
	b.end()

	tree, err := Parse(b.build())
	require.NoError(t, err)

	regions, err := tree.MemoryRegions()
	require.NoError(t, err)
	assert.Equal(t, []Region{{Base: 0x8000_0000, Size: 0x100_0000}}, regions)
}

func Test_MemoryRegions_MultipleNodes(t *testing.T) {
	b := newFDT()
	b.beginNode("")
	b.beginNode("memory@80000000")
	b.propString("device_type", "memory")
	b.prop("reg", regCells(0, 0x8000_0000, 0x100_0000))
	b.endNode()
	b.beginNode("memory@c0000000")
	b.propString("device_type", "memory")
	b.prop("reg", regCells(0, 0xC000_0000, 0x200_0000))
	b.endNode()
	b.endNode()
	b.end()

	tree, err := Parse(b.build())
	require.NoError(t, err)

	regions, err := tree.MemoryRegions()
	require.NoError(t, err)
	assert.Equal(t, []Region{
		{Base: 0x8000_0000, Size: 0x100_0000},
		{Base: 0xC000_0000, Size: 0x200_0000},
	}, regions)
}

func Test_MemoryRegions_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		build      func() []byte
		wantSubstr string
	}{
		{
			name: "structure block without END",
			build: func() []byte {
				b := newFDT()
				b.beginNode("")
				b.endNode()
				return b.build()
			},
			wantSubstr: "without END token",
		},
		{
			name: "END with open nodes",
			build: func() []byte {
				b := newFDT()
				b.beginNode("")
				b.end()
				return b.build()
			},
			wantSubstr: "open nodes",
		},
		{
			name: "END_NODE without BEGIN_NODE",
			build: func() []byte {
				b := newFDT()
				b.endNode()
				b.end()
				return b.build()
			},
			wantSubstr: "no open node",
		},
		{
			name: "property outside any node",
			build: func() []byte {
				b := newFDT()
				b.propU32("#address-cells", 2)
				b.end()
				return b.build()
			},
			wantSubstr: "property outside",
		},
		{
			name: "reg not a whole number of entries",
			build: func() []byte {
				b := newFDT()
				b.beginNode("")
				b.beginNode("memory@0")
				b.propString("device_type", "memory")
				b.prop("reg", regCells(0, 0x1000))
				b.endNode()
				b.endNode()
				b.end()
				return b.build()
			},
			wantSubstr: "not a multiple",
		},
		{
			name: "cell count too wide",
			build: func() []byte {
				b := newFDT()
				b.beginNode("")
				b.propU32("#address-cells", 3)
				b.beginNode("memory@0")
				b.propString("device_type", "memory")
				b.prop("reg", regCells(0, 0, 0, 0x1000))
				b.endNode()
				b.endNode()
				b.end()
				return b.build()
			},
			wantSubstr: "unsupported cell counts",
		},
		{
			name: "unknown token",
			build: func() []byte {
				b := newFDT()
				b.beginNode("")
				b.token(0x7)
				b.endNode()
				b.end()
				return b.build()
			},
			wantSubstr: "unknown token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.build())
			require.NoError(t, err)

			_, err = tree.MemoryRegions()
			require.ErrorIs(t, err, ErrMalformed)
			require.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}

func Test_MemoryRegions_BadStringOffset(t *testing.T) {
	blob := minimalBlob()

	// Shrink the strings block to nothing so every name offset misses.
	format.PutU32BE(blob, 32, 0)

	tree, err := Parse(blob)
	require.NoError(t, err)

	_, err = tree.MemoryRegions()
	require.ErrorIs(t, err, ErrMalformed)
	require.Contains(t, err.Error(), "outside strings block")
}

func Test_Region_EndAndString(t *testing.T) {
	r := Region{Base: 0x8000_0000, Size: 0x1000}
	assert.Equal(t, uint64(0x8000_1000), r.End())
	assert.Equal(t, "[0x80000000, 0x80001000)", r.String())
}
