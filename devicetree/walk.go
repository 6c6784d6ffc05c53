package devicetree

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/framekit/internal/format"
)

// Structure block tokens. Each is a big-endian u32 on a 4-byte boundary.
const (
	tokenBeginNode = 0x1
	tokenEndNode   = 0x2
	tokenProp      = 0x3
	tokenNop       = 0x4
	tokenEnd       = 0x9
)

// Cell counts a node's children inherit when the node does not set
// #address-cells and #size-cells.
const (
	defaultAddressCells = 2
	defaultSizeCells    = 1
)

// node is the walk state of one open node.
type node struct {
	// regAddrCells and regSizeCells decode this node's reg property.
	// They come from the parent: cell properties always describe the
	// children of the node that carries them.
	regAddrCells int
	regSizeCells int

	// childAddrCells and childSizeCells govern this node's children.
	childAddrCells int
	childSizeCells int

	isMemory bool
	reg      []byte
}

// MemoryRegions walks the structure block and returns the extents of
// every node whose device_type is "memory", in document order. These are
// the ranges the firmware offers as installable RAM.
func (t *Tree) MemoryRegions() ([]Region, error) {
	s := t.raw[t.hdr.StructOffset : t.hdr.StructOffset+t.hdr.StructSize]

	var regions []Region

	// The stack bottom is a synthetic parent of the root carrying the
	// specification defaults.
	stack := []node{{childAddrCells: defaultAddressCells, childSizeCells: defaultSizeCells}}

	pos := 0
	for {
		if pos+4 > len(s) {
			return nil, fmt.Errorf("%w: structure block ends without END token", ErrMalformed)
		}
		token := format.ReadU32BE(s, pos)
		pos += 4

		switch token {
		case tokenBeginNode:
			// The node name follows: NUL terminated, padded to 4 bytes.
			nul := bytes.IndexByte(s[pos:], 0)
			if nul < 0 {
				return nil, fmt.Errorf("%w: unterminated node name at 0x%X", ErrMalformed, pos)
			}
			pos = align4(pos + nul + 1)

			parent := &stack[len(stack)-1]
			stack = append(stack, node{
				regAddrCells:   parent.childAddrCells,
				regSizeCells:   parent.childSizeCells,
				childAddrCells: defaultAddressCells,
				childSizeCells: defaultSizeCells,
			})

		case tokenEndNode:
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: END_NODE with no open node at 0x%X", ErrMalformed, pos-4)
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n.isMemory && n.reg != nil {
				decoded, err := decodeReg(n.reg, n.regAddrCells, n.regSizeCells)
				if err != nil {
					return nil, err
				}
				regions = append(regions, decoded...)
			}

		case tokenProp:
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: property outside any node at 0x%X", ErrMalformed, pos-4)
			}
			if pos+8 > len(s) {
				return nil, fmt.Errorf("%w: property header truncated at 0x%X", ErrMalformed, pos)
			}
			valLen := int(format.ReadU32BE(s, pos))
			nameOff := format.ReadU32BE(s, pos+4)
			pos += 8
			if valLen < 0 || pos+valLen > len(s) {
				return nil, fmt.Errorf("%w: property value truncated at 0x%X", ErrMalformed, pos)
			}
			value := s[pos : pos+valLen]
			pos = align4(pos + valLen)

			name, err := t.stringAt(nameOff)
			if err != nil {
				return nil, err
			}

			n := &stack[len(stack)-1]
			switch name {
			case "#address-cells":
				cells, cellErr := cellValue(name, value)
				if cellErr != nil {
					return nil, cellErr
				}
				n.childAddrCells = cells
			case "#size-cells":
				cells, cellErr := cellValue(name, value)
				if cellErr != nil {
					return nil, cellErr
				}
				n.childSizeCells = cells
			case "device_type":
				n.isMemory = propString(value) == "memory"
			case "reg":
				n.reg = value
			}

		case tokenNop:

		case tokenEnd:
			if len(stack) != 1 {
				return nil, fmt.Errorf("%w: END token with %d open nodes", ErrMalformed, len(stack)-1)
			}
			return regions, nil

		default:
			return nil, fmt.Errorf("%w: unknown token 0x%X at 0x%X", ErrMalformed, token, pos-4)
		}
	}
}

// stringAt resolves a property name offset through the strings block.
func (t *Tree) stringAt(off uint32) (string, error) {
	if off >= t.hdr.StringsSize {
		return "", fmt.Errorf("%w: string offset 0x%X outside strings block", ErrMalformed, off)
	}
	blk := t.raw[t.hdr.StringsOffset : t.hdr.StringsOffset+t.hdr.StringsSize]
	nul := bytes.IndexByte(blk[int(off):], 0)
	if nul < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset 0x%X", ErrMalformed, off)
	}
	return string(blk[int(off) : int(off)+nul]), nil
}

// decodeReg splits a reg property into regions of (address, size) cells.
// Cell counts above two would need addresses wider than 64 bits.
func decodeReg(reg []byte, addrCells, sizeCells int) ([]Region, error) {
	if addrCells < 1 || addrCells > 2 || sizeCells < 1 || sizeCells > 2 {
		return nil, fmt.Errorf("%w: unsupported cell counts #address-cells=%d #size-cells=%d",
			ErrMalformed, addrCells, sizeCells)
	}
	entry := (addrCells + sizeCells) * 4
	if len(reg)%entry != 0 {
		return nil, fmt.Errorf("%w: reg length %d not a multiple of entry size %d", ErrMalformed, len(reg), entry)
	}

	regions := make([]Region, 0, len(reg)/entry)
	for pos := 0; pos < len(reg); pos += entry {
		regions = append(regions, Region{
			Base: readCells(reg, pos, addrCells),
			Size: readCells(reg, pos+addrCells*4, sizeCells),
		})
	}
	return regions, nil
}

// readCells concatenates big-endian u32 cells into one value.
func readCells(b []byte, pos, cells int) uint64 {
	var v uint64
	for i := 0; i < cells; i++ {
		v = v<<32 | uint64(format.ReadU32BE(b, pos+i*4))
	}
	return v
}

// cellValue decodes a #address-cells or #size-cells property.
func cellValue(name string, value []byte) (int, error) {
	if len(value) != 4 {
		return 0, fmt.Errorf("%w: %s property has %d bytes, want 4", ErrMalformed, name, len(value))
	}
	return int(format.ReadU32BE(value, 0)), nil
}

// propString reads a NUL-terminated string property.
func propString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func align4(n int) int {
	return (n + 3) &^ 3
}
