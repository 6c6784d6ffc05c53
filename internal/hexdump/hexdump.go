// Package hexdump renders byte slices as classic hex rows with an ASCII
// gutter. Shared by the frame inspection surfaces of the command-line
// tools.
package hexdump

import (
	"fmt"
	"strings"
)

// BytesPerLine is the number of bytes rendered per row.
const BytesPerLine = 16

// Dump renders data as rows addressed from base. Every row except
// possibly the last carries BytesPerLine bytes.
func Dump(data []byte, base uint64) []string {
	if len(data) == 0 {
		return nil
	}

	lines := make([]string, 0, (len(data)+BytesPerLine-1)/BytesPerLine)
	for off := 0; off < len(data); off += BytesPerLine {
		end := off + BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		lines = append(lines, Line(base+uint64(off), data[off:end]))
	}
	return lines
}

// Line renders one row of at most BytesPerLine bytes addressed at addr.
// Short rows are padded so the ASCII gutter stays in column.
func Line(addr uint64, row []byte) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%08x  ", addr))

	for i, v := range row {
		b.WriteString(fmt.Sprintf("%02x ", v))
		if i == 7 {
			b.WriteString(" ") // Extra space in the middle
		}
	}

	remaining := BytesPerLine - len(row)
	for i := 0; i < remaining; i++ {
		b.WriteString("   ")
	}
	if remaining > 8 {
		b.WriteString(" ")
	}

	b.WriteString(" |")
	for _, v := range row {
		if v >= 32 && v <= 126 {
			b.WriteByte(v)
		} else {
			b.WriteByte('.')
		}
	}
	b.WriteString("|")

	return b.String()
}
