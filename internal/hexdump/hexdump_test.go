package hexdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine_FullRow(t *testing.T) {
	got := Line(0x8000_0000, []byte("0123456789abcdef"))
	want := "80000000  30 31 32 33 34 35 36 37  38 39 61 62 63 64 65 66  |0123456789abcdef|"
	assert.Equal(t, want, got)
}

func TestLine_ShortRowPadsGutter(t *testing.T) {
	got := Line(0x1000, []byte{0x05, 0x00, 0x7f})
	want := "00001000  05 00 7f" + strings.Repeat(" ", 42) + "|...|"
	assert.Equal(t, want, got)
}

func TestLine_PrintableBoundaries(t *testing.T) {
	got := Line(0, []byte{31, 32, 126, 127})
	assert.True(t, strings.HasSuffix(got, "|. ~.|"), "got %q", got)
}

func TestDump_RowAddressing(t *testing.T) {
	data := make([]byte, 40)
	lines := Dump(data, 0x8000_0000)
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(lines[0], "80000000  "))
	assert.True(t, strings.HasPrefix(lines[1], "80000010  "))
	assert.True(t, strings.HasPrefix(lines[2], "80000020  "))

	// The ASCII gutter stays in column even on the short last row.
	bar := strings.Index(lines[0], "|")
	for i, line := range lines {
		assert.Equal(t, bar, strings.Index(line, "|"), "line %d misaligned", i)
	}
}

func TestDump_Empty(t *testing.T) {
	assert.Nil(t, Dump(nil, 0))
}
