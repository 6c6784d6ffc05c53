package phys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayout_Validate_OK(t *testing.T) {
	l := Layout{RangeStart: 0x8000_0000, RangeEnd: 0x8800_0000}
	require.NoError(t, l.Validate())
	require.Equal(t, 0x8000, l.FrameCount())
}

func TestLayout_Validate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		layout     Layout
		wantSubstr string
	}{
		{
			name:       "start-unaligned",
			layout:     Layout{RangeStart: 0x8000_0001, RangeEnd: 0x8800_0000},
			wantSubstr: "range start 0x80000001 not frame aligned",
		},
		{
			name:       "end-unaligned",
			layout:     Layout{RangeStart: 0x8000_0000, RangeEnd: 0x8800_0004},
			wantSubstr: "range end 0x88000004 not frame aligned",
		},
		{
			name:       "start-zero",
			layout:     Layout{RangeStart: 0, RangeEnd: 0x1000},
			wantSubstr: "range start must be above the kernel image",
		},
		{
			name:       "inverted",
			layout:     Layout{RangeStart: 0x8800_0000, RangeEnd: 0x8000_0000},
			wantSubstr: "below range start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}

func TestLayout_EmptyRange(t *testing.T) {
	l := Layout{RangeStart: 0x8000_0000, RangeEnd: 0x8000_0000}
	require.NoError(t, l.Validate())
	require.Equal(t, 0, l.FrameCount())
	require.False(t, l.Contains(0x8000_0000))

	_, ok := l.IndexOf(0x8000_0000)
	require.False(t, ok)
}

func TestLayout_IndexOf(t *testing.T) {
	l := Layout{RangeStart: 0x8000_0000, RangeEnd: 0x8000_3000}

	tests := []struct {
		name   string
		addr   PhysAddr
		want   Frame
		wantOK bool
	}{
		{"first-frame", 0x8000_0000, 0, true},
		{"middle-frame", 0x8000_1000, 1, true},
		{"last-frame", 0x8000_2000, 2, true},
		{"end-is-outside", 0x8000_3000, 0, false},
		{"below-range", 0x7FFF_F000, 0, false},
		{"above-range", 0x8000_4000, 0, false},
		{"unaligned-inside", 0x8000_1004, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.IndexOf(tt.addr)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLayout_AddrOf_RoundTrip(t *testing.T) {
	l := Layout{RangeStart: 0x8000_0000, RangeEnd: 0x8001_0000}

	for f := Frame(0); f < 16; f++ {
		addr := l.AddrOf(f)
		got, ok := l.IndexOf(addr)
		require.True(t, ok, "frame %d", f)
		require.Equal(t, f, got)
	}
}

func TestAfterKernel(t *testing.T) {
	l := AfterKernel(0x8020_0400, 0x8800_0000)
	require.Equal(t, PhysAddr(0x8020_1000), l.RangeStart)
	require.Equal(t, PhysAddr(0x8800_0000), l.RangeEnd)
	require.NoError(t, l.Validate())

	// Kernel ending exactly on a boundary starts the range right there.
	l = AfterKernel(0x8020_0000, 0x8800_0000)
	require.Equal(t, PhysAddr(0x8020_0000), l.RangeStart)
}
