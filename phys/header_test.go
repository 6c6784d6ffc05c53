package phys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/framekit/internal/format"
)

// --- small header builder (keeps tests readable) ---

type imageOpts struct {
	base       PhysAddr
	size       uint64
	rangeStart PhysAddr // zero means "same as base"
	version    uint32
	// mutate raw header before checksum (for negative tests)
	mutate func(h []byte)
}

func makeImageHeader(t *testing.T, o imageOpts) []byte {
	t.Helper()

	if o.version == 0 {
		o.version = format.ImageVersion
	}
	if o.rangeStart == 0 {
		o.rangeStart = o.base
	}
	h := make([]byte, format.HeaderSize)

	copy(h[format.ImageSignatureOffset:], format.ImageSignature)
	format.PutU32(h, format.ImageVersionOffset, o.version)
	format.PutU64(h, format.ImageBaseOffset, uint64(o.base))
	format.PutU64(h, format.ImageSizeOffset, o.size)
	format.PutU64(h, format.ImageRangeStartOffset, uint64(o.rangeStart))

	// Caller mutation before checksum (used to corrupt specific bytes)
	if o.mutate != nil {
		o.mutate(h)
	}

	format.PutU32(h, format.ImageChecksumOffset, headerChecksum(h))

	return h
}

// withMemory appends zeroed memory bytes so the blob has a plausible file size.
func withMemory(hdr []byte, size uint64) []byte {
	f := make([]byte, format.HeaderSize+int(size))
	copy(f, hdr)
	return f
}

// --- tests ---

func TestHeader_Validate_OK(t *testing.T) {
	opts := imageOpts{base: 0x8000_0000, size: 0x4000, rangeStart: 0x8000_1000}
	h := makeImageHeader(t, opts)
	whole := withMemory(h, opts.size)

	hdr, err := ParseHeader(whole)
	require.NoError(t, err)
	require.True(t, hdr.ChecksumOK())
	require.NoError(t, hdr.Validate(len(whole)))

	require.Equal(t, "pmem", string(hdr.Signature()))
	require.Equal(t, uint32(format.ImageVersion), hdr.Version())
	require.Equal(t, PhysAddr(0x8000_0000), hdr.Base())
	require.Equal(t, uint64(0x4000), hdr.MemSize())
	require.Equal(t, PhysAddr(0x8000_1000), hdr.RangeStart())
}

func TestHeader_Parse_Errors(t *testing.T) {
	_, err := ParseHeader(make([]byte, 16))
	require.ErrorIs(t, err, ErrTruncated)

	bad := makeImageHeader(t, imageOpts{base: 0x8000_0000, size: 0x1000})
	copy(bad, []byte("junk"))
	_, err = ParseHeader(bad)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestHeader_Validate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		opts       imageOpts
		corrupt    func(h []byte) // applied AFTER the checksum is written
		fileGrow   int
		wantErr    error
		wantSubstr string
	}{
		{
			name:    "bad-version",
			opts:    imageOpts{base: 0x8000_0000, size: 0x2000, version: 99},
			wantErr: ErrBadVersion,
		},
		{
			name:    "checksum-mismatch",
			opts:    imageOpts{base: 0x8000_0000, size: 0x2000},
			corrupt: func(h []byte) { h[format.ImageBaseOffset] ^= 0xFF },
			wantErr: ErrBadChecksum,
		},
		{
			name:       "size-unaligned",
			opts:       imageOpts{base: 0x8000_0000, size: 0x2004},
			wantSubstr: "memory size not frame aligned",
		},
		{
			name:       "range-wraps",
			opts:       imageOpts{base: 0xFFFF_FFFF_FFFF_F000, size: 0x2000},
			wantSubstr: "wraps the address space",
		},
		{
			name:       "range-start-unaligned",
			opts:       imageOpts{base: 0x8000_0000, size: 0x2000, rangeStart: 0x8000_0800},
			wantSubstr: "range start not frame aligned",
		},
		{
			name:       "range-start-outside",
			opts:       imageOpts{base: 0x8000_0000, size: 0x2000, rangeStart: 0x8000_3000},
			wantSubstr: "outside image",
		},
		{
			name:     "file-size-mismatch",
			opts:     imageOpts{base: 0x8000_0000, size: 0x2000},
			fileGrow: 0x1000,
			wantErr:  ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := makeImageHeader(t, tt.opts)
			if tt.corrupt != nil {
				tt.corrupt(h)
			}

			fileBytes := withMemory(h, tt.opts.size)
			if tt.fileGrow > 0 {
				fileBytes = append(fileBytes, make([]byte, tt.fileGrow)...)
			}

			hdr, err := ParseHeader(fileBytes)
			require.NoError(t, err)

			err = hdr.Validate(len(fileBytes))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantSubstr != "" {
				require.Contains(t, err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestHeader_ChecksumCoversGeometry(t *testing.T) {
	a := makeImageHeader(t, imageOpts{base: 0x8000_0000, size: 0x2000})
	b := makeImageHeader(t, imageOpts{base: 0x8000_1000, size: 0x2000})

	require.NotEqual(t,
		format.ReadU32(a, format.ImageChecksumOffset),
		format.ReadU32(b, format.ImageChecksumOffset))
}
