//go:build !linux && !darwin

package phys

import (
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/framekit/internal/format"
)

// Create writes a new image file for the given geometry and buffers it in
// memory on non-unix platforms. The modeled memory covers [base, base+size)
// and starts zeroed; the manageable range begins at rangeStart.
func Create(path string, base PhysAddr, size uint64, rangeStart PhysAddr) (*Image, error) {
	if err := checkGeometry(base, size, rangeStart); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, fileSize(size))
	writeHeader(buf, base, size, rangeStart)
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("phys: write image file: %w", err)
	}

	hdr, err := ParseHeader(buf)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Image{
		f:    f,
		data: buf,
		mem:  buf[format.HeaderSize:],
		hdr:  hdr,
		base: base,
		size: size,
	}, nil
}

// Open loads the image into memory on non-unix platforms (or when mmap
// isn't used). Changes reach the file on Sync.
func Open(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz == 0 {
		f.Close()
		return nil, fmt.Errorf("empty image file: %s", path)
	}

	buf := make([]byte, sz)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, err
	}

	hdr, err := ParseHeader(buf)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := hdr.Validate(len(buf)); err != nil {
		f.Close()
		return nil, err
	}

	return &Image{
		f:    f,
		data: buf,
		mem:  buf[format.HeaderSize:],
		hdr:  hdr,
		base: hdr.Base(),
		size: hdr.MemSize(),
	}, nil
}

// Sync writes the buffered image back to the file. No-op for anonymous images.
func (im *Image) Sync() error {
	if im.f == nil {
		return nil
	}
	if _, err := im.f.WriteAt(im.data, 0); err != nil {
		return fmt.Errorf("phys: write back image: %w", err)
	}
	return im.f.Sync()
}

func (im *Image) Close() error {
	var err error
	if im.f != nil {
		err = im.f.Close()
		im.f = nil
	}
	im.data = nil
	im.mem = nil
	im.hdr = nil
	return err
}
