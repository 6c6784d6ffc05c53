//go:build linux || darwin

package phys

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/framekit/internal/format"
)

// Create writes a new image file for the given geometry and mmaps it RW.
// The modeled memory covers [base, base+size) and starts zeroed; the
// manageable range begins at rangeStart, past any modeled kernel region.
// An existing file at path is replaced.
func Create(path string, base PhysAddr, size uint64, rangeStart PhysAddr) (*Image, error) {
	if err := checkGeometry(base, size, rangeStart); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	hdr := make([]byte, format.HeaderSize)
	writeHeader(hdr, base, size, rangeStart)
	if _, err := f.Write(hdr); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("phys: write header: %w", err)
	}

	// Extend to full size; the memory region is zero-filled by the OS.
	if err := f.Truncate(fileSize(size)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("phys: size image file: %w", err)
	}

	return mapImage(f, fileSize(size))
}

// Open mmaps an existing image file RW so allocator state mutates in place.
func Open(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("empty image file: %s", path)
	}

	return mapImage(f, st.Size())
}

// mapImage maps sz bytes of f and validates the header against the file size.
func mapImage(f *os.File, sz int64) (*Image, error) {
	data, err := syscall.Mmap(
		int(f.Fd()),
		0,
		int(sz),
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_SHARED,
	)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	hdr, err := ParseHeader(data)
	if err != nil {
		_ = syscall.Munmap(data)
		_ = f.Close()
		return nil, err
	}
	if validateErr := hdr.Validate(len(data)); validateErr != nil {
		_ = syscall.Munmap(data)
		_ = f.Close()
		return nil, validateErr
	}

	return &Image{
		f:    f,
		data: data,
		mem:  data[format.HeaderSize:],
		hdr:  hdr,
		base: hdr.Base(),
		size: hdr.MemSize(),
	}, nil
}

// Sync flushes the mapping to the backing file. No-op for anonymous images.
func (im *Image) Sync() error {
	if im.f == nil {
		return nil
	}
	if err := unix.Msync(im.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("phys: msync: %w", err)
	}
	return fdatasync(int(im.f.Fd()))
}

func (im *Image) Close() error {
	var err error
	if im.data != nil {
		_ = syscall.Munmap(im.data)
		im.data = nil
	}
	if im.f != nil {
		err = im.f.Close()
		im.f = nil
	}
	im.mem = nil
	im.hdr = nil
	return err
}
