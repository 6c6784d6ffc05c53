package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/framekit/phys"
	"github.com/joshuapare/framekit/phys/alloc"
)

// createTestImage writes a bootstrapped image under dir and returns its
// path. The image is based at 0x80000000 with kernelFrames reserved
// frames below the managed range.
func createTestImage(t *testing.T, dir string, kernelFrames, frames int) string {
	t.Helper()

	path := filepath.Join(dir, "test.pmem")
	base := phys.PhysAddr(0x8000_0000)
	size := uint64(kernelFrames+frames) * phys.FrameSize
	rangeStart := base + phys.PhysAddr(kernelFrames)*phys.FrameSize

	img, err := phys.Create(path, base, size, rangeStart)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer img.Close()

	if _, err := alloc.New(img, img.Managed(), nil); err != nil {
		t.Fatalf("failed to bootstrap test image: %v", err)
	}
	if err := img.Sync(); err != nil {
		t.Fatalf("failed to sync test image: %v", err)
	}
	return path
}

// writeTestDtb writes a minimal device tree blob under dir: one reserved
// region and one memory node declaring 16MiB of RAM at 0x80000000 with
// the default cell sizes.
func writeTestDtb(t *testing.T, dir string) string {
	t.Helper()

	be := binary.BigEndian
	u32 := func(b *bytes.Buffer, v uint32) { _ = binary.Write(b, be, v) }
	u64 := func(b *bytes.Buffer, v uint64) { _ = binary.Write(b, be, v) }
	pad4 := func(b *bytes.Buffer) {
		for b.Len()%4 != 0 {
			b.WriteByte(0)
		}
	}

	strBlk := []byte("device_type\x00reg\x00")
	const offDeviceType, offReg = 0, 12

	var st bytes.Buffer
	u32(&st, 0x1) // BEGIN_NODE, root has an empty name
	st.WriteByte(0)
	pad4(&st)
	u32(&st, 0x1) // BEGIN_NODE memory@80000000
	st.WriteString("memory@80000000\x00")
	pad4(&st)
	u32(&st, 0x3) // PROP device_type = "memory"
	u32(&st, 7)
	u32(&st, offDeviceType)
	st.WriteString("memory\x00")
	pad4(&st)
	u32(&st, 0x3) // PROP reg = <0x0 0x80000000 0x01000000>
	u32(&st, 12)
	u32(&st, offReg)
	u32(&st, 0x0)
	u32(&st, 0x8000_0000)
	u32(&st, 0x0100_0000)
	u32(&st, 0x2) // END_NODE memory
	u32(&st, 0x2) // END_NODE root
	u32(&st, 0x9) // END

	const headerSize = 40
	rsvOff := uint32(headerSize)
	var rsv bytes.Buffer
	u64(&rsv, 0x8000_0000)
	u64(&rsv, 0x1000)
	u64(&rsv, 0)
	u64(&rsv, 0)

	structOff := rsvOff + uint32(rsv.Len())
	stringsOff := structOff + uint32(st.Len())
	total := stringsOff + uint32(len(strBlk))

	var blob bytes.Buffer
	u32(&blob, 0xd00dfeed)
	u32(&blob, total)
	u32(&blob, structOff)
	u32(&blob, stringsOff)
	u32(&blob, rsvOff)
	u32(&blob, 17) // version
	u32(&blob, 16) // last compatible version
	u32(&blob, 0)  // boot cpu
	u32(&blob, uint32(len(strBlk)))
	u32(&blob, uint32(st.Len()))
	blob.Write(rsv.Bytes())
	blob.Write(st.Bytes())
	blob.Write(strBlk)

	path := filepath.Join(dir, "test.dtb")
	if err := os.WriteFile(path, blob.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test blob: %v", err)
	}
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	// Save original stdout
	origStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	// Redirect stdout to pipe
	os.Stdout = w

	// Run function
	fnErr := fn()

	// Close write end and restore stdout
	w.Close()
	os.Stdout = origStdout

	// Read captured output
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
