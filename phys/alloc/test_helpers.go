package alloc

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/framekit/phys"
)

// ============================================================================
// Allocator Setup Utilities
// ============================================================================

// testBase is the base physical address used by the test images. It sits
// well above zero so the nil link terminator can never collide with a
// managed frame.
const testBase = phys.PhysAddr(0x8000_0000)

// newTestAllocator builds an allocator over an anonymous image whose
// manageable range covers exactly numFrames frames starting at testBase.
func newTestAllocator(t testing.TB, numFrames int) *Allocator {
	t.Helper()

	size := uint64(numFrames) * phys.FrameSize
	img := phys.New(testBase, size)
	layout := phys.Layout{
		RangeStart: testBase,
		RangeEnd:   testBase + phys.PhysAddr(size),
	}

	a, err := New(img, layout, nil)
	require.NoError(t, err, "failed to bootstrap test allocator")
	return a
}

// newTestAllocatorLogged is newTestAllocator with a debug-level text
// logger attached. Returns the buffer the log lines land in.
func newTestAllocatorLogged(t testing.TB, numFrames int) (*Allocator, *bytes.Buffer) {
	t.Helper()

	size := uint64(numFrames) * phys.FrameSize
	img := phys.New(testBase, size)
	layout := phys.Layout{
		RangeStart: testBase,
		RangeEnd:   testBase + phys.PhysAddr(size),
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := New(img, layout, &Options{Logger: logger})
	require.NoError(t, err, "failed to bootstrap test allocator")
	return a, &buf
}

// ============================================================================
// Fault Capture
// ============================================================================

// captureFault runs fn, which must fault, and returns the *Fault it
// panicked with. A normal return fails the test; any other panic value
// is re-raised.
func captureFault(t testing.TB, fn func()) *Fault {
	t.Helper()

	var ft *Fault
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			ft = f
		}()
		fn()
	}()

	if ft == nil {
		t.Fatalf("expected a fault, operation returned normally")
	}
	return ft
}

// ============================================================================
// Free List and Frame Inspection
// ============================================================================

// freeListAddrs returns the free-list addresses in pop order, head first.
// The walk is capped at the frame table length so a corrupted cycle
// cannot hang the test.
func freeListAddrs(a *Allocator) []phys.PhysAddr {
	a.listMu.Lock()
	defer a.listMu.Unlock()

	var addrs []phys.PhysAddr
	for addr := a.head; addr != nilLink; addr = a.readLink(addr) {
		addrs = append(addrs, addr)
		if len(addrs) > len(a.descs) {
			break
		}
	}
	return addrs
}

// frameContent returns the storage of the managed frame at addr.
func frameContent(a *Allocator, addr phys.PhysAddr) []byte {
	f, ok := a.layout.IndexOf(addr)
	if !ok {
		panic("frameContent: address not managed")
	}
	return a.frameBytes(f)
}

// setRef forces the refcount of the frame at addr, bypassing the engine.
// Used to stage corrupted descriptor states.
func setRef(a *Allocator, addr phys.PhysAddr, ref int32) {
	f, ok := a.layout.IndexOf(addr)
	if !ok {
		panic("setRef: address not managed")
	}
	d := &a.descs[f]
	d.mu.Lock()
	d.ref = ref
	d.mu.Unlock()
}

// ============================================================================
// Content Assertions
// ============================================================================

// assertFilled fails the test at the first byte of b that differs from want.
func assertFilled(t testing.TB, b []byte, want byte, what string) {
	t.Helper()
	for i, v := range b {
		if v != want {
			t.Fatalf("%s: byte at offset 0x%X is 0x%02X, want 0x%02X", what, i, v, want)
		}
	}
}

// assertScrubbedFree checks the post-release state of a free frame: the
// scrub pattern everywhere past the link word. The first 8 bytes hold
// the next pointer and are exempt.
func assertScrubbedFree(t testing.TB, a *Allocator, addr phys.PhysAddr) {
	t.Helper()
	fb := frameContent(a, addr)
	assertFilled(t, fb[8:], FreeFill, "free frame "+addr.String())
}
