package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joshuapare/framekit/internal/format"
	"github.com/joshuapare/framekit/phys"
)

const (
	// AllocFill is the byte written over every frame as it is granted.
	AllocFill byte = 0x05

	// FreeFill is the byte written over every frame as it returns to the
	// pool, before the link word is stored.
	FreeFill byte = 0x01
)

// nilLink terminates the free list. Address zero never names a managed
// frame: Layout.Validate keeps the range above the kernel image.
const nilLink phys.PhysAddr = 0

// Options configures an Allocator.
type Options struct {
	// Logger receives reference-count transition diagnostics and fault
	// reports. Nil discards all output. Logging is advisory; no decision
	// in the allocator depends on it.
	Logger *slog.Logger
}

// descriptor tracks ownership of a single frame. ref counts the current
// owners and is only touched under mu.
type descriptor struct {
	mu  sync.Mutex
	ref int32
}

// Allocator hands out frames from the manageable range of an image.
// Construct with New; the zero value is not usable.
//
// Locking discipline: each descriptor has its own mutex and the free-list
// head has one. No code path holds two of these locks at once.
type Allocator struct {
	img    *phys.Image
	layout phys.Layout
	log    *slog.Logger

	// listMu guards head. The list threads through the free frames' own
	// storage: the first 8 bytes of a free frame hold the address of the
	// next free frame, nilLink at the end.
	listMu sync.Mutex
	head   phys.PhysAddr

	descs []descriptor
}

// New bootstraps an allocator over the manageable range of img. Every
// frame in the range starts unowned and on the free list. Configuration
// problems (bad layout, range outside the image) are ordinary errors.
//
// New must complete before the allocator is shared between goroutines,
// and an image must not be handed to two live allocators.
func New(img *phys.Image, layout phys.Layout, opts *Options) (*Allocator, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("alloc: invalid layout: %w", err)
	}
	if layout.FrameCount() > 0 && (layout.RangeStart < img.Base() || layout.RangeEnd > img.Top()) {
		return nil, fmt.Errorf("%w: range [%s, %s) outside image [%s, %s)",
			ErrImageMismatch, layout.RangeStart, layout.RangeEnd, img.Base(), img.Top())
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts != nil && opts.Logger != nil {
		log = opts.Logger
	}

	a := &Allocator{
		img:    img,
		layout: layout,
		log:    log,
		head:   nilLink,
		descs:  make([]descriptor, layout.FrameCount()),
	}

	// Every frame enters the pool through the non-decrementing release
	// path, which also asserts the descriptor table starts clean.
	for i := range a.descs {
		a.free(layout.AddrOf(phys.Frame(i)), false)
	}

	a.log.Debug("allocator initialized",
		"frames", layout.FrameCount(),
		"range_start", layout.RangeStart,
		"range_end", layout.RangeEnd)
	return a, nil
}

// Alloc removes one frame from the pool and grants it to the caller with
// a reference count of one. The frame arrives filled with AllocFill.
// An empty pool returns ErrOutOfMemory; Alloc never blocks waiting for
// memory.
func (a *Allocator) Alloc() (phys.PhysAddr, error) {
	a.listMu.Lock()
	addr := a.head
	if addr != nilLink {
		a.head = a.readLink(addr)
	}
	a.listMu.Unlock()

	if addr == nilLink {
		return 0, ErrOutOfMemory
	}

	f := a.FrameIndex(addr)
	d := &a.descs[f]
	d.mu.Lock()
	if d.ref != 0 {
		a.fault("alloc", addr, d.ref, "free frame has nonzero refcount")
	}
	d.ref = 1
	d.mu.Unlock()

	fill(a.frameBytes(f), AllocFill)
	a.log.Debug("frame granted", "addr", addr, "ref", 1)
	return addr, nil
}

// Free releases one reference to the frame at addr. While other owners
// remain the frame and its content stay untouched. The last release
// scrubs the frame with FreeFill and pushes it on the free list.
// Releasing a frame with no owners, or any address that is not a managed
// frame, is a fault.
func (a *Allocator) Free(addr phys.PhysAddr) {
	a.free(addr, true)
}

// free implements Free and, with decRef false, the bootstrap path that
// seeds the pool: no count is decremented, but the frame must be unowned.
func (a *Allocator) free(addr phys.PhysAddr, decRef bool) {
	f := a.FrameIndex(addr)
	d := &a.descs[f]

	d.mu.Lock()
	if decRef {
		if d.ref <= 0 {
			a.fault("free", addr, d.ref, "releasing frame with no owners")
		}
		d.ref--
		if d.ref > 0 {
			ref := d.ref
			d.mu.Unlock()
			a.log.Info("reference released, frame still shared", "addr", addr, "ref", ref)
			return
		}
	} else if d.ref != 0 {
		a.fault("bootstrap", addr, d.ref, "frame already owned")
	}
	d.mu.Unlock()

	// Last owner gone: scrub first, then thread the frame into the list.
	fb := a.frameBytes(f)
	fill(fb, FreeFill)

	a.listMu.Lock()
	format.PutU64(fb, format.LinkOffset, uint64(a.head))
	a.head = addr
	a.listMu.Unlock()

	if decRef {
		a.log.Debug("frame reclaimed", "addr", addr, "ref", 0)
	}
}

// Retain adds an owner reference to the frame at addr, as when a frame
// becomes shared across address spaces. Retaining an unowned frame is a
// fault: references only ever start at Alloc.
func (a *Allocator) Retain(addr phys.PhysAddr) {
	f := a.FrameIndex(addr)
	d := &a.descs[f]

	d.mu.Lock()
	if d.ref <= 0 {
		a.fault("retain", addr, d.ref, "retaining frame with no owners")
	}
	d.ref++
	ref := d.ref
	d.mu.Unlock()

	a.log.Debug("reference added", "addr", addr, "ref", ref)
}

// Ref returns the current reference count of the frame at addr. Like
// every address-taking operation it faults on addresses outside the
// managed range.
func (a *Allocator) Ref(addr phys.PhysAddr) int {
	f := a.FrameIndex(addr)
	d := &a.descs[f]

	d.mu.Lock()
	ref := d.ref
	d.mu.Unlock()
	return int(ref)
}

// FrameIndex maps a frame-aligned managed address to its frame index.
// Misaligned or out-of-range addresses are faults: no operation accepts
// an address that does not name a managed frame. All address validation
// in the allocator funnels through here.
func (a *Allocator) FrameIndex(addr phys.PhysAddr) phys.Frame {
	f, ok := a.layout.IndexOf(addr)
	if !ok {
		a.fault("frame_index", addr, -1, "address does not name a managed frame")
	}
	return f
}

// Layout returns the manageable range this allocator was built over.
func (a *Allocator) Layout() phys.Layout { return a.layout }

// Image returns the memory backing this allocator operates on.
func (a *Allocator) Image() *phys.Image { return a.img }

// TotalFrames returns the number of frames in the manageable range.
func (a *Allocator) TotalFrames() int { return len(a.descs) }

// FreeFrames walks the free list and returns its length. The count is
// derived on every call; the allocator keeps no state beyond the
// reference counts and the list itself.
func (a *Allocator) FreeFrames() int {
	a.listMu.Lock()
	defer a.listMu.Unlock()

	n := 0
	for addr := a.head; addr != nilLink; addr = a.readLink(addr) {
		n++
		if n > len(a.descs) {
			a.fault("free_frames", addr, -1, "free list longer than frame table")
		}
	}
	return n
}

// readLink returns the next pointer stored in the free frame at addr.
// Links live in image bytes and can be corrupted from outside, so the
// address is validated before it is dereferenced.
func (a *Allocator) readLink(addr phys.PhysAddr) phys.PhysAddr {
	f, ok := a.layout.IndexOf(addr)
	if !ok {
		a.fault("free_list", addr, -1, "link does not name a managed frame")
	}
	return phys.PhysAddr(format.ReadU64(a.frameBytes(f), format.LinkOffset))
}

// frameBytes returns the storage of frame f as a view into the image.
func (a *Allocator) frameBytes(f phys.Frame) []byte {
	off := uint64(a.layout.AddrOf(f) - a.img.Base())
	return a.img.Bytes()[off : off+phys.FrameSize]
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
