package alloc

import (
	"fmt"

	"github.com/joshuapare/framekit/phys"
)

// Fault describes a violated allocator invariant: a misaligned or
// unmanaged address, a release with no owners, a free frame with a
// nonzero count. Faults are raised by panicking with *Fault after the
// condition is logged; they are the library analog of a kernel panic and
// leave the allocator in an unspecified state.
type Fault struct {
	Op   string        // operation that observed the violation
	Addr phys.PhysAddr // address involved
	Ref  int32         // observed reference count, -1 when not applicable
	Msg  string        // what was violated
}

func (f *Fault) Error() string {
	if f.Ref >= 0 {
		return fmt.Sprintf("alloc: %s: %s (addr=%s, ref=%d)", f.Op, f.Msg, f.Addr, f.Ref)
	}
	return fmt.Sprintf("alloc: %s: %s (addr=%s)", f.Op, f.Msg, f.Addr)
}

// fault reports an invariant violation and halts the operation by
// panicking with *Fault. It never returns.
func (a *Allocator) fault(op string, addr phys.PhysAddr, ref int32, msg string) {
	a.log.Error("allocator fault", "op", op, "addr", addr, "ref", ref, "msg", msg)
	panic(&Fault{Op: op, Addr: addr, Ref: ref, Msg: msg})
}
