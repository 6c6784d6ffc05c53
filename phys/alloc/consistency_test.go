package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/framekit/internal/format"
)

func Test_CheckConsistency_Clean(t *testing.T) {
	a := newTestAllocator(t, 8)
	require.NoError(t, a.CheckConsistency())

	// Still clean after a quiesced mix of operations.
	p1, err := a.Alloc()
	require.NoError(t, err)
	p2, err := a.Alloc()
	require.NoError(t, err)
	a.Retain(p1)
	a.Free(p2)
	a.Free(p1)

	require.NoError(t, a.CheckConsistency())
}

func Test_CheckConsistency_ListedFrameOwned(t *testing.T) {
	a := newTestAllocator(t, 4)

	victim := freeListAddrs(a)[1]
	setRef(a, victim, 2)

	err := a.CheckConsistency()
	require.Error(t, err)
	assert.Contains(t, err.Error(), victim.String())
	assert.Contains(t, err.Error(), "has refcount 2")
}

func Test_CheckConsistency_ScrubViolation(t *testing.T) {
	a := newTestAllocator(t, 4)

	frameContent(a, testBase)[100] = 0x77

	err := a.CheckConsistency()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modified at offset 0x64")
}

func Test_CheckConsistency_LinkWordExempt(t *testing.T) {
	a := newTestAllocator(t, 4)

	// The first 8 bytes of a free frame hold the next pointer, not the
	// scrub pattern. Rewriting them to a valid link is not a violation.
	head := freeListAddrs(a)[0]
	next := format.ReadU64(frameContent(a, head), format.LinkOffset)
	format.PutU64(frameContent(a, head), format.LinkOffset, next)

	require.NoError(t, a.CheckConsistency())
}

func Test_CheckConsistency_Cycle(t *testing.T) {
	a := newTestAllocator(t, 2)

	addrs := freeListAddrs(a)
	require.Len(t, addrs, 2)
	format.PutU64(frameContent(a, addrs[1]), format.LinkOffset, uint64(addrs[0]))

	err := a.CheckConsistency()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycles at")
}

func Test_CheckConsistency_UnmanagedLink(t *testing.T) {
	a := newTestAllocator(t, 2)

	head := freeListAddrs(a)[0]
	format.PutU64(frameContent(a, head), format.LinkOffset, 0x999)

	err := a.CheckConsistency()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a managed frame")
}

func Test_CheckConsistency_NegativeRef(t *testing.T) {
	a := newTestAllocator(t, 4)

	// An owned frame is off the list, so only the descriptor sweep can
	// catch its count going negative.
	addr, err := a.Alloc()
	require.NoError(t, err)
	setRef(a, addr, -1)

	cerr := a.CheckConsistency()
	require.Error(t, cerr)
	assert.Contains(t, cerr.Error(), "negative refcount")
	assert.Contains(t, cerr.Error(), addr.String())
}
