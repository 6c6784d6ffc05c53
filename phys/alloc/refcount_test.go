package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Ref_TracksTransitions(t *testing.T) {
	a := newTestAllocator(t, 4)

	addr, err := a.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 1, a.Ref(addr))

	a.Retain(addr)
	assert.Equal(t, 2, a.Ref(addr))

	a.Free(addr)
	assert.Equal(t, 1, a.Ref(addr))

	a.Free(addr)
	assert.Equal(t, 0, a.Ref(addr))
}

func Test_Retain_SharedLifecycle(t *testing.T) {
	const numFrames = 8
	const extraOwners = 3
	a := newTestAllocator(t, numFrames)

	addr, err := a.Alloc()
	require.NoError(t, err)
	for r := 0; r < extraOwners; r++ {
		a.Retain(addr)
	}
	assert.Equal(t, extraOwners+1, a.Ref(addr))

	// Releasing all but the last owner leaves the frame granted: off the
	// list, content untouched.
	for i := 0; i < extraOwners; i++ {
		a.Free(addr)
		assert.Equal(t, extraOwners-i, a.Ref(addr))
		assert.Equal(t, numFrames-1, a.FreeFrames())
		assertFilled(t, frameContent(a, addr), AllocFill, "shared frame")
	}

	// The last release scrubs and reclaims.
	a.Free(addr)
	assert.Equal(t, 0, a.Ref(addr))
	assert.Equal(t, numFrames, a.FreeFrames())
	assertScrubbedFree(t, a, addr)
}

func Test_SharedFrame_NeedsNPlusOneReleases(t *testing.T) {
	const retains = 5
	a := newTestAllocator(t, 4)

	addr, err := a.Alloc()
	require.NoError(t, err)
	for r := 0; r < retains; r++ {
		a.Retain(addr)
	}

	for r := 0; r < retains+1; r++ {
		a.Free(addr)
	}
	assert.Equal(t, 4, a.FreeFrames())

	// One release past the owner count is a fault.
	f := captureFault(t, func() { a.Free(addr) })
	assert.Equal(t, "free", f.Op)
}

func Test_Free_SharedKeepsContent(t *testing.T) {
	a := newTestAllocator(t, 4)

	addr, err := a.Alloc()
	require.NoError(t, err)
	a.Retain(addr)

	// The owner's data must survive the other holder's release byte for
	// byte, with no scrub and no list push.
	fb := frameContent(a, addr)
	for i := range fb {
		fb[i] = byte(i % 251)
	}

	a.Free(addr)
	assert.Equal(t, 1, a.Ref(addr))
	assert.Equal(t, 3, a.FreeFrames())
	for i := range fb {
		require.Equal(t, byte(i%251), fb[i], "byte at offset 0x%X changed during shared release", i)
	}

	a.Free(addr)
	assert.Equal(t, 4, a.FreeFrames())
	assertScrubbedFree(t, a, addr)
}

func Test_Free_NoCrossContamination(t *testing.T) {
	a := newTestAllocator(t, 4)

	p1, err := a.Alloc()
	require.NoError(t, err)
	p2, err := a.Alloc()
	require.NoError(t, err)

	b1 := frameContent(a, p1)
	b2 := frameContent(a, p2)
	for i := range b1 {
		b1[i] = 0xAA
	}
	for i := range b2 {
		b2[i] = 0xBB
	}

	// Scrubbing p1 on release must not leak into p2.
	a.Free(p1)
	assertScrubbedFree(t, a, p1)
	assertFilled(t, b2, 0xBB, "neighbor frame after free")

	// Regranting p1 repaints only p1.
	back, err := a.Alloc()
	require.NoError(t, err)
	require.Equal(t, p1, back)
	assertFilled(t, b1, AllocFill, "regranted frame")
	assertFilled(t, b2, 0xBB, "neighbor frame after realloc")
}
