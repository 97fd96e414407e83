package mem_test

import (
	"testing"

	"duskos/mem"

	"github.com/stretchr/testify/require"
)

func TestAllocFreeRoundTrip(t *testing.T) {
	a := mem.NewAllocator(2)
	require.Equal(t, 2, a.Capacity())

	f1, err := a.Alloc(nil)
	require.NoError(t, err)
	require.Equal(t, 1, a.InUse())

	f1.KVA[0] = 0x42
	a.Free(f1)
	require.Equal(t, 0, a.InUse())

	f2, err := a.Alloc(nil)
	require.NoError(t, err)
	require.Equal(t, byte(0), f2.KVA[0], "freed frame contents must be zeroed on reuse")
}

func TestAllocExhaustionWithoutEvictorFails(t *testing.T) {
	a := mem.NewAllocator(1)
	_, err := a.Alloc(nil)
	require.NoError(t, err)

	_, err = a.Alloc(nil)
	require.Error(t, err)
}

func TestAllocCallsEvictorWhenExhausted(t *testing.T) {
	a := mem.NewAllocator(1)
	first, err := a.Alloc(nil)
	require.NoError(t, err)

	called := false
	second, err := a.Alloc(func(candidates []*mem.Frame) (*mem.Frame, error) {
		called = true
		require.Len(t, candidates, 1)
		require.Same(t, first, candidates[0])
		// a real evictor unlinks the frame's resident page but leaves
		// returning it to the table to Alloc itself.
		return first, nil
	})
	require.NoError(t, err)
	require.True(t, called)
	require.Same(t, first, second)
}

func TestFramePageBackReference(t *testing.T) {
	a := mem.NewAllocator(1)
	f, err := a.Alloc(nil)
	require.NoError(t, err)
	require.Nil(t, f.GetPage())

	f.SetPage("marker")
	require.Equal(t, "marker", f.GetPage())
}
