package pml4_test

import (
	"testing"

	"duskos/pml4"

	"github.com/stretchr/testify/require"
)

func TestSetGetClearPage(t *testing.T) {
	pt := pml4.Create()
	kva := make([]byte, 4096)

	_, ok := pt.GetPage(0x1000)
	require.False(t, ok)

	pt.SetPage(0x1000, kva, true)
	got, ok := pt.GetPage(0x1000)
	require.True(t, ok)
	require.Same(t, &kva[0], &got[0])
	require.True(t, pt.IsWritable(0x1000))

	pt.ClearPage(0x1000)
	_, ok = pt.GetPage(0x1000)
	require.False(t, ok)
}

func TestSetPageRoundsAddress(t *testing.T) {
	pt := pml4.Create()
	kva := make([]byte, 4096)
	pt.SetPage(0x1ABC, kva, false)

	_, ok := pt.GetPage(0x1000)
	require.True(t, ok)
}

func TestDirtyAndAccessedBits(t *testing.T) {
	pt := pml4.Create()
	pt.SetPage(0x2000, make([]byte, 4096), true)

	require.False(t, pt.IsDirty(0x2000))
	require.False(t, pt.IsAccessed(0x2000))

	pt.Touch(0x2000, false)
	require.True(t, pt.IsAccessed(0x2000))
	require.False(t, pt.IsDirty(0x2000))

	pt.Touch(0x2000, true)
	require.True(t, pt.IsDirty(0x2000))

	pt.SetAccessed(0x2000, false)
	require.False(t, pt.IsAccessed(0x2000))

	pt.SetDirty(0x2000, false)
	require.False(t, pt.IsDirty(0x2000))
}
