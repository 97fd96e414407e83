package swap_test

import (
	"testing"

	"duskos/defs"
	"duskos/diskio"
	"duskos/swap"

	"github.com/stretchr/testify/require"
)

func TestAllocFreeIsLowestIndexed(t *testing.T) {
	disk := diskio.NewMemDisk(4 * defs.SectorsPerPage)
	tbl := swap.NewTable(disk)
	require.Equal(t, 4, tbl.SlotCount())

	s0 := tbl.Alloc()
	s1 := tbl.Alloc()
	require.Equal(t, 0, s0)
	require.Equal(t, 1, s1)

	tbl.Free(s0)
	s2 := tbl.Alloc()
	require.Equal(t, 0, s2, "freed slot should be reused before higher-indexed ones")
}

func TestFreeIsIdempotent(t *testing.T) {
	disk := diskio.NewMemDisk(2 * defs.SectorsPerPage)
	tbl := swap.NewTable(disk)
	s := tbl.Alloc()
	tbl.Free(s)
	require.NotPanics(t, func() { tbl.Free(s) })
}

func TestWriteReadRoundTrip(t *testing.T) {
	disk := diskio.NewMemDisk(2 * defs.SectorsPerPage)
	tbl := swap.NewTable(disk)
	s := tbl.Alloc()

	page := make([]byte, defs.PageSize)
	for i := range page {
		page[i] = byte(i % 251)
	}
	require.NoError(t, tbl.Write(s, page))

	out := make([]byte, defs.PageSize)
	require.NoError(t, tbl.Read(s, out))
	require.Equal(t, page, out)
}

func TestInUseTracksOccupancy(t *testing.T) {
	disk := diskio.NewMemDisk(3 * defs.SectorsPerPage)
	tbl := swap.NewTable(disk)
	require.Equal(t, 0, tbl.InUse())
	s0 := tbl.Alloc()
	tbl.Alloc()
	require.Equal(t, 2, tbl.InUse())
	tbl.Free(s0)
	require.Equal(t, 1, tbl.InUse())
}
