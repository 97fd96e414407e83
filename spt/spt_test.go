package spt_test

import (
	"sync"
	"testing"

	"duskos/defs"
	"duskos/diskio"
	"duskos/mem"
	"duskos/page"
	"duskos/pml4"
	"duskos/spt"
	"duskos/swap"

	"github.com/stretchr/testify/require"
)

func newDeps() *page.Deps {
	return &page.Deps{
		Frames: mem.NewAllocator(4),
		Swap:   swap.NewTable(diskio.NewMemDisk(4 * defs.SectorsPerPage)),
		PML4:   pml4.Create(),
		FSLock: &sync.Mutex{},
	}
}

func TestInsertRejectsDuplicateAddress(t *testing.T) {
	tbl := spt.Init()
	deps := newDeps()
	p1 := page.New(0x1000, true, page.NewAnon(), deps)
	p2 := page.New(0x1000, true, page.NewAnon(), deps)

	require.True(t, tbl.Insert(p1))
	require.False(t, tbl.Insert(p2))
	require.Equal(t, 1, tbl.Len())
}

func TestFindRoundsAddressDown(t *testing.T) {
	tbl := spt.Init()
	deps := newDeps()
	p := page.New(0x1000, true, page.NewAnon(), deps)
	require.True(t, tbl.Insert(p))

	found, ok := tbl.Find(0x1ABC)
	require.True(t, ok)
	require.Same(t, p, found)
}

func TestRemoveDestroysAndDetaches(t *testing.T) {
	tbl := spt.Init()
	deps := newDeps()
	p := page.New(0x2000, true, page.NewAnon(), deps)
	require.True(t, tbl.Insert(p))

	require.NoError(t, tbl.Remove(p, deps))
	_, ok := tbl.Find(0x2000)
	require.False(t, ok)
}

func TestKillIsIdempotent(t *testing.T) {
	tbl := spt.Init()
	deps := newDeps()
	require.True(t, tbl.Insert(page.New(0x3000, true, page.NewAnon(), deps)))
	require.True(t, tbl.Insert(page.New(0x4000, true, page.NewAnon(), deps)))

	require.NoError(t, tbl.Kill(deps))
	require.Equal(t, 0, tbl.Len())
	require.NoError(t, tbl.Kill(deps))
}

func TestEachVisitsEveryEntry(t *testing.T) {
	tbl := spt.Init()
	deps := newDeps()
	require.True(t, tbl.Insert(page.New(0x5000, true, page.NewAnon(), deps)))
	require.True(t, tbl.Insert(page.New(0x6000, true, page.NewAnon(), deps)))

	seen := map[uintptr]bool{}
	tbl.Each(func(va uintptr, p *page.Page) { seen[va] = true })
	require.Len(t, seen, 2)
	require.True(t, seen[0x5000])
	require.True(t, seen[0x6000])
}
