package vm_test

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
	"duskos/thread"
	"duskos/vfile"
	"duskos/vm"

	"github.com/stretchr/testify/require"
)

func newSpace(poolSize int) *vm.Space {
	pt := pml4.Create()
	deps := &page.Deps{
		Frames: mem.NewAllocator(poolSize),
		Swap:   swap.NewTable(diskio.NewMemDisk(64 * defs.SectorsPerPage)),
		PML4:   pt,
		FSLock: &sync.Mutex{},
	}
	return vm.NewSpace(spt.Init(), pt, deps)
}

func TestStackGrowthOnPushStyleFault(t *testing.T) {
	s := newSpace(4)
	th := thread.New(1)
	rsp := uintptr(defs.UserStack)
	fault := rsp - 8

	require.NoError(t, s.TryHandleFault(th, fault, true, true, true, rsp))

	p, ok := s.SPT.Find(fault)
	require.True(t, ok)
	require.True(t, p.Stack)
	require.True(t, p.Resident())
}

func TestStackGrowthRejectsAccessBelowLimit(t *testing.T) {
	s := newSpace(4)
	th := thread.New(1)
	rsp := uintptr(defs.UserStack)
	belowLimit := uintptr(defs.StackLimit) - 1

	err := s.TryHandleFault(th, belowLimit, true, true, true, rsp)
	require.ErrorIs(t, err, defs.ErrBadAddress)
}

func TestPermissionFaultOnPresentPage(t *testing.T) {
	s := newSpace(4)
	th := thread.New(1)
	require.True(t, s.AllocPage(vm.KindAnon, 0x1000, false))
	p, _ := s.SPT.Find(0x1000)
	require.NoError(t, s.Claim(p))

	err := s.TryHandleFault(th, 0x1000, true, true, false, 0)
	require.ErrorIs(t, err, defs.ErrPermissionFault)
}

func TestEvictionReclaimsOldestUnaccessedFrame(t *testing.T) {
	s := newSpace(1)
	require.True(t, s.AllocPage(vm.KindAnon, 0x1000, true))
	p1, _ := s.SPT.Find(0x1000)
	require.NoError(t, s.Claim(p1))
	p1.GetFrame().KVA[0] = 0xAA

	require.True(t, s.AllocPage(vm.KindAnon, 0x2000, true))
	p2, _ := s.SPT.Find(0x2000)
	require.NoError(t, s.Claim(p2))

	require.False(t, p1.Resident(), "pool of 1 must evict p1 to make room for p2")
	require.True(t, p2.Resident())

	require.NoError(t, s.Claim(p1))
	require.Equal(t, byte(0xAA), p1.GetFrame().KVA[0])
}

func TestMmapReadsFileThenMunmapWritesBack(t *testing.T) {
	s := newSpace(4)
	f := vfile.NewMemFile([]byte{9, 9, 9})

	addr, err := s.Mmap(0x10000000, defs.PageSize, true, f, 0)
	require.NoError(t, err)

	p, ok := s.SPT.Find(addr)
	require.True(t, ok)
	require.NoError(t, s.Claim(p))
	require.Equal(t, byte(9), p.GetFrame().KVA[0])

	p.GetFrame().KVA[0] = 0x11
	s.PML4.Touch(addr, true)

	s.Munmap(addr)
	require.Equal(t, byte(0x11), f.Snapshot()[0])

	_, ok = s.SPT.Find(addr)
	require.False(t, ok, "munmap removes the page from the SPT")
}

func TestMmapRejectsOverlap(t *testing.T) {
	s := newSpace(4)
	f := vfile.NewMemFile(make([]byte, defs.PageSize))

	_, err := s.Mmap(0x10000000, defs.PageSize, true, f, 0)
	require.NoError(t, err)

	_, err = s.Mmap(0x10000000, defs.PageSize, true, f, 0)
	require.Error(t, err)
}

func TestCopySPTDeepCopiesAnonPages(t *testing.T) {
	parent := newSpace(4)
	require.True(t, parent.AllocPage(vm.KindAnon, 0x20000000, true))
	pp, _ := parent.SPT.Find(0x20000000)
	require.NoError(t, parent.Claim(pp))
	pp.GetFrame().KVA[0] = 0xAA

	child := newSpace(4)
	require.NoError(t, vm.CopySPT(child, parent))

	cp, ok := child.SPT.Find(0x20000000)
	require.True(t, ok)
	require.Equal(t, byte(0xAA), cp.GetFrame().KVA[0])

	cp.GetFrame().KVA[0] = 0xBB
	require.Equal(t, byte(0xAA), pp.GetFrame().KVA[0], "child write must not affect parent's frame")
}
