// Package swap implements the swap-slot allocator (spec component
// C2): a bitmap of page-sized slots on a raw disk, used to evict
// anonymous pages under memory pressure. It is grounded on the
// original implementation's vm_anon_init/anon_swap_in/anon_swap_out
// (a slot table sized from disk_size/SECTORS_PER_PAGE) and adapted
// to the teacher's fs/blk.go block-request idiom for disk access.
package swap

import (
	"sync"

	"duskos/defs"
	"duskos/diskio"
	"duskos/kernel"

	"github.com/pkg/errors"
)

// Table is the swap-slot allocator. One Table owns one swap disk.
type Table struct {
	mu   sync.Mutex
	disk diskio.Disk
	used []bool
}

// NewTable builds a Table over disk, sizing the slot count from the
// disk's sector count (spec.md §4.2: swap_size = disk sectors /
// SECTORS_PER_PAGE).
func NewTable(disk diskio.Disk) *Table {
	n := disk.SectorCount() / defs.SectorsPerPage
	return &Table{disk: disk, used: make([]bool, n)}
}

// SlotCount reports the total number of page-sized slots on the disk.
func (t *Table) SlotCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.used)
}

// InUse reports the number of currently occupied slots, for P7.
func (t *Table) InUse() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, b := range t.used {
		if b {
			n++
		}
	}
	return n
}

// Alloc claims the lowest-indexed free slot (spec.md §4.2's explicit
// contract). Exhaustion is a fatal kernel condition (spec.md §7:
// OutOfSwap), since there is no way to make forward progress without
// it.
func (t *Table) Alloc() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx, used := range t.used {
		if !used {
			t.used[idx] = true
			return idx
		}
	}
	kernel.Panic("out of swap slots", nil)
	panic("unreachable")
}

// Free releases slotNo. Freeing an already-free slot is a no-op, so
// callers never need to track whether a slot was already released.
func (t *Table) Free(slotNo int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slotNo < 0 || slotNo >= len(t.used) {
		return
	}
	t.used[slotNo] = false
}

// Read copies the page stored at slotNo into dst, which must be at
// least PageSize bytes.
func (t *Table) Read(slotNo int, dst []byte) error {
	if err := t.checkSlot(slotNo); err != nil {
		return err
	}
	base := uint64(slotNo) * defs.SectorsPerPage
	for i := 0; i < defs.SectorsPerPage; i++ {
		sec := dst[i*defs.SectorSize : (i+1)*defs.SectorSize]
		if err := t.disk.ReadSector(base+uint64(i), sec); err != nil {
			return errors.Wrapf(defs.ErrDiskIO, "swap read slot %d: %v", slotNo, err)
		}
	}
	return nil
}

// Write stores src (at least PageSize bytes) into slotNo.
func (t *Table) Write(slotNo int, src []byte) error {
	if err := t.checkSlot(slotNo); err != nil {
		return err
	}
	base := uint64(slotNo) * defs.SectorsPerPage
	for i := 0; i < defs.SectorsPerPage; i++ {
		sec := src[i*defs.SectorSize : (i+1)*defs.SectorSize]
		if err := t.disk.WriteSector(base+uint64(i), sec); err != nil {
			return errors.Wrapf(defs.ErrDiskIO, "swap write slot %d: %v", slotNo, err)
		}
	}
	return nil
}

func (t *Table) checkSlot(slotNo int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slotNo < 0 || slotNo >= len(t.used) {
		return errors.Wrapf(defs.ErrNotFound, "swap slot %d out of range", slotNo)
	}
	return nil
}
