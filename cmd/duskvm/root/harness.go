package root

import (
	"sync"

	"duskos/diskio"
	"duskos/mem"
	"duskos/page"
	"duskos/pml4"
	"duskos/spt"
	"duskos/swap"
	"duskos/vm"

	"github.com/pkg/errors"
)

// world is one running instance of the VM core: the process-wide
// singletons (spec.md §9) shared by every space spawned from it —
// the frame pool, swap table, and swap disk.
type world struct {
	frames *mem.Allocator
	swap   *swap.Table
	disk   diskio.Disk
}

func newWorld(cfg *Config) (*world, error) {
	var disk diskio.Disk
	if cfg.SwapDisk == "" {
		disk = diskio.NewMemDisk(cfg.SwapSlots * 8)
	} else {
		bd, err := diskio.OpenBoltDisk(cfg.SwapDisk, cfg.SwapSlots*8)
		if err != nil {
			return nil, errors.Wrap(err, "open swap disk")
		}
		disk = bd
	}
	return &world{
		frames: mem.NewAllocator(cfg.PoolSize),
		swap:   swap.NewTable(disk),
		disk:   disk,
	}, nil
}

// newSpace builds a fresh, empty address space backed by this world's
// shared frame pool and swap table, with its own hardware page table
// and filesystem lock (per-process state per spec.md §5).
func (w *world) newSpace() *vm.Space {
	pt := pml4.Create()
	deps := &page.Deps{
		Frames: w.frames,
		Swap:   w.swap,
		PML4:   pt,
		FSLock: &sync.Mutex{},
	}
	return vm.NewSpace(spt.Init(), pt, deps)
}
