// Package mem implements the physical frame allocator and frame table
// (spec component C1). It is adapted from the teacher's
// mem.Physmem_t free-list allocator: where the teacher tracks
// reference-counted physical pages shared via copy-on-write, this
// spec's frames are singly-owned (one resident page per frame), so
// the refcounting collapses to a plain free list plus a FIFO frame
// table used by the clock eviction policy in package vm.
package mem

import (
	"sync"

	"duskos/defs"
	"duskos/kernel"

	"github.com/pkg/errors"
)

// KVA is a kernel virtual address backing a physical frame. In this
// portable rendition of the subsystem (no real MMU access), a KVA is
// simply the byte slice of PageSize bytes that the frame owns.
type KVA = []byte

// OomCh is notified just before the frame allocator gives up (returning
// an error when it has no evictor, PANICking when eviction fails),
// mirroring the teacher's oommsg package. Nothing
// listens by default; tests may drain it to observe pressure.
var OomCh = make(chan OomMsg, 1)

// OomMsg describes a failed allocation attempt.
type OomMsg struct {
	Need int
}

// Frame is a single allocated physical frame (spec §3 "Frame"). Page
// is a non-owning back-reference to whatever currently resides in
// the frame (satisfied by *page.Page in practice); it is typed as
// interface{} to avoid an import cycle with package page, which owns
// the forward (owning) reference.
type Frame struct {
	KVA  KVA
	Page interface{} // back-reference; nil if held but not yet resident

	mu sync.Mutex
}

// SetPage links/unlinks the frame's back-reference under lock.
func (f *Frame) SetPage(p interface{}) {
	f.mu.Lock()
	f.Page = p
	f.mu.Unlock()
}

// GetPage reads the frame's back-reference under lock.
func (f *Frame) GetPage() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Page
}

// Allocator is the frame pool (spec's consumed palloc_get_page) plus
// the frame table used for FIFO clock eviction.
type Allocator struct {
	mu       sync.Mutex
	free     []*Frame
	table    []*Frame // insertion order; clock hand walks this
	clockPos int
	capacity int
}

// NewAllocator builds a frame pool of the given capacity (the "user
// pool size" referenced by testable property P6). Each frame owns a
// freshly allocated, zeroed PageSize byte slice.
func NewAllocator(capacity int) *Allocator {
	a := &Allocator{capacity: capacity}
	a.free = make([]*Frame, 0, capacity)
	for i := 0; i < capacity; i++ {
		a.free = append(a.free, &Frame{KVA: make([]byte, defs.PageSize)})
	}
	return a
}

// Capacity returns the pool's total frame count.
func (a *Allocator) Capacity() int {
	return a.capacity
}

// InUse returns the number of frames currently handed out, for P6.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.table)
}

// Evictor is called by Alloc when the pool is exhausted; it must
// evict exactly one frame (swapping its resident page out) and
// return it ready for reuse, or an error if nothing could be evicted.
type Evictor func(candidates []*Frame) (*Frame, error)

// Alloc returns a free frame, zeroing its contents first. If the pool
// is exhausted it invokes evict to reclaim one; if evict also fails,
// it reports OOM on OomCh and PANICs (spec §7: OutOfMemory is fatal).
// With a nil evict, an exhausted pool returns an error instead. A
// reclaimed frame is moved to the tail of the frame table.
func (a *Allocator) Alloc(evict Evictor) (*Frame, error) {
	a.mu.Lock()
	if n := len(a.free); n > 0 {
		f := a.free[n-1]
		a.free = a.free[:n-1]
		clear(f.KVA)
		a.table = append(a.table, f)
		a.mu.Unlock()
		return f, nil
	}
	table := append([]*Frame(nil), a.table...)
	a.mu.Unlock()

	if evict == nil {
		select {
		case OomCh <- OomMsg{Need: 1}:
		default:
		}
		return nil, errors.New("out of memory: frame pool exhausted")
	}
	f, err := evict(table)
	if err != nil {
		select {
		case OomCh <- OomMsg{Need: 1}:
		default:
		}
		kernel.Panic("out of memory: eviction failed", err)
		panic("unreachable")
	}
	clear(f.KVA)
	a.mu.Lock()
	for i, t := range a.table {
		if t == f {
			a.table = append(a.table[:i], a.table[i+1:]...)
			break
		}
	}
	a.table = append(a.table, f)
	a.mu.Unlock()
	return f, nil
}

// Free returns a frame to the pool and removes it from the frame
// table, invalidating its back-reference.
func (a *Allocator) Free(f *Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.table {
		if t == f {
			a.table = append(a.table[:i], a.table[i+1:]...)
			break
		}
	}
	f.SetPage(nil)
	a.free = append(a.free, f)
}

// Table returns a snapshot of the frame table in FIFO insertion
// order, used by the clock eviction walk in package vm.
func (a *Allocator) Table() []*Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Frame(nil), a.table...)
}
