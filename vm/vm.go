// Package vm orchestrates frame claiming and clock-style eviction
// (spec component C11) on top of package mem's frame allocator and
// package page's per-kind dispatch. It is grounded on original_source's
// vm_get_frame/vm_get_victim/vm_evict_frame/vm_do_claim_page, adapted
// to the teacher's style of a small struct wrapping the allocator
// rather than free functions operating on process-global tables.
package vm

import (
	"duskos/mem"
	"duskos/page"
	"duskos/pml4"
	"duskos/stats"

	"github.com/pkg/errors"
)

// Space is one process's virtual memory state: its supplemental page
// table and hardware address space, plus the collaborators every page
// kind needs (spec.md §9: "global mutable state... model as
// long-lived process-wide singletons"; Frames and Swap are shared
// across every Space, PML4 and SPT are per-process).
type Space struct {
	SPT   SPT
	PML4  *pml4.Table
	Deps  *page.Deps
	Stats stats.VM
}

// SPT is the subset of *spt.Table that package vm depends on, kept as
// a minimal interface so vm does not import spt (importing it would
// not create a cycle: spt imports page, not vm).
type SPT interface {
	Find(va uintptr) (*page.Page, bool)
	Insert(p *page.Page) bool
	Remove(p *page.Page, deps *page.Deps) error
	Each(f func(va uintptr, p *page.Page))
	Kill(deps *page.Deps) error
}

// NewSpace builds a process address space over the given supplemental
// page table and shared collaborators.
func NewSpace(spt SPT, pml4t *pml4.Table, deps *page.Deps) *Space {
	return &Space{SPT: spt, PML4: pml4t, Deps: deps}
}

// Claim makes a page resident: allocate a frame, install the hardware
// mapping, then load contents via the kind's SwapIn (spec.md §4.11).
// If the page is still UNINIT, it is materialized first (spec.md
// §4.7 step 2-3).
func (s *Space) Claim(p *page.Page) error {
	kind := p.GetKind()
	var loader page.InitFunc
	var aux interface{}
	var uninit *page.UninitKind

	if u, ok := kind.(*page.UninitKind); ok {
		newKind, init, a, err := u.Materialize(p)
		if err != nil {
			return errors.Wrap(err, "claim: materialize")
		}
		uninit = u
		kind = newKind
		loader, aux = init, a
	}

	frame, err := s.allocFrame()
	if err != nil {
		if uninit != nil {
			p.SetKind(uninit)
		}
		return errors.Wrap(err, "claim: frame_alloc")
	}

	p.Link(frame)
	s.PML4.SetPage(p.VA, frame.KVA, p.Writable)

	if loader != nil {
		if err := loader(p, aux, frame.KVA); err != nil {
			s.rollbackClaim(p, frame, uninit)
			return errors.Wrap(err, "claim: initializer")
		}
	} else if err := kind.SwapIn(p, s.Deps, frame.KVA); err != nil {
		s.rollbackClaim(p, frame, uninit)
		return errors.Wrap(err, "claim: swap_in")
	} else {
		s.Stats.SwapIns.Inc()
	}
	return nil
}

// rollbackClaim undoes a partially completed claim (spec.md §7: "if
// claim fails partway, the frame is freed and the page returns to its
// prior kind"). uninit is the page's original UninitKind, or nil if
// the page was already materialized before this claim began.
func (s *Space) rollbackClaim(p *page.Page, frame *mem.Frame, uninit *page.UninitKind) {
	p.Unlink()
	s.PML4.ClearPage(p.VA)
	s.Deps.Frames.Free(frame)
	if uninit != nil {
		p.SetKind(uninit)
	}
}

// allocFrame requests a frame from the pool, evicting via the clock
// policy if the pool is exhausted.
func (s *Space) allocFrame() (*mem.Frame, error) {
	return s.Deps.Frames.Alloc(s.evict)
}

// evict implements the clock / second-chance policy (spec.md §4.11):
// walk the frame table in FIFO order; clear and skip any frame whose
// page has the accessed bit set; pick the first one found clear. A
// second pass after clearing everyone is guaranteed to find a victim
// because every frame is now unaccessed.
//
// The frame table is shared across every Space drawing from the same
// pool (spec.md §5/§9), so a victim found here may belong to a
// different process than the one whose allocation triggered eviction.
// Every hardware-page-table operation below therefore goes through
// the victim's own Deps/PML4 (victim.Deps), never s's.
func (s *Space) evict(candidates []*mem.Frame) (*mem.Frame, error) {
	if len(candidates) == 0 {
		return nil, errors.New("evict: no frames to consider")
	}
	for pass := 0; pass < 2; pass++ {
		for _, f := range candidates {
			res := f.GetPage()
			victim, ok := res.(*page.Page)
			if !ok || victim == nil {
				continue
			}
			if victim.Deps.PML4.IsAccessed(victim.VA) {
				victim.Deps.PML4.SetAccessed(victim.VA, false)
				continue
			}
			if err := victim.SwapOut(victim.Deps); err != nil {
				return nil, errors.Wrap(err, "evict: swap_out")
			}
			s.Stats.Evictions.Inc()
			s.Stats.SwapOuts.Inc()
			return f, nil
		}
	}
	return nil, errors.New("evict: no victim found after two passes")
}
