// Package page implements the page object and its per-kind operation
// dispatch (spec components C3 and C7): a tagged variant {UNINIT,
// ANON, FILE} with a common {SwapIn, SwapOut, Destroy} interface. It
// is grounded on original_source's vm.c page_operations dispatch
// table and on the teacher's preference (seen throughout fs/ and
// mem/) for a small interface satisfied by distinct concrete types
// rather than a union/enum switch.
package page

import (
	"sync"

	"duskos/mem"
	"duskos/pml4"
	"duskos/swap"

	"github.com/pkg/errors"
)

// Deps bundles the process-wide collaborators a kind's operations may
// need: the frame pool, the swap-slot table, and the address space's
// hardware page table. Filesystem access goes through FSLock, held
// around every file operation issued from VM (spec.md §5).
type Deps struct {
	Frames *mem.Allocator
	Swap   *swap.Table
	PML4   *pml4.Table
	FSLock *sync.Mutex
}

// Kind is the per-variant operations triple (spec.md §4.3). Tag
// identifies the variant for diagnostics and for the copy-on-fork
// switch in package vm.
type Kind interface {
	Tag() string
	SwapIn(p *Page, deps *Deps, kva []byte) error
	SwapOut(p *Page, deps *Deps) error
	// Destroy releases the kind's backing-store resources (slot,
	// dirty write-back) and unlinks any resident frame. It returns
	// the frame the caller must return to the allocator, or nil if
	// none is owed (either the page was non-resident, or the kind
	// already returned it itself).
	Destroy(p *Page, deps *Deps) (*mem.Frame, error)
}

// Page is one process's view of one page-aligned virtual address
// (spec.md §3). Kind is replaced in place on the first fault
// (UNINIT → ANON/FILE); VA and Writable never change after creation.
type Page struct {
	mu sync.Mutex

	VA       uintptr
	Writable bool
	Kind     Kind
	Frame    *mem.Frame
	OwnerTid int

	// Deps is the owning address space's collaborators — in
	// particular its own PML4, not whichever space's frame pool
	// happened to service the allocation. A page is only ever
	// claimed/evicted/destroyed against its own Deps, even when the
	// frame pool backing Deps.Frames is shared across many spaces
	// (spec.md §5/§9's global frame-table model): eviction walks the
	// shared frame table looking for a victim, but must clear that
	// victim's mapping in its own owning process's page table, never
	// the evicting caller's.
	Deps *Deps

	// Stack marks an ANON page installed by the stack-growth policy
	// (spec.md invariant 7: only ANON pages may carry this marker).
	Stack bool
}

// New creates a page with the given kind and owning Deps, not yet
// inserted into any table and not yet resident.
func New(va uintptr, writable bool, kind Kind, deps *Deps) *Page {
	return &Page{VA: va, Writable: writable, Kind: kind, Deps: deps}
}

// Resident reports whether the page currently occupies a frame.
func (p *Page) Resident() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Frame != nil
}

// SetKind replaces the page's variant in place, preserving VA and
// Writable — the UNINIT → ANON/FILE rewrite (spec.md §4.7 step 2).
func (p *Page) SetKind(k Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Kind = k
}

// GetKind returns the page's current variant.
func (p *Page) GetKind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Kind
}

// Link installs frame as this page's resident frame and sets the
// frame's back-reference, maintaining invariant 2 (bijection between
// resident pages and allocated frames).
func (p *Page) Link(frame *mem.Frame) {
	p.mu.Lock()
	p.Frame = frame
	p.mu.Unlock()
	frame.SetPage(p)
}

// Unlink clears both ends of the page/frame relation, without
// returning the frame to the allocator (the caller does that).
func (p *Page) Unlink() *mem.Frame {
	p.mu.Lock()
	f := p.Frame
	p.Frame = nil
	p.mu.Unlock()
	if f != nil {
		f.SetPage(nil)
	}
	return f
}

// GetFrame returns the page's current frame, or nil if non-resident.
func (p *Page) GetFrame() *mem.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Frame
}

// SwapIn dispatches to the current kind's SwapIn.
func (p *Page) SwapIn(deps *Deps, kva []byte) error {
	return p.GetKind().SwapIn(p, deps, kva)
}

// SwapOut dispatches to the current kind's SwapOut.
func (p *Page) SwapOut(deps *Deps) error {
	return p.GetKind().SwapOut(p, deps)
}

// Destroy dispatches to the current kind's Destroy and returns any
// frame still owed to the allocator to the pool. It does not free the
// Page object itself (spec.md §4.3); the caller (spt.Remove or
// spt.Kill) drops its own reference afterward.
func (p *Page) Destroy(deps *Deps) error {
	frame, err := p.GetKind().Destroy(p, deps)
	if err != nil {
		return errors.Wrap(err, "destroy page")
	}
	if frame != nil {
		deps.Frames.Free(frame)
	}
	return nil
}
