package page

import (
	"duskos/mem"

	"github.com/pkg/errors"
)

// NoSlot marks an ANON page with no swap slot assigned (resident or
// never yet swapped out).
const NoSlot = -1

// AnonKind is the anonymous, swap-backed variant (spec.md §3, §4.5).
type AnonKind struct {
	SlotNo int
}

// NewAnon builds an AnonKind with no slot assigned, used both as the
// initial state after materialization and as the planned kind stored
// in an UninitKind for anonymous pages.
func NewAnon() *AnonKind { return &AnonKind{SlotNo: NoSlot} }

func (a *AnonKind) Tag() string { return "anon" }

// SwapIn reads the page's slot into kva, frees the slot, and clears
// SlotNo (spec.md §4.5).
func (a *AnonKind) SwapIn(p *Page, deps *Deps, kva []byte) error {
	if a.SlotNo == NoSlot {
		// first-ever fault on a zero-filled anon page: kva is already
		// zeroed by the frame allocator, nothing to load.
		return nil
	}
	if err := deps.Swap.Read(a.SlotNo, kva); err != nil {
		return errors.Wrap(err, "anon swap_in")
	}
	deps.Swap.Free(a.SlotNo)
	a.SlotNo = NoSlot
	return nil
}

// SwapOut allocates a slot, writes the frame contents to it, records
// SlotNo, and unlinks the frame and hardware mapping (spec.md §4.5).
func (a *AnonKind) SwapOut(p *Page, deps *Deps) error {
	frame := p.GetFrame()
	if frame == nil {
		return errors.New("anon swap_out: page not resident")
	}
	slot := deps.Swap.Alloc()
	if err := deps.Swap.Write(slot, frame.KVA); err != nil {
		deps.Swap.Free(slot)
		return errors.Wrap(err, "anon swap_out")
	}
	a.SlotNo = slot
	p.Unlink()
	deps.PML4.ClearPage(p.VA)
	return nil
}

// Destroy frees the occupied slot, if any, and releases the frame if
// resident (spec.md §4.5): the frame is returned to the caller for
// the common dispatcher to hand back to the allocator.
func (a *AnonKind) Destroy(p *Page, deps *Deps) (*mem.Frame, error) {
	if a.SlotNo != NoSlot {
		deps.Swap.Free(a.SlotNo)
		a.SlotNo = NoSlot
	}
	frame := p.Unlink()
	if frame != nil {
		deps.PML4.ClearPage(p.VA)
	}
	return frame, nil
}
