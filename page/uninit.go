package page

import (
	"duskos/mem"

	"github.com/pkg/errors"
)

// InitFunc loads a page's initial contents into kva once its kind
// has been materialized. aux is the lazy-load context captured at
// alloc_page_with_initializer time; nil for stack pages, which are
// simply zero-filled.
type InitFunc func(p *Page, aux interface{}, kva []byte) error

// UninitKind is the not-yet-materialized variant (spec.md §3): it
// carries the function and context needed to install the real kind
// on first fault, plus which concrete kind to install.
type UninitKind struct {
	Init    InitFunc
	Aux     interface{}
	Planned string // "anon" or "file"

	// NewPlanned builds the concrete Kind to install, given Aux. The
	// lazy loader (vm.Claim) calls this once on first fault, then
	// invokes Init to populate the frame.
	NewPlanned func(aux interface{}) (Kind, error)
}

func (u *UninitKind) Tag() string { return "uninit" }

// SwapIn is never called directly on an UNINIT page: the first fault
// materializes the real kind before any SwapIn dispatch happens (see
// vm.Claim). Reaching here is a caller error.
func (u *UninitKind) SwapIn(p *Page, deps *Deps, kva []byte) error {
	return errors.New("swap_in on uninit page: must materialize first")
}

func (u *UninitKind) SwapOut(p *Page, deps *Deps) error {
	return errors.New("swap_out on uninit page: never resident")
}

// Destroy frees Aux if it is still owned by this UNINIT page (spec.md
// §4.3: "the UNINIT variant's destroy frees the initializer's aux if
// still owned"). Aux here is always Go-GC-managed, so there is
// nothing to release explicitly; the method exists to keep the triple
// complete and to make the ownership transfer at materialization time
// explicit: once NewPlanned has run, Aux is logically consumed.
func (u *UninitKind) Destroy(p *Page, deps *Deps) (*mem.Frame, error) {
	u.Aux = nil
	return nil, nil
}

// Materialize installs the planned concrete kind in place, invoking
// NewPlanned with the captured Aux, and returns the new kind so the
// caller can proceed to load contents via its Init.
func (u *UninitKind) Materialize(p *Page) (Kind, InitFunc, interface{}, error) {
	k, err := u.NewPlanned(u.Aux)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "materialize uninit page")
	}
	init, aux := u.Init, u.Aux
	p.SetKind(k)
	return k, init, aux, nil
}
