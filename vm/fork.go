package vm

import (
	"duskos/defs"
	"duskos/page"

	"github.com/pkg/errors"
)

// CopySPT deep-copies src's entries into dst (spec component C11/C12,
// spec.md §4.12), materializing FILE and ANON pages into dst's
// address space so the test suite's post-fork addressability
// contract (R3) holds immediately, without waiting for the child's
// next fault.
func CopySPT(dst *Space, src *Space) error {
	var copyErr error
	src.SPT.Each(func(va uintptr, srcPage *page.Page) {
		if copyErr != nil {
			return
		}
		if err := copyOne(dst, src, srcPage); err != nil {
			copyErr = err
		}
	})
	return copyErr
}

func copyOne(dst, srcSpace *Space, src *page.Page) error {
	switch k := src.GetKind().(type) {
	case *page.UninitKind:
		u := &page.UninitKind{Init: k.Init, Aux: k.Aux, Planned: k.Planned, NewPlanned: k.NewPlanned}
		np := page.New(src.VA, src.Writable, u, dst.Deps)
		np.Stack = src.Stack
		if !dst.SPT.Insert(np) {
			return errors.New("fork: duplicate uninit page in child")
		}
		return nil

	case *page.FileKind:
		clone := &page.FileKind{
			File:            k.File,
			Offset:          k.Offset,
			ReadBytes:       k.ReadBytes,
			ZeroBytes:       k.ZeroBytes,
			MappedPageCount: k.MappedPageCount,
		}
		np := page.New(src.VA, src.Writable, clone, dst.Deps)
		if !dst.SPT.Insert(np) {
			return errors.New("fork: duplicate file page in child")
		}
		if frame := src.GetFrame(); frame != nil {
			np.Link(frame)
			dst.PML4.SetPage(np.VA, frame.KVA, np.Writable)
		}
		return nil

	case *page.AnonKind:
		np := page.New(src.VA, src.Writable, page.NewAnon(), dst.Deps)
		np.Stack = src.Stack
		if !dst.SPT.Insert(np) {
			return errors.New("fork: duplicate anon page in child")
		}
		if err := dst.Claim(np); err != nil {
			return errors.Wrap(err, "fork: claim child anon page")
		}
		if src.GetFrame() == nil {
			// parent page is swapped out; bring it back in so there
			// is a frame to copy from (the copier runs with the
			// parent suspended, so this does not race the parent).
			if err := srcSpace.Claim(src); err != nil {
				return errors.Wrap(err, "fork: fault in parent anon page")
			}
		}
		dstFrame, srcFrame := np.GetFrame(), src.GetFrame()
		copy(dstFrame.KVA[:defs.PageSize], srcFrame.KVA[:defs.PageSize])
		return nil
	}
	return errors.Errorf("fork: unknown page kind %T", src.GetKind())
}
