package vm

import "duskos/page"

// Kind names the two materializable page kinds an UNINIT page may
// plan to become (spec.md §3).
type Kind string

const (
	KindAnon Kind = "anon"
	KindFile Kind = "file"
)

// AllocPageWithInitializer registers a new UNINIT page at va with the
// given planned kind, initializer, and lazy-load context (spec.md
// §4.7). It fails if va is already present in the space's SPT.
func (s *Space) AllocPageWithInitializer(kind Kind, va uintptr, writable bool, init page.InitFunc, aux interface{}) bool {
	if _, ok := s.SPT.Find(va); ok {
		return false
	}
	var newPlanned func(interface{}) (page.Kind, error)
	switch kind {
	case KindAnon:
		newPlanned = func(interface{}) (page.Kind, error) { return page.NewAnon(), nil }
	case KindFile:
		newPlanned = func(a interface{}) (page.Kind, error) {
			fk, _ := a.(*page.FileKind)
			return fk, nil
		}
	default:
		return false
	}
	u := &page.UninitKind{Init: init, Aux: aux, Planned: string(kind), NewPlanned: newPlanned}
	p := page.New(va, writable, u, s.Deps)
	return s.SPT.Insert(p)
}

// AllocPage is AllocPageWithInitializer without an initializer —
// convenience for zero-filled anonymous pages such as stack growth
// (spec.md §4.7).
func (s *Space) AllocPage(kind Kind, va uintptr, writable bool) bool {
	return s.AllocPageWithInitializer(kind, va, writable, nil, nil)
}
