package vm

import (
	"duskos/defs"
	"duskos/thread"

	"github.com/pkg/errors"
)

// TryHandleFault classifies a page fault and resolves it (spec
// component C8, spec.md §4.8). addr, user, write, and notPresent come
// from the faulting trap frame; rspAtFault is the RSP recorded at
// fault time (only meaningful when user is true — see effective RSP
// selection below).
func (s *Space) TryHandleFault(th *thread.Thread, addr uintptr, user, write, notPresent bool, rspAtFault uintptr) error {
	s.Stats.PageFaults.Inc()
	if addr == 0 || addr >= defs.KernBase {
		return errors.Wrap(defs.ErrBadAddress, "fault: null or kernel address")
	}
	if !notPresent {
		return errors.Wrap(defs.ErrPermissionFault, "fault: access to present page")
	}

	rsp := rspAtFault
	if !user {
		rsp = th.SavedUserRSP()
	}

	if _, exists := s.SPT.Find(addr); !exists && shouldGrowStack(rsp, addr) {
		if err := s.growStack(addr); err != nil {
			return errors.Wrap(err, "fault: stack growth")
		}
		s.Stats.StackGrowths.Inc()
	}

	p, ok := s.SPT.Find(addr)
	if !ok {
		return errors.Wrap(defs.ErrBadAddress, "fault: no page at address")
	}
	if write && !p.Writable {
		return errors.Wrap(defs.ErrPermissionFault, "fault: write to read-only page")
	}
	if err := s.Claim(p); err != nil {
		return errors.Wrap(err, "fault: claim")
	}
	return nil
}

// shouldGrowStack evaluates the stack-growth condition (spec
// component C9, spec.md §4.9): growth is permitted on a PUSH-style
// access one slot below rsp, or on any access at or above rsp, as
// long as the faulting address stays within the 1 MiB stack bound.
func shouldGrowStack(rsp, addr uintptr) bool {
	if addr > defs.UserStack {
		return false
	}
	if addr < defs.StackLimit {
		return false
	}
	pushAccess := rsp >= 8 && defs.StackLimit <= rsp-8 && rsp-8 == addr
	aboveRSP := defs.StackLimit <= rsp && rsp <= addr
	return pushAccess || aboveRSP
}

// growStack installs a zero-filled ANON stack page at the
// page-rounded faulting address, writable, marked STACK.
func (s *Space) growStack(addr uintptr) error {
	va := defs.PageRoundDown(addr)
	if !s.AllocPage(KindAnon, va, true) {
		return errors.New("grow stack: allocation failed")
	}
	p, ok := s.SPT.Find(va)
	if !ok {
		return errors.New("grow stack: page vanished after insert")
	}
	p.Stack = true
	return nil
}
