// Package thread models the per-thread state the VM core consumes
// (spec.md §6: thread_current, thread.saved_user_rsp). It is adapted
// from the teacher's tinfo.Tnote_t, dropping the bare-metal
// goroutine-pointer TLS trick (runtime.Gptr/Setgptr, only available
// in the teacher's own forked runtime) in favor of passing the
// current thread explicitly wherever the spec's trap frame would
// carry it — the idiomatic Go rendition of "thread-local" context.
package thread

import "sync"

// Thread is the per-thread state the fault dispatcher needs: its
// identity and the user RSP published by the syscall entry stub
// before privilege is lowered.
type Thread struct {
	mu           sync.Mutex
	Tid          int
	savedUserRSP uintptr
}

// New creates a thread note with the given id.
func New(tid int) *Thread {
	return &Thread{Tid: tid}
}

// SetSavedUserRSP publishes the user RSP at syscall entry, before the
// thread lowers privilege. The fault dispatcher reads this back when
// a page fault occurs while already running in kernel mode.
func (t *Thread) SetSavedUserRSP(rsp uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.savedUserRSP = rsp
}

// SavedUserRSP returns the most recently published user RSP.
func (t *Thread) SavedUserRSP() uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.savedUserRSP
}
