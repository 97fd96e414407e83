// Package pml4 is a software simulation of the hardware page-table
// primitives the core consumes (spec.md §6: pml4_set_page,
// pml4_clear_page, pml4_get_page, pml4_is_dirty, pml4_is_accessed,
// ...). Real MMU access is out of scope (spec.md §1); this models the
// same contract with a plain map so the rest of the subsystem can be
// exercised and tested without hardware.
package pml4

import (
	"sync"

	"duskos/defs"
)

// Table is one process's hardware address space.
type Table struct {
	mu      sync.Mutex
	entries map[uintptr]*entry
}

type entry struct {
	kva      []byte
	writable bool
	dirty    bool
	accessed bool
}

// Create builds an empty address space, mirroring pml4_create.
func Create() *Table {
	return &Table{entries: make(map[uintptr]*entry)}
}

// Destroy releases all mappings, mirroring pml4_destroy. The Table
// must not be used afterward.
func (t *Table) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// SetPage installs a mapping from the page-aligned va to kva with the
// given writability, overwriting any existing mapping at va.
func (t *Table) SetPage(va uintptr, kva []byte, writable bool) {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[va] = &entry{kva: kva, writable: writable}
}

// ClearPage removes the mapping at va, if any.
func (t *Table) ClearPage(va uintptr) {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, va)
}

// GetPage reports the kva mapped at va and whether one exists.
func (t *Table) GetPage(va uintptr) ([]byte, bool) {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[va]
	if !ok {
		return nil, false
	}
	return e.kva, true
}

// IsDirty reports whether the page at va has been written since the
// dirty bit was last cleared.
func (t *Table) IsDirty(va uintptr) bool {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[va]
	return ok && e.dirty
}

// SetDirty sets or clears the dirty bit at va.
func (t *Table) SetDirty(va uintptr, dirty bool) {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[va]; ok {
		e.dirty = dirty
	}
}

// IsAccessed reports the accessed bit at va, consulted by the clock
// eviction walk.
func (t *Table) IsAccessed(va uintptr) bool {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[va]
	return ok && e.accessed
}

// SetAccessed sets or clears the accessed bit at va.
func (t *Table) SetAccessed(va uintptr, accessed bool) {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[va]; ok {
		e.accessed = accessed
	}
}

// Touch marks va as accessed and, if write is true, dirty — called
// whenever simulated user code reads or writes through a mapping.
func (t *Table) Touch(va uintptr, write bool) {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[va]
	if !ok {
		return
	}
	e.accessed = true
	if write {
		e.dirty = true
	}
}

// IsWritable reports the permission a mapping was installed with.
func (t *Table) IsWritable(va uintptr) bool {
	va = defs.PageRoundDown(va)
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[va]
	return ok && e.writable
}
