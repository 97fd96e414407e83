// Package spt implements the supplemental page table (spec component
// C4): a per-process mapping from page-aligned virtual address to
// page object, plus teardown (C13); copy-on-fork is vm.CopySPT. The
// backing store is adapted from the teacher's hashtable.Hashtable_t
// (fixed bucket count, per-bucket lock, singly-linked chains; new
// entries go at the head of their chain, which is not sorted)
// specialized to a uintptr key and a *page.Page value,
// dropping the ustr-specific branch the teacher's generic version
// carried for filesystem directory entries.
package spt

import (
	"sync"

	"duskos/defs"
	"duskos/page"

	"github.com/pkg/errors"
)

func roundDown(va uintptr) uintptr { return defs.PageRoundDown(va) }

const defaultBuckets = 64

type elem struct {
	va    uintptr
	value *page.Page
	next  *elem
}

type bucket struct {
	mu    sync.RWMutex
	first *elem
}

// Table is one process's supplemental page table.
type Table struct {
	buckets []*bucket
}

// Init builds an empty Table (spec.md §4.4: spt_init).
func Init() *Table {
	t := &Table{buckets: make([]*bucket, defaultBuckets)}
	for i := range t.buckets {
		t.buckets[i] = &bucket{}
	}
	return t
}

func (t *Table) bucketFor(va uintptr) *bucket {
	return t.buckets[uint64(va>>defs.PageShift)%uint64(len(t.buckets))]
}

// Find rounds va down to its page boundary and looks up the page
// there, if any (spec.md §4.4: spt_find).
func (t *Table) Find(va uintptr) (*page.Page, bool) {
	va = roundDown(va)
	b := t.bucketFor(va)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for e := b.first; e != nil; e = e.next {
		if e.va == va {
			return e.value, true
		}
	}
	return nil, false
}

// Insert adds p, keyed by p.VA (already page-aligned by convention).
// It fails if the address is already present (spec.md §4.4, and the
// mechanism mmap relies on to reject overlapping regions).
func (t *Table) Insert(p *page.Page) bool {
	va := roundDown(p.VA)
	b := t.bucketFor(va)
	b.mu.Lock()
	defer b.mu.Unlock()
	for e := b.first; e != nil; e = e.next {
		if e.va == va {
			return false
		}
	}
	b.first = &elem{va: va, value: p, next: b.first}
	return true
}

// Remove detaches the entry at p.VA, invokes the page's Destroy, and
// drops the table's reference (spec.md §4.4: spt_remove).
func (t *Table) Remove(p *page.Page, deps *page.Deps) error {
	va := roundDown(p.VA)
	b := t.bucketFor(va)
	b.mu.Lock()
	var prev *elem
	var found *elem
	for e := b.first; e != nil; e = e.next {
		if e.va == va {
			found = e
			break
		}
		prev = e
	}
	if found == nil {
		b.mu.Unlock()
		return errors.New("spt remove: no page at address")
	}
	if prev == nil {
		b.first = found.next
	} else {
		prev.next = found.next
	}
	b.mu.Unlock()

	return found.value.Destroy(deps)
}

// Kill tears down every entry in the table (spec.md §4.13: spt_kill),
// calling each page's Destroy. It is idempotent: once emptied, a
// second call is a no-op.
func (t *Table) Kill(deps *page.Deps) error {
	var firstErr error
	for _, b := range t.buckets {
		b.mu.Lock()
		chain := b.first
		b.first = nil
		b.mu.Unlock()

		for e := chain; e != nil; e = e.next {
			if err := e.value.Destroy(deps); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Len reports the number of entries currently stored, for tests.
func (t *Table) Len() int {
	n := 0
	for _, b := range t.buckets {
		b.mu.RLock()
		for e := b.first; e != nil; e = e.next {
			n++
		}
		b.mu.RUnlock()
	}
	return n
}

// Each visits every (va, page) pair in the table. Iteration order is
// unspecified. Used by the fork copier (spec.md §4.12).
func (t *Table) Each(f func(va uintptr, p *page.Page)) {
	for _, b := range t.buckets {
		b.mu.RLock()
		entries := make([]*elem, 0)
		for e := b.first; e != nil; e = e.next {
			entries = append(entries, e)
		}
		b.mu.RUnlock()
		for _, e := range entries {
			f(e.va, e.value)
		}
	}
}
