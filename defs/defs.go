// Package defs holds the constants and error taxonomy shared by every
// package in the virtual memory subsystem. It plays the role the
// teacher's defs package plays for the rest of the kernel: a small
// home for cross-cutting definitions, depending only on util and
// github.com/pkg/errors.
package defs

import (
	"github.com/pkg/errors"

	"duskos/util"
)

const (
	// PageShift is the base-2 exponent of the page size.
	PageShift = 12
	// PageSize is the size of a single page in bytes.
	PageSize = 1 << PageShift
	// PageMask masks the in-page offset bits of an address.
	PageMask = PageSize - 1

	// SectorSize is the size of a single disk sector in bytes.
	SectorSize = 512
	// SectorsPerPage is the number of disk sectors a single page occupies.
	SectorsPerPage = PageSize / SectorSize

	// UserStack is the highest user-space stack address.
	UserStack = 0x47480000
	// StackLimit is the lowest address the stack may grow down to
	// (1 MiB below UserStack).
	StackLimit = UserStack - (1 << 20)

	// KernBase is a placeholder split between user and kernel address
	// space; real placement is platform-defined and owned by the
	// (out of scope) hardware layer. It is only used to classify
	// addresses as user vs. kernel in the fault dispatcher.
	KernBase = 0x8000000000000000
)

// PageRoundDown aligns a virtual address down to the start of its page.
func PageRoundDown(va uintptr) uintptr {
	return util.Rounddown(va, uintptr(PageSize))
}

// PageRoundUp aligns n up to a multiple of the page size.
func PageRoundUp(n int) int {
	return util.Roundup(n, PageSize)
}

// PageOffset returns the in-page offset of va.
func PageOffset(va uintptr) int {
	return int(va - PageRoundDown(va))
}

// Sentinel errors forming the taxonomy in SPEC_FULL §7. Call sites wrap
// these with errors.Wrap to attach context; callers test identity with
// errors.Is.
var (
	// ErrBadAddress: NULL or kernel VA faulted from user mode.
	ErrBadAddress = errors.New("bad address")
	// ErrPermissionFault: write to read-only page, or fault on a present page.
	ErrPermissionFault = errors.New("permission fault")
	// ErrDuplicateMapping: spt_insert collision or overlapping mmap.
	ErrDuplicateMapping = errors.New("duplicate mapping")
	// ErrInvalidMunmap: munmap on an address with no mapped page.
	ErrInvalidMunmap = errors.New("invalid munmap")
	// ErrDiskIO: a file-backed operation's underlying I/O failed.
	ErrDiskIO = errors.New("disk i/o error")
	// ErrNotFound: spt_find_page / page lookup miss, not itself fatal.
	ErrNotFound = errors.New("page not found")
)
