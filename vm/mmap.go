package vm

import (
	"duskos/defs"
	"duskos/page"
	"duskos/util"
	"duskos/vfile"

	"github.com/pkg/errors"
)

// Mmap establishes a file-backed region (spec component C10, spec.md
// §4.10). file is reopened so an external close does not affect the
// mapping. Returns the starting address, or an error if addr/offset
// are misaligned or any page in the region could not be registered
// (spec.md §4.10: "roll-back ... is not required ... but is
// recommended" — this implementation rolls back the pages it already
// inserted so a failed mmap leaves no partial mapping behind).
func (s *Space) Mmap(addr uintptr, length int, writable bool, file vfile.File, offset int64) (uintptr, error) {
	s.Stats.MmapCalls.Inc()
	if addr%defs.PageSize != 0 {
		return 0, errors.New("mmap: addr not page-aligned")
	}
	if offset%defs.PageSize != 0 {
		return 0, errors.New("mmap: offset not page-aligned")
	}
	if length <= 0 {
		return 0, errors.New("mmap: non-positive length")
	}

	reopened, err := file.Reopen()
	if err != nil {
		return 0, errors.Wrap(err, "mmap: reopen")
	}
	fileLen, err := reopened.Length()
	if err != nil {
		return 0, errors.Wrap(err, "mmap: length")
	}

	// spec.md §4.10: read_bytes = min(length, file_length(file)).
	remaining := util.Min(length, int(fileLen))
	pageCount := defs.PageRoundUp(length) / defs.PageSize

	var installed []uintptr
	for i := 0; i < pageCount; i++ {
		va := addr + uintptr(i*defs.PageSize)
		readBytes := util.Min(remaining, defs.PageSize)
		zeroBytes := defs.PageSize - readBytes
		remaining -= readBytes

		fk := &page.FileKind{
			File:      reopened,
			Offset:    offset + int64(i*defs.PageSize),
			ReadBytes: readBytes,
			ZeroBytes: zeroBytes,
		}
		if i == 0 {
			fk.MappedPageCount = pageCount
		}
		if !s.AllocPageWithInitializer(KindFile, va, writable, nil, fk) {
			s.rollbackMmap(installed)
			return 0, errors.New("mmap: overlapping or duplicate mapping")
		}
		installed = append(installed, va)
	}
	return addr, nil
}

func (s *Space) rollbackMmap(vas []uintptr) {
	for _, va := range vas {
		if p, ok := s.SPT.Find(va); ok {
			_ = s.SPT.Remove(p, s.Deps)
		}
	}
}

// Munmap dissolves a file-backed region starting at addr (spec
// component C10, spec.md §4.10). It stops at the first address with
// no registered page — per spec this is the documented contract for
// partial regions, not an error.
func (s *Space) Munmap(addr uintptr) {
	s.Stats.MunmapCalls.Inc()
	p, ok := s.SPT.Find(addr)
	if !ok {
		return
	}
	fk, ok := p.GetKind().(*page.FileKind)
	n := 1
	if ok {
		n = fk.MappedPageCount
		if n <= 0 {
			n = 1
		}
	}
	va := addr
	for i := 0; i < n; i++ {
		cur, ok := s.SPT.Find(va)
		if !ok {
			return
		}
		if err := s.SPT.Remove(cur, s.Deps); err != nil {
			return
		}
		va += defs.PageSize
	}
}
