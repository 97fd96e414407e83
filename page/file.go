package page

import (
	"duskos/defs"
	"duskos/mem"
	"duskos/vfile"

	"github.com/pkg/errors"
)

// FileKind is the file-backed variant (spec.md §3, §4.6). ReadBytes
// of the page come from File at Offset; the remainder up to PageSize
// is zero-filled. MappedPageCount is set only on the first page of an
// mmap region, giving munmap the region's extent.
type FileKind struct {
	File            vfile.File
	Offset          int64
	ReadBytes       int
	ZeroBytes       int
	MappedPageCount int
}

func (f *FileKind) Tag() string { return "file" }

// SwapIn seeks to Offset, reads ReadBytes into kva, and zero-fills the
// remainder (spec.md §4.6).
func (f *FileKind) SwapIn(p *Page, deps *Deps, kva []byte) error {
	deps.FSLock.Lock()
	defer deps.FSLock.Unlock()

	if f.ReadBytes > 0 {
		n, err := f.File.ReadAt(kva[:f.ReadBytes], f.Offset)
		if err != nil {
			return errors.Wrap(err, "file swap_in")
		}
		for i := n; i < f.ReadBytes; i++ {
			kva[i] = 0
		}
	}
	for i := f.ReadBytes; i < defs.PageSize; i++ {
		kva[i] = 0
	}
	return nil
}

// SwapOut writes ReadBytes back to the file if the hardware dirty bit
// is set, clears it, and unlinks the frame and hardware mapping
// (spec.md §4.6).
func (f *FileKind) SwapOut(p *Page, deps *Deps) error {
	frame := p.GetFrame()
	if frame == nil {
		return errors.New("file swap_out: page not resident")
	}
	if deps.PML4.IsDirty(p.VA) {
		if err := f.writeBack(deps, frame.KVA); err != nil {
			return err
		}
		deps.PML4.SetDirty(p.VA, false)
	}
	p.Unlink()
	deps.PML4.ClearPage(p.VA)
	return nil
}

// Destroy performs the same dirty write-back as SwapOut, then clears
// the mapping. It does not free the file handle (owned by the mmap
// group); the resident frame, if any, is handed back for the common
// dispatcher to return to the allocator (spec.md §4.6: "frame freed
// separately").
func (f *FileKind) Destroy(p *Page, deps *Deps) (*mem.Frame, error) {
	frame := p.GetFrame()
	if frame != nil && deps.PML4.IsDirty(p.VA) {
		if err := f.writeBack(deps, frame.KVA); err != nil {
			return nil, err
		}
	}
	if frame == nil {
		return nil, nil
	}
	p.Unlink()
	deps.PML4.ClearPage(p.VA)
	return frame, nil
}

func (f *FileKind) writeBack(deps *Deps, kva []byte) error {
	deps.FSLock.Lock()
	defer deps.FSLock.Unlock()
	if _, err := f.File.WriteAt(kva[:f.ReadBytes], f.Offset); err != nil {
		return errors.Wrap(err, "file write_back")
	}
	return nil
}
