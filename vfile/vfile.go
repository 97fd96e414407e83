// Package vfile models the file abstraction consumed by the
// file-backed page handler and mmap: open, close, reopen, read_at,
// write_at and length. It has no deny_write operation.
// It is adapted from the teacher's fd.Fd_t (an fdops.Fdops_i wrapper
// with a Reopen method), specialized to the random-access read/write
// surface mmap needs rather than the full descriptor table.
package vfile

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// File is an open, reopenable, randomly addressable backing store
// for a file-mapped region.
type File interface {
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(p []byte, off int64) (int, error)
	// WriteAt writes len(p) bytes starting at off.
	WriteAt(p []byte, off int64) (int, error)
	// Length reports the current file size in bytes.
	Length() (int64, error)
	// Reopen returns an independent handle to the same underlying
	// file, so that mmap's copy survives the caller closing theirs.
	Reopen() (File, error)
	// Close releases this handle.
	Close() error
}

// OSFile is a File backed by a real os.File, via ReadAt/WriteAt —
// the teacher's own preference (throughout fs/fd) for delegating to
// real OS primitives rather than hand-rolling buffered I/O.
type OSFile struct {
	path string
	f    *os.File
}

// Open opens path for reading and writing.
func Open(path string) (*OSFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	return &OSFile{path: path, f: f}, nil
}

func (o *OSFile) ReadAt(p []byte, off int64) (int, error)  { return o.f.ReadAt(p, off) }
func (o *OSFile) WriteAt(p []byte, off int64) (int, error) { return o.f.WriteAt(p, off) }

func (o *OSFile) Length() (int64, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "stat file")
	}
	return fi.Size(), nil
}

func (o *OSFile) Reopen() (File, error) { return Open(o.path) }
func (o *OSFile) Close() error          { return o.f.Close() }

// MemFile is an in-memory File for hermetic tests. Reopen shares the
// backing buffer (like file_reopen sharing the same inode), guarded
// by a mutex so concurrent mmap groups can read/write safely.
type MemFile struct {
	mu  *sync.RWMutex
	buf *[]byte
}

// NewMemFile builds a MemFile seeded with the given contents.
func NewMemFile(contents []byte) *MemFile {
	buf := append([]byte(nil), contents...)
	return &MemFile{mu: &sync.RWMutex{}, buf: &buf}
}

func (m *MemFile) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buf := *m.buf
	if off >= int64(len(buf)) {
		return 0, nil
	}
	n := copy(p, buf[off:])
	return n, nil
}

func (m *MemFile) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(*m.buf)) {
		grown := make([]byte, end)
		copy(grown, *m.buf)
		*m.buf = grown
	}
	n := copy((*m.buf)[off:end], p)
	return n, nil
}

func (m *MemFile) Length() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(*m.buf)), nil
}

func (m *MemFile) Reopen() (File, error) {
	return &MemFile{mu: m.mu, buf: m.buf}, nil
}

func (m *MemFile) Close() error { return nil }

// Snapshot returns a copy of the current file contents, for tests
// asserting on write-back (spec property P5).
func (m *MemFile) Snapshot() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), (*m.buf)...)
}
