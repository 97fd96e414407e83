package vfile_test

import (
	"testing"

	"duskos/vfile"

	"github.com/stretchr/testify/require"
)

func TestMemFileReadAtPastEndReturnsZero(t *testing.T) {
	f := vfile.NewMemFile([]byte{1, 2, 3})
	p := make([]byte, 4)
	n, err := f.ReadAt(p, 10)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestMemFileWriteAtGrowsBuffer(t *testing.T) {
	f := vfile.NewMemFile(nil)
	n, err := f.WriteAt([]byte{0xAA, 0xBB}, 2)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	length, err := f.Length()
	require.NoError(t, err)
	require.Equal(t, int64(4), length)
	require.Equal(t, []byte{0, 0, 0xAA, 0xBB}, f.Snapshot())
}

func TestMemFileReopenSharesState(t *testing.T) {
	f := vfile.NewMemFile([]byte{1, 2, 3})
	reopened, err := f.Reopen()
	require.NoError(t, err)

	_, err = reopened.WriteAt([]byte{0xFF}, 0)
	require.NoError(t, err)

	require.Equal(t, byte(0xFF), f.Snapshot()[0], "reopen must share the backing buffer, like file_reopen sharing an inode")
}

func TestMemFileCloseIsNoop(t *testing.T) {
	f := vfile.NewMemFile([]byte{1})
	require.NoError(t, f.Close())
	length, err := f.Length()
	require.NoError(t, err)
	require.Equal(t, int64(1), length)
}
