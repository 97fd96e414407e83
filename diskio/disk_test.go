package diskio_test

import (
	"path/filepath"
	"testing"

	"duskos/defs"
	"duskos/diskio"

	"github.com/stretchr/testify/require"
)

func TestMemDiskReadWriteRoundTrip(t *testing.T) {
	d := diskio.NewMemDisk(4)
	src := make([]byte, defs.SectorSize)
	src[0] = 0x42

	require.NoError(t, d.WriteSector(1, src))
	dst := make([]byte, defs.SectorSize)
	require.NoError(t, d.ReadSector(1, dst))
	require.Equal(t, byte(0x42), dst[0])
}

func TestMemDiskOutOfRangeFails(t *testing.T) {
	d := diskio.NewMemDisk(2)
	err := d.ReadSector(5, make([]byte, defs.SectorSize))
	require.ErrorIs(t, err, defs.ErrDiskIO)
}

func TestBoltDiskPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.db")

	d1, err := diskio.OpenBoltDisk(path, 4)
	require.NoError(t, err)
	src := make([]byte, defs.SectorSize)
	src[0] = 0x99
	require.NoError(t, d1.WriteSector(2, src))
	require.NoError(t, d1.Close())

	d2, err := diskio.OpenBoltDisk(path, 4)
	require.NoError(t, err)
	defer d2.Close()

	dst := make([]byte, defs.SectorSize)
	require.NoError(t, d2.ReadSector(2, dst))
	require.Equal(t, byte(0x99), dst[0])
}

func TestBoltDiskUnwrittenSectorReadsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.db")
	d, err := diskio.OpenBoltDisk(path, 4)
	require.NoError(t, err)
	defer d.Close()

	dst := make([]byte, defs.SectorSize)
	dst[0] = 0xFF
	require.NoError(t, d.ReadSector(0, dst))
	require.Zero(t, dst[0])
}
