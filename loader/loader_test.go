package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocpu/i8080/memory"
)

func TestLoadBytes(t *testing.T) {
	mem := memory.NewFlat()
	next, err := LoadBytes(mem, 0x0100, []byte{0xC3, 0x00, 0x01})
	require.NoError(t, err)
	require.Equal(t, uint16(0x0103), next)
	require.Equal(t, uint8(0xC3), mem.Read(0x0100))
}

func TestLoadBytesTooLarge(t *testing.T) {
	mem := memory.NewFlat()
	_, err := LoadBytes(mem, 0xFFFF, []byte{0x00, 0x01})
	require.Error(t, err)
}

func TestLoadSequentialFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.bin")
	second := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(first, []byte{0xAA, 0xBB}, 0o644))
	require.NoError(t, os.WriteFile(second, []byte{0xCC}, 0o644))

	mem := memory.NewFlat()
	next, err := Load(mem, 0x0000, first, second)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0003), next)
	require.Equal(t, uint8(0xAA), mem.Read(0x0000))
	require.Equal(t, uint8(0xBB), mem.Read(0x0001))
	require.Equal(t, uint8(0xCC), mem.Read(0x0002))
}

func TestLoadMissingFile(t *testing.T) {
	mem := memory.NewFlat()
	_, err := Load(mem, 0x0000, filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
	var notFound ErrFileNotFound
	require.ErrorAs(t, err, &notFound)
}

// TestLoadDirectoryIsIOError checks that a path that exists but can't
// be read as a file (here, a directory) reports ErrIO rather than
// being folded into ErrFileNotFound — spec.md §7 lists them as
// distinct kinds.
func TestLoadDirectoryIsIOError(t *testing.T) {
	mem := memory.NewFlat()
	_, err := Load(mem, 0x0000, t.TempDir())
	require.Error(t, err)
	var ioErr ErrIO
	require.ErrorAs(t, err, &ioErr)
	var notFound ErrFileNotFound
	require.NotErrorAs(t, err, &notFound)
}
