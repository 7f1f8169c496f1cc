package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	sum, err := Checksum(path)
	require.NoError(t, err)
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	_, err = Checksum(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDirAndFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "deep.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "other.json"), nil, 0o644))

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "top.hcl"),
		filepath.Join(root, "a", "b", "deep.hcl"),
	}, files)

	assert.Panics(t, func() { FindFilesByExtension(root, "") })
}
