package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReplacesFileAndCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "current.json")
	opts := Options{DirMode: 0o755, FileMode: 0o600, TempPattern: ".current-*.tmp", Label: "state", Sync: true}

	require.NoError(t, Write(path, []byte("one"), opts))
	require.NoError(t, Write(path, []byte("two"), opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFailureKeepsPreviousContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory at the target path makes the final rename fail.
	path := filepath.Join(dir, "settings.toml")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	err := Write(path, []byte("x"), Options{DirMode: 0o755, FileMode: 0o644, TempPattern: ".settings-*.tmp", Label: "settings"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replace settings file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.toml", entries[0].Name())
}

func TestLockForPathIsSharedPerPath(t *testing.T) {
	t.Parallel()

	a := LockForPath("/vault/a/state/current.json")
	assert.Same(t, a, LockForPath("/vault/a/state/current.json"))
	assert.NotSame(t, a, LockForPath("/vault/b/state/current.json"))
}
