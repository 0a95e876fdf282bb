package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.rot", "a.GPML", "notes.txt", "nested/c.rot"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	files, err := FindFilesByExtension(root, ".rot", ".gpml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.GPML"),
		filepath.Join(root, "b.rot"),
		filepath.Join(root, "nested", "c.rot"),
	}, files)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".rot")
	assert.Error(t, err)
}

func TestFindFilesByExtension_RequiresExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(".") })
}
