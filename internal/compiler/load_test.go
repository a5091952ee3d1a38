package compiler

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/testutil"
)

func TestLoadSchema_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.cue")
	require.NoError(t, os.WriteFile(path, []byte(testutil.LibraryCUE), 0644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
}

func TestLoadSchema_Directory(t *testing.T) {
	dir := t.TempDir()
	src := "package test\n" + testutil.LibraryCUE
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.cue"), []byte(src), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not cue"), 0644))

	s, err := LoadSchema(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	_, err = s.ViewByName("Cities")
	assert.NoError(t, err)
}

func TestLoadSchema_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.cue"))
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := LoadSchema(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CUE files")
	})

	t.Run("invalid cue", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.cue")
		require.NoError(t, os.WriteFile(path, []byte("views: [\n"), 0644))
		_, err := LoadSchema(path)
		require.Error(t, err)
	})
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.cue"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte(""), 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
