package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathHandler_PostsDir(t *testing.T) {
	ph := NewPermissivePathHandler()
	dir := t.TempDir()

	got, err := ph.PostsDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = ph.PostsDir(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestPathHandler_DBPath_CreatesParent(t *testing.T) {
	ph := NewPermissivePathHandler()
	path := filepath.Join(t.TempDir(), "data", "posts.db")

	got, err := ph.DBPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPathHandler_IndexPath(t *testing.T) {
	ph := NewPermissivePathHandler()
	path := filepath.Join(t.TempDir(), "search", "index.bleve")

	got, err := ph.IndexPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "the index dir itself is left to bleve")
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestPathHandler_Secure(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ph := NewSecurePathHandler()

	_, err := ph.DBPath(filepath.Join(home, ".folio", "posts.db"))
	assert.NoError(t, err)

	_, err = ph.ExpandAndValidatePath("/etc/folio.db")
	assert.Error(t, err)
}
