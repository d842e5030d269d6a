//go:build !windows

package filesystem_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dots/pkg/filesystem"
)

// The afero OsFs adapter runs against a real temp directory so the
// symlink paths go through afero.Linker.
func TestAferoFS_OsBacked(t *testing.T) {
	dir := t.TempDir()
	fsys := filesystem.NewAferoFS(afero.NewOsFs())

	source := filepath.Join(dir, "source")
	link := filepath.Join(dir, "link")
	require.NoError(t, fsys.WriteFile(source, []byte("content"), 0o644))
	require.NoError(t, fsys.Symlink(source, link))

	dest, err := fsys.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, source, dest)

	status := filesystem.GetStatus(fsys, link)
	assert.Equal(t, filesystem.StatusSymlink, status.Kind)
	assert.Equal(t, source, status.PointsTo)
	assert.False(t, status.Dangling)

	require.NoError(t, fsys.Remove(source))
	status = filesystem.GetStatus(fsys, link)
	assert.Equal(t, filesystem.StatusSymlink, status.Kind)
	assert.True(t, status.Dangling)
}

func TestAferoFS_ReadDir(t *testing.T) {
	dir := t.TempDir()
	fsys := filesystem.NewAferoFS(afero.NewOsFs())

	require.NoError(t, fsys.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "file"), nil, 0o644))

	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAferoFS_ReadFileOnDirectory(t *testing.T) {
	dir := t.TempDir()
	fsys := filesystem.NewAferoFS(afero.NewOsFs())

	_, err := fsys.ReadFile(dir)
	assert.Error(t, err)
}
