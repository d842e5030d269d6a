package filesystem_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dots/pkg/filesystem"
	"github.com/arthur-debert/dots/pkg/testutil"
)

func TestGetStatus_NotFound(t *testing.T) {
	fs := testutil.NewMemoryFS()

	status := filesystem.GetStatus(fs, "/home/user/.vimrc")
	assert.Equal(t, filesystem.StatusNotFound, status.Kind)
	assert.NoError(t, status.Err)
}

func TestGetStatus_File(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.WriteFile("/home/user/.vimrc", []byte("set nocompatible"), 0o644))

	status := filesystem.GetStatus(fs, "/home/user/.vimrc")
	assert.Equal(t, filesystem.StatusFile, status.Kind)
}

func TestGetStatus_Directory(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/home/user/.vim", 0o755))

	status := filesystem.GetStatus(fs, "/home/user/.vim")
	assert.Equal(t, filesystem.StatusDirectory, status.Kind)
}

func TestGetStatus_Symlink(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.WriteFile("/dotfiles/vimrc", []byte("x"), 0o644))
	require.NoError(t, fs.MkdirAll("/home/user", 0o755))
	require.NoError(t, fs.Symlink("/dotfiles/vimrc", "/home/user/.vimrc"))

	status := filesystem.GetStatus(fs, "/home/user/.vimrc")
	assert.Equal(t, filesystem.StatusSymlink, status.Kind)
	assert.Equal(t, "/dotfiles/vimrc", status.PointsTo)
	assert.False(t, status.Dangling)
}

func TestGetStatus_DanglingSymlink(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/home/user", 0o755))
	require.NoError(t, fs.Symlink("/dotfiles/gone", "/home/user/.vimrc"))

	status := filesystem.GetStatus(fs, "/home/user/.vimrc")
	assert.Equal(t, filesystem.StatusSymlink, status.Kind)
	assert.True(t, status.Dangling)
}

func TestGetStatus_RelativeSymlinkResolvedAgainstParent(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.WriteFile("/home/user/real", []byte("x"), 0o644))
	require.NoError(t, fs.Symlink("real", "/home/user/.link"))

	status := filesystem.GetStatus(fs, "/home/user/.link")
	assert.Equal(t, filesystem.StatusSymlink, status.Kind)
	assert.Equal(t, "real", status.PointsTo)
	assert.False(t, status.Dangling)
}

func TestGetStatus_Other(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/tmp", 0o755))
	require.NoError(t, fs.WriteSpecial("/tmp/sock", 0o644|os.ModeSocket))

	status := filesystem.GetStatus(fs, "/tmp/sock")
	assert.Equal(t, filesystem.StatusOther, status.Kind)
}

func TestGetStatus_Error(t *testing.T) {
	fs := testutil.NewMemoryFS()
	fs.WithError("/home/user/.vimrc", fmt.Errorf("permission denied"))

	status := filesystem.GetStatus(fs, "/home/user/.vimrc")
	assert.Equal(t, filesystem.StatusError, status.Kind)
	assert.Error(t, status.Err)
}
