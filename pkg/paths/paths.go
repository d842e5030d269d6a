// Package paths provides centralized path handling for dots.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/arthur-debert/dots/pkg/errors"
)

// Environment variable names
const (
	// EnvDotfilesRoot is the primary environment variable for the
	// dotfiles source tree location.
	EnvDotfilesRoot = "DOTS_ROOT"

	// EnvCacheDir overrides the XDG cache directory for dots
	EnvCacheDir = "DOTS_CACHE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed file names under the dots cache and config directories.
const (
	// DotsDirName is the directory name for dots-specific files
	DotsDirName = "dots"

	// TrackfileName is the name of the persisted link ledger
	TrackfileName = "trackfile.toml"
)

// ConfigCandidates are the global config locations probed in order,
// relative to the home directory. First hit wins.
var ConfigCandidates = []string{
	".config/dots/config.toml",
	".dots",
}

// DirConfigCandidates are the per-directory config names probed in
// order inside a dotfiles tree.
var DirConfigCandidates = []string{
	"dots.toml",
	".dots",
}

// CacheDir returns the dots cache directory, honoring EnvCacheDir.
func CacheDir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.CacheHome, DotsDirName)
}

// TrackfilePath returns the location of the persisted trackfile.
func TrackfilePath() string {
	return filepath.Join(CacheDir(), TrackfileName)
}

// GetHomeDirectory returns the user's home directory.
// It first tries os.UserHomeDir(), then falls back to the HOME
// environment variable. If both fail, it returns an error rather than
// using dangerous defaults.
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		return homeDir, nil
	}

	homeDir = os.Getenv(EnvHome)
	if homeDir != "" {
		return homeDir, nil
	}

	return "", errors.New(errors.ErrInternal, "unable to determine home directory: neither os.UserHomeDir() nor HOME are available")
}

// ExpandHome expands the ~ character to the user's home directory.
// Returns an error if home directory cannot be determined.
func ExpandHome(path string) (string, error) {
	if path == "~" {
		return GetHomeDirectory()
	}

	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		homeDir, err := GetHomeDirectory()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "cannot expand ~")
		}
		return homeDir + path[1:], nil
	}

	return path, nil
}

// DotfilesRoot resolves the dotfiles source tree: an explicit argument
// wins, then the DOTS_ROOT environment variable. The returned path is
// absolute.
func DotfilesRoot(arg string) (string, error) {
	root := arg
	if root == "" {
		root = os.Getenv(EnvDotfilesRoot)
	}
	if root == "" {
		return "", errors.New(errors.ErrInvalidInput, "no dotfiles directory given and DOTS_ROOT is not set")
	}

	root, err := ExpandHome(root)
	if err != nil {
		return "", err
	}
	return filepath.Abs(root)
}
