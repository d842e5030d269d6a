package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/dots/pkg/types"
)

// StatusKind classifies what currently occupies a path.
type StatusKind int

const (
	StatusNotFound StatusKind = iota
	StatusFile
	StatusDirectory
	StatusSymlink
	StatusOther // sockets, block devices etc.
	StatusError
)

// Status describes a destination path as seen through lstat: the kind
// of entry, and for symlinks where it points and whether that target
// still exists.
type Status struct {
	Kind     StatusKind
	PointsTo string
	Dangling bool
	Err      error
}

func (s Status) String() string {
	switch s.Kind {
	case StatusFile:
		return "file"
	case StatusDirectory:
		return "directory"
	case StatusSymlink:
		return "symlink"
	case StatusOther:
		return "other"
	case StatusNotFound:
		return "not found"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// GetStatus classifies the entry at path without following links.
// A missing path is StatusNotFound, never an error; only genuine stat
// failures (permissions and the like) produce StatusError.
func GetStatus(fsys types.FS, path string) Status {
	info, err := fsys.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Status{Kind: StatusNotFound}
		}
		return Status{Kind: StatusError, Err: err}
	}

	mode := info.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		pointsTo, err := fsys.Readlink(path)
		if err != nil {
			// couldn't read link target (permissions? or truly dangling)
			return Status{Kind: StatusSymlink, Dangling: true}
		}
		resolved := pointsTo
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(path), resolved)
		}
		dangling := false
		if _, err := fsys.Stat(resolved); err != nil {
			dangling = true
		}
		return Status{Kind: StatusSymlink, PointsTo: pointsTo, Dangling: dangling}
	case mode.IsDir():
		return Status{Kind: StatusDirectory}
	case mode.IsRegular():
		return Status{Kind: StatusFile}
	default:
		return Status{Kind: StatusOther}
	}
}
