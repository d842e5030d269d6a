// Package trackfile persists the ledger of symlinks dots manages: a
// destination to source mapping loaded once per run and written back
// at most once, only when modified.
package trackfile

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/logging"
	"github.com/arthur-debert/dots/pkg/types"
)

// Trackfile maps destination paths to the sources dots linked them to.
// It is the authority for "is this destination something we manage".
type Trackfile struct {
	content map[string]string
	dirty   bool
}

// New returns an empty, clean trackfile.
func New() *Trackfile {
	return &Trackfile{content: make(map[string]string)}
}

// Load reads the trackfile at path. A missing or empty file yields an
// empty trackfile; the parent cache directory is created so a later
// Save cannot fail on it.
func Load(fsys types.FS, path string) (*Trackfile, error) {
	parent := filepath.Dir(path)
	if parent == "." || parent == "" {
		return nil, errors.Newf(errors.ErrTrackfileRead, "invalid trackfile path with no parent directory: %s", path)
	}
	if err := fsys.MkdirAll(parent, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTrackfileRead, "failed to create cache directory %s", parent)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.Wrapf(err, errors.ErrTrackfileRead, "failed to read trackfile %s", path)
	}

	tf := New()
	if len(data) == 0 {
		return tf, nil
	}
	if err := toml.Unmarshal(data, &tf.content); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTrackfileParse, "failed to parse trackfile %s", path)
	}

	logger := logging.GetLogger("trackfile")
	logger.Debug().Str("path", path).Int("entries", len(tf.content)).Msg("Trackfile loaded")
	return tf, nil
}

// Save writes the trackfile back if it is dirty, clearing the dirty
// flag on success. Callers skip Save entirely in dry-run mode.
func (t *Trackfile) Save(fsys types.FS, path string) error {
	if !t.dirty {
		return nil
	}

	data, err := toml.Marshal(t.content)
	if err != nil {
		return errors.Wrap(err, errors.ErrTrackfileWrite, "failed to serialize trackfile content")
	}

	parent := filepath.Dir(path)
	if parent == "." || parent == "" {
		return errors.Newf(errors.ErrTrackfileWrite, "invalid trackfile path with no parent directory: %s", path)
	}
	if err := fsys.MkdirAll(parent, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrTrackfileWrite, "failed to create cache directory %s", parent)
	}

	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrTrackfileWrite, "failed to write trackfile %s", path)
	}

	t.dirty = false
	return nil
}

// Insert records that dest is now linked to source.
func (t *Trackfile) Insert(dest, source string) {
	t.content[dest] = source
	t.dirty = true
}

// Remove drops dest from the ledger, returning the tracked source if
// there was one.
func (t *Trackfile) Remove(dest string) (string, bool) {
	source, ok := t.content[dest]
	if ok {
		delete(t.content, dest)
		t.dirty = true
	}
	return source, ok
}

// Source returns the tracked source for dest.
func (t *Trackfile) Source(dest string) (string, bool) {
	source, ok := t.content[dest]
	return source, ok
}

// ContainsDest reports whether dest is tracked.
func (t *Trackfile) ContainsDest(dest string) bool {
	_, ok := t.content[dest]
	return ok
}

// Destinations returns the tracked destinations in sorted order.
func (t *Trackfile) Destinations() []string {
	dests := make([]string, 0, len(t.content))
	for dest := range t.content {
		dests = append(dests, dest)
	}
	sort.Strings(dests)
	return dests
}

// Len reports the number of tracked destinations.
func (t *Trackfile) Len() int {
	return len(t.content)
}

// IsEmpty reports whether nothing is tracked.
func (t *Trackfile) IsEmpty() bool {
	return len(t.content) == 0
}

// IsDirty reports whether the trackfile has unsaved mutations.
func (t *Trackfile) IsDirty() bool {
	return t.dirty
}
