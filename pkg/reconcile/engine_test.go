// pkg/reconcile/engine_test.go
// TEST TYPE: Unit Tests
// DEPENDENCIES: testutil.MemoryFS
// PURPOSE: Link/unlink reconciliation against every destination state

package reconcile_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/prompt"
	"github.com/arthur-debert/dots/pkg/reconcile"
	"github.com/arthur-debert/dots/pkg/testutil"
	"github.com/arthur-debert/dots/pkg/trackfile"
	"github.com/arthur-debert/dots/pkg/types"
)

// scriptPrompter feeds canned answers and records how often it was
// consulted.
type scriptPrompter struct {
	answers []prompt.Choice
	asks    int
}

func (p *scriptPrompter) Ask(message string, opts prompt.OptionSet) (prompt.Choice, error) {
	p.asks++
	if len(p.answers) == 0 {
		return prompt.Choice{}, fmt.Errorf("unexpected prompt: %s", message)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

type fixture struct {
	fs       *testutil.MemoryFS
	track    *trackfile.Trackfile
	prompter *scriptPrompter
	out      bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/home/user", 0o755))
	require.NoError(t, fs.WriteFile("/dotfiles/vim/vimrc", []byte("source"), 0o644))
	return &fixture{fs: fs, track: trackfile.New(), prompter: &scriptPrompter{}}
}

func (f *fixture) engine(flags types.LinkFlags) *reconcile.Engine {
	return reconcile.New(f.fs, f.track, flags, f.prompter, &f.out)
}

var target = types.Target{
	Dest:   "/home/user/.vimrc",
	Source: "/dotfiles/vim/vimrc",
}

func TestPerformLink_NotFoundLinksWithoutPrompting(t *testing.T) {
	f := newFixture(t)
	stats := reconcile.NewStats(1)

	err := f.engine(types.LinkFlags{Interactive: true}).PerformLink(target, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SymlinksAdded)
	assert.Equal(t, 0, f.prompter.asks)

	dest, err := f.fs.Readlink(target.Dest)
	require.NoError(t, err)
	assert.Equal(t, target.Source, dest)
	assert.True(t, f.track.ContainsDest(target.Dest))
	assert.True(t, f.track.IsDirty())
}

func TestPerformLink_Idempotent(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(types.LinkFlags{})

	stats := reconcile.NewStats(1)
	require.NoError(t, engine.PerformLink(target, stats))

	again := reconcile.NewStats(1)
	require.NoError(t, engine.PerformLink(target, again))

	assert.Equal(t, 0, again.SymlinksAdded)
	assert.Equal(t, 1, again.TargetsSkipped)
}

func TestPerformLink_DanglingSymlinkAlwaysReplaced(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.Symlink("/dotfiles/gone", target.Dest))

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{}).PerformLink(target, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SymlinksRemoved)
	assert.Equal(t, 1, stats.SymlinksAdded)

	dest, err := f.fs.Readlink(target.Dest)
	require.NoError(t, err)
	assert.Equal(t, target.Source, dest)
}

func TestPerformLink_UntrackedFileSkippedWithoutFlags(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.WriteFile(target.Dest, []byte("precious"), 0o644))

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{}).PerformLink(target, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TargetsSkipped)
	assert.Equal(t, 0, stats.SymlinksAdded)

	content, err := f.fs.ReadFile(target.Dest)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(content))
}

func TestPerformLink_UntrackedFileNeedsForceDangerously(t *testing.T) {
	t.Run("force-file is not enough", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceFile: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.TargetsSkipped)
	})

	t.Run("force-dangerously removes it", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceDangerously: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.FilesRemoved)
		assert.Equal(t, 1, stats.SymlinksAdded)
	})
}

func TestPerformLink_TrackedFileGatedOnForceFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))
	f.track.Insert(target.Dest, target.Source)

	t.Run("symlink flag is too weak", func(t *testing.T) {
		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceSymlink: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.TargetsSkipped)
	})

	t.Run("file flag authorizes", func(t *testing.T) {
		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceFile: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.FilesRemoved)
		assert.Equal(t, 1, stats.SymlinksAdded)
	})
}

func TestPerformLink_TrackedDirectoryRemovedRecursively(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.MkdirAll(target.Dest+"/nested", 0o755))
	require.NoError(t, f.fs.WriteFile(target.Dest+"/nested/file", []byte("x"), 0o644))
	f.track.Insert(target.Dest, target.Source)

	stats := reconcile.NewStats(1)
	require.NoError(t, f.engine(types.LinkFlags{ForceFile: true}).PerformLink(target, stats))

	assert.Equal(t, 1, stats.FilesRemoved)
	assert.Equal(t, 1, stats.SymlinksAdded)
	assert.False(t, f.fs.Exists(target.Dest+"/nested/file"))
}

func TestPerformLink_WrongSymlink(t *testing.T) {
	t.Run("tracked with matching ledger needs -c", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile("/dotfiles/old/vimrc", []byte("old"), 0o644))
		require.NoError(t, f.fs.Symlink("/dotfiles/old/vimrc", target.Dest))
		f.track.Insert(target.Dest, "/dotfiles/old/vimrc")

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceCorrectSymlink: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.SymlinksRemoved)
		assert.Equal(t, 1, stats.SymlinksAdded)

		dest, err := f.fs.Readlink(target.Dest)
		require.NoError(t, err)
		assert.Equal(t, target.Source, dest)
	})

	t.Run("tracked with mismatched ledger needs -s", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile("/dotfiles/other/vimrc", []byte("o"), 0o644))
		require.NoError(t, f.fs.Symlink("/dotfiles/other/vimrc", target.Dest))
		f.track.Insert(target.Dest, "/dotfiles/tracked-elsewhere")

		weak := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceCorrectSymlink: true}).PerformLink(target, weak))
		assert.Equal(t, 1, weak.TargetsSkipped)

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceSymlink: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.SymlinksAdded)
	})

	t.Run("untracked symlink needs --force-dangerously", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile("/dotfiles/other/vimrc", []byte("o"), 0o644))
		require.NoError(t, f.fs.Symlink("/dotfiles/other/vimrc", target.Dest))

		weak := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceSymlink: true}).PerformLink(target, weak))
		assert.Equal(t, 1, weak.TargetsSkipped)

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{ForceDangerously: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.SymlinksAdded)
	})
}

func TestPerformLink_InteractiveConsent(t *testing.T) {
	t.Run("yes removes", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))
		f.prompter.answers = []prompt.Choice{{Kind: prompt.Yes}}

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{Interactive: true}).PerformLink(target, stats))
		assert.Equal(t, 1, f.prompter.asks)
		assert.Equal(t, 1, stats.SymlinksAdded)
	})

	t.Run("no skips", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))
		f.prompter.answers = []prompt.Choice{{Kind: prompt.No}}

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{Interactive: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.TargetsSkipped)
		assert.True(t, f.fs.Exists(target.Dest))
	})

	t.Run("no-all is remembered for the reason", func(t *testing.T) {
		f := newFixture(t)
		second := types.Target{Dest: "/home/user/.other", Source: "/dotfiles/vim/vimrc"}
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))
		require.NoError(t, f.fs.WriteFile(second.Dest, []byte("y"), 0o644))
		f.prompter.answers = []prompt.Choice{{Kind: prompt.No, All: true}}

		engine := f.engine(types.LinkFlags{Interactive: true})
		stats := reconcile.NewStats(2)
		require.NoError(t, engine.PerformLink(target, stats))
		require.NoError(t, engine.PerformLink(second, stats))

		assert.Equal(t, 1, f.prompter.asks)
		assert.Equal(t, 2, stats.TargetsSkipped)
	})

	t.Run("quit denies with UserQuit", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))
		f.prompter.answers = []prompt.Choice{{Kind: prompt.Quit}}

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{Interactive: true}).PerformLink(target, stats))
		assert.Equal(t, 1, stats.TargetsSkipped)
		assert.True(t, f.fs.Exists(target.Dest))
	})

	t.Run("info reprompts", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.fs.WriteFile(target.Dest, []byte("x"), 0o644))
		f.prompter.answers = []prompt.Choice{{Kind: prompt.Info}, {Kind: prompt.Yes}}

		stats := reconcile.NewStats(1)
		require.NoError(t, f.engine(types.LinkFlags{Interactive: true}).PerformLink(target, stats))
		assert.Equal(t, 2, f.prompter.asks)
		assert.Equal(t, 1, stats.SymlinksAdded)
		assert.Contains(t, f.out.String(), reconcile.ForceDangerously.Info())
	})
}

func TestPerformLink_StatusErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	f.fs.WithError(target.Dest, fmt.Errorf("permission denied"))

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{}).PerformLink(target, stats)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStatus))
}

func TestPerformLink_DryRunTouchesNothing(t *testing.T) {
	f := newFixture(t)

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{DryRun: true}).PerformLink(target, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SymlinksAdded)
	assert.False(t, f.fs.Exists(target.Dest))
	assert.False(t, f.track.ContainsDest(target.Dest))
	assert.False(t, f.track.IsDirty())
	assert.Contains(t, f.out.String(), "[ DRY RUN --- Link ]")
}

func TestPerformLink_DryRunReportsReplacement(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.Symlink("/dotfiles/gone", target.Dest))

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{DryRun: true}).PerformLink(target, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SymlinksRemoved)
	assert.Equal(t, 1, stats.SymlinksAdded)
	assert.Contains(t, f.out.String(), "[ DRY RUN --- Remove+Link ]")

	// the dangling link is still there
	_, err = f.fs.Readlink(target.Dest)
	assert.NoError(t, err)
}

func TestPerformUnlink_IntendedSymlinkRemoved(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.Symlink(target.Source, target.Dest))
	f.track.Insert(target.Dest, target.Source)

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{}).PerformUnlink(target, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SymlinksRemoved)
	assert.False(t, f.fs.Exists(target.Dest))
	assert.False(t, f.track.ContainsDest(target.Dest))
}

func TestPerformUnlink_NotFoundSkips(t *testing.T) {
	f := newFixture(t)

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{}).PerformUnlink(target, stats)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TargetsSkipped)
}

func TestPerformUnlink_UntrackedFileProtected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.WriteFile(target.Dest, []byte("precious"), 0o644))

	stats := reconcile.NewStats(1)
	err := f.engine(types.LinkFlags{}).PerformUnlink(target, stats)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TargetsSkipped)
	assert.True(t, f.fs.Exists(target.Dest))
}

func TestLinkUnlink_RoundTrip(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(types.LinkFlags{})

	stats, err := engine.Link([]types.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SymlinksAdded)
	require.True(t, f.fs.Exists(target.Dest))

	stats, err = engine.Unlink([]types.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SymlinksRemoved)
	assert.False(t, f.fs.Exists(target.Dest))
	assert.True(t, f.track.IsEmpty())
}

func TestRelink_MergesStats(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(types.LinkFlags{})

	_, err := engine.Link([]types.Target{target})
	require.NoError(t, err)

	stats, err := engine.Relink([]types.Target{target})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Targets)
	assert.Equal(t, 1, stats.SymlinksRemoved)
	assert.Equal(t, 1, stats.SymlinksAdded)

	dest, err := f.fs.Readlink(target.Dest)
	require.NoError(t, err)
	assert.Equal(t, target.Source, dest)
}

func TestLink_EmptyTargetSet(t *testing.T) {
	f := newFixture(t)

	stats, err := f.engine(types.LinkFlags{}).Link(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Targets)
	assert.Contains(t, f.out.String(), "No dotfiles found to link")
}

func TestLink_BailAbortsNonInteractive(t *testing.T) {
	f := newFixture(t)
	bad := types.Target{Dest: "/home/user/.broken", Source: "/dotfiles/vim/vimrc"}
	f.fs.WithError(bad.Dest, fmt.Errorf("permission denied"))

	stats, err := f.engine(types.LinkFlags{Bail: true}).Link([]types.Target{bad, target})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBail))
	assert.Equal(t, 1, stats.Errors)

	// the batch stopped before the second target
	assert.False(t, f.fs.Exists(target.Dest))
}

func TestLink_BailContinueOnYes(t *testing.T) {
	f := newFixture(t)
	bad := types.Target{Dest: "/home/user/.broken", Source: "/dotfiles/vim/vimrc"}
	f.fs.WithError(bad.Dest, fmt.Errorf("permission denied"))
	f.prompter.answers = []prompt.Choice{{Kind: prompt.Yes}}

	stats, err := f.engine(types.LinkFlags{Bail: true, Interactive: true}).Link([]types.Target{bad, target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.SymlinksAdded)
	assert.True(t, f.fs.Exists(target.Dest))
}

func TestLink_ErrorsCountedWithoutBail(t *testing.T) {
	f := newFixture(t)
	bad := types.Target{Dest: "/home/user/.broken", Source: "/dotfiles/vim/vimrc"}
	f.fs.WithError(bad.Dest, fmt.Errorf("permission denied"))

	stats, err := f.engine(types.LinkFlags{}).Link([]types.Target{bad, target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.SymlinksAdded)
}
