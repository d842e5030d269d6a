package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/dots/pkg/config"
	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/filesystem"
	"github.com/arthur-debert/dots/pkg/output"
	"github.com/arthur-debert/dots/pkg/paths"
	"github.com/arthur-debert/dots/pkg/prompt"
	"github.com/arthur-debert/dots/pkg/reconcile"
	"github.com/arthur-debert/dots/pkg/rules"
	"github.com/arthur-debert/dots/pkg/shell"
	"github.com/arthur-debert/dots/pkg/trackfile"
	"github.com/arthur-debert/dots/pkg/types"
)

// linkAction distinguishes the three link-family commands, which share
// all of their plumbing.
type linkAction int

const (
	actionLink linkAction = iota
	actionUnlink
	actionRelink
)

func newLinkCmd() *cobra.Command {
	return newLinkFamilyCmd(actionLink, "link [target-dir]",
		"Link dotfiles into place as symlinks",
		`Evaluates the use rules of the target directory (or $DOTS_ROOT) and
creates a symlink at every resolved destination, recording each one in
the trackfile. Occupied destinations are skipped unless a force flag
authorizes their removal or an interactive prompt confirms it.`)
}

func newUnlinkCmd() *cobra.Command {
	return newLinkFamilyCmd(actionUnlink, "unlink [target-dir]",
		"Remove the symlinks dots created",
		`Evaluates the use rules of the target directory (or $DOTS_ROOT) and
removes each resolved destination, consulting the trackfile so only
entries dots created go quietly. Anything else needs a force flag or
an interactive confirmation.`)
}

func newRelinkCmd() *cobra.Command {
	return newLinkFamilyCmd(actionRelink, "relink [target-dir]",
		"Unlink then link the same dotfiles",
		`Runs unlink followed by link over the same resolved target set and
reports the merged statistics. Useful after moving the dotfiles tree.`)
}

func newLinkFamilyCmd(action linkAction, use, short, long string) *cobra.Command {
	var (
		flags       types.LinkFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			flags.Interactive = interactive
			verbosity, _ := cmd.Flags().GetCount("verbose")
			flags.Verbose = verbosity > 0
			return runLinkFamily(cmd, action, arg, flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.Include, "include", nil, "Only act on targets matching these globs")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", nil, "Skip targets matching these globs")
	cmd.Flags().BoolVarP(&flags.ForceCorrectSymlink, "force-correct-symlink", "c", false, "Replace symlinks that already point at the right source")
	cmd.Flags().BoolVarP(&flags.ForceSymlink, "force-symlink", "s", false, "Replace symlinks pointing elsewhere")
	cmd.Flags().BoolVarP(&flags.ForceFile, "force-file", "f", false, "Remove tracked regular files in the way")
	cmd.Flags().BoolVar(&flags.ForceDangerously, "force-dangerously", false, "Remove anything in the way, tracked or not")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Preview changes without touching the filesystem")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt before removing occupied destinations")
	cmd.Flags().BoolVar(&flags.Bail, "bail", false, "Stop on the first failing target (interactively, ask)")

	return cmd
}

func runLinkFamily(cmd *cobra.Command, action linkAction, arg string, flags types.LinkFlags) error {
	root, err := paths.DotfilesRoot(arg)
	if err != nil {
		return err
	}

	opts, err := config.Detect(root)
	if err != nil {
		return err
	}
	if len(opts.Use) == 0 {
		return errors.Newf(errors.ErrInvalidInput, "no use rules configured for %s", root)
	}

	fsys := filesystem.NewOS()
	sh := shell.New()

	targets, err := rules.NewEvaluator(fsys, sh).EvaluateAll(opts.Use, root, opts.Targets, opts.Exclude)
	if err != nil {
		return err
	}
	targets = filterTargets(targets, flags.Include, flags.Exclude)

	track, err := trackfile.Load(fsys, paths.TrackfilePath())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	engine := reconcile.New(fsys, track, flags, prompt.NewConsole(), out)

	var stats *reconcile.Stats
	switch action {
	case actionLink:
		stats, err = engine.Link(targets)
	case actionUnlink:
		stats, err = engine.Unlink(targets)
	case actionRelink:
		stats, err = engine.Relink(targets)
	}
	if stats == nil {
		stats = reconcile.NewStats(len(targets))
	}

	renderer := output.NewRenderer(out)
	if action == actionUnlink {
		renderer.UnlinkSummary(stats, flags.DryRun)
	} else {
		renderer.LinkSummary(stats, flags.DryRun)
	}

	if flags.DryRun {
		if stats.SymlinksAdded > 0 || stats.Removed() > 0 {
			renderer.TrackfileWouldSave()
		}
	} else if track.IsDirty() {
		path := paths.TrackfilePath()
		if saveErr := track.Save(fsys, path); saveErr != nil {
			return saveErr
		}
		renderer.TrackfileSaved(path)
	}

	return err
}

// filterTargets applies the include and exclude globs. A target matches
// a glob when its destination, source or either basename does.
func filterTargets(targets []types.Target, include, exclude []string) []types.Target {
	if len(include) == 0 && len(exclude) == 0 {
		return targets
	}

	out := make([]types.Target, 0, len(targets))
	for _, t := range targets {
		if len(include) > 0 && !matchesAny(include, t) {
			continue
		}
		if matchesAny(exclude, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesAny(globs []string, t types.Target) bool {
	for _, g := range globs {
		for _, candidate := range []string{t.Dest, filepath.Base(t.Dest), t.Source, filepath.Base(t.Source)} {
			if ok, err := filepath.Match(g, candidate); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [target-dir]",
		Short: "Show the link state of every tracked dotfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New(errors.ErrNotImplemented, "status is not implemented yet")
		},
	}
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove trackfile entries whose symlinks are gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New(errors.ErrNotImplemented, "clean is not implemented yet")
		},
	}
}
