package reconcile

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/filesystem"
	"github.com/arthur-debert/dots/pkg/logging"
	"github.com/arthur-debert/dots/pkg/prompt"
	"github.com/arthur-debert/dots/pkg/trackfile"
	"github.com/arthur-debert/dots/pkg/types"
)

// Engine reconciles one target at a time against the filesystem and
// the trackfile. It owns the trackfile mutations for the run; no other
// component writes it.
type Engine struct {
	fs       types.FS
	track    *trackfile.Trackfile
	flags    types.LinkFlags
	choices  *ChoiceMemory
	prompter prompt.Prompter
	out      io.Writer
	logger   zerolog.Logger
}

// New creates an Engine. The choice memory starts empty: remembered
// "all" answers never outlive an Engine.
func New(fsys types.FS, track *trackfile.Trackfile, flags types.LinkFlags, prompter prompt.Prompter, out io.Writer) *Engine {
	return &Engine{
		fs:       fsys,
		track:    track,
		flags:    flags,
		choices:  NewChoiceMemory(),
		prompter: prompter,
		out:      out,
		logger:   logging.GetLogger("reconcile"),
	}
}

// PerformLink reconciles one target in the link direction: classify,
// gate, then remove whatever occupies the destination and create the
// symlink.
func (e *Engine) PerformLink(target types.Target, stats *Stats) error {
	status := filesystem.GetStatus(e.fs, target.Dest)
	op := e.classifyLink(status, target)

	e.logger.Debug().
		Str("dest", target.Dest).
		Str("source", target.Source).
		Str("status", status.String()).
		Str("reason", op.Reason().String()).
		Bool("confirmed", op.WasConfirmed()).
		Msg("Link target classified")

	if e.flags.DryRun {
		fmt.Fprintf(e.out, "%s -> %s\n", target.Dest, target.Source)
		return e.dryRunLink(status, op, stats)
	}

	if op.WasDenied() {
		return e.deny(op, target.Dest, "link", stats)
	}

	if removable(status) {
		if err := e.removeExisting(status, target.Dest, stats); err != nil {
			return err
		}
	}

	if parent := filepath.Dir(target.Dest); parent != "." {
		if err := e.fs.MkdirAll(parent, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent directory for %s", target.Dest)
		}
	}

	if err := e.fs.Symlink(target.Source, target.Dest); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to create symlink %s -> %s", target.Dest, target.Source)
	}
	stats.SymlinksAdded++

	if e.flags.Verbose {
		fmt.Fprintf(e.out, "Linked %s -> %s\n", target.Dest, target.Source)
	}

	e.track.Insert(target.Dest, target.Source)
	return nil
}

// PerformUnlink reconciles one target in the unlink direction: remove
// the destination entry and drop it from the trackfile.
func (e *Engine) PerformUnlink(target types.Target, stats *Stats) error {
	status := filesystem.GetStatus(e.fs, target.Dest)
	op := e.classifyUnlink(status, target)

	e.logger.Debug().
		Str("dest", target.Dest).
		Str("status", status.String()).
		Str("reason", op.Reason().String()).
		Bool("confirmed", op.WasConfirmed()).
		Msg("Unlink target classified")

	if e.flags.DryRun {
		fmt.Fprintf(e.out, "Unlink %s\n", target.Dest)
		return e.dryRunUnlink(status, op, stats)
	}

	if op.WasDenied() {
		return e.deny(op, target.Dest, "unlink", stats)
	}

	if err := e.removeExisting(status, target.Dest, stats); err != nil {
		return err
	}

	e.track.Remove(target.Dest)
	return nil
}

// classifyLink maps the destination's state to an Op for the link
// direction. An already-intended symlink is denied: there is nothing
// to do.
func (e *Engine) classifyLink(status filesystem.Status, target types.Target) Op {
	tracked := e.track.ContainsDest(target.Dest)
	trackedSource, _ := e.track.Source(target.Dest)

	switch status.Kind {
	case filesystem.StatusNotFound:
		return Confirmed(NotFound)
	case filesystem.StatusError:
		return DeniedErr(StatusError, status.Err)
	case filesystem.StatusSymlink:
		switch {
		case status.Dangling:
			return Confirmed(DanglingSymlink)
		case status.PointsTo == target.Source:
			return Denied(IntendedSymlink)
		case tracked && status.PointsTo == trackedSource:
			return e.consult(ForceCorrectSymlink, target.Dest, status.PointsTo)
		case tracked:
			return e.consult(ForceSymlink, target.Dest, status.PointsTo)
		default:
			return e.consult(ForceDangerously, target.Dest, status.PointsTo)
		}
	case filesystem.StatusFile, filesystem.StatusDirectory:
		if tracked {
			return e.consult(ForceFile, target.Dest, "")
		}
		return e.consult(ForceDangerously, target.Dest, "")
	default:
		return Confirmed(StatusInvalid)
	}
}

// classifyUnlink maps the destination's state to an Op for the unlink
// direction. Here an intended symlink is the confirmed case: an exact
// match is safe to remove.
func (e *Engine) classifyUnlink(status filesystem.Status, target types.Target) Op {
	tracked := e.track.ContainsDest(target.Dest)
	trackedSource, _ := e.track.Source(target.Dest)

	switch status.Kind {
	case filesystem.StatusNotFound:
		return Denied(NotFound)
	case filesystem.StatusError:
		return DeniedErr(StatusError, status.Err)
	case filesystem.StatusSymlink:
		switch {
		case status.Dangling:
			return Confirmed(DanglingSymlink)
		case status.PointsTo == target.Source:
			return Confirmed(IntendedSymlink)
		case tracked && status.PointsTo == trackedSource:
			return e.consult(ForceCorrectSymlink, target.Dest, status.PointsTo)
		case tracked:
			return e.consult(ForceSymlink, target.Dest, status.PointsTo)
		default:
			return e.consult(ForceDangerously, target.Dest, status.PointsTo)
		}
	case filesystem.StatusFile, filesystem.StatusDirectory:
		if tracked {
			return e.consult(ForceFile, target.Dest, "")
		}
		return e.consult(ForceDangerously, target.Dest, "")
	default:
		return Denied(StatusInvalid)
	}
}

// consult gates a forceable reason: remembered choice first, then an
// interactive prompt, or the force-flag hierarchy when not
// interactive.
func (e *Engine) consult(reason Reason, dest, pointsTo string) Op {
	if !reason.Forceable() {
		return Denied(reason)
	}

	if !e.flags.Interactive {
		return Verify(reason.Authorized(e.flags), reason)
	}

	switch e.choices.Get(reason) {
	case ChoiceAlways:
		return Confirmed(reason)
	case ChoiceNever:
		return Denied(reason)
	}

	var message string
	if pointsTo != "" {
		message = fmt.Sprintf("[ %s ] Remove symlink at %s (points to: %s)", reason.ShortFlag(), dest, pointsTo)
	} else {
		message = fmt.Sprintf("[ %s ] Remove file (not a symlink!) at %s", reason.ShortFlag(), dest)
	}

	for {
		choice, err := e.prompter.Ask(message, prompt.OptionsAll)
		if err != nil {
			e.logger.Warn().Err(err).Str("dest", dest).Msg("Prompt failed, denying")
			return Denied(reason)
		}

		switch choice.Kind {
		case prompt.Yes:
			if choice.All {
				e.choices.SetAlways(reason)
			}
			return Confirmed(reason)
		case prompt.No:
			if choice.All {
				e.choices.SetNever(reason)
			}
			return Denied(reason)
		case prompt.Info:
			fmt.Fprintln(e.out, reason.Info())
		case prompt.Quit:
			return Denied(UserQuit)
		}
	}
}

// deny accounts for a denied op. StatusError denials surface as
// errors; everything else is a skip.
func (e *Engine) deny(op Op, dest, action string, stats *Stats) error {
	if op.Reason() == StatusError {
		return errors.Wrapf(op.Err(), errors.ErrStatus, "cannot %s %s", action, dest)
	}

	stats.TargetsSkipped++
	if e.flags.Verbose {
		fmt.Fprintf(e.out, "Skipping %s for %s: %s\n", action, dest, op)
	}
	return nil
}

// removeExisting removes whatever occupies dest, counting it as a
// symlink or file removal. Directories go recursively.
func (e *Engine) removeExisting(status filesystem.Status, dest string, stats *Stats) error {
	var err error
	if status.Kind == filesystem.StatusDirectory {
		err = e.fs.RemoveAll(dest)
	} else {
		err = e.fs.Remove(dest)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrRemoveFailed, "failed to remove %s at %s", status, dest)
	}

	if status.Kind == filesystem.StatusSymlink {
		stats.SymlinksRemoved++
	} else {
		stats.FilesRemoved++
	}

	if e.flags.Verbose {
		fmt.Fprintf(e.out, "Removed %s at %s\n", status, dest)
	}
	return nil
}

// dryRunLink mirrors PerformLink's accounting without mutating
// anything.
func (e *Engine) dryRunLink(status filesystem.Status, op Op, stats *Stats) error {
	if op.WasDenied() {
		if op.Reason() == StatusError {
			return errors.Wrap(op.Err(), errors.ErrStatus, "cannot link")
		}
		stats.TargetsSkipped++
		fmt.Fprintf(e.out, "[ DRY RUN --- Skip ] %s\n", op)
		return nil
	}

	if removable(status) {
		if status.Kind == filesystem.StatusSymlink {
			stats.SymlinksRemoved++
		} else {
			stats.FilesRemoved++
		}
		fmt.Fprintf(e.out, "[ DRY RUN --- Remove+Link ] %s\n", op)
	} else {
		fmt.Fprintf(e.out, "[ DRY RUN --- Link ] %s\n", op)
	}
	stats.SymlinksAdded++
	return nil
}

// dryRunUnlink mirrors PerformUnlink's accounting without mutating
// anything.
func (e *Engine) dryRunUnlink(status filesystem.Status, op Op, stats *Stats) error {
	if op.WasDenied() {
		if op.Reason() == StatusError {
			return errors.Wrap(op.Err(), errors.ErrStatus, "cannot unlink")
		}
		stats.TargetsSkipped++
		fmt.Fprintf(e.out, "[ DRY RUN --- Skip ] %s\n", op)
		return nil
	}

	if status.Kind == filesystem.StatusSymlink {
		stats.SymlinksRemoved++
	} else {
		stats.FilesRemoved++
	}
	fmt.Fprintf(e.out, "[ DRY RUN --- Remove ] %s\n", op)
	return nil
}

// removable reports whether the destination holds something the link
// path must clear first.
func removable(status filesystem.Status) bool {
	switch status.Kind {
	case filesystem.StatusNotFound, filesystem.StatusOther:
		return false
	default:
		return true
	}
}
