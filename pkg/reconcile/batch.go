package reconcile

import (
	"fmt"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/prompt"
	"github.com/arthur-debert/dots/pkg/types"
)

// Link reconciles every target in order. Per-target failures are
// counted; with the bail flag set the user decides (or, when not
// interactive, the batch aborts with the originating error).
func (e *Engine) Link(targets []types.Target) (*Stats, error) {
	stats := NewStats(len(targets))
	if len(targets) == 0 {
		fmt.Fprintln(e.out, "No dotfiles found to link based on the provided target and filters.")
		return stats, nil
	}

	fmt.Fprintf(e.out, "Preparing to link %d dotfiles...\n", len(targets))

	neverBail := false
	for _, target := range targets {
		if err := e.PerformLink(target, stats); err != nil {
			stats.Errors++
			if e.flags.Bail && !neverBail {
				cont, bailErr := e.tryBail(err, fmt.Sprintf("link operation from %s to %s", target.Dest, target.Source))
				if bailErr != nil {
					return stats, bailErr
				}
				neverBail = cont
			}
		}
	}

	return stats, nil
}

// Unlink reconciles every target in the unlink direction.
func (e *Engine) Unlink(targets []types.Target) (*Stats, error) {
	stats := NewStats(len(targets))
	if len(targets) == 0 {
		fmt.Fprintln(e.out, "No dotfiles found to unlink based on the provided target and filters.")
		return stats, nil
	}

	fmt.Fprintf(e.out, "Preparing to unlink %d dotfiles...\n", len(targets))

	neverBail := false
	for _, target := range targets {
		if err := e.PerformUnlink(target, stats); err != nil {
			stats.Errors++
			if e.flags.Bail && !neverBail {
				cont, bailErr := e.tryBail(err, fmt.Sprintf("unlink operation on %s (from %s)", target.Dest, target.Source))
				if bailErr != nil {
					return stats, bailErr
				}
				neverBail = cont
			}
		}
	}

	return stats, nil
}

// Relink is unlink-then-link over the same resolved target set, with
// the two passes' statistics merged.
func (e *Engine) Relink(targets []types.Target) (*Stats, error) {
	if len(targets) == 0 {
		fmt.Fprintln(e.out, "No dotfiles found to relink based on the provided target and filters.")
		return NewStats(0), nil
	}

	fmt.Fprintf(e.out, "Preparing to relink %d dotfiles...\n", len(targets))

	stats, err := e.Unlink(targets)
	if err != nil {
		return stats, err
	}

	linkStats, err := e.Link(targets)
	stats.Merge(linkStats)
	return stats, err
}

// tryBail handles one per-target failure under the bail flag. The
// returned bool is the user's "continue for the rest of the run"
// answer; a non-nil error aborts the batch.
func (e *Engine) tryBail(cause error, context string) (bool, error) {
	fmt.Fprintf(e.out, "[ BAIL ] %v\n", cause)

	if !e.flags.Interactive {
		return false, errors.Wrapf(cause, errors.ErrBail, "bailed %s", context)
	}

	choice, err := e.prompter.Ask("Continue execution?", prompt.OptionsYesNoAll)
	if err != nil {
		return false, errors.Wrapf(cause, errors.ErrBail, "bailed %s", context)
	}

	if choice.Kind == prompt.No {
		return false, errors.Wrapf(cause, errors.ErrBail, "user bailed %s", context)
	}
	return choice.All, nil
}
