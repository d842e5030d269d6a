// Package output renders run results for the terminal: the per-run
// summary counts and trackfile save notices. Styling degrades to plain
// text when the output is not a capable terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/dots/pkg/reconcile"
)

var (
	countStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// Renderer writes run summaries.
type Renderer struct {
	out    io.Writer
	styled bool
}

// NewRenderer builds a Renderer for out. Styling is enabled only when
// out is a terminal that supports color and NO_COLOR is unset.
func NewRenderer(out io.Writer) *Renderer {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) &&
			termenv.ColorProfile() != termenv.Ascii &&
			os.Getenv("NO_COLOR") == ""
	}
	return &Renderer{out: out, styled: styled}
}

// LinkSummary prints the result of a link or relink run.
func (r *Renderer) LinkSummary(stats *reconcile.Stats, dryRun bool) {
	if stats.SymlinksAdded > 0 {
		if dryRun {
			fmt.Fprintf(r.out, "Would have linked %s/%s entries.\n",
				r.count(stats.SymlinksAdded), r.count(stats.Targets))
		} else {
			fmt.Fprintf(r.out, "%s Linked %s/%s entries.\n",
				pterm.Success.Prefix.Text, r.count(stats.SymlinksAdded), r.count(stats.Targets))
		}
		fmt.Fprintf(r.out, "Symlinks removed: %d\n", stats.SymlinksRemoved)
		fmt.Fprintf(r.out, "Files removed:    %d\n", stats.FilesRemoved)
	} else {
		if dryRun {
			fmt.Fprintf(r.out, "No entries would have been linked (skipped %d).\n", stats.TargetsSkipped)
		} else {
			fmt.Fprintf(r.out, "No entries were linked (skipped %d).\n", stats.TargetsSkipped)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintf(r.out, "%s %d target(s) failed\n", pterm.Error.Prefix.Text, stats.Errors)
	}
}

// UnlinkSummary prints the result of an unlink run.
func (r *Renderer) UnlinkSummary(stats *reconcile.Stats, dryRun bool) {
	if stats.Removed() > 0 {
		if dryRun {
			fmt.Fprintf(r.out, "Would have successfully unlinked %s/%s potential entries.\n",
				r.count(stats.Removed()), r.count(stats.Targets))
		} else {
			fmt.Fprintf(r.out, "%s Unlinked %s/%s potential entries.\n",
				pterm.Success.Prefix.Text, r.count(stats.Removed()), r.count(stats.Targets))
		}
		fmt.Fprintf(r.out, "Symlinks removed: %d\n", stats.SymlinksRemoved)
		fmt.Fprintf(r.out, "Files removed:    %d\n", stats.FilesRemoved)
	} else {
		if dryRun {
			fmt.Fprintf(r.out, "No entries would have been unlinked (skipped %d).\n", stats.TargetsSkipped)
		} else {
			fmt.Fprintf(r.out, "No entries were unlinked (skipped %d).\n", stats.TargetsSkipped)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintf(r.out, "%s %d target(s) failed\n", pterm.Error.Prefix.Text, stats.Errors)
	}
}

// TrackfileSaved prints where the ledger went.
func (r *Renderer) TrackfileSaved(path string) {
	fmt.Fprintf(r.out, "Trackfile saved to %s\n", r.dim(path))
}

// TrackfileWouldSave notes that a dry run left a dirty ledger unsaved.
func (r *Renderer) TrackfileWouldSave() {
	fmt.Fprintln(r.out, "DRY RUN: Trackfile would have been saved.")
}

func (r *Renderer) count(n int) string {
	s := fmt.Sprintf("%d", n)
	if r.styled {
		return countStyle.Render(s)
	}
	return s
}

func (r *Renderer) dim(s string) string {
	if r.styled {
		return dimStyle.Render(s)
	}
	return s
}
