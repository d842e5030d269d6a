package reconcile

import "github.com/arthur-debert/dots/pkg/types"

// Reason is the closed classification of why a target is or is not
// actionable.
type Reason int

const (
	// ForceDangerously: the destination is occupied by something dots
	// does not track. The most destructive class.
	ForceDangerously Reason = iota

	// ForceFile: the destination is tracked but holds a regular file
	// or directory instead of a symlink.
	ForceFile

	// ForceSymlink: the destination is a symlink pointing at neither
	// the intended nor the tracked source.
	ForceSymlink

	// ForceCorrectSymlink: the destination is a symlink that matches
	// the trackfile but not the newly intended source.
	ForceCorrectSymlink

	// DanglingSymlink: the destination is a symlink whose target no
	// longer exists. Always safe to replace or remove.
	DanglingSymlink

	// IntendedSymlink: the destination already points at the intended
	// source.
	IntendedSymlink

	// NotFound: nothing at the destination.
	NotFound

	// StatusInvalid: the destination is neither symlink, file, nor
	// directory (socket, device, ...).
	StatusInvalid

	// StatusError: the destination could not be inspected at all.
	StatusError

	// UserQuit: the user canceled at an interactive prompt.
	UserQuit
)

// Info returns the human-readable explanation shown at prompts and in
// verbose skip messages.
func (r Reason) Info() string {
	switch r {
	case ForceDangerously:
		return "destination is not tracked"
	case ForceFile:
		return "destination is tracked but is a file"
	case ForceSymlink:
		return "destination is tracked and is a symlink but points to neither the intended nor the expected source"
	case ForceCorrectSymlink:
		return "destination is tracked and is a symlink but doesn't point to the expected source"
	case DanglingSymlink:
		return "destination is a dangling symlink"
	case IntendedSymlink:
		return "destination is a symlink that points to the intended source"
	case NotFound:
		return "destination not found (nothing to remove)"
	case StatusInvalid:
		return "destination is not a symlink or file (nothing to remove)"
	case StatusError:
		return "error checking destination type"
	case UserQuit:
		return "the user canceled the operation"
	default:
		return "unknown reason"
	}
}

// ShortFlag returns the minimal flag that authorizes this reason, or
// "" for reasons that are not forceable.
func (r Reason) ShortFlag() string {
	switch r {
	case ForceDangerously:
		return "--force-dangerously"
	case ForceFile:
		return "-f"
	case ForceSymlink:
		return "-s"
	case ForceCorrectSymlink:
		return "-c"
	default:
		return ""
	}
}

// Flags lists every flag that would authorize this reason, strongest
// last.
func (r Reason) Flags() string {
	switch r {
	case ForceDangerously:
		return "--force-dangerously"
	case ForceFile:
		return "-f or --force-dangerously"
	case ForceSymlink:
		return "-s, -f, or --force-dangerously"
	case ForceCorrectSymlink:
		return "-c, -s, -f, or --force-dangerously"
	default:
		return ""
	}
}

// Forceable reports whether this reason is gated on flags or consent.
func (r Reason) Forceable() bool {
	switch r {
	case ForceDangerously, ForceFile, ForceSymlink, ForceCorrectSymlink:
		return true
	default:
		return false
	}
}

// Authorized tests the flag hierarchy: each stronger force flag
// implies the weaker cases. Non-forceable reasons are always
// authorized; they never reach the gate.
func (r Reason) Authorized(flags types.LinkFlags) bool {
	switch r {
	case ForceDangerously:
		return flags.ForceDangerously
	case ForceFile:
		return flags.ForceFile || flags.ForceDangerously
	case ForceSymlink:
		return flags.ForceSymlink || flags.ForceFile || flags.ForceDangerously
	case ForceCorrectSymlink:
		return flags.ForceCorrectSymlink || flags.ForceSymlink || flags.ForceFile || flags.ForceDangerously
	default:
		return true
	}
}

func (r Reason) String() string {
	switch r {
	case ForceDangerously:
		return "ForceDangerously"
	case ForceFile:
		return "ForceFile"
	case ForceSymlink:
		return "ForceSymlink"
	case ForceCorrectSymlink:
		return "ForceCorrectSymlink"
	case DanglingSymlink:
		return "DanglingSymlink"
	case IntendedSymlink:
		return "IntendedSymlink"
	case NotFound:
		return "NotFound"
	case StatusInvalid:
		return "StatusInvalid"
	case StatusError:
		return "StatusError"
	case UserQuit:
		return "UserQuit"
	default:
		return "Unknown"
	}
}
