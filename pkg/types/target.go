package types

// Target is a single (destination, source) pair to reconcile: the
// symlink we want at Dest pointing at Source.
type Target struct {
	Dest   string
	Source string
}

// LinkFlags carries the per-command flags the reconciliation engine
// consults when gating destructive actions.
type LinkFlags struct {
	// Force flags, weakest to strongest. Each stronger flag implies the
	// weaker ones when a reason is tested against them.
	ForceCorrectSymlink bool
	ForceSymlink        bool
	ForceFile           bool
	ForceDangerously    bool

	// DryRun reports what would happen without mutating anything.
	DryRun bool

	// Interactive prompts for consent instead of consulting force flags.
	Interactive bool

	// Bail asks (or aborts, when non-interactive) on per-target errors
	// instead of carrying on.
	Bail bool

	Verbose bool

	// Include and Exclude are glob filters applied to resolved targets.
	Include []string
	Exclude []string
}
