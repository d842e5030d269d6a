// Package reconcile decides and executes what happens to each link
// target: it classifies the destination's current filesystem and
// trackfile state into a Reason, gates forceable reasons against force
// flags or interactive consent, and performs (or, in dry-run mode,
// describes) the resulting mutation while keeping the trackfile and
// run statistics consistent.
package reconcile
