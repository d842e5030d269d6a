package reconcile

// Stats accumulates the counters for one reconciliation run. Counters
// only ever increase; callers read them after the run completes.
type Stats struct {
	Targets         int
	SymlinksAdded   int
	SymlinksRemoved int
	FilesRemoved    int
	TargetsSkipped  int
	Errors          int
}

// NewStats returns statistics primed with the number of targets the
// run will consider.
func NewStats(targets int) *Stats {
	return &Stats{Targets: targets}
}

// Merge folds other into the receiver. Targets is kept from the
// receiver: a relink considers each target once even though it runs
// two passes.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	s.SymlinksAdded += other.SymlinksAdded
	s.SymlinksRemoved += other.SymlinksRemoved
	s.FilesRemoved += other.FilesRemoved
	s.TargetsSkipped += other.TargetsSkipped
	s.Errors += other.Errors
}

// Removed returns the total entries removed in this run.
func (s *Stats) Removed() int {
	return s.SymlinksRemoved + s.FilesRemoved
}
