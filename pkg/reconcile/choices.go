package reconcile

// ChoiceState is a remembered "apply to all" answer for one forceable
// reason.
type ChoiceState int

const (
	ChoiceUnset ChoiceState = iota
	ChoiceAlways
	ChoiceNever
)

// ChoiceMemory remembers per-reason "yes to all" / "no to all" answers
// for the rest of one run. It is created fresh per batch and never
// persisted.
type ChoiceMemory struct {
	states map[Reason]ChoiceState
}

// NewChoiceMemory returns an empty memory.
func NewChoiceMemory() *ChoiceMemory {
	return &ChoiceMemory{states: make(map[Reason]ChoiceState)}
}

// Get returns the remembered disposition for reason, ChoiceUnset when
// the user has not answered "all" yet or the reason is not forceable.
func (m *ChoiceMemory) Get(reason Reason) ChoiceState {
	if !reason.Forceable() {
		return ChoiceUnset
	}
	return m.states[reason]
}

// SetAlways remembers "yes to all remaining targets of this reason".
func (m *ChoiceMemory) SetAlways(reason Reason) {
	if reason.Forceable() {
		m.states[reason] = ChoiceAlways
	}
}

// SetNever remembers "no to all remaining targets of this reason".
func (m *ChoiceMemory) SetNever(reason Reason) {
	if reason.Forceable() {
		m.states[reason] = ChoiceNever
	}
}
