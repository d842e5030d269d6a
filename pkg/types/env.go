package types

import "sort"

// Env is an immutable variable environment used during path resolution.
// Derived environments are created with With; the receiver is never
// modified, so sibling resolution branches cannot observe each other's
// bindings.
type Env struct {
	vars map[string]string
}

// NewEnv returns an empty environment.
func NewEnv() Env {
	return Env{}
}

// EnvFrom builds an environment from a plain map. The map is copied.
func EnvFrom(vars map[string]string) Env {
	if len(vars) == 0 {
		return Env{}
	}
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return Env{vars: copied}
}

// Get looks up a variable binding.
func (e Env) Get(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// With returns a new environment with name bound to value. The receiver
// is left untouched.
func (e Env) With(name, value string) Env {
	copied := make(map[string]string, len(e.vars)+1)
	for k, v := range e.vars {
		copied[k] = v
	}
	copied[name] = value
	return Env{vars: copied}
}

// Len reports the number of bindings.
func (e Env) Len() int {
	return len(e.vars)
}

// Map returns a copy of the bindings as a plain map, suitable for
// handing to a subprocess environment.
func (e Env) Map() map[string]string {
	copied := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		copied[k] = v
	}
	return copied
}

// Names returns the bound variable names in sorted order.
func (e Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
