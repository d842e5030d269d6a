package testutil

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/dots/pkg/types"
)

// FakeShell is a scripted types.Shell. Commands return canned results
// from the maps; Echo performs a minimal $VAR and ~ expansion against
// Environ plus the per-call Env, so resolver tests do not depend on a
// real shell binary.
type FakeShell struct {
	// Home substitutes a leading ~ in Echo.
	Home string

	// Environ backs $VAR expansion after the per-call Env.
	Environ map[string]string

	// Results maps a command to its trimmed stdout for Run.
	Results map[string]string

	// Bools maps an expression to its verdict for TestIf, TestCommand
	// and RunForBool.
	Bools map[string]bool

	// Errors injects a failure for a command or expression.
	Errors map[string]error

	// Ran records every command passed to Run, in order.
	Ran []string
}

// NewFakeShell creates a FakeShell with empty script maps.
func NewFakeShell(home string) *FakeShell {
	return &FakeShell{
		Home:    home,
		Environ: make(map[string]string),
		Results: make(map[string]string),
		Bools:   make(map[string]bool),
		Errors:  make(map[string]error),
	}
}

func (f *FakeShell) Run(command string, env types.Env) (string, error) {
	f.Ran = append(f.Ran, command)
	if err, ok := f.Errors[command]; ok {
		return "", err
	}
	if out, ok := f.Results[command]; ok {
		return out, nil
	}
	return "", fmt.Errorf("command not scripted: %q", command)
}

func (f *FakeShell) RunForBool(command string, env types.Env) (bool, error) {
	if err, ok := f.Errors[command]; ok {
		return false, err
	}
	if v, ok := f.Bools[command]; ok {
		return v, nil
	}
	out, ok := f.Results[command]
	if !ok {
		return false, fmt.Errorf("command not scripted: %q", command)
	}
	switch strings.TrimSpace(out) {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean: %q", out)
}

func (f *FakeShell) TestIf(expr string, env types.Env) (bool, error) {
	if err, ok := f.Errors[expr]; ok {
		return false, err
	}
	return f.Bools[expr], nil
}

func (f *FakeShell) TestCommand(name string, env types.Env) (bool, error) {
	if err, ok := f.Errors[name]; ok {
		return false, err
	}
	return f.Bools[name], nil
}

// Echo expands a leading ~ and every $NAME token. Per-call Env bindings
// win over Environ; unknown variables expand to the empty string, as a
// real shell would.
func (f *FakeShell) Echo(expr string, env types.Env) (string, error) {
	if err, ok := f.Errors[expr]; ok {
		return "", err
	}

	out := expr
	if out == "~" || strings.HasPrefix(out, "~/") {
		out = f.Home + strings.TrimPrefix(out, "~")
	}

	var b strings.Builder
	for i := 0; i < len(out); {
		if out[i] != '$' {
			b.WriteByte(out[i])
			i++
			continue
		}
		j := i + 1
		for j < len(out) && (isAlnum(out[j]) || out[j] == '_') {
			j++
		}
		if j == i+1 {
			b.WriteByte('$')
			i++
			continue
		}
		name := out[i+1 : j]
		if v, ok := env.Get(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(f.Environ[name])
		}
		i = j
	}
	return b.String(), nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
