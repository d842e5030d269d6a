// Package shell runs user-configured shell expressions and interprets
// their output. All commands come from trusted local configuration;
// they are run through the user's shell with the current variable
// environment exported, and block until completion.
package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/logging"
	"github.com/arthur-debert/dots/pkg/types"
)

// Runner evaluates shell expressions. The zero value is not usable;
// construct with New.
type Runner struct {
	shell  string
	stderr *os.File
}

// New returns a Runner using $SHELL, falling back to sh.
func New() *Runner {
	sh := os.Getenv("SHELL")
	if sh == "" {
		sh = "sh"
	}
	return &Runner{shell: sh, stderr: os.Stderr}
}

// NewWithShell returns a Runner using the given shell binary. Used by
// tests to pin the interpreter.
func NewWithShell(sh string) *Runner {
	return &Runner{shell: sh, stderr: os.Stderr}
}

// Run executes command via `$SHELL -c` with env exported, returning
// trimmed stdout. Stderr is passed through to the terminal.
func (r *Runner) Run(command string, env types.Env) (string, error) {
	logger := logging.GetLogger("shell")
	logger.Debug().Str("command", command).Msg("Running shell command")

	cmd := exec.Command(r.shell, "-c", command)
	cmd.Env = os.Environ()
	for k, v := range env.Map() {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Stderr = r.stderr

	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrShellRun, "shell command failed: %s", command)
	}

	return strings.TrimSpace(string(out)), nil
}

// RunForBool executes command and interprets its trimmed stdout as a
// boolean: "0"/"false" are false, "1"/"true" are true, anything else
// is an error.
func (r *Runner) RunForBool(command string, env types.Env) (bool, error) {
	out, err := r.Run(command, env)
	if err != nil {
		return false, err
	}

	switch out {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, errors.Newf(errors.ErrShellBool, "value returned from shell was not a bool: %q", out)
	}
}

// TestIf evaluates a `[ ... ]` test expression.
func (r *Runner) TestIf(expr string, env types.Env) (bool, error) {
	return r.RunForBool(fmt.Sprintf("if [ %s ]; then echo true; else echo false; fi", expr), env)
}

// TestCommand reports whether name is an executable on PATH, via
// `command -v`.
func (r *Runner) TestCommand(name string, env types.Env) (bool, error) {
	return r.TestIf(fmt.Sprintf("-x \"$(command -v %s)\"", name), env)
}

// Echo expands expr through the shell (variable and tilde expansion)
// and returns the trimmed result.
func (r *Runner) Echo(expr string, env types.Env) (string, error) {
	return r.Run("echo "+expr, env)
}
