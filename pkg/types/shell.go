package types

// Shell evaluates shell expressions on behalf of the resolver and the
// rule evaluator. The production implementation lives in pkg/shell;
// tests substitute a canned one.
type Shell interface {
	// Run executes a command and returns its trimmed stdout.
	Run(command string, env Env) (string, error)

	// RunForBool executes a command and interprets trimmed stdout
	// "0"/"false" and "1"/"true" as a boolean.
	RunForBool(command string, env Env) (bool, error)

	// TestIf evaluates a `[ ... ]` test expression.
	TestIf(expr string, env Env) (bool, error)

	// TestCommand reports whether an executable exists on PATH.
	TestCommand(name string, env Env) (bool, error)

	// Echo expands an expression ($VAR, ~) and returns the result.
	Echo(expr string, env Env) (string, error)
}
