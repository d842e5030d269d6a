package rules

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/logging"
	"github.com/arthur-debert/dots/pkg/resolver"
	"github.com/arthur-debert/dots/pkg/types"
)

// Evaluator turns rules into concrete link targets using the template
// path resolver and the shell collaborator.
type Evaluator struct {
	res *resolver.Resolver
	sh  types.Shell
}

// NewEvaluator creates an Evaluator over the given collaborators.
func NewEvaluator(fsys types.FS, sh types.Shell) *Evaluator {
	return &Evaluator{res: resolver.New(fsys, sh), sh: sh}
}

// Evaluate produces the (destination, source) targets one rule
// contributes for the source path usePath under base. Rules whose
// guard is false contribute nothing. globalTargets and globalExclude
// come from the enclosing config and apply when the rule does not
// declare its own.
func (e *Evaluator) Evaluate(rule Rule, base, usePath string, globalTargets []TargetPair, globalExclude []string) ([]types.Target, error) {
	logger := logging.GetLogger("rules")

	env, err := e.bindVars(rule)
	if err != nil {
		return nil, err
	}

	ok, err := e.evalGuard(rule, env)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Debug().Str("use", usePath).Msg("Rule guard is false, skipping")
		return nil, nil
	}

	pairs := rule.Targets
	if pairs == nil {
		pairs = globalTargets
	}
	if len(pairs) == 0 {
		return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: no targets declared and no global targets to fall back on", usePath)
	}

	var targets []types.Target
	for _, pair := range pairs {
		sources, err := e.res.Resolve(base, filepath.Join(usePath, pair.Suffix), env)
		if err != nil {
			return nil, err
		}

		for _, source := range sources {
			excluded, err := e.isExcluded(source, base, globalExclude, rule.Exclude)
			if err != nil {
				return nil, err
			}
			if excluded {
				logger.Debug().Str("source", source.Path).Msg("Source excluded")
				continue
			}

			dest, err := e.res.ResolveOne(base, pair.Template, source.Env)
			if err != nil {
				return nil, err
			}

			targets = append(targets, types.Target{
				Dest:   dest.Path,
				Source: filepath.Join(base, source.Path),
			})
		}
	}

	return targets, nil
}

// EvaluateAll evaluates a whole use map and merges the per-rule
// mappings keyed by destination, last rule winning on collision.
// The returned slice is ordered by destination for deterministic runs.
func (e *Evaluator) EvaluateAll(useMap map[string][]Rule, base string, globalTargets []TargetPair, globalExclude []string) ([]types.Target, error) {
	merged := make(map[string]string)

	// iterate source paths in sorted order so last-wins is stable
	usePaths := make([]string, 0, len(useMap))
	for usePath := range useMap {
		usePaths = append(usePaths, usePath)
	}
	sort.Strings(usePaths)

	for _, usePath := range usePaths {
		for _, rule := range useMap[usePath] {
			targets, err := e.Evaluate(rule, base, usePath, globalTargets, globalExclude)
			if err != nil {
				return nil, err
			}
			for _, target := range targets {
				merged[target.Dest] = target.Source
			}
		}
	}

	dests := make([]string, 0, len(merged))
	for dest := range merged {
		dests = append(dests, dest)
	}
	sort.Strings(dests)

	out := make([]types.Target, 0, len(merged))
	for _, dest := range dests {
		out = append(out, types.Target{Dest: dest, Source: merged[dest]})
	}
	return out, nil
}

// bindVars produces the rule's starting environment. Each variable
// must have exactly one value source.
func (e *Evaluator) bindVars(rule Rule) (types.Env, error) {
	env := types.NewEnv()

	// bind in sorted order so shell side effects are deterministic
	names := make([]string, 0, len(rule.Vars))
	for name := range rule.Vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := rule.Vars[name]
		if n := src.sources(); n > 1 {
			return types.Env{}, errors.Newf(errors.ErrRuleInvalid, "multiple fields defined for variable %q", name)
		} else if n == 0 {
			return types.Env{}, errors.Newf(errors.ErrRuleInvalid, "no value found for variable %q", name)
		}

		var value string
		var err error
		switch {
		case src.hasValue:
			value = src.Value
			if strings.HasPrefix(value, "$") || strings.HasPrefix(value, "~") {
				value, err = e.sh.Echo(value, env)
			}
		case src.hasEnv:
			value, err = e.sh.Echo(src.Env, env)
		case src.hasShell:
			value, err = e.sh.Run(src.Shell, env)
		}
		if err != nil {
			return types.Env{}, errors.Wrapf(err, errors.ErrRuleInvalid, "failed to bind variable %q", name)
		}

		env = env.With(name, value)
	}

	return env, nil
}

// evalGuard evaluates the rule guard under env. Missing sub-conditions
// default to true; the guard holds iff every present one does.
func (e *Evaluator) evalGuard(rule Rule, env types.Env) (bool, error) {
	if rule.GuardBool != nil {
		return *rule.GuardBool, nil
	}
	if rule.Guard == nil {
		return true, nil
	}

	if rule.Guard.hasShell {
		ok, err := e.sh.RunForBool(rule.Guard.Shell, env)
		if err != nil || !ok {
			return false, err
		}
	}
	if rule.Guard.hasIf {
		ok, err := e.sh.TestIf(rule.Guard.If, env)
		if err != nil || !ok {
			return false, err
		}
	}
	if rule.Guard.hasCommand {
		ok, err := e.sh.TestCommand(rule.Guard.Command, env)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// isExcluded tests source against the global and rule-local exclusion
// templates. Both are resolved through the resolver under the source's
// refined environment and compared by path prefix.
func (e *Evaluator) isExcluded(source resolver.Resolved, base string, globalExclude, localExclude []string) (bool, error) {
	for _, excludes := range [][]string{globalExclude, localExclude} {
		for _, exc := range excludes {
			resolved, err := e.res.Resolve(base, exc, source.Env)
			if err != nil {
				return false, err
			}
			for _, r := range resolved {
				if pathHasPrefix(source.Path, r.Path) {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

// pathHasPrefix reports whether path is prefix or below it, matching
// on whole path elements.
func pathHasPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator))
}
