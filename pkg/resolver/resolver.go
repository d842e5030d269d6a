// Package resolver expands templated paths against a base directory
// and a variable environment.
//
// A template is processed one segment at a time. Literal segments are
// joined as-is. A `*` segment fans out over every subdirectory at that
// point. A `<name>` segment substitutes the environment binding for
// name; when that binding is itself `*` the segment fans out like a
// wildcard and additionally rebinds name to the matched directory for
// the remainder of that branch only. Segments starting with `$` or `~`
// are expanded through the shell.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/logging"
	"github.com/arthur-debert/dots/pkg/types"
)

// Resolved is one concrete expansion of a template: the path and the
// environment as refined along that branch.
type Resolved struct {
	Path string
	Env  types.Env
}

// Resolver expands path templates. Directory listings go through FS,
// `$`/`~` segments through Shell.
type Resolver struct {
	fs types.FS
	sh types.Shell
}

// New creates a Resolver over the given collaborators.
func New(fsys types.FS, sh types.Shell) *Resolver {
	return &Resolver{fs: fsys, sh: sh}
}

// Resolve expands template against base under env. Returned paths are
// as accumulated from the template itself: relative templates yield
// paths relative to base, while shell-expanded absolute segments yield
// absolute paths. Wildcard fan-out preserves directory-listing order.
// An absent wildcard parent yields zero results, not an error.
func (r *Resolver) Resolve(base, template string, env types.Env) ([]Resolved, error) {
	segments := splitTemplate(template)
	results, err := r.resolve(base, "", segments, env)
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger("resolver")
	logger.Trace().Str("template", template).Int("results", len(results)).Msg("Template resolved")
	return results, nil
}

// ResolveOne expands a destination-side template, which must produce
// exactly one concrete path. Zero results or a wildcard fan-out are
// configuration errors.
func (r *Resolver) ResolveOne(base, template string, env types.Env) (Resolved, error) {
	results, err := r.Resolve(base, template, env)
	if err != nil {
		return Resolved{}, err
	}
	switch len(results) {
	case 0:
		return Resolved{}, errors.Newf(errors.ErrResolve, "destination template %q resolved to no paths", template)
	case 1:
		return results[0], nil
	default:
		return Resolved{}, errors.Newf(errors.ErrTargetAmbiguous, "destination template %q resolved to %d paths, want exactly one", template, len(results))
	}
}

func (r *Resolver) resolve(base, acc string, segments []string, env types.Env) ([]Resolved, error) {
	if len(segments) == 0 {
		return []Resolved{{Path: acc, Env: env}}, nil
	}

	seg, rest := segments[0], segments[1:]

	switch {
	case seg == "*":
		return r.fanOut(base, acc, rest, env, "")

	case strings.HasPrefix(seg, "<") && strings.HasSuffix(seg, ">") && len(seg) > 2:
		name := seg[1 : len(seg)-1]
		value, ok := env.Get(name)
		if !ok {
			// unbound reference passes through as a literal
			return r.resolve(base, join(acc, seg), rest, env)
		}
		if value == "*" {
			return r.fanOut(base, acc, rest, env, name)
		}
		return r.resolve(base, join(acc, value), rest, env)

	case strings.HasPrefix(seg, "$") || strings.HasPrefix(seg, "~"):
		expanded, err := r.sh.Echo(seg, env)
		if err != nil {
			// an unset shell variable must not abort resolution
			expanded = seg
		}
		return r.resolve(base, join(acc, expanded), rest, env)

	default:
		return r.resolve(base, join(acc, seg), rest, env)
	}
}

// fanOut expands a wildcard: every subdirectory of base/acc continues
// with the remaining segments. When bind is non-empty the matched
// directory name is bound under it in a branch-local environment.
func (r *Resolver) fanOut(base, acc string, rest []string, env types.Env, bind string) ([]Resolved, error) {
	dir := listPath(base, acc)
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrDirList, "failed to list %s", dir)
	}

	var results []Resolved
	for _, entry := range entries {
		info, err := r.fs.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.IsDir() {
			continue
		}

		branchEnv := env
		if bind != "" {
			branchEnv = env.With(bind, entry.Name())
		}

		branch, err := r.resolve(base, join(acc, entry.Name()), rest, branchEnv)
		if err != nil {
			return nil, err
		}
		results = append(results, branch...)
	}

	return results, nil
}

// splitTemplate breaks a template into segments. A leading slash is
// kept as an absolute marker on the first segment.
func splitTemplate(template string) []string {
	template = filepath.Clean(template)
	if template == "." || template == "" {
		return nil
	}

	absolute := strings.HasPrefix(template, "/")
	parts := strings.Split(strings.Trim(template, "/"), "/")
	if absolute {
		parts = append([]string{"/"}, parts...)
	}
	return parts
}

// join appends part to acc the way Rust's PathBuf::join does: an
// absolute part replaces the accumulator. Shell expansion relies on
// this to let `~`-rooted segments restart the path.
func join(acc, part string) string {
	if part == "" {
		return acc
	}
	if filepath.IsAbs(part) {
		return part
	}
	if acc == "" {
		return part
	}
	return filepath.Join(acc, part)
}

// listPath is where a wildcard at acc lists entries: under base for
// relative accumulators, at acc itself once it has gone absolute.
func listPath(base, acc string) string {
	if filepath.IsAbs(acc) {
		return acc
	}
	return filepath.Join(base, acc)
}
