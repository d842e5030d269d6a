// Package config loads dots configuration: a global config probed at
// fixed home locations and an optional per-directory config inside the
// dotfiles tree, merged through an explicit inheritance declaration.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/dots/pkg/errors"
	"github.com/arthur-debert/dots/pkg/logging"
	"github.com/arthur-debert/dots/pkg/paths"
	"github.com/arthur-debert/dots/pkg/rules"
)

// Inheritable names the config parts a directory config may take over
// from the global one.
const (
	InheritUse     = "use"
	InheritTarget  = "target"
	InheritExclude = "exclude"
)

// Options is the evaluated `[dots]` section of a config file.
type Options struct {
	// Use maps source paths to their rules.
	Use map[string][]rules.Rule

	// Targets is the default suffix-to-destination table rules fall
	// back on when they declare none of their own.
	Targets []rules.TargetPair

	// Exclude lists global exclusion templates.
	Exclude []string

	// Inherits names the parts taken over from the enclosing config.
	Inherits []string
}

// LoadGlobal probes the global config candidates under the home
// directory and parses the first one found. No config at all yields
// empty Options.
func LoadGlobal() (*Options, error) {
	home, err := paths.GetHomeDirectory()
	if err != nil {
		return nil, err
	}

	for _, candidate := range paths.ConfigCandidates {
		path := filepath.Join(home, candidate)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return &Options{}, nil
}

// LoadDir probes the per-directory config candidates inside dir.
// The second return reports whether a config file was found.
func LoadDir(dir string) (*Options, bool, error) {
	for _, candidate := range paths.DirConfigCandidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			opts, err := LoadFile(path)
			return opts, err == nil, err
		}
	}
	return nil, false, nil
}

// LoadFile parses a single TOML config file.
func LoadFile(path string) (*Options, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
	}

	opts, err := fromKoanf(k)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid config %s", path)
	}

	logger := logging.GetLogger("config")
	logger.Debug().Str("path", path).Int("use", len(opts.Use)).Msg("Config loaded")
	return opts, nil
}

// Detect resolves the effective options for a dotfiles directory: its
// own config when present, with the declared parts inherited from the
// global config; the global config alone otherwise.
func Detect(dir string) (*Options, error) {
	global, err := LoadGlobal()
	if err != nil {
		return nil, err
	}

	local, found, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if !found {
		return global, nil
	}

	local.Inherit(global)
	return local, nil
}

// Inherit merges the parts named in o.Inherits from the enclosing
// config: use entries fill in missing keys only, targets append only
// missing suffixes, excludes concatenate.
func (o *Options) Inherit(from *Options) {
	for _, part := range o.Inherits {
		switch part {
		case InheritUse:
			if o.Use == nil {
				o.Use = make(map[string][]rules.Rule, len(from.Use))
			}
			for key, ruleSet := range from.Use {
				if _, ok := o.Use[key]; !ok {
					o.Use[key] = ruleSet
				}
			}

		case InheritTarget:
			for _, pair := range from.Targets {
				if !o.hasSuffix(pair.Suffix) {
					o.Targets = append(o.Targets, pair)
				}
			}

		case InheritExclude:
			o.Exclude = append(o.Exclude, from.Exclude...)
		}
	}
}

func (o *Options) hasSuffix(suffix string) bool {
	for _, pair := range o.Targets {
		if pair.Suffix == suffix {
			return true
		}
	}
	return false
}

func fromKoanf(k *koanf.Koanf) (*Options, error) {
	opts := &Options{}

	if raw := k.Get("dots.use"); raw != nil {
		rawMap, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrConfigParse, "dots.use must be a table, got %T", raw)
		}
		useMap, err := rules.DecodeUseMap(rawMap)
		if err != nil {
			return nil, err
		}
		opts.Use = useMap
	}

	if raw := k.Get("dots.target"); raw != nil {
		targets, err := rules.DecodeTargetTable(raw)
		if err != nil {
			return nil, err
		}
		opts.Targets = targets
	}

	if raw := k.Get("dots.exclude"); raw != nil {
		exclude, err := rules.DecodeExcludeList(raw)
		if err != nil {
			return nil, err
		}
		opts.Exclude = exclude
	}

	opts.Inherits = k.Strings("dots.inherits")

	return opts, nil
}
