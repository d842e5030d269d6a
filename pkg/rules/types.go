package rules

import (
	"fmt"
	"sort"

	"github.com/arthur-debert/dots/pkg/errors"
)

// TargetPair maps a source suffix template to a destination template.
type TargetPair struct {
	Suffix   string
	Template string
}

// VarSource declares where a rule variable's value comes from.
// Exactly one field may be set.
type VarSource struct {
	Value string
	Env   string
	Shell string

	hasValue bool
	hasEnv   bool
	hasShell bool
}

// LiteralVar declares a variable bound to a literal value. Literals
// starting with $ or ~ are shell-expanded at bind time.
func LiteralVar(value string) VarSource {
	return VarSource{Value: value, hasValue: true}
}

// EnvVar declares a variable bound to a shell-expanded expression,
// typically `$NAME`.
func EnvVar(expr string) VarSource {
	return VarSource{Env: expr, hasEnv: true}
}

// ShellVar declares a variable bound to the output of a shell command.
func ShellVar(command string) VarSource {
	return VarSource{Shell: command, hasShell: true}
}

func (v VarSource) sources() int {
	n := 0
	if v.hasValue {
		n++
	}
	if v.hasEnv {
		n++
	}
	if v.hasShell {
		n++
	}
	return n
}

// When is a rule guard: every present test must pass, missing tests
// default to true.
type When struct {
	// Shell is a command whose trimmed stdout must be a truthy bool.
	Shell string
	// If is a `[ ... ]` test expression.
	If string
	// Command names an executable that must exist on PATH.
	Command string

	hasShell   bool
	hasIf      bool
	hasCommand bool
}

// Rule is one evaluated `use` entry.
type Rule struct {
	// Guard is nil for an unconditional rule. A rule decoded from the
	// bool shorthand stores the literal value in GuardBool.
	Guard     *When
	GuardBool *bool

	// Targets overrides the config-level target table when non-nil.
	Targets []TargetPair

	// Exclude lists rule-local exclusion templates.
	Exclude []string

	// Vars are the rule's variable bindings, keyed by name.
	Vars map[string]VarSource
}

// DecodeUseValue turns one decoded TOML `use` value into rules. The
// accepted shorthands mirror the config surface: a bare string is a
// target template, a bare bool is a guard, a table is a single rule
// and an array holds several.
func DecodeUseValue(key string, value interface{}) ([]Rule, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: target cannot be empty", key)
		}
		return []Rule{{Targets: []TargetPair{{Suffix: "", Template: v}}}}, nil

	case bool:
		guard := v
		return []Rule{{GuardBool: &guard}}, nil

	case map[string]interface{}:
		rule, err := decodeRuleTable(key, v)
		if err != nil {
			return nil, err
		}
		return []Rule{rule}, nil

	case []interface{}:
		var out []Rule
		for i, item := range v {
			table, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.Newf(errors.ErrRuleInvalid, "use %q[%d]: expected a table, got %T", key, i, item)
			}
			rule, err := decodeRuleTable(key, table)
			if err != nil {
				return nil, err
			}
			out = append(out, rule)
		}
		return out, nil

	default:
		return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: unsupported value type %T", key, value)
	}
}

// DecodeUseMap decodes a whole `use` table keyed by source path.
func DecodeUseMap(raw map[string]interface{}) (map[string][]Rule, error) {
	out := make(map[string][]Rule, len(raw))
	for key, value := range raw {
		decoded, err := DecodeUseValue(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = decoded
	}
	return out, nil
}

// DecodeTargetTable decodes a config-level target declaration (string
// or suffix-to-template table).
func DecodeTargetTable(value interface{}) ([]TargetPair, error) {
	return decodeTargets("dots", value)
}

// DecodeExcludeList decodes a config-level exclude declaration (string
// or array of strings).
func DecodeExcludeList(value interface{}) ([]string, error) {
	return decodeExclude("dots", value)
}

func decodeRuleTable(key string, table map[string]interface{}) (Rule, error) {
	rule := Rule{Vars: make(map[string]VarSource)}

	for field, value := range table {
		switch field {
		case "when":
			guard, guardBool, err := decodeWhen(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.Guard = guard
			rule.GuardBool = guardBool

		case "target":
			targets, err := decodeTargets(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.Targets = targets

		case "exclude":
			exclude, err := decodeExclude(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.Exclude = exclude

		default:
			src, err := decodeVar(key, field, value)
			if err != nil {
				return Rule{}, err
			}
			rule.Vars[field] = src
		}
	}

	return rule, nil
}

func decodeWhen(key string, value interface{}) (*When, *bool, error) {
	switch v := value.(type) {
	case bool:
		b := v
		return nil, &b, nil

	case map[string]interface{}:
		when := &When{}
		for field, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return nil, nil, errors.Newf(errors.ErrRuleInvalid, "use %q: when.%s must be a string", key, field)
			}
			switch field {
			case "shell":
				when.Shell, when.hasShell = s, true
			case "if":
				when.If, when.hasIf = s, true
			case "command":
				when.Command, when.hasCommand = s, true
			default:
				return nil, nil, errors.Newf(errors.ErrRuleInvalid, "use %q: unknown when field %q", key, field)
			}
		}
		return when, nil, nil

	default:
		return nil, nil, errors.Newf(errors.ErrRuleInvalid, "use %q: when must be a bool or a table, got %T", key, value)
	}
}

func decodeTargets(key string, value interface{}) ([]TargetPair, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: target cannot be empty", key)
		}
		return []TargetPair{{Suffix: "", Template: v}}, nil

	case map[string]interface{}:
		// sort suffixes so evaluation order is stable across runs
		suffixes := make([]string, 0, len(v))
		for suffix := range v {
			suffixes = append(suffixes, suffix)
		}
		sort.Strings(suffixes)

		pairs := make([]TargetPair, 0, len(v))
		for _, suffix := range suffixes {
			template, ok := v[suffix].(string)
			if !ok {
				return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: target[%s] must be a string", key, suffix)
			}
			pairs = append(pairs, TargetPair{Suffix: suffix, Template: template})
		}
		return pairs, nil

	default:
		return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: target must be a string or a table, got %T", key, value)
	}
}

func decodeExclude(key string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil

	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: exclude[%d] must be a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil

	default:
		return nil, errors.Newf(errors.ErrRuleInvalid, "use %q: exclude must be a string or an array, got %T", key, value)
	}
}

func decodeVar(key, name string, value interface{}) (VarSource, error) {
	switch v := value.(type) {
	case string:
		return LiteralVar(v), nil

	case map[string]interface{}:
		var src VarSource
		for field, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return VarSource{}, errors.Newf(errors.ErrRuleInvalid, "use %q: %s.%s must be a string", key, name, field)
			}
			switch field {
			case "value":
				src.Value, src.hasValue = s, true
			case "env":
				src.Env, src.hasEnv = s, true
			case "shell":
				src.Shell, src.hasShell = s, true
			default:
				return VarSource{}, errors.Newf(errors.ErrRuleInvalid, "use %q: unknown field %q for variable %s", key, field, name)
			}
		}
		return src, nil

	default:
		return VarSource{}, errors.Newf(errors.ErrRuleInvalid, "use %q: variable %s must be a string or a table, got %T", key, name, value)
	}
}

func (v VarSource) String() string {
	switch {
	case v.hasValue:
		return fmt.Sprintf("value=%q", v.Value)
	case v.hasEnv:
		return fmt.Sprintf("env=%q", v.Env)
	case v.hasShell:
		return fmt.Sprintf("shell=%q", v.Shell)
	default:
		return "unset"
	}
}
