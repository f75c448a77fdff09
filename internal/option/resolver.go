// Package option turns declared task parameters into option descriptors.
// It infers what it can from each field's kind and default, keeps whatever
// explicit metadata the field carries, and rejects combinations that cannot
// be parsed.
package option

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"taskopt/pkg/opttypes"
)

// ResolveOptions tunes how fields are resolved.
type ResolveOptions struct {
	// ExplicitOnly rejects fields that carry no Option metadata.
	ExplicitOnly bool
	// Parametrized names fields whose values come from parametrization
	// instead of the command line. They get a binding without an option.
	Parametrized map[string]bool
}

// Resolve produces one binding per field, in declaration order.
func Resolve(fields []opttypes.Field, opts ResolveOptions) ([]opttypes.ParameterBinding, error) {
	seen := make(map[string]bool, len(fields))
	bindings := make([]opttypes.ParameterBinding, 0, len(fields))

	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, &opttypes.ConfigurationError{Reason: "parameter name cannot be empty"}
		}
		if seen[f.Name] {
			return nil, &opttypes.ConfigurationError{Field: f.Name, Reason: "declared more than once"}
		}
		seen[f.Name] = true

		if !f.Kind.Valid() {
			return nil, configErr(f, "unknown kind %s", f.Kind)
		}

		if opts.Parametrized[f.Name] {
			bindings = append(bindings, opttypes.ParameterBinding{Name: f.Name, Kind: f.Kind, List: f.List})
			continue
		}

		if opts.ExplicitOnly && f.Option == nil {
			return nil, configErr(f, "explicit options are required, declare it with an Option")
		}

		opt, err := ResolveField(f)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, opttypes.ParameterBinding{Name: f.Name, Kind: f.Kind, List: f.List, Option: opt})
	}

	return bindings, nil
}

// ResolveField builds the option for a single field.
// Explicit metadata is kept as given and only its unset parts are filled in.
func ResolveField(f opttypes.Field) (*opttypes.Option, error) {
	var opt *opttypes.Option
	if f.Option != nil {
		opt = f.Option.Clone()
	} else {
		opt = &opttypes.Option{}
	}

	if opt.Type == nil {
		opt.Type = opttypes.TypeForKind(f.Kind)
	}
	if err := opt.Nargs.Validate(); err != nil {
		return nil, configErr(f, "%v", err)
	}

	isFlag := opt.Action.IsFlag() ||
		(f.Kind == opttypes.KindBool && !f.List && opt.Type == opttypes.BoolType && opt.Nargs == opttypes.NargsNone)

	if isFlag {
		if err := resolveFlag(f, opt); err != nil {
			return nil, err
		}
	} else if err := resolveValue(f, opt); err != nil {
		return nil, err
	}

	if len(opt.Flags) == 0 {
		opt.Flags = []string{"--" + FlagName(f.Name)}
	}
	for _, flag := range opt.Flags {
		if !strings.HasPrefix(flag, "-") || strings.Trim(flag, "-") == "" {
			return nil, configErr(f, "options only support flags, but got %q", flag)
		}
		if !strings.HasPrefix(flag, "--") && len(flag) != 2 {
			return nil, configErr(f, "short flag %q must be a single character", flag)
		}
	}
	if opt.Dest == "" {
		opt.Dest = f.Name
	}

	return opt, nil
}

func resolveFlag(f opttypes.Field, opt *opttypes.Option) error {
	if f.Kind != opttypes.KindBool || f.List {
		return configErr(f, "flag actions require a single bool parameter, got %s", describeKind(f))
	}
	if opt.Nargs != opttypes.NargsNone {
		return configErr(f, "flag options take no values, but nargs is %q", string(opt.Nargs))
	}
	if len(opt.Choices) > 0 {
		return configErr(f, "flag options cannot declare choices")
	}

	if opt.Action == opttypes.ActionStore {
		opt.Action = opttypes.ActionStoreTrue
		if f.Default == true {
			opt.Action = opttypes.ActionStoreFalse
		}
	}

	implied := opt.Action == opttypes.ActionStoreFalse
	if f.Default != nil {
		b, ok := f.Default.(bool)
		if !ok {
			return configErr(f, "default %#v is not a bool", f.Default)
		}
		if b != implied {
			return configErr(f, "default %t contradicts action %s", b, opt.Action)
		}
	}

	opt.Default = implied
	opt.Required = false
	return nil
}

func resolveValue(f opttypes.Field, opt *opttypes.Option) error {
	if f.List {
		switch {
		case opt.Nargs == opttypes.NargsNone:
			opt.Nargs = opttypes.NargsAny
		case opt.Nargs == opttypes.NargsOptional:
			return configErr(f, "nargs \"?\" binds a single value but the parameter is declared as a list")
		}
	} else if opt.Nargs.IsSequence() {
		return configErr(f, "nargs %q binds a list but the parameter is declared as a single %s", string(opt.Nargs), f.Kind)
	}

	// custom coercions may produce any type, so only built-in types are checked
	checked := opt.Type == opttypes.TypeForKind(f.Kind)

	switch {
	case f.Default != nil:
		def, err := normalizeDefault(f, f.Default, checked)
		if err != nil {
			return err
		}
		opt.Default = def
		opt.Required = false
	case opt.Default != nil:
		def, err := normalizeDefault(f, opt.Default, checked)
		if err != nil {
			return err
		}
		opt.Default = def
	default:
		opt.Required = true
	}

	if opt.Const != nil && opt.Nargs != opttypes.NargsOptional {
		return configErr(f, "const is only meaningful with nargs \"?\"")
	}
	return nil
}

// normalizeDefault checks that a default matches the declared kind, widening
// ints to float64 for float parameters.
func normalizeDefault(f opttypes.Field, def any, checked bool) (any, error) {
	if !checked {
		return def, nil
	}
	if !f.List {
		v, ok := scalarOf(f.Kind, def)
		if !ok {
			return nil, configErr(f, "default %#v does not match declared %s", def, describeKind(f))
		}
		return v, nil
	}

	rv := reflect.ValueOf(def)
	if rv.Kind() != reflect.Slice {
		return nil, configErr(f, "default %#v does not match declared %s", def, describeKind(f))
	}
	items := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, ok := scalarOf(f.Kind, rv.Index(i).Interface())
		if !ok {
			return nil, configErr(f, "default %#v does not match declared %s", def, describeKind(f))
		}
		items = append(items, v)
	}
	return items, nil
}

func scalarOf(kind opttypes.Kind, v any) (any, bool) {
	switch kind {
	case opttypes.KindString:
		s, ok := v.(string)
		return s, ok
	case opttypes.KindInt:
		i, ok := v.(int)
		return i, ok
	case opttypes.KindFloat:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		}
		return nil, false
	case opttypes.KindBool:
		b, ok := v.(bool)
		return b, ok
	case opttypes.KindDuration:
		d, ok := v.(time.Duration)
		return d, ok
	}
	return nil, false
}

func describeKind(f opttypes.Field) string {
	if f.List {
		return "list of " + f.Kind.String()
	}
	return f.Kind.String()
}

func configErr(f opttypes.Field, format string, args ...any) error {
	return &opttypes.ConfigurationError{Field: f.Name, Reason: fmt.Sprintf(format, args...)}
}
