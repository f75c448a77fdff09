package parser

import (
	"fmt"
	"slices"
	"strings"

	"taskopt/pkg/opttypes"
)

// occurrenceMarker starts a new occurrence of a multi-value option.
// NUL can never appear inside a process argument, so it cannot clash with a real value.
const occurrenceMarker = "\x00"

// optionValue is the pflag.Value backing one option for the length of one parse.
type optionValue interface {
	String() string
	Set(raw string) error
	Type() string
	value() any
}

func newOptionValue(opt *opttypes.Option) optionValue {
	switch {
	case opt.Action.IsFlag():
		return &flagValue{opt: opt, v: opt.Default == true}
	case opt.Nargs == opttypes.NargsNone:
		return &scalarValue{opt: opt, v: opt.Default}
	default:
		return &multiValue{opt: opt, v: opt.Default}
	}
}

// coerce validates choices against the raw token and applies the option's type.
func coerce(opt *opttypes.Option, raw string) (any, error) {
	if len(opt.Choices) > 0 && !slices.Contains(opt.Choices, raw) {
		return nil, fmt.Errorf("invalid choice: %q (choose from %s)", raw, strings.Join(opt.Choices, ", "))
	}
	parse := opttypes.StringType.Parse
	if opt.Type != nil && opt.Type.Parse != nil {
		parse = opt.Type.Parse
	}
	return parse(raw)
}

func typeLabel(opt *opttypes.Option) string {
	if opt.Metavar != "" {
		return opt.Metavar
	}
	if opt.Type != nil {
		return opt.Type.Name
	}
	return "string"
}

// flagValue backs store_true and store_false options.
type flagValue struct {
	opt *opttypes.Option
	v   bool
}

func (f *flagValue) Set(raw string) error {
	parsed, err := opttypes.BoolType.Parse(raw)
	if err != nil {
		return err
	}
	f.v = parsed.(bool)
	return nil
}

func (f *flagValue) String() string { return fmt.Sprintf("%t", f.v) }
func (f *flagValue) Type() string   { return "bool" }
func (f *flagValue) value() any     { return f.v }

// scalarValue backs single-value options. The last occurrence wins.
type scalarValue struct {
	opt *opttypes.Option
	v   any
}

func (s *scalarValue) Set(raw string) error {
	parsed, err := coerce(s.opt, raw)
	if err != nil {
		return err
	}
	s.v = parsed
	return nil
}

func (s *scalarValue) String() string {
	if s.v == nil {
		return ""
	}
	return fmt.Sprintf("%v", s.v)
}

func (s *scalarValue) Type() string { return typeLabel(s.opt) }
func (s *scalarValue) value() any   { return s.v }

// multiValue backs nargs "*", "+", N and "?" options.
// Every occurrence starts with the marker, which resets the collected values;
// a bare nargs "?" occurrence binds Const.
type multiValue struct {
	opt *opttypes.Option
	v   any
}

func (m *multiValue) Set(raw string) error {
	optional := m.opt.Nargs == opttypes.NargsOptional
	if raw == occurrenceMarker {
		if optional {
			m.v = m.opt.Const
		} else {
			m.v = []any{}
		}
		return nil
	}

	parsed, err := coerce(m.opt, raw)
	if err != nil {
		return err
	}
	if optional {
		m.v = parsed
		return nil
	}
	list, _ := m.v.([]any)
	m.v = append(list, parsed)
	return nil
}

func (m *multiValue) String() string {
	switch v := m.v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (m *multiValue) Type() string {
	label := typeLabel(m.opt)
	switch m.opt.Nargs {
	case opttypes.NargsOptional:
		return "[" + label + "]"
	case opttypes.NargsAny:
		return "[" + label + " ...]"
	case opttypes.NargsSome:
		return label + " [" + label + " ...]"
	}
	if n, ok := m.opt.Nargs.Count(); ok {
		return strings.TrimSpace(strings.Repeat(label+" ", n))
	}
	return label
}

func (m *multiValue) value() any { return m.v }
