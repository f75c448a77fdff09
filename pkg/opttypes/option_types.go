// Package opttypes defines the shared types for taskopt.
// This file contains option descriptors, declared fields and parameter bindings,
// the building blocks used to turn a task's declared parameters into command-line options.
package opttypes

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared value type of a task parameter.
type Kind int

const (
	// KindString declares a string parameter
	KindString Kind = iota
	// KindInt declares an integer parameter
	KindInt
	// KindFloat declares a floating-point parameter
	KindFloat
	// KindBool declares a boolean parameter, which becomes a zero-argument flag
	KindBool
	// KindDuration declares a time.Duration parameter
	KindDuration
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDuration:
		return "duration"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindString && k <= KindDuration
}

// Nargs is the arity of an option.
// The empty value means a single value; the other forms follow the usual
// "*", "+", "?" conventions or hold a positive count.
type Nargs string

const (
	// NargsNone takes exactly one value and binds a scalar
	NargsNone Nargs = ""
	// NargsAny takes zero or more values
	NargsAny Nargs = "*"
	// NargsSome takes one or more values
	NargsSome Nargs = "+"
	// NargsOptional takes zero or one value, falling back to Const when bare
	NargsOptional Nargs = "?"
)

// NargsExactly returns an arity consuming exactly n values.
func NargsExactly(n int) Nargs {
	return Nargs(strconv.Itoa(n))
}

// Count returns the fixed count held by n, or false when n is not a count.
func (n Nargs) Count() (int, bool) {
	c, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, false
	}
	return c, true
}

// IsSequence reports whether n binds a list of values.
func (n Nargs) IsSequence() bool {
	if n == NargsAny || n == NargsSome {
		return true
	}
	_, ok := n.Count()
	return ok
}

// Validate checks that n is one of the recognised forms.
func (n Nargs) Validate() error {
	switch n {
	case NargsNone, NargsAny, NargsSome, NargsOptional:
		return nil
	}
	c, ok := n.Count()
	if !ok || c < 1 {
		return fmt.Errorf("invalid nargs %q", string(n))
	}
	return nil
}

// Action describes what happens when a flag is seen.
type Action string

const (
	// ActionStore stores the coerced value(s) following the flag
	ActionStore Action = ""
	// ActionStoreTrue stores true when the bare flag is present
	ActionStoreTrue Action = "store_true"
	// ActionStoreFalse stores false when the bare flag is present
	ActionStoreFalse Action = "store_false"
)

// IsFlag reports whether the action takes no value.
func (a Action) IsFlag() bool {
	return a == ActionStoreTrue || a == ActionStoreFalse
}

// ValueType is a named coercion from a raw token to a typed value.
// Two value types are considered equal when their names are equal.
type ValueType struct {
	Name  string
	Parse func(raw string) (any, error)
}

// NewValueType creates a custom value type. The name identifies the type in
// consistency checks, so distinct coercions must use distinct names.
func NewValueType(name string, parse func(raw string) (any, error)) *ValueType {
	return &ValueType{Name: name, Parse: parse}
}

// Built-in value types, one per Kind.
var (
	StringType = &ValueType{Name: "string", Parse: func(raw string) (any, error) {
		return raw, nil
	}}
	IntType = &ValueType{Name: "int", Parse: func(raw string) (any, error) {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid int value: %q", raw)
		}
		return v, nil
	}}
	FloatType = &ValueType{Name: "float", Parse: func(raw string) (any, error) {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value: %q", raw)
		}
		return v, nil
	}}
	BoolType = &ValueType{Name: "bool", Parse: func(raw string) (any, error) {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("invalid bool value: %q (use true/false, 1/0, yes/no, on/off)", raw)
	}}
	DurationType = &ValueType{Name: "duration", Parse: func(raw string) (any, error) {
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration value: %q", raw)
		}
		return v, nil
	}}
)

// TypeForKind returns the built-in value type for k.
func TypeForKind(k Kind) *ValueType {
	switch k {
	case KindInt:
		return IntType
	case KindFloat:
		return FloatType
	case KindBool:
		return BoolType
	case KindDuration:
		return DurationType
	default:
		return StringType
	}
}

// Option describes the parsing configuration of one command-line option.
// Zero-valued fields are "unset" and get filled in from the declared field
// when the option is resolved.
type Option struct {
	Flags    []string   // e.g. "--number", "-n"; defaults to the normalized field name
	Action   Action     // store, store_true or store_false
	Choices  []string   // allowed raw tokens
	Const    any        // value bound by a bare nargs="?" flag
	Default  any        // value bound when the option is absent
	Dest     string     // binding key; defaults to the field name
	Help     string     // usage text
	Metavar  string     // placeholder shown in usage
	Nargs    Nargs      // arity
	Required bool       // whether the option must be given
	Type     *ValueType // coercion applied to every raw value
}

// Name returns the canonical flag of the option without its dashes.
// The first long flag wins; a lone short flag is used otherwise.
func (o *Option) Name() string {
	for _, f := range o.Flags {
		if strings.HasPrefix(f, "--") {
			return strings.TrimPrefix(f, "--")
		}
	}
	if len(o.Flags) > 0 {
		return strings.TrimLeft(o.Flags[0], "-")
	}
	return ""
}

// Clone returns a copy of o that shares no slices with it.
func (o *Option) Clone() *Option {
	c := *o
	c.Flags = append([]string(nil), o.Flags...)
	c.Choices = append([]string(nil), o.Choices...)
	if len(o.Choices) == 0 {
		c.Choices = nil
	}
	return &c
}

// String renders every field of the option on its own line, in a stable order.
// It is used to show how two conflicting options differ.
func (o *Option) String() string {
	typeName := "<unset>"
	if o.Type != nil {
		typeName = o.Type.Name
	}
	action := string(o.Action)
	if action == "" {
		action = "store"
	}
	lines := []string{
		fmt.Sprintf("flags: %s", strings.Join(o.Flags, ", ")),
		fmt.Sprintf("action: %s", action),
		fmt.Sprintf("choices: %v", o.Choices),
		fmt.Sprintf("const: %#v", o.Const),
		fmt.Sprintf("default: %#v", o.Default),
		fmt.Sprintf("dest: %s", o.Dest),
		fmt.Sprintf("help: %q", o.Help),
		fmt.Sprintf("metavar: %s", o.Metavar),
		fmt.Sprintf("nargs: %q", string(o.Nargs)),
		fmt.Sprintf("required: %t", o.Required),
		fmt.Sprintf("type: %s", typeName),
	}
	return strings.Join(lines, "\n")
}

// Field declares one task parameter.
// It is what a typed, annotated function parameter would carry: a name, a
// declared type, an optional default and optional explicit option metadata.
type Field struct {
	Name    string  // formal parameter name, e.g. "some_option" or "someOption"
	Kind    Kind    // declared element type
	List    bool    // declared as a sequence of Kind
	Default any     // function-level default; nil means none
	Option  *Option // explicit option metadata, nil to infer everything
}

// ParameterBinding pairs a parameter name with its resolved option.
// Bindings are computed once at registration and never modified.
type ParameterBinding struct {
	Name   string
	Kind   Kind
	List   bool
	Option *Option
}
