package taskopt

import (
	"taskopt/internal/tagging"
	"taskopt/pkg/opttypes"
)

// Types re-exported so a task file only needs to import this package.
type (
	Field     = opttypes.Field
	Option    = opttypes.Option
	Args      = opttypes.Args
	Session   = opttypes.Session
	TaskFunc  = opttypes.TaskFunc
	SetupFunc = opttypes.SetupFunc
	Kind      = opttypes.Kind
	Nargs     = opttypes.Nargs
	ValueType = opttypes.ValueType
	TagMode   = tagging.Mode
)

// Declared kinds.
const (
	KindString   = opttypes.KindString
	KindInt      = opttypes.KindInt
	KindFloat    = opttypes.KindFloat
	KindBool     = opttypes.KindBool
	KindDuration = opttypes.KindDuration
)

// Arities.
const (
	NargsAny      = opttypes.NargsAny
	NargsSome     = opttypes.NargsSome
	NargsOptional = opttypes.NargsOptional
)

// Flag actions.
const (
	StoreTrue  = opttypes.ActionStoreTrue
	StoreFalse = opttypes.ActionStoreFalse
)

// Tag modes.
const (
	TagOff         = tagging.Off
	TagSiblings    = tagging.Siblings
	TagAllPrefixes = tagging.AllPrefixes
)

// NargsExactly returns an arity consuming exactly n values.
func NargsExactly(n int) Nargs {
	return opttypes.NargsExactly(n)
}

// NewValueType creates a named custom coercion.
func NewValueType(name string, parse func(raw string) (any, error)) *ValueType {
	return opttypes.NewValueType(name, parse)
}
