package option

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskopt/pkg/opttypes"
)

func TestResolveField_Inference(t *testing.T) {
	tests := []struct {
		name     string
		field    opttypes.Field
		flags    []string
		action   opttypes.Action
		nargs    opttypes.Nargs
		def      any
		required bool
		typeName string
	}{
		{
			name:     "scalar int without default is required",
			field:    opttypes.Field{Name: "count", Kind: opttypes.KindInt},
			flags:    []string{"--count"},
			required: true,
			typeName: "int",
		},
		{
			name:     "scalar string with default is optional",
			field:    opttypes.Field{Name: "some_option", Kind: opttypes.KindString, Default: "x"},
			flags:    []string{"--some-option"},
			def:      "x",
			typeName: "string",
		},
		{
			name:     "list of ints gets nargs star",
			field:    opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true},
			flags:    []string{"--nums"},
			nargs:    opttypes.NargsAny,
			required: true,
			typeName: "int",
		},
		{
			name:     "list default is normalized",
			field:    opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true, Default: []int{1, 2}},
			flags:    []string{"--nums"},
			nargs:    opttypes.NargsAny,
			def:      []any{1, 2},
			typeName: "int",
		},
		{
			name:     "bool becomes store_true flag",
			field:    opttypes.Field{Name: "verbose", Kind: opttypes.KindBool},
			flags:    []string{"--verbose"},
			action:   opttypes.ActionStoreTrue,
			def:      false,
			typeName: "bool",
		},
		{
			name:     "bool defaulting to true becomes store_false flag",
			field:    opttypes.Field{Name: "color", Kind: opttypes.KindBool, Default: true},
			flags:    []string{"--color"},
			action:   opttypes.ActionStoreFalse,
			def:      true,
			typeName: "bool",
		},
		{
			name:     "float default widened from int",
			field:    opttypes.Field{Name: "ratio", Kind: opttypes.KindFloat, Default: 2},
			flags:    []string{"--ratio"},
			def:      2.0,
			typeName: "float",
		},
		{
			name:     "camel case name",
			field:    opttypes.Field{Name: "dryRun", Kind: opttypes.KindDuration, Default: time.Second},
			flags:    []string{"--dry-run"},
			def:      time.Second,
			typeName: "duration",
		},
		{
			name: "explicit flags kept",
			field: opttypes.Field{Name: "number", Kind: opttypes.KindInt, Default: 3, Option: &opttypes.Option{
				Flags: []string{"--num", "-n"},
			}},
			flags:    []string{"--num", "-n"},
			def:      3,
			typeName: "int",
		},
		{
			name: "metadata default kept when field has none",
			field: opttypes.Field{Name: "level", Kind: opttypes.KindString, Option: &opttypes.Option{
				Default: "info",
			}},
			flags:    []string{"--level"},
			def:      "info",
			typeName: "string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := ResolveField(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.flags, opt.Flags)
			assert.Equal(t, tt.action, opt.Action)
			assert.Equal(t, tt.nargs, opt.Nargs)
			assert.Equal(t, tt.def, opt.Default)
			assert.Equal(t, tt.required, opt.Required)
			assert.Equal(t, tt.field.Name, opt.Dest)
			assert.Equal(t, tt.typeName, opt.Type.Name)
		})
	}
}

func TestResolveField_DoesNotMutateMetadata(t *testing.T) {
	meta := &opttypes.Option{Help: "h"}
	_, err := ResolveField(opttypes.Field{Name: "x", Kind: opttypes.KindString, Option: meta})
	require.NoError(t, err)

	assert.Empty(t, meta.Flags)
	assert.Empty(t, meta.Dest)
	assert.Nil(t, meta.Type)
}

func TestResolveField_CustomTypeSkipsDefaultCheck(t *testing.T) {
	double := opttypes.NewValueType("double", func(raw string) (any, error) {
		return raw + raw, nil
	})
	opt, err := ResolveField(opttypes.Field{Name: "word", Kind: opttypes.KindInt, Default: "aa", Option: &opttypes.Option{Type: double}})
	require.NoError(t, err)
	assert.Equal(t, "aa", opt.Default)
	assert.Equal(t, "double", opt.Type.Name)
}

func TestResolveField_Errors(t *testing.T) {
	tests := []struct {
		name    string
		field   opttypes.Field
		wantMsg string
	}{
		{
			name:    "positional flag",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindString, Option: &opttypes.Option{Flags: []string{"x"}}},
			wantMsg: "options only support flags",
		},
		{
			name:    "long short flag",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindString, Option: &opttypes.Option{Flags: []string{"-xy"}}},
			wantMsg: "must be a single character",
		},
		{
			name:    "nargs list on scalar",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, Option: &opttypes.Option{Nargs: opttypes.NargsSome}},
			wantMsg: "binds a list",
		},
		{
			name:    "optional nargs on list",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, List: true, Option: &opttypes.Option{Nargs: opttypes.NargsOptional}},
			wantMsg: "binds a single value",
		},
		{
			name:    "invalid nargs",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, List: true, Option: &opttypes.Option{Nargs: "0"}},
			wantMsg: "invalid nargs",
		},
		{
			name:    "store_true on int",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, Option: &opttypes.Option{Action: opttypes.ActionStoreTrue}},
			wantMsg: "flag actions require a single bool",
		},
		{
			name:    "flag with contradicting default",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindBool, Default: true, Option: &opttypes.Option{Action: opttypes.ActionStoreTrue}},
			wantMsg: "contradicts",
		},
		{
			name:    "flag with choices",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindBool, Option: &opttypes.Option{Choices: []string{"a"}}},
			wantMsg: "cannot declare choices",
		},
		{
			name:    "default of wrong type",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, Default: "three"},
			wantMsg: "does not match declared int",
		},
		{
			name:    "list default with wrong element",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, List: true, Default: []any{1, "two"}},
			wantMsg: "does not match declared list of int",
		},
		{
			name:    "const without optional nargs",
			field:   opttypes.Field{Name: "x", Kind: opttypes.KindInt, Option: &opttypes.Option{Const: 1}},
			wantMsg: "const is only meaningful",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveField(tt.field)
			require.Error(t, err)
			assert.True(t, errors.Is(err, opttypes.ErrConfiguration))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolve(t *testing.T) {
	fields := []opttypes.Field{
		{Name: "num", Kind: opttypes.KindInt},
		{Name: "mult", Kind: opttypes.KindInt, Default: 1},
	}

	bindings, err := Resolve(fields, ResolveOptions{Parametrized: map[string]bool{"num": true}})
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "num", bindings[0].Name)
	assert.Nil(t, bindings[0].Option)
	assert.Equal(t, "mult", bindings[1].Name)
	require.NotNil(t, bindings[1].Option)
	assert.Equal(t, []string{"--mult"}, bindings[1].Option.Flags)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fields  []opttypes.Field
		opts    ResolveOptions
		wantMsg string
	}{
		{
			name:    "empty name",
			fields:  []opttypes.Field{{Name: " ", Kind: opttypes.KindString}},
			wantMsg: "parameter name cannot be empty",
		},
		{
			name:    "duplicate name",
			fields:  []opttypes.Field{{Name: "a", Kind: opttypes.KindString}, {Name: "a", Kind: opttypes.KindInt}},
			wantMsg: "declared more than once",
		},
		{
			name:    "unknown kind",
			fields:  []opttypes.Field{{Name: "a", Kind: opttypes.Kind(99)}},
			wantMsg: "unknown kind",
		},
		{
			name:    "explicit options required",
			fields:  []opttypes.Field{{Name: "a", Kind: opttypes.KindString}},
			opts:    ResolveOptions{ExplicitOnly: true},
			wantMsg: "explicit options are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.fields, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, opttypes.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolve_ExplicitOnlyAcceptsParametrized(t *testing.T) {
	fields := []opttypes.Field{{Name: "num", Kind: opttypes.KindInt}}
	bindings, err := Resolve(fields, ResolveOptions{ExplicitOnly: true, Parametrized: map[string]bool{"num": true}})
	require.NoError(t, err)
	assert.Len(t, bindings, 1)
}
