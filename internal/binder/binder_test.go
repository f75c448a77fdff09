package binder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskopt/internal/option"
	"taskopt/internal/parser"
	"taskopt/internal/testutils"
	"taskopt/pkg/opttypes"
)

func bindings(t *testing.T, params map[string]bool, fields ...opttypes.Field) []opttypes.ParameterBinding {
	t.Helper()
	b, err := option.Resolve(fields, option.ResolveOptions{Parametrized: params})
	require.NoError(t, err)
	return b
}

func specFor(t *testing.T, groups ...[]opttypes.ParameterBinding) *parser.Spec {
	t.Helper()
	var options []*opttypes.Option
	for _, g := range groups {
		for _, b := range g {
			if b.Option != nil {
				options = append(options, b.Option)
			}
		}
	}
	spec, err := parser.New("test", options, true)
	require.NoError(t, err)
	return spec
}

func TestApplicable(t *testing.T) {
	setups := []Setup{
		{Prefix: "check"},
		{Prefix: ""},
		{Prefix: "check-python"},
		{Prefix: "fix"},
	}

	tests := []struct {
		name     string
		task     string
		expected []string
	}{
		{"most specific prefix after global", "check-python-tests", []string{"", "check-python"}},
		{"shorter prefix", "check-go", []string{"", "check"}},
		{"global only", "build", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prefixes []string
			for _, s := range Applicable(tt.task, setups) {
				prefixes = append(prefixes, s.Prefix)
			}
			assert.Equal(t, tt.expected, prefixes)
		})
	}

	assert.Empty(t, Applicable("check", []Setup{{Prefix: "fix"}}))
}

func TestInvoke_BindsOwnValuesInOrder(t *testing.T) {
	own := bindings(t, nil,
		opttypes.Field{Name: "b", Kind: opttypes.KindInt, Default: 1},
		opttypes.Field{Name: "a", Kind: opttypes.KindString, Default: "x"},
	)
	sibling := bindings(t, nil, opttypes.Field{Name: "other", Kind: opttypes.KindString, Default: "o"})
	spec := specFor(t, own, sibling)

	var got *opttypes.Args
	target := Target{Name: "task", Bindings: own, Func: func(_ opttypes.Session, args *opttypes.Args) error {
		got = args
		return nil
	}}

	err := Invoke(spec, target, nil, testutils.NewMockSession("task"), []string{"--a", "y", "--other", "z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got.Names())
	assert.Equal(t, 1, got.Int("b"))
	assert.Equal(t, "y", got.String("a"))
	assert.False(t, got.Has("other"))
}

func TestInvoke_ParametrizedValues(t *testing.T) {
	own := bindings(t, map[string]bool{"num": true},
		opttypes.Field{Name: "num", Kind: opttypes.KindInt},
		opttypes.Field{Name: "mult", Kind: opttypes.KindInt, Default: 1},
	)
	spec := specFor(t, own)

	var product int
	target := Target{Name: "log-nums", Bindings: own, Params: map[string]any{"num": 3}, Func: func(_ opttypes.Session, args *opttypes.Args) error {
		product = args.Int("num") * args.Int("mult")
		return nil
	}}

	require.NoError(t, Invoke(spec, target, nil, testutils.NewMockSession("log-nums"), []string{"--mult", "4"}))
	assert.Equal(t, 12, product)

	err := Invoke(spec, target, nil, testutils.NewMockSession("log-nums"), []string{"--num", "4"})
	assert.ErrorIs(t, err, opttypes.ErrParse)
}

func TestInvoke_SetupOrderAndErrors(t *testing.T) {
	own := bindings(t, nil)
	spec := specFor(t, own)

	var calls []string
	record := func(name string, err error) opttypes.SetupFunc {
		return func(_ opttypes.Session, _ *opttypes.Args) error {
			calls = append(calls, name)
			return err
		}
	}
	target := Target{Name: "check-tests", Func: func(_ opttypes.Session, _ *opttypes.Args) error {
		calls = append(calls, "task")
		return nil
	}}

	setups := []Setup{
		{Prefix: "check", Func: record("check", nil)},
		{Prefix: "", Func: record("global", nil)},
	}
	require.NoError(t, Invoke(spec, target, setups, testutils.NewMockSession("check-tests"), nil))
	assert.Equal(t, []string{"global", "check", "task"}, calls)

	calls = nil
	boom := errors.New("boom")
	setups[0].Func = record("check", boom)
	err := Invoke(spec, target, setups, testutils.NewMockSession("check-tests"), nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `setup for "check" failed`)
	assert.Equal(t, []string{"global", "check"}, calls)
}

func TestInvoke_RequiredChecksOnlyOwnOptions(t *testing.T) {
	own := bindings(t, nil, opttypes.Field{Name: "name", Kind: opttypes.KindString})
	sibling := bindings(t, nil, opttypes.Field{Name: "target", Kind: opttypes.KindString})
	spec := specFor(t, own, sibling)

	called := false
	target := Target{Name: "greet", Bindings: own, Func: func(_ opttypes.Session, _ *opttypes.Args) error {
		called = true
		return nil
	}}

	err := Invoke(spec, target, nil, testutils.NewMockSession("greet"), nil)
	require.ErrorIs(t, err, opttypes.ErrParse)
	assert.Contains(t, err.Error(), "--name")
	assert.NotContains(t, err.Error(), "--target")
	assert.False(t, called)

	require.NoError(t, Invoke(spec, target, nil, testutils.NewMockSession("greet"), []string{"--name", "x"}))
	assert.True(t, called)
}

func TestInvoke_ParseErrorRunsNothing(t *testing.T) {
	spec := specFor(t)
	ran := false
	target := Target{Name: "t", Func: func(_ opttypes.Session, _ *opttypes.Args) error {
		ran = true
		return nil
	}}
	setups := []Setup{{Func: func(_ opttypes.Session, _ *opttypes.Args) error {
		ran = true
		return nil
	}}}

	err := Invoke(spec, target, setups, testutils.NewMockSession("t"), []string{"--unknown"})
	require.ErrorIs(t, err, opttypes.ErrParse)
	assert.False(t, ran)
}
