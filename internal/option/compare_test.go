package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskopt/pkg/opttypes"
)

func mustResolve(t *testing.T, f opttypes.Field) *opttypes.Option {
	t.Helper()
	opt, err := ResolveField(f)
	require.NoError(t, err)
	return opt
}

func TestEqual(t *testing.T) {
	base := opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true, Default: []int{1}}

	tests := []struct {
		name     string
		other    opttypes.Field
		expected bool
	}{
		{"identical declaration", base, true},
		{"same default spelled as []any", opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true, Default: []any{1}}, true},
		{"different default", opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true, Default: []int{2}}, false},
		{"different kind", opttypes.Field{Name: "nums", Kind: opttypes.KindFloat, List: true, Default: []float64{1}}, false},
		{"scalar instead of list", opttypes.Field{Name: "nums", Kind: opttypes.KindInt, Default: 1}, false},
		{"different help", opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true, Default: []int{1}, Option: &opttypes.Option{Help: "h"}}, false},
	}

	a := mustResolve(t, base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustResolve(t, tt.other)
			assert.Equal(t, tt.expected, Equal(a, b))
			assert.Equal(t, tt.expected, Equal(b, a))
		})
	}
}

func TestEqual_CustomTypesCompareByName(t *testing.T) {
	parse := func(raw string) (any, error) { return raw, nil }
	a := &opttypes.Option{Flags: []string{"--x"}, Dest: "x", Type: opttypes.NewValueType("upper", parse)}
	b := &opttypes.Option{Flags: []string{"--x"}, Dest: "x", Type: opttypes.NewValueType("upper", parse)}
	c := &opttypes.Option{Flags: []string{"--x"}, Dest: "x", Type: opttypes.NewValueType("lower", parse)}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
}

func TestDiff(t *testing.T) {
	a := mustResolve(t, opttypes.Field{Name: "nums", Kind: opttypes.KindInt, List: true})
	b := mustResolve(t, opttypes.Field{Name: "nums", Kind: opttypes.KindFloat, List: true})

	diff := Diff(a, b)
	assert.Contains(t, diff, "- type: int")
	assert.Contains(t, diff, "+ type: float")
	assert.Contains(t, diff, "  flags: --nums")
	assert.NotContains(t, diff, "- flags")
}
