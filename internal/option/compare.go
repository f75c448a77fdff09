package option

import (
	"reflect"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"taskopt/pkg/opttypes"
)

// Equal reports whether two options are structurally identical.
// Value types compare by name; defaults and consts compare deeply.
func Equal(a, b *opttypes.Option) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.Flags, b.Flags) &&
		a.Action == b.Action &&
		slices.Equal(a.Choices, b.Choices) &&
		reflect.DeepEqual(a.Const, b.Const) &&
		reflect.DeepEqual(a.Default, b.Default) &&
		a.Dest == b.Dest &&
		a.Help == b.Help &&
		a.Metavar == b.Metavar &&
		a.Nargs == b.Nargs &&
		a.Required == b.Required &&
		typeName(a.Type) == typeName(b.Type)
}

func typeName(t *opttypes.ValueType) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// Diff renders a line diff between two options: unchanged lines are
// prefixed with two spaces, removed lines with "- " and added lines with "+ ".
func Diff(existing, incoming *opttypes.Option) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(existing.String()+"\n", incoming.String()+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}
