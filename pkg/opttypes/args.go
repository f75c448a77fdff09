package opttypes

import (
	"fmt"
	"time"
)

// Args holds the values bound to a task's declared parameters.
// Values keep the order in which the parameters were declared.
type Args struct {
	names  []string
	values map[string]any
}

// NewArgs creates an empty Args.
func NewArgs() *Args {
	return &Args{values: make(map[string]any)}
}

// Set binds value to name, appending name to the declaration order on first use.
func (a *Args) Set(name string, value any) {
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	a.values[name] = value
}

// Names returns the bound parameter names in declaration order.
func (a *Args) Names() []string {
	return append([]string(nil), a.names...)
}

// Len returns the number of bound parameters.
func (a *Args) Len() int {
	return len(a.names)
}

// Has reports whether name is bound.
func (a *Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Get returns the raw value bound to name, nil when absent.
func (a *Args) Get(name string) any {
	return a.values[name]
}

// String returns the string bound to name, or "" when unset.
func (a *Args) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Int returns the int bound to name, or 0 when unset.
func (a *Args) Int(name string) int {
	i, _ := a.values[name].(int)
	return i
}

// Float returns the float64 bound to name, or 0 when unset.
func (a *Args) Float(name string) float64 {
	f, _ := a.values[name].(float64)
	return f
}

// Bool returns the bool bound to name, or false when unset.
func (a *Args) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// Duration returns the duration bound to name, or 0 when unset.
func (a *Args) Duration(name string) time.Duration {
	d, _ := a.values[name].(time.Duration)
	return d
}

// Strings returns the string list bound to name.
func (a *Args) Strings(name string) []string {
	return listOf[string](a.values[name])
}

// Ints returns the int list bound to name.
func (a *Args) Ints(name string) []int {
	return listOf[int](a.values[name])
}

// Floats returns the float64 list bound to name.
func (a *Args) Floats(name string) []float64 {
	return listOf[float64](a.values[name])
}

// listOf converts a parsed list ([]any) or a declared default ([]T) to []T.
// Elements of another type are skipped.
func listOf[T any](v any) []T {
	switch list := v.(type) {
	case []T:
		return append([]T(nil), list...)
	case []any:
		result := make([]T, 0, len(list))
		for _, item := range list {
			if t, ok := item.(T); ok {
				result = append(result, t)
			}
		}
		return result
	}
	return nil
}

// GoString renders the bound values in declaration order, for logs.
func (a *Args) GoString() string {
	out := "Args{"
	for i, name := range a.names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s: %#v", name, a.values[name])
	}
	return out + "}"
}
