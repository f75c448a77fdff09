package taskopt

import (
	"fmt"
	"maps"
	"strings"

	"taskopt/internal/binder"
	"taskopt/pkg/opttypes"
)

// Task is a registered task: its function, resolved parameter bindings and
// runner configuration. Tasks are owned by their Group and never change.
type Task struct {
	Name     string
	Func     TaskFunc
	Bindings []opttypes.ParameterBinding
	Tags     []string // explicit tags
	OptOut   bool     // no tags at all, explicit or derived
	Where    map[string]any
	Params   []Parametrization
}

// SetupBinding is a setup function scoped to a task name prefix.
// An empty prefix matches every task.
type SetupBinding struct {
	Prefix   string
	Func     SetupFunc
	Bindings []opttypes.ParameterBinding
}

// Parametrization runs a task once per value of one of its fields.
type Parametrization struct {
	Field  string
	Values []any
}

type taskConfig struct {
	tags   []string
	optOut bool
	where  map[string]any
	params []Parametrization
}

// TaskOption configures a task at registration.
type TaskOption func(*taskConfig)

// WithTags adds explicit tags to the task. Derived tags are added to them.
func WithTags(tags ...string) TaskOption {
	return func(c *taskConfig) {
		c.tags = append(c.tags, tags...)
		c.optOut = false
	}
}

// WithoutTags opts the task out of every tag, explicit or derived.
// The task still counts as a sibling when deriving tags of other tasks.
func WithoutTags() TaskOption {
	return func(c *taskConfig) {
		c.tags = nil
		c.optOut = true
	}
}

// WithTaskWhere sets runner keyword configuration for this task, overriding
// the group's values key by key.
func WithTaskWhere(where map[string]any) TaskOption {
	return func(c *taskConfig) {
		for k, v := range where {
			c.where[k] = v
		}
	}
}

// Parametrize exports the task once per value, binding field to the value
// instead of reading it from the command line. Several parametrizations
// multiply.
func Parametrize(field string, values ...any) TaskOption {
	return func(c *taskConfig) {
		c.params = append(c.params, Parametrization{Field: field, Values: values})
	}
}

// Export is one schedulable session as seen by a runner.
type Export struct {
	Name   string // session name, "task(field=value)" when parametrized
	Task   string // name of the registered task
	Tags   []string
	Where  map[string]any
	Params map[string]any
	// Run parses args against the group grammar and dispatches to the task.
	Run func(s Session, args []string) error
}

// Export returns one entry per task and parametrization, in registration
// order. The grammar and setups are captured at the time of the call.
func (g *Group) Export() ([]Export, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	spec, err := g.buildParser()
	if err != nil {
		return nil, err
	}
	setups := g.binderSetups()
	tags := g.derivedTags()

	var exports []Export
	for _, t := range g.tasks {
		where := maps.Clone(g.where)
		maps.Copy(where, t.Where)

		for _, params := range expand(t.Params) {
			target := binder.Target{Name: t.Name, Func: t.Func, Bindings: t.Bindings, Params: params}
			exports = append(exports, Export{
				Name:   sessionName(t.Name, t.Params, params),
				Task:   t.Name,
				Tags:   append([]string(nil), tags[t.Name]...),
				Where:  maps.Clone(where),
				Params: params,
				Run: func(s Session, args []string) error {
					return binder.Invoke(spec, target, setups, s, args)
				},
			})
		}
	}
	return exports, nil
}

// Invoke runs the named task directly with raw arguments. Parametrized tasks
// get no parametrized values this way.
func (g *Group) Invoke(name string, s Session, args []string) error {
	g.mu.RLock()
	t, ok := g.byName[name]
	if !ok {
		g.mu.RUnlock()
		return fmt.Errorf("unknown task: %s", name)
	}
	spec, err := g.buildParser()
	setups := g.binderSetups()
	g.mu.RUnlock()
	if err != nil {
		return err
	}
	return binder.Invoke(spec, binder.Target{Name: t.Name, Func: t.Func, Bindings: t.Bindings}, setups, s, args)
}

// expand returns the cartesian product of parametrizations, in declaration
// order. A task without parametrizations yields a single nil entry.
func expand(params []Parametrization) []map[string]any {
	combos := []map[string]any{nil}
	for _, p := range params {
		next := make([]map[string]any, 0, len(combos)*len(p.Values))
		for _, combo := range combos {
			for _, v := range p.Values {
				m := maps.Clone(combo)
				if m == nil {
					m = make(map[string]any)
				}
				m[p.Field] = v
				next = append(next, m)
			}
		}
		combos = next
	}
	return combos
}

func sessionName(name string, params []Parametrization, values map[string]any) string {
	if len(params) == 0 {
		return name
	}
	parts := make([]string, len(params))
	for i, p := range params {
		v := values[p.Field]
		if s, ok := v.(string); ok {
			parts[i] = fmt.Sprintf("%s=%q", p.Field, s)
		} else {
			parts[i] = fmt.Sprintf("%s=%v", p.Field, v)
		}
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
