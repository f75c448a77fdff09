// Package taskopt adds typed command-line options to runner sessions.
//
// A Group collects tasks, each declaring its parameters as Fields. Every
// parameter becomes an option of one grammar shared by the whole group, so
// tasks that declare the same flag must declare it identically. At run time
// the runner hands each exported session its trailing arguments; they are
// parsed against the group grammar and the task receives only its own values.
//
//	group := taskopt.New(taskopt.WithAutoTag(taskopt.TagSiblings))
//	group.MustAddTask("check_tests", func(s taskopt.Session, args *taskopt.Args) error {
//		s.Log("running tests", "verbose", args.Bool("verbose"))
//		return nil
//	}, []taskopt.Field{{Name: "verbose", Kind: taskopt.KindBool}})
package taskopt

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"taskopt/internal/binder"
	"taskopt/internal/logger"
	"taskopt/internal/option"
	"taskopt/internal/parser"
	"taskopt/internal/tagging"
	"taskopt/pkg/opttypes"
)

// Group owns a set of tasks and setups sharing one option grammar.
type Group struct {
	mu sync.RWMutex

	name     string
	prefix   string
	where    map[string]any
	tagMode  tagging.Mode
	tagDepth int
	strict   bool
	explicit bool

	tasks  []*Task
	byName map[string]*Task

	// ledger holds every option of the group in first-registration order
	ledger []*ledgerEntry
	byFlag map[string]*ledgerEntry

	setups   []*SetupBinding
	byPrefix map[string]*SetupBinding
}

type ledgerEntry struct {
	option *opttypes.Option
	owner  string
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithName sets the program name shown in usage messages.
func WithName(name string) GroupOption {
	return func(g *Group) { g.name = name }
}

// WithPrefix prepends prefix and a dash to every task name of the group.
func WithPrefix(prefix string) GroupOption {
	return func(g *Group) { g.prefix = option.TaskName(prefix) }
}

// WithWhere sets runner keyword configuration shared by every task.
func WithWhere(where map[string]any) GroupOption {
	return func(g *Group) {
		for k, v := range where {
			g.where[k] = v
		}
	}
}

// WithAutoTag derives tags from task names with the given mode.
func WithAutoTag(mode TagMode) GroupOption {
	return func(g *Group) { g.tagMode = mode }
}

// WithAutoTagDepth derives every name prefix of up to depth words as a tag.
func WithAutoTagDepth(depth int) GroupOption {
	return func(g *Group) {
		g.tagMode = tagging.Depth
		g.tagDepth = depth
	}
}

// WithStrict controls whether unknown arguments are a usage error (the default)
// or silently ignored.
func WithStrict(strict bool) GroupOption {
	return func(g *Group) { g.strict = strict }
}

// WithExplicitOptions requires every non-parametrized field to carry an Option.
func WithExplicitOptions() GroupOption {
	return func(g *Group) { g.explicit = true }
}

// New creates an empty group.
func New(opts ...GroupOption) *Group {
	g := &Group{
		name:     "taskopt",
		where:    make(map[string]any),
		strict:   true,
		byName:   make(map[string]*Task),
		byFlag:   make(map[string]*ledgerEntry),
		byPrefix: make(map[string]*SetupBinding),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the program name of the group.
func (g *Group) Name() string {
	return g.name
}

// AddTask registers fn under name with the declared fields.
// The name is normalized (underscores become dashes, the group prefix is
// prepended). Every field's option is checked against the options already in
// the group; on any error nothing is registered.
func (g *Group) AddTask(name string, fn TaskFunc, fields []Field, opts ...TaskOption) (*Task, error) {
	cfg := taskConfig{where: make(map[string]any)}
	for _, opt := range opts {
		opt(&cfg)
	}

	name = g.qualify(option.TaskName(name))
	if strings.Trim(name, "-") == "" {
		return nil, &opttypes.ConfigurationError{Reason: "task name cannot be empty"}
	}
	if fn == nil {
		return nil, &opttypes.ConfigurationError{Task: name, Reason: "task function cannot be nil"}
	}

	parametrized, err := checkParams(name, fields, cfg.params)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byName[name]; exists {
		return nil, &opttypes.DuplicateError{Kind: "task", Name: name}
	}

	bindings, err := option.Resolve(fields, option.ResolveOptions{ExplicitOnly: g.explicit, Parametrized: parametrized})
	if err != nil {
		return nil, withTask(err, name)
	}
	added, err := g.fold(name, bindings)
	if err != nil {
		return nil, err
	}
	g.commit(added)

	task := &Task{
		Name:     name,
		Func:     fn,
		Bindings: bindings,
		Tags:     cfg.tags,
		OptOut:   cfg.optOut,
		Where:    cfg.where,
		Params:   cfg.params,
	}
	g.tasks = append(g.tasks, task)
	g.byName[name] = task

	logger.TaskRegistration(name, flagsOf(bindings), cfg.tags)
	return task, nil
}

// MustAddTask is like AddTask but panics on error.
func (g *Group) MustAddTask(name string, fn TaskFunc, fields []Field, opts ...TaskOption) *Task {
	task, err := g.AddTask(name, fn, fields, opts...)
	if err != nil {
		panic(err)
	}
	return task
}

// AddSetup registers fn to run before every task whose name starts with
// prefix, or before every task when prefix is empty. A prefix can have only
// one setup. Setup fields become options of the group like task fields.
func (g *Group) AddSetup(fn SetupFunc, fields []Field, prefix string) (*SetupBinding, error) {
	if prefix != "" {
		prefix = g.qualify(option.TaskName(prefix))
	}
	owner := "setup"
	if prefix != "" {
		owner = "setup " + prefix
	}
	if fn == nil {
		return nil, &opttypes.ConfigurationError{Task: owner, Reason: "setup function cannot be nil"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byPrefix[prefix]; exists {
		return nil, &opttypes.DuplicateError{Kind: "setup", Name: prefix}
	}

	bindings, err := option.Resolve(fields, option.ResolveOptions{ExplicitOnly: g.explicit})
	if err != nil {
		return nil, withTask(err, owner)
	}
	added, err := g.fold(owner, bindings)
	if err != nil {
		return nil, err
	}
	g.commit(added)

	setup := &SetupBinding{Prefix: prefix, Func: fn, Bindings: bindings}
	g.setups = append(g.setups, setup)
	g.byPrefix[prefix] = setup

	logger.Debug("Registered setup", "prefix", prefix, "options", flagsOf(bindings))
	return setup, nil
}

// MustAddSetup is like AddSetup but panics on error.
func (g *Group) MustAddSetup(fn SetupFunc, fields []Field, prefix string) *SetupBinding {
	setup, err := g.AddSetup(fn, fields, prefix)
	if err != nil {
		panic(err)
	}
	return setup
}

// fold checks bindings against the ledger without changing it and returns
// the entries that would be new.
func (g *Group) fold(owner string, bindings []opttypes.ParameterBinding) ([]*ledgerEntry, error) {
	var added []*ledgerEntry
	local := make(map[string]*ledgerEntry)

	for _, b := range bindings {
		if b.Option == nil {
			continue
		}

		var existing *ledgerEntry
		for _, flag := range b.Option.Flags {
			e := g.byFlag[flag]
			if e == nil {
				e = local[flag]
			}
			if e == nil {
				continue
			}
			if !option.Equal(e.option, b.Option) {
				logger.OptionConflict(flag, e.owner, owner)
				return nil, conflict(flag, owner, e, b.Option)
			}
			existing = e
		}
		if existing != nil {
			continue
		}

		// a new option may not reuse another option's dest or option name
		// ("-x" and "--x" are both parsed as x)
		for _, e := range append(append([]*ledgerEntry(nil), g.ledger...), added...) {
			if e.option.Dest == b.Option.Dest || e.option.Name() == b.Option.Name() {
				logger.OptionConflict(b.Option.Flags[0], e.owner, owner)
				return nil, conflict(b.Option.Flags[0], owner, e, b.Option)
			}
		}

		entry := &ledgerEntry{option: b.Option, owner: owner}
		added = append(added, entry)
		for _, flag := range b.Option.Flags {
			local[flag] = entry
		}
	}
	return added, nil
}

func (g *Group) commit(added []*ledgerEntry) {
	for _, e := range added {
		g.ledger = append(g.ledger, e)
		for _, flag := range e.option.Flags {
			g.byFlag[flag] = e
		}
	}
}

func conflict(flag, owner string, existing *ledgerEntry, incoming *opttypes.Option) error {
	return &opttypes.ConsistencyError{
		Flag:     flag,
		Task:     owner,
		Existing: existing.owner,
		New:      incoming,
		Old:      existing.option,
		Diff:     option.Diff(existing.option, incoming),
	}
}

// BuildParser assembles the group grammar, one option per ledger entry in
// first-registration order.
func (g *Group) BuildParser() (*parser.Spec, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.buildParser()
}

func (g *Group) buildParser() (*parser.Spec, error) {
	options := make([]*opttypes.Option, len(g.ledger))
	for i, e := range g.ledger {
		options[i] = e.option
	}
	return parser.New(g.name, options, g.strict)
}

// Usage returns the option summary of the group grammar.
func (g *Group) Usage() (string, error) {
	spec, err := g.BuildParser()
	if err != nil {
		return "", err
	}
	return spec.Usage(), nil
}

// Options returns a copy of every option of the group in registration order.
func (g *Group) Options() []*Option {
	g.mu.RLock()
	defer g.mu.RUnlock()
	options := make([]*Option, len(g.ledger))
	for i, e := range g.ledger {
		options[i] = e.option.Clone()
	}
	return options
}

// Tasks returns the registered tasks in registration order.
func (g *Group) Tasks() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Task(nil), g.tasks...)
}

// Task returns the task registered under name.
func (g *Group) Task(name string) (*Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.byName[name]
	return t, ok
}

// Setups returns the registered setups in registration order.
func (g *Group) Setups() []*SetupBinding {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*SetupBinding(nil), g.setups...)
}

func (g *Group) qualify(name string) string {
	if g.prefix == "" {
		return name
	}
	return g.prefix + "-" + name
}

func (g *Group) prefixWords() int {
	if g.prefix == "" {
		return 0
	}
	return strings.Count(g.prefix, "-") + 1
}

func (g *Group) binderSetups() []binder.Setup {
	setups := make([]binder.Setup, len(g.setups))
	for i, s := range g.setups {
		setups[i] = binder.Setup{Prefix: s.Prefix, Func: s.Func, Bindings: s.Bindings}
	}
	return setups
}

// derivedTags returns the tags of every task, explicit and derived, sorted.
func (g *Group) derivedTags() map[string][]string {
	names := make([]tagging.Name, len(g.tasks))
	for i, t := range g.tasks {
		names[i] = tagging.Name{Name: t.Name, OptOut: t.OptOut}
	}
	derived := tagging.Deriver{Mode: g.tagMode, Depth: g.tagDepth, Skip: g.prefixWords()}.Derive(names)

	result := make(map[string][]string, len(g.tasks))
	for _, t := range g.tasks {
		if t.OptOut {
			continue
		}
		result[t.Name] = mergeTags(t.Tags, derived[t.Name])
	}
	return result
}

func mergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, list := range lists {
		for _, t := range list {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

func flagsOf(bindings []opttypes.ParameterBinding) []string {
	var flags []string
	for _, b := range bindings {
		if b.Option != nil {
			flags = append(flags, b.Option.Flags...)
		}
	}
	return flags
}

// withTask attaches the task name to a configuration error from the resolver.
func withTask(err error, task string) error {
	var cfgErr *opttypes.ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr.Task == "" {
		cfgErr.Task = task
	}
	return err
}

func checkParams(task string, fields []Field, params []Parametrization) (map[string]bool, error) {
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
	}
	set := make(map[string]bool, len(params))
	for _, p := range params {
		if !declared[p.Field] {
			return nil, &opttypes.ConfigurationError{Task: task, Field: p.Field, Reason: "parametrized but not declared"}
		}
		if set[p.Field] {
			return nil, &opttypes.ConfigurationError{Task: task, Field: p.Field, Reason: "parametrized more than once"}
		}
		if len(p.Values) == 0 {
			return nil, &opttypes.ConfigurationError{Task: task, Field: p.Field, Reason: "parametrized with no values"}
		}
		set[p.Field] = true
	}
	return set, nil
}
