// Package binder dispatches one task invocation: it parses the runner's raw
// arguments against the group grammar, binds the task's own values, runs the
// matching setups and finally calls the task.
package binder

import (
	"fmt"
	"strings"

	"taskopt/internal/logger"
	"taskopt/internal/parser"
	"taskopt/pkg/opttypes"
)

// Target is a task ready to be invoked.
type Target struct {
	Name     string
	Func     opttypes.TaskFunc
	Bindings []opttypes.ParameterBinding
	Params   map[string]any // values fixed by parametrization
}

// Setup is a setup function scoped to a name prefix; "" matches every task.
type Setup struct {
	Prefix   string
	Func     opttypes.SetupFunc
	Bindings []opttypes.ParameterBinding
}

// Invoke parses args and runs the applicable setups and then the task.
// Every parse and binding error is reported before anything runs, so a usage
// error never leaves a setup half applied.
func Invoke(spec *parser.Spec, target Target, setups []Setup, s opttypes.Session, args []string) error {
	logger.Invocation(target.Name, args)

	res, err := spec.Parse(args)
	if err != nil {
		return err
	}

	applicable := Applicable(target.Name, setups)

	var dests []string
	dests = appendDests(dests, target.Bindings)
	for _, setup := range applicable {
		dests = appendDests(dests, setup.Bindings)
	}
	if err := spec.CheckRequired(res, dests); err != nil {
		return err
	}

	setupArgs := make([]*opttypes.Args, len(applicable))
	for i, setup := range applicable {
		setupArgs[i] = Bind(res, setup.Bindings, nil)
	}
	taskArgs := Bind(res, target.Bindings, target.Params)

	for i, setup := range applicable {
		if err := setup.Func(s, setupArgs[i]); err != nil {
			return fmt.Errorf("setup %s failed: %w", describePrefix(setup.Prefix), err)
		}
	}

	logger.Debug("Bound arguments", "task", target.Name, "args", taskArgs.GoString())
	return target.Func(s, taskArgs)
}

// Bind selects the values of bindings out of a parse result, in declaration
// order. Values of sibling tasks in the result are ignored.
func Bind(res *parser.Result, bindings []opttypes.ParameterBinding, params map[string]any) *opttypes.Args {
	args := opttypes.NewArgs()
	for _, b := range bindings {
		if v, ok := params[b.Name]; ok {
			args.Set(b.Name, v)
			continue
		}
		if b.Option == nil {
			args.Set(b.Name, nil)
			continue
		}
		args.Set(b.Name, res.Value(b.Option.Dest))
	}
	return args
}

// Applicable returns the setups to run before the named task: the unprefixed
// one first, then the one with the longest prefix matching the name.
func Applicable(name string, setups []Setup) []Setup {
	var global, specific *Setup
	for i := range setups {
		setup := &setups[i]
		if setup.Prefix == "" {
			global = setup
			continue
		}
		if strings.HasPrefix(name, setup.Prefix) && (specific == nil || len(setup.Prefix) > len(specific.Prefix)) {
			specific = setup
		}
	}

	var result []Setup
	if global != nil {
		result = append(result, *global)
	}
	if specific != nil {
		result = append(result, *specific)
	}
	return result
}

func appendDests(dests []string, bindings []opttypes.ParameterBinding) []string {
	for _, b := range bindings {
		if b.Option != nil {
			dests = append(dests, b.Option.Dest)
		}
	}
	return dests
}

func describePrefix(prefix string) string {
	if prefix == "" {
		return "for all sessions"
	}
	return fmt.Sprintf("for %q", prefix)
}
