// Package parser assembles the option grammar shared by every task of a group
// and parses raw trailing arguments against it.
//
// Parsing is done by github.com/spf13/pflag. Because pflag binds exactly one
// token per flag occurrence, arguments are first rewritten so that options
// taking several values ("*", "+", N, "?") appear as one "--name=value" token
// per value, preceded by an occurrence marker.
package parser

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"taskopt/pkg/opttypes"
)

// Spec is a group's option grammar. It is immutable once built and can be
// used for any number of parses.
type Spec struct {
	name    string
	strict  bool
	options []*opttypes.Option
	byFlag  map[string]*opttypes.Option
}

// New builds a grammar from options in the given order.
// With strict set, unknown flags and stray positional arguments are errors;
// otherwise they are ignored.
func New(name string, options []*opttypes.Option, strict bool) (*Spec, error) {
	s := &Spec{
		name:    name,
		strict:  strict,
		options: make([]*opttypes.Option, 0, len(options)),
		byFlag:  make(map[string]*opttypes.Option),
	}
	dests := make(map[string]bool, len(options))
	names := make(map[string]bool, len(options))
	for _, opt := range options {
		if names[canonical(opt)] {
			return nil, &opttypes.ConfigurationError{Reason: fmt.Sprintf("option name %s declared by more than one option", canonical(opt))}
		}
		names[canonical(opt)] = true
		if opt.Dest == "" {
			return nil, &opttypes.ConfigurationError{Reason: fmt.Sprintf("option %s has no destination", strings.Join(opt.Flags, ", "))}
		}
		if dests[opt.Dest] {
			return nil, &opttypes.ConfigurationError{Field: opt.Dest, Reason: "bound by more than one option"}
		}
		dests[opt.Dest] = true
		for _, flag := range opt.Flags {
			if _, exists := s.byFlag[flag]; exists {
				return nil, &opttypes.ConfigurationError{Reason: fmt.Sprintf("flag %s declared by more than one option", flag)}
			}
			s.byFlag[flag] = opt
		}
		s.options = append(s.options, opt)
	}
	return s, nil
}

// Options returns the options of the grammar in registration order.
func (s *Spec) Options() []*opttypes.Option {
	return append([]*opttypes.Option(nil), s.options...)
}

// Strict reports whether unknown arguments are rejected.
func (s *Spec) Strict() bool {
	return s.strict
}

// Usage returns the option summary of the grammar. Options are listed with
// the flags they were declared with, in registration order.
func (s *Spec) Usage() string {
	fs, _ := s.flagSet()
	var b strings.Builder
	fmt.Fprintf(&b, "usage: %s [options]\n", s.name)
	if len(s.options) == 0 {
		return b.String()
	}

	heads := make([]string, len(s.options))
	helps := make([]string, len(s.options))
	width := 0
	for i, opt := range s.options {
		f := fs.Lookup(canonical(opt))
		varname, help := pflag.UnquoteUsage(f)
		heads[i] = "  " + strings.Join(opt.Flags, ", ")
		if varname != "" {
			heads[i] += " " + varname
		}
		if !opt.Required && !opt.Action.IsFlag() && f.DefValue != "" && f.DefValue != "[]" {
			help = strings.TrimSpace(fmt.Sprintf("%s (default %s)", help, f.DefValue))
		}
		helps[i] = help
		width = max(width, len(heads[i]))
	}

	b.WriteString("\noptions:\n")
	for i := range s.options {
		line := heads[i]
		if helps[i] != "" {
			line += strings.Repeat(" ", width-len(heads[i])+3) + helps[i]
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Parse parses raw arguments. Options that are absent take their default.
func (s *Spec) Parse(args []string) (*Result, error) {
	normalized, err := s.normalize(args)
	if err != nil {
		return nil, s.parseError(err.Error())
	}

	fs, values := s.flagSet()
	if err := fs.Parse(normalized); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, s.parseError("help requested")
		}
		return nil, s.parseError(s.declaredNames(strings.ReplaceAll(err.Error(), occurrenceMarker, "")))
	}
	if s.strict && fs.NArg() > 0 {
		return nil, s.parseError("unrecognized arguments: " + strings.Join(fs.Args(), " "))
	}

	res := &Result{values: make(map[string]any, len(s.options)), given: make(map[string]bool)}
	for _, opt := range s.options {
		res.values[opt.Dest] = values[opt.Dest].value()
		if f := fs.Lookup(canonical(opt)); f != nil && f.Changed {
			res.given[opt.Dest] = true
		}
	}
	return res, nil
}

// CheckRequired returns a parse error naming every required option among
// dests that was not given.
func (s *Spec) CheckRequired(res *Result, dests []string) error {
	wanted := make(map[string]bool, len(dests))
	for _, d := range dests {
		wanted[d] = true
	}
	var missing []string
	for _, opt := range s.options {
		if opt.Required && wanted[opt.Dest] && !res.Given(opt.Dest) {
			missing = append(missing, strings.Join(opt.Flags, "/"))
		}
	}
	if len(missing) > 0 {
		return s.parseError("the following arguments are required: " + strings.Join(missing, ", "))
	}
	return nil
}

// declaredNames replaces the long names pflag reports for options declared
// with a short flag only.
func (s *Spec) declaredNames(msg string) string {
	for _, opt := range s.options {
		if !hasLong(opt) {
			msg = strings.ReplaceAll(msg, `"--`+canonical(opt)+`"`, `"`+opt.Flags[0]+`"`)
		}
	}
	return msg
}

func (s *Spec) parseError(msg string) *opttypes.ParseError {
	return &opttypes.ParseError{Message: msg, Usage: s.Usage()}
}

// flagSet builds a fresh pflag set for one parse, keyed by canonical names.
func (s *Spec) flagSet() (*pflag.FlagSet, map[string]optionValue) {
	fs := pflag.NewFlagSet(s.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	fs.ParseErrorsWhitelist.UnknownFlags = !s.strict

	values := make(map[string]optionValue, len(s.options))
	for _, opt := range s.options {
		v := newOptionValue(opt)
		values[opt.Dest] = v
		f := fs.VarPF(v, canonical(opt), shorthand(opt), helpText(opt))
		if opt.Action.IsFlag() {
			f.NoOptDefVal = "true"
		}
	}
	return fs, values
}

// normalize rewrites every recognized option occurrence into canonical
// "--name=value" tokens. Unrecognized tokens are passed through for pflag to
// reject or skip.
func (s *Spec) normalize(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			out = append(out, args[i:]...)
			break
		}
		if !looksLikeFlag(tok) {
			out = append(out, tok)
			continue
		}
		cluster, err := s.splitCluster(tok)
		if err != nil {
			return nil, err
		}
		if cluster != nil {
			args = append(append(append(make([]string, 0, len(args)-1+len(cluster)), args[:i]...), cluster...), args[i+1:]...)
			tok = args[i]
		}

		opt, inline, hasInline := s.lookup(tok)
		if opt == nil {
			out = append(out, tok)
			continue
		}
		name := "--" + canonical(opt)

		switch {
		case opt.Action.IsFlag():
			if hasInline {
				return nil, fmt.Errorf("argument %s: ignored explicit argument %q", displayFlags(opt), inline)
			}
			value := "true"
			if opt.Action == opttypes.ActionStoreFalse {
				value = "false"
			}
			out = append(out, name+"="+value)

		case opt.Nargs == opttypes.NargsNone:
			if !hasInline {
				if i+1 >= len(args) || looksLikeFlag(args[i+1]) || args[i+1] == "--" {
					return nil, fmt.Errorf("argument %s: expected one argument", displayFlags(opt))
				}
				i++
				inline = args[i]
			}
			out = append(out, name+"="+inline)

		default:
			var collected []string
			if hasInline {
				collected = []string{inline}
			} else {
				limit := maxValues(opt.Nargs)
				for j := i + 1; j < len(args) && len(collected) < limit; j++ {
					if args[j] == "--" || looksLikeFlag(args[j]) {
						break
					}
					collected = append(collected, args[j])
				}
				i += len(collected)
			}
			if err := checkCount(opt, len(collected)); err != nil {
				return nil, err
			}
			out = append(out, name+"="+occurrenceMarker)
			for _, v := range collected {
				out = append(out, name+"="+v)
			}
		}
	}
	return out, nil
}

// splitCluster splits "-vq" into "-v" and "-q" when -v takes no value.
// It returns nil for any other token.
func (s *Spec) splitCluster(tok string) ([]string, error) {
	if strings.HasPrefix(tok, "--") || len(tok) <= 2 {
		return nil, nil
	}
	if _, ok := s.byFlag[tok]; ok {
		return nil, nil
	}
	opt, ok := s.byFlag[tok[:2]]
	if !ok || !opt.Action.IsFlag() || tok[2] == '=' {
		return nil, nil
	}
	rest := tok[2:]
	if _, ok := s.byFlag["-"+rest[:1]]; !ok {
		return nil, fmt.Errorf("argument %s: ignored explicit argument %q", displayFlags(opt), rest)
	}
	return []string{tok[:2], "-" + rest}, nil
}

// lookup resolves a flag-like token to an option, splitting off an inline
// value written as "--name=value", "-n=value" or "-nvalue".
func (s *Spec) lookup(tok string) (*opttypes.Option, string, bool) {
	if opt, ok := s.byFlag[tok]; ok {
		return opt, "", false
	}
	if name, value, found := strings.Cut(tok, "="); found {
		if opt, ok := s.byFlag[name]; ok {
			return opt, value, true
		}
		return nil, "", false
	}
	if !strings.HasPrefix(tok, "--") && len(tok) > 2 {
		if opt, ok := s.byFlag[tok[:2]]; ok {
			return opt, tok[2:], true
		}
	}
	return nil, "", false
}

func maxValues(n opttypes.Nargs) int {
	switch n {
	case opttypes.NargsOptional:
		return 1
	case opttypes.NargsAny, opttypes.NargsSome:
		return int(^uint(0) >> 1)
	}
	c, _ := n.Count()
	return c
}

func checkCount(opt *opttypes.Option, got int) error {
	switch opt.Nargs {
	case opttypes.NargsSome:
		if got == 0 {
			return fmt.Errorf("argument %s: expected at least one argument", displayFlags(opt))
		}
	case opttypes.NargsAny, opttypes.NargsOptional:
	default:
		if want, ok := opt.Nargs.Count(); ok && got != want {
			return fmt.Errorf("argument %s: expected %d arguments", displayFlags(opt), want)
		}
	}
	return nil
}

// looksLikeFlag reports whether tok starts an option rather than being a value.
// Negative numbers and a lone dash are values.
func looksLikeFlag(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return false
	}
	return true
}

// canonical is the long name pflag knows the option by.
func canonical(opt *opttypes.Option) string {
	return opt.Name()
}

func hasLong(opt *opttypes.Option) bool {
	return slices.ContainsFunc(opt.Flags, func(f string) bool { return strings.HasPrefix(f, "--") })
}

// shorthand returns the single-letter flag of opt when it also has a long flag.
func shorthand(opt *opttypes.Option) string {
	if !hasLong(opt) {
		return ""
	}
	for _, f := range opt.Flags {
		if !strings.HasPrefix(f, "--") {
			return strings.TrimPrefix(f, "-")
		}
	}
	return ""
}

func displayFlags(opt *opttypes.Option) string {
	return strings.Join(opt.Flags, "/")
}

func helpText(opt *opttypes.Option) string {
	help := opt.Help
	if len(opt.Choices) > 0 {
		choices := "{" + strings.Join(opt.Choices, ",") + "}"
		if help == "" {
			help = choices
		} else {
			help += " " + choices
		}
	}
	if opt.Required {
		help = strings.TrimSpace(help + " (required)")
	}
	return help
}

// Result holds the values of one parse, keyed by option destination.
type Result struct {
	values map[string]any
	given  map[string]bool
}

// Value returns the parsed or default value for dest.
func (r *Result) Value(dest string) any {
	return r.values[dest]
}

// Given reports whether the option bound to dest appeared in the arguments.
func (r *Result) Given(dest string) bool {
	return r.given[dest]
}

// Has reports whether dest belongs to the grammar.
func (r *Result) Has(dest string) bool {
	_, ok := r.values[dest]
	return ok
}
