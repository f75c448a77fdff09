// Package help renders group documentation as terminal markdown.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"taskopt/internal/logger"
	"taskopt/pkg/opttypes"
	"taskopt/pkg/taskopt"
)

// DefaultWordWrap is the rendering width used when none is configured.
const DefaultWordWrap = 80

// Renderer turns markdown into styled terminal output.
type Renderer struct {
	Style    string // glamour style: auto, dark, light, notty or ascii
	WordWrap int
}

// NewRenderer creates a renderer for style. Test mode and terminals without
// color support always get the plain "notty" style.
func NewRenderer(style string, testMode bool) *Renderer {
	return &Renderer{Style: ResolveStyle(style, testMode), WordWrap: DefaultWordWrap}
}

// ResolveStyle picks the glamour style actually used for style.
func ResolveStyle(style string, testMode bool) string {
	if testMode {
		return "notty"
	}
	if style == "" || style == "auto" {
		if lipgloss.ColorProfile() == termenv.Ascii {
			return "notty"
		}
		return "auto"
	}
	return style
}

// Render renders markdown with the configured style.
func (r *Renderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("markdown content cannot be empty")
	}

	wrap := r.WordWrap
	if wrap <= 0 {
		wrap = DefaultWordWrap
	}
	styleOpt := glamour.WithStandardStyle(r.Style)
	if r.Style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}

	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := tr.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	logger.Debug("Rendered help", "style", r.Style, "bytes", len(out))
	return out, nil
}

// GroupMarkdown documents every session and option of a group.
func GroupMarkdown(g *taskopt.Group, sessions []taskopt.Export) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Name())

	b.WriteString("## Sessions\n\n")
	if len(sessions) == 0 {
		b.WriteString("No sessions registered.\n\n")
	} else {
		b.WriteString("| Session | Tags |\n|---|---|\n")
		for _, s := range sessions {
			fmt.Fprintf(&b, "| %s | %s |\n", cell(s.Name), cell(strings.Join(s.Tags, ", ")))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Options\n\n")
	writeOptions(&b, g.Options())
	return b.String()
}

// TaskMarkdown documents one task: its options, tags, setups and
// parametrizations.
func TaskMarkdown(g *taskopt.Group, task *taskopt.Task, sessions []taskopt.Export) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Name)

	var tags []string
	var names []string
	for _, s := range sessions {
		if s.Task != task.Name {
			continue
		}
		tags = s.Tags
		names = append(names, s.Name)
	}
	if len(tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(tags, ", "))
	}
	if len(names) > 1 {
		b.WriteString("## Sessions\n\n")
		for _, n := range names {
			fmt.Fprintf(&b, "- `%s`\n", n)
		}
		b.WriteString("\n")
	}

	var setups []string
	for _, s := range g.Setups() {
		if s.Prefix == "" || strings.HasPrefix(task.Name, s.Prefix) {
			label := "all tasks"
			if s.Prefix != "" {
				label = "prefix `" + s.Prefix + "`"
			}
			setups = append(setups, label)
		}
	}
	if len(setups) > 0 {
		fmt.Fprintf(&b, "**Setups:** %s\n\n", strings.Join(setups, ", "))
	}

	if len(task.Where) > 0 {
		keys := make([]string, 0, len(task.Where))
		for k := range task.Where {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("## Runner settings\n\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: `%v`\n", k, task.Where[k])
		}
		b.WriteString("\n")
	}

	var options []*opttypes.Option
	for _, binding := range task.Bindings {
		if binding.Option != nil {
			options = append(options, binding.Option)
		}
	}
	b.WriteString("## Options\n\n")
	writeOptions(&b, options)
	return b.String()
}

func writeOptions(b *strings.Builder, options []*opttypes.Option) {
	if len(options) == 0 {
		b.WriteString("No options.\n")
		return
	}
	b.WriteString("| Flags | Value | Default | Help |\n|---|---|---|---|\n")
	for _, o := range options {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			cell("`"+strings.Join(o.Flags, "`, `")+"`"),
			cell(valueLabel(o)),
			cell(defaultLabel(o)),
			cell(o.Help))
	}
}

// valueLabel describes what an option consumes, e.g. "int..." or "choice of a, b".
func valueLabel(o *opttypes.Option) string {
	if o.Action.IsFlag() {
		return "flag"
	}
	label := "string"
	if o.Metavar != "" {
		label = o.Metavar
	} else if o.Type != nil {
		label = o.Type.Name
	}
	if len(o.Choices) > 0 {
		label = "one of " + strings.Join(o.Choices, ", ")
	}
	switch o.Nargs {
	case opttypes.NargsAny:
		label = "[" + label + " ...]"
	case opttypes.NargsSome:
		label += " ..."
	case opttypes.NargsOptional:
		label = "[" + label + "]"
	default:
		if n, ok := o.Nargs.Count(); ok {
			label = fmt.Sprintf("%s x%d", label, n)
		}
	}
	return label
}

func defaultLabel(o *opttypes.Option) string {
	if o.Required {
		return "required"
	}
	if o.Default == nil {
		return ""
	}
	return fmt.Sprintf("%v", o.Default)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
