package taskcli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskopt/internal/runner"
	"taskopt/pkg/taskopt"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// listEntry is the yaml form of one session.
type listEntry struct {
	Name   string         `yaml:"name"`
	Task   string         `yaml:"task"`
	Tags   []string       `yaml:"tags,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
}

func (a *App) newListCommand() *cobra.Command {
	var format string
	var tags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions and their tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exports, err := a.group.Export()
			if err != nil {
				return err
			}
			sessions, err := runner.NewManifest(exports).Select(nil, tags)
			if err != nil {
				return err
			}
			switch format {
			case "table":
				return writeTable(cmd.OutOrStdout(), sessions)
			case "yaml":
				return writeYAML(cmd.OutOrStdout(), sessions)
			default:
				return fmt.Errorf("unknown format %q, expected table or yaml", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|yaml)")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Only list sessions carrying any of these tags")
	return cmd
}

func writeYAML(w io.Writer, sessions []taskopt.Export) error {
	entries := make([]listEntry, len(sessions))
	for i, s := range sessions {
		entries[i] = listEntry{Name: s.Name, Task: s.Task, Tags: s.Tags, Params: s.Params, Where: s.Where}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"sessions": entries}); err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	return enc.Close()
}

func writeTable(w io.Writer, sessions []taskopt.Export) error {
	rows := [][]string{{"SESSION", "TAGS"}}
	for _, s := range sessions {
		rows = append(rows, []string{s.Name, strings.Join(s.Tags, ", ")})
	}

	width := 0
	for _, row := range rows {
		width = max(width, ansi.StringWidth(row[0]))
	}

	for i, row := range rows {
		name, tags := row[0], row[1]
		pad := strings.Repeat(" ", width-ansi.StringWidth(name)+2)
		if i == 0 {
			name, tags = headerStyle.Render(name), headerStyle.Render(tags)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(name+pad+tags, " ")); err != nil {
			return err
		}
	}
	return nil
}
