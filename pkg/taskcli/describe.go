package taskcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskopt/internal/help"
	"taskopt/internal/version"
)

func (a *App) newDescribeCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "describe [task]",
		Short: "Show the options of the group or of one task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exports, err := a.group.Export()
			if err != nil {
				return err
			}

			var markdown string
			if len(args) == 0 {
				markdown = help.GroupMarkdown(a.group, exports)
			} else {
				task, ok := a.group.Task(args[0])
				if !ok {
					return fmt.Errorf("unknown task: %s", args[0])
				}
				markdown = help.TaskMarkdown(a.group, task, exports)
			}

			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			}
			out, err := help.NewRenderer(a.cfg.RenderStyle, a.cfg.TestMode).Render(markdown)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without rendering")
	return cmd
}

func (a *App) newVersionCommand() *cobra.Command {
	var (
		detailed   bool
		constraint string
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if constraint != "" {
				ok, err := version.Satisfies(constraint)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s does not satisfy %s", version.String(), constraint)
				}
			}
			if detailed {
				fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show build details")
	cmd.Flags().StringVar(&constraint, "require", "", `Fail unless the version matches a constraint such as ">= 0.1"`)
	return cmd
}
