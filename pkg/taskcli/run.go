package taskcli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"taskopt/internal/logger"
	"taskopt/internal/runner"
)

type runOptions struct {
	sessions []string
	tags     []string
	list     bool
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (a *App) newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [sessions...] [-- args...]",
		Short: "Run selected sessions",
		Long: `Run the sessions named with -s or as arguments, and the sessions carrying
any tag given with -t. Without a selection the configured default sessions
run, or every session when none are configured. Arguments after "--" are
handed to every selected session.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, posargs := splitAtDash(cmd, args)
			opts := *opts
			opts.sessions = append(opts.sessions, names...)
			return a.run(cmd, opts, posargs)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.sessions, "sessions", "s", nil, "Sessions to run (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.tags, "tags", "t", nil, "Run sessions carrying any of these tags (repeatable)")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "List selected sessions instead of running them")
	return cmd
}

// splitAtDash separates session names from the arguments after "--".
func splitAtDash(cmd *cobra.Command, args []string) ([]string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func (a *App) run(cmd *cobra.Command, opts runOptions, posargs []string) error {
	exports, err := a.group.Export()
	if err != nil {
		return err
	}
	manifest := runner.NewManifest(exports)

	names := opts.sessions
	if len(names) == 0 && len(opts.tags) == 0 {
		names = a.cfg.DefaultSessions
	}
	selected, err := manifest.Select(names, opts.tags)
	if err != nil {
		return err
	}

	if opts.list {
		return writeTable(cmd.OutOrStdout(), selected)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r := &runner.Runner{
		StopOnError: a.cfg.StopOnError,
		Env:         a.cfg.Env,
		TestMode:    a.cfg.TestMode,
		Stderr:      cmd.ErrOrStderr(),
	}
	logger.Debug("Running sessions", "count", len(selected), "posargs", posargs)
	results := r.Run(ctx, selected, posargs)

	writeSummary(cmd.OutOrStdout(), results)
	return runner.Summarize(results)
}

func writeSummary(w io.Writer, results []runner.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "Ran sessions:")
	for _, res := range results {
		style := successStyle
		switch res.Status {
		case runner.StatusFailed:
			style = failedStyle
		case runner.StatusSkipped:
			style = skippedStyle
		}
		fmt.Fprintf(w, "* %s: %s\n", res.Name, style.Render(res.Status.String()))
	}
}
