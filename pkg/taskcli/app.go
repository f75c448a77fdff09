// Package taskcli is the command line front end for a taskopt Group.
// A task file builds its group and hands it to Main:
//
//	func main() {
//		taskcli.Main(buildGroup())
//	}
//
// The resulting binary selects sessions with -s and -t and passes everything
// after "--" to the selected sessions as their option arguments.
package taskcli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskopt/internal/config"
	"taskopt/internal/logger"
	"taskopt/internal/version"
	"taskopt/pkg/taskopt"
)

// App wires a group to its cobra command tree.
type App struct {
	group *taskopt.Group
	v     *viper.Viper
	cfg   *config.Config
	root  *cobra.Command

	// Dir is where taskopt.yaml and .env are looked up; the working
	// directory when empty.
	Dir string

	configPath string
}

// NewApp creates the command tree for group.
func NewApp(group *taskopt.Group) *App {
	a := &App{group: group, v: config.NewViper()}

	a.root = &cobra.Command{
		Use:   group.Name() + " [sessions...] [-- args...]",
		Short: "Run sessions of " + group.Name(),
		Long: `Run the sessions defined by this task file.
Arguments after "--" are parsed as the sessions' options; use "describe" to
list them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}
	a.root.Version = version.String()

	flags := a.root.PersistentFlags()
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.Bool("test-mode", false, "Run in deterministic test mode")
	flags.Bool("stop-on-error", false, "Skip remaining sessions after the first failure")
	flags.StringVar(&a.configPath, "config", "", "Config file [default: ./taskopt.yaml]")

	for key, flag := range map[string]string{
		"log_level":     "log-level",
		"log_file":      "log-file",
		"test_mode":     "test-mode",
		"stop_on_error": "stop-on-error",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding %s flag: %v", flag, err))
		}
	}

	run := a.newRunCommand()
	// the root command behaves like "run"
	a.root.Flags().AddFlagSet(run.Flags())
	a.root.Args = run.Args
	a.root.RunE = run.RunE

	a.root.AddCommand(run, a.newListCommand(), a.newDescribeCommand(), a.newVersionCommand())
	return a
}

// Command returns the root command.
func (a *App) Command() *cobra.Command {
	return a.root
}

// SetOutput redirects command output and errors.
func (a *App) SetOutput(out, errOut io.Writer) {
	a.root.SetOut(out)
	a.root.SetErr(errOut)
}

// Execute runs the command line in args.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}

// Config returns the settings loaded for the current command; nil before
// a command ran.
func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) initConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.configPath, a.Dir)
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile, cfg.TestMode); err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	a.cfg = cfg
	logger.Debug("Loaded configuration", "config", a.v.ConfigFileUsed(), "render_style", cfg.RenderStyle)
	return nil
}

// Main runs the command line of the current process and exits on failure.
func Main(group *taskopt.Group) {
	app := NewApp(group)
	if err := app.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
