// Package logger provides centralized logging functionality for taskopt.
// It configures structured logging with support for different output destinations and log levels.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Logger is the global logger instance used throughout taskopt.
var Logger *log.Logger

// output is where the global logger and component loggers write.
var output io.Writer = os.Stderr

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.InfoLevel)
}

// Configure sets up the logger based on CLI flags and environment variables.
// CLI flags take precedence over the TASKOPT_LOG_LEVEL environment variable.
func Configure(logLevel string, logFile string, testMode bool) error {
	level := logLevel
	if level == "" {
		level = strings.ToLower(os.Getenv("TASKOPT_LOG_LEVEL"))
	}
	if level == "" {
		level = "info"
	}

	var out io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		out = file
	}

	SetOutput(out)
	Logger.SetLevel(ParseLevel(level))

	if testMode {
		// deterministic output: no timestamps, fixed level
		Logger.SetTimeFormat("")
		Logger.SetLevel(log.InfoLevel)
	}

	return nil
}

// SetOutput replaces the global logger with one writing to w, keeping its level.
func SetOutput(w io.Writer) {
	level := log.InfoLevel
	if Logger != nil {
		level = Logger.GetLevel()
	}
	output = w
	Logger = log.New(w)
	Logger.SetTimeFormat("")
	Logger.SetLevel(level)
}

// ParseLevel converts a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// TaskRegistration logs a task being added to a group.
func TaskRegistration(task string, options []string, tags []string) {
	Debug("Registered task", "task", task, "options", options, "tags", tags)
}

// OptionConflict logs two tasks disagreeing on a flag.
func OptionConflict(flag string, existing string, task string) {
	Debug("Conflicting option", "flag", flag, "existing", existing, "task", task)
}

// Invocation logs a task being dispatched with its raw arguments.
func Invocation(task string, args []string) {
	Debug("Invoking task", "task", task, "args", args)
}

// NewStyledLogger creates a new logger with custom styles and prefix for component-specific logging.
// The prefix identifies the component or session (e.g., "runner", "check-tests").
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()

	if lipgloss.ColorProfile() != termenv.Ascii {
		styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
			SetString("INFO").
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color("33")). // Blue background
			Foreground(lipgloss.Color("15"))  // White text

		styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
			SetString("ERROR").
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color("196")). // Red background
			Foreground(lipgloss.Color("15"))   // White text

		styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
			SetString("DEBUG").
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color("240")). // Gray background
			Foreground(lipgloss.Color("15"))   // White text

		styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
			SetString("WARN").
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color("214")). // Orange background
			Foreground(lipgloss.Color("15"))   // White text

		styles.Keys["task"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))     // Green
		styles.Keys["flag"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))     // Blue
		styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))   // Red
		styles.Keys["session"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))  // Cyan
		styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	}

	componentLogger := log.NewWithOptions(output, log.Options{
		Prefix: prefix,
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())

	return componentLogger
}
