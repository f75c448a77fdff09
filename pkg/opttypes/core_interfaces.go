package opttypes

// Session is the context a runner hands to a task when it invokes it.
// It gives the task a way to report progress and to look at its environment.
type Session interface {
	// Name returns the name the session was invoked under.
	Name() string
	// Log reports a message with optional key-value pairs.
	Log(msg string, keyvals ...any)
	// Warn reports a warning with optional key-value pairs.
	Warn(msg string, keyvals ...any)
	// Env returns the environment variables visible to the session.
	Env() map[string]string
	// Posargs returns the raw trailing arguments the runner received.
	Posargs() []string
}

// TaskFunc is the body of a task. It receives the session context first and
// the values bound to its declared parameters second.
type TaskFunc func(s Session, args *Args) error

// SetupFunc runs before every task whose name matches its prefix.
type SetupFunc func(s Session, args *Args) error
