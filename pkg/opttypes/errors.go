package opttypes

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrConsistency   = errors.New("conflicting session options")
	ErrDuplicate     = errors.New("duplicate registration")
	ErrParse         = errors.New("usage error")
)

// ConfigurationError reports declared parameter metadata that cannot be
// turned into an option. It is returned at registration time.
type ConfigurationError struct {
	Task   string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Task != "" && e.Field != "":
		return fmt.Sprintf("task %s: parameter %q: %s", e.Task, e.Field, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("parameter %q: %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ConsistencyError reports two tasks of one group declaring the same flag
// with different descriptors.
type ConsistencyError struct {
	Flag     string
	Task     string // task being registered
	Existing string // task that registered the flag first
	New      *Option
	Old      *Option
	Diff     string // line diff of Old against New
}

func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("conflicting session options for %s between %s and %s", e.Flag, e.Existing, e.Task)
	if e.Diff != "" {
		msg += ":\n" + e.Diff
	}
	return msg
}

// Is matches ErrConsistency.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// DuplicateError reports a task name or setup prefix registered twice.
type DuplicateError struct {
	Kind string // "task" or "setup"
	Name string
}

func (e *DuplicateError) Error() string {
	if e.Kind == "setup" {
		if e.Name == "" {
			return "setup for all sessions already registered"
		}
		return fmt.Sprintf("setup for prefix %q already registered", e.Name)
	}
	return fmt.Sprintf("%s %s already registered", e.Kind, e.Name)
}

// Is matches ErrDuplicate.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// ParseError reports raw arguments that do not satisfy a group's grammar.
// Usage holds the option summary to show next to the message.
type ParseError struct {
	Message string
	Usage   string
}

func (e *ParseError) Error() string {
	return "usage error: " + e.Message
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
