// Package runner is a minimal session runner for exported taskopt groups.
// It selects sessions by name or tag, gives each invocation its own session
// context and reports pass/fail per session. It never starts processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"taskopt/internal/logger"
	"taskopt/internal/testutils"
	"taskopt/pkg/opttypes"
	"taskopt/pkg/taskopt"
)

// Status is the outcome of one session invocation.
type Status int

const (
	// StatusSuccess means the task returned nil
	StatusSuccess Status = iota
	// StatusFailed means parsing, a setup or the task returned an error
	StatusFailed
	// StatusSkipped means the session did not run
	StatusSkipped
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Result is the outcome of one session.
type Result struct {
	Name         string
	InvocationID string
	Status       Status
	Err          error
	Duration     time.Duration
}

// Manifest is the set of sessions a runner can choose from.
type Manifest struct {
	sessions []taskopt.Export
}

// NewManifest creates a manifest from a group export.
func NewManifest(sessions []taskopt.Export) *Manifest {
	return &Manifest{sessions: sessions}
}

// Sessions returns every session in export order.
func (m *Manifest) Sessions() []taskopt.Export {
	return append([]taskopt.Export(nil), m.sessions...)
}

// Tags returns every tag used by the manifest, sorted.
func (m *Manifest) Tags() []string {
	var tags []string
	for _, s := range m.sessions {
		for _, t := range s.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// Select returns the sessions matching any of names or tags, in export
// order. A name matches a session exactly or matches every parametrization
// of a task. With no names and no tags every session is selected.
func (m *Manifest) Select(names, tags []string) ([]taskopt.Export, error) {
	if len(names) == 0 && len(tags) == 0 {
		return m.Sessions(), nil
	}

	matchedName := make(map[string]bool, len(names))
	matchedTag := make(map[string]bool, len(tags))
	var selected []taskopt.Export
	for _, s := range m.sessions {
		hit := false
		for _, n := range names {
			if s.Name == n || s.Task == n {
				matchedName[n] = true
				hit = true
			}
		}
		for _, t := range tags {
			if slices.Contains(s.Tags, t) {
				matchedTag[t] = true
				hit = true
			}
		}
		if hit {
			selected = append(selected, s)
		}
	}

	var unknown []string
	for _, n := range names {
		if !matchedName[n] {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("sessions not found: %s", strings.Join(unknown, ", "))
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no sessions selected by tags: %s", strings.Join(tags, ", "))
	}
	return selected, nil
}

// Runner executes selected sessions one after another.
type Runner struct {
	StopOnError bool              // skip remaining sessions after a failure
	Env         map[string]string // extra environment for every session
	TestMode    bool              // deterministic invocation IDs
	Stderr      io.Writer         // usage messages on parse errors; os.Stderr when nil
}

// Run invokes every session with posargs and returns one result per session.
// A failing session never prevents the next one from running unless
// StopOnError is set; cancellation of ctx skips the remaining sessions.
func (r *Runner) Run(ctx context.Context, sessions []taskopt.Export, posargs []string) []Result {
	results := make([]Result, 0, len(sessions))
	stop := false

	for _, s := range sessions {
		if stop || ctx.Err() != nil {
			results = append(results, Result{Name: s.Name, Status: StatusSkipped})
			continue
		}

		res := r.runOne(s, posargs)
		results = append(results, res)
		if res.Status == StatusFailed && r.StopOnError {
			stop = true
		}
	}
	return results
}

func (r *Runner) runOne(s taskopt.Export, posargs []string) Result {
	id := testutils.GenerateUUID(r.TestMode)
	sess := newSession(s, id, posargs, r.Env)

	logger.Info("Running session", "session", s.Name, "invocation", id)
	start := time.Now()
	err := s.Run(sess, posargs)
	res := Result{Name: s.Name, InvocationID: id, Duration: time.Since(start)}

	if err == nil {
		res.Status = StatusSuccess
		logger.Info("Session was successful", "session", s.Name)
		return res
	}

	res.Status = StatusFailed
	res.Err = err
	var parseErr *opttypes.ParseError
	if errors.As(err, &parseErr) {
		fmt.Fprintf(r.stderr(), "%s\n%s: error: %s\n", parseErr.Usage, s.Name, parseErr.Message)
	}
	logger.Error("Session failed", "session", s.Name, "error", err)
	return res
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// Summarize returns an error naming the failed sessions, or nil.
func Summarize(results []Result) error {
	var failed []string
	for _, res := range results {
		if res.Status == StatusFailed {
			failed = append(failed, res.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d session(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}
