package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskopt/internal/testutils"
	"taskopt/pkg/taskopt"
)

func testGroup(t *testing.T, record *[]string) *taskopt.Group {
	t.Helper()
	g := taskopt.New(taskopt.WithAutoTag(taskopt.TagSiblings))
	g.MustAddTask("check_tests", func(s taskopt.Session, _ *taskopt.Args) error {
		*record = append(*record, s.Name())
		return nil
	}, nil)
	g.MustAddTask("check_format", func(s taskopt.Session, _ *taskopt.Args) error {
		*record = append(*record, s.Name())
		return errors.New("badly formatted")
	}, nil)
	g.MustAddTask("log_nums", func(s taskopt.Session, args *taskopt.Args) error {
		*record = append(*record, s.Name())
		return nil
	}, []taskopt.Field{{Name: "num", Kind: taskopt.KindInt}}, taskopt.Parametrize("num", 1, 2))
	g.MustAddTask("sum", func(s taskopt.Session, args *taskopt.Args) error {
		*record = append(*record, s.Name())
		return nil
	}, []taskopt.Field{{Name: "nums", Kind: taskopt.KindInt, List: true, Default: []int{}}},
		taskopt.WithTaskWhere(map[string]any{"env": map[string]string{"SUM_MODE": "fast"}}))
	return g
}

func manifestFor(t *testing.T, g *taskopt.Group) *Manifest {
	t.Helper()
	exports, err := g.Export()
	require.NoError(t, err)
	return NewManifest(exports)
}

func sessionNames(sessions []taskopt.Export) []string {
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = s.Name
	}
	return names
}

func TestManifest_Select(t *testing.T) {
	var record []string
	m := manifestFor(t, testGroup(t, &record))

	tests := []struct {
		name     string
		names    []string
		tags     []string
		expected []string
		wantErr  string
	}{
		{
			name:     "everything",
			expected: []string{"check-tests", "check-format", "log-nums(num=1)", "log-nums(num=2)", "sum"},
		},
		{
			name:     "by tag",
			tags:     []string{"check"},
			expected: []string{"check-tests", "check-format"},
		},
		{
			name:     "task name selects every parametrization",
			names:    []string{"log-nums"},
			expected: []string{"log-nums(num=1)", "log-nums(num=2)"},
		},
		{
			name:     "exact session name",
			names:    []string{"log-nums(num=2)"},
			expected: []string{"log-nums(num=2)"},
		},
		{
			name:     "union keeps export order",
			names:    []string{"sum"},
			tags:     []string{"check"},
			expected: []string{"check-tests", "check-format", "sum"},
		},
		{
			name:    "unknown name",
			names:   []string{"nope"},
			wantErr: "sessions not found: nope",
		},
		{
			name:    "unknown tag",
			tags:    []string{"nope"},
			wantErr: "no sessions selected by tags: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, err := m.Select(tt.names, tt.tags)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sessionNames(selected))
		})
	}

	assert.Equal(t, []string{"check"}, m.Tags())
}

func TestRunner_Run(t *testing.T) {
	testutils.ResetTestCounters()
	var record []string
	m := manifestFor(t, testGroup(t, &record))

	r := &Runner{TestMode: true, Stderr: &bytes.Buffer{}}
	results := r.Run(context.Background(), m.Sessions(), nil)

	require.Len(t, results, 5)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.EqualError(t, results[1].Err, "badly formatted")
	assert.Equal(t, StatusSuccess, results[4].Status)
	assert.Equal(t, "00000001-0000-4000-8000-000000000001", results[0].InvocationID)
	assert.Equal(t, []string{"check-tests", "check-format", "log-nums(num=1)", "log-nums(num=2)", "sum"}, record)

	err := Summarize(results)
	assert.EqualError(t, err, "1 session(s) failed: check-format")
}

func TestRunner_StopOnError(t *testing.T) {
	var record []string
	m := manifestFor(t, testGroup(t, &record))

	r := &Runner{StopOnError: true, Stderr: &bytes.Buffer{}}
	results := r.Run(context.Background(), m.Sessions(), nil)

	statuses := make([]Status, len(results))
	for i, res := range results {
		statuses[i] = res.Status
	}
	assert.Equal(t, []Status{StatusSuccess, StatusFailed, StatusSkipped, StatusSkipped, StatusSkipped}, statuses)
	assert.Equal(t, []string{"check-tests", "check-format"}, record)
}

func TestRunner_Cancelled(t *testing.T) {
	var record []string
	m := manifestFor(t, testGroup(t, &record))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := (&Runner{}).Run(ctx, m.Sessions(), nil)

	for _, res := range results {
		assert.Equal(t, StatusSkipped, res.Status)
	}
	assert.Empty(t, record)
	assert.NoError(t, Summarize(results))
}

func TestRunner_ParseErrorPrintsUsage(t *testing.T) {
	var record []string
	m := manifestFor(t, testGroup(t, &record))
	selected, err := m.Select([]string{"sum"}, nil)
	require.NoError(t, err)

	var stderr bytes.Buffer
	results := (&Runner{Stderr: &stderr}).Run(context.Background(), selected, []string{"--nums", "x"})

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, stderr.String(), "usage: taskopt [options]")
	assert.Contains(t, stderr.String(), "sum: error:")
	assert.Empty(t, record)
}

func TestRunner_SessionEnvironment(t *testing.T) {
	t.Setenv("TASKOPT_RUNNER_TEST", "from-os")

	g := taskopt.New()
	var env map[string]string
	var posargs []string
	g.MustAddTask("show", func(s taskopt.Session, _ *taskopt.Args) error {
		env = s.Env()
		posargs = s.Posargs()
		return nil
	}, nil, taskopt.WithTaskWhere(map[string]any{"env": map[string]any{"LEVEL": 3}}))

	m := manifestFor(t, g)
	r := &Runner{Env: map[string]string{"EXTRA": "yes"}}
	results := r.Run(context.Background(), m.Sessions(), nil)

	require.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "from-os", env["TASKOPT_RUNNER_TEST"])
	assert.Equal(t, "yes", env["EXTRA"])
	assert.Equal(t, "3", env["LEVEL"])
	assert.Empty(t, posargs)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
}
