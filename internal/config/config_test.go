package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.RenderStyle)
	assert.False(t, cfg.StopOnError)
	assert.Empty(t, cfg.DefaultSessions)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "taskopt.yaml", `
log_level: DEBUG
render_style: notty
stop_on_error: true
default_sessions:
  - check-tests
  - sum
env:
  GOFLAGS: -mod=mod
`)

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "notty", cfg.RenderStyle)
	assert.True(t, cfg.StopOnError)
	assert.Equal(t, []string{"check-tests", "sum"}, cfg.DefaultSessions)
	assert.Equal(t, "-mod=mod", cfg.Env["goflags"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "taskopt.yaml", "log_level: warn\n")
	t.Setenv("TASKOPT_LOG_LEVEL", "error")

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "TASKOPT_RENDER_STYLE=light\nUNRELATED_VARIABLE_FOR_TEST=1\n")
	t.Setenv("TASKOPT_RENDER_STYLE", "")
	os.Unsetenv("TASKOPT_RENDER_STYLE")

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.RenderStyle)
	_, set := os.LookupEnv("UNRELATED_VARIABLE_FOR_TEST")
	assert.False(t, set)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "TASKOPT_RENDER_STYLE=light\n")
	t.Setenv("TASKOPT_RENDER_STYLE", "dark")

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.RenderStyle)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "test_mode: true\n")

	cfg, err := Load(NewViper(), path, "")
	require.NoError(t, err)
	assert.True(t, cfg.TestMode)

	_, err = Load(NewViper(), filepath.Join(dir, "missing.yaml"), "")
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"bad level", "log_level: loud\n", `invalid log_level "loud"`},
		{"bad style", "render_style: neon\n", `invalid render_style "neon"`},
		{"bad yaml", "log_level: [\n", "failed to read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "taskopt.yaml", tt.content)
			_, err := Load(NewViper(), "", dir)
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}
