package testutils

import (
	"fmt"
	"strings"
	"sync"
)

// MockSession is a session context that records everything reported to it.
type MockSession struct {
	mu      sync.Mutex
	name    string
	env     map[string]string
	posargs []string
	logs    []string
}

// NewMockSession creates a recording session with the given name.
func NewMockSession(name string) *MockSession {
	return &MockSession{name: name, env: make(map[string]string)}
}

// Name returns the session name.
func (m *MockSession) Name() string {
	return m.name
}

// Log records msg and its key-value pairs as a single line.
func (m *MockSession) Log(msg string, keyvals ...any) {
	m.record(msg, keyvals)
}

// Warn records msg like Log, prefixed with "warn: ".
func (m *MockSession) Warn(msg string, keyvals ...any) {
	m.record("warn: "+msg, keyvals)
}

// Env returns the environment set with SetEnv.
func (m *MockSession) Env() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	env := make(map[string]string, len(m.env))
	for k, v := range m.env {
		env[k] = v
	}
	return env
}

// Posargs returns the arguments set with SetPosargs.
func (m *MockSession) Posargs() []string {
	return append([]string(nil), m.posargs...)
}

// SetEnv sets an environment variable seen by the session.
func (m *MockSession) SetEnv(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env[key] = value
}

// SetPosargs sets the raw arguments returned by Posargs.
func (m *MockSession) SetPosargs(args []string) {
	m.posargs = append([]string(nil), args...)
}

// Logs returns every recorded line in order.
func (m *MockSession) Logs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logs...)
}

func (m *MockSession) record(msg string, keyvals []any) {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, b.String())
}
