package runner

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"taskopt/internal/logger"
	"taskopt/pkg/taskopt"
)

// localSession is the session context handed to one invocation.
type localSession struct {
	name    string
	id      string
	posargs []string
	env     map[string]string
	log     *log.Logger
}

func newSession(s taskopt.Export, id string, posargs []string, extra map[string]string) *localSession {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	maps.Copy(env, extra)
	// a where entry named "env" adds session-specific variables
	switch whereEnv := s.Where["env"].(type) {
	case map[string]string:
		maps.Copy(env, whereEnv)
	case map[string]any:
		for k, v := range whereEnv {
			env[k] = fmt.Sprint(v)
		}
	}

	return &localSession{
		name:    s.Name,
		id:      id,
		posargs: append([]string(nil), posargs...),
		env:     env,
		log:     logger.NewStyledLogger(s.Name),
	}
}

func (s *localSession) Name() string { return s.name }

func (s *localSession) Log(msg string, keyvals ...any) {
	s.log.Info(msg, keyvals...)
}

func (s *localSession) Warn(msg string, keyvals ...any) {
	s.log.Warn(msg, keyvals...)
}

func (s *localSession) Env() map[string]string {
	return maps.Clone(s.env)
}

func (s *localSession) Posargs() []string {
	return append([]string(nil), s.posargs...)
}
