// Package config loads runner settings for the taskopt command line.
//
// Settings come from, in order of precedence: bound command-line flags,
// TASKOPT_* environment variables (a .env file next to the config is loaded
// into the environment without overriding it), a taskopt.yaml file, and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by taskopt.
const EnvPrefix = "TASKOPT"

// Default configuration values
const (
	DefaultLogLevel    = "info"
	DefaultRenderStyle = "auto"
	DefaultConfigName  = "taskopt"
)

// Config holds the runner settings.
type Config struct {
	LogLevel        string            `mapstructure:"log_level"`
	LogFile         string            `mapstructure:"log_file"`
	TestMode        bool              `mapstructure:"test_mode"`
	RenderStyle     string            `mapstructure:"render_style"`
	StopOnError     bool              `mapstructure:"stop_on_error"`
	DefaultSessions []string          `mapstructure:"default_sessions"`
	Env             map[string]string `mapstructure:"env"`
}

var renderStyles = []string{"auto", "dark", "light", "notty", "ascii"}

var logLevels = []string{"debug", "info", "warn", "error", "fatal"}

// NewViper creates a viper instance with taskopt defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("test_mode", false)
	v.SetDefault("render_style", DefaultRenderStyle)
	v.SetDefault("stop_on_error", false)
	v.SetDefault("default_sessions", []string{})
	v.SetDefault("env", map[string]string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into v and returns the resulting settings.
// When path is empty, taskopt.yaml is looked up in dir; a missing file is
// not an error. An explicit path must exist.
func Load(v *viper.Viper, path string, dir string) (*Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	if path != "" {
		dir = filepath.Dir(path)
	}

	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv exports the TASKOPT_* variables of a .env file into the process
// environment, never overriding variables that are already set.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	envMap, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for key, value := range envMap {
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, expected one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	c.RenderStyle = strings.ToLower(c.RenderStyle)
	if !slices.Contains(renderStyles, c.RenderStyle) {
		return fmt.Errorf("invalid render_style %q, expected one of %s", c.RenderStyle, strings.Join(renderStyles, ", "))
	}
	return nil
}
