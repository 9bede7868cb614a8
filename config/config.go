// Package config loads huntflow's session configuration: an optional YAML
// file plus environment toggles. Both are read once at session
// construction and never re-read mid-session.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DebugEnv enables debug mode when set to any non-empty value.
	DebugEnv = "HUNTFLOW_DEBUG"

	// FileEnv overrides the config file location.
	FileEnv = "HUNTFLOW_CONFIG"

	defaultRelPath = ".config/huntflow/huntflow.yaml"
)

// Config carries session defaults. The zero value is a valid, fully
// defaulted configuration.
type Config struct {
	// Debug enables debug mode (shared runtime directory, verbose logs).
	Debug bool `yaml:"debug"`

	// RuntimeDir pins the session runtime directory instead of an
	// ephemeral one.
	RuntimeDir string `yaml:"runtime_dir"`
}

// Load reads the config file if one exists and applies environment
// toggles on top. A missing file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv(FileEnv)
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, defaultRelPath)
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if DebugFromEnv() {
		cfg.Debug = true
	}
	return cfg, nil
}

// DebugFromEnv reports whether the debug toggle is present in the
// environment. Any non-empty value counts.
func DebugFromEnv() bool {
	return os.Getenv(DebugEnv) != ""
}
