package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName  = "config.yaml"
	ConfigDirName   = ".auditor"
	GlobalConfigDir = ".config/auditor"
)

// ErrNotFound is returned when no config file exists in the project
// hierarchy or the global location.
var ErrNotFound = errors.New("no config file found")

// Loader finds, decodes and validates config files. Project files win over
// the global one in ~/.config/auditor.
type Loader struct {
	startDir string
	getenv   func(string) string
}

func NewLoader(startDir string) *Loader {
	if startDir == "" {
		if wd, err := os.Getwd(); err == nil {
			startDir = wd
		} else {
			startDir = "."
		}
	}
	return &Loader{startDir: startDir, getenv: os.Getenv}
}

// candidates lists every location a config may live in, in priority order:
// .auditor/config.yaml in the start dir and each ancestor, then the global file.
func (l *Loader) candidates() []string {
	var paths []string
	for dir := l.startDir; ; {
		paths = append(paths, filepath.Join(dir, ConfigDirName, ConfigFileName))
		up := filepath.Dir(dir)
		if up == dir {
			break
		}
		dir = up
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, GlobalConfigDir, ConfigFileName))
	}
	return paths
}

// ConfigFile returns the config file Load would read.
func (l *Loader) ConfigFile() (string, error) {
	for _, p := range l.candidates() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (searched upward from %s)", ErrNotFound, l.startDir)
}

// Load reads the nearest config file, applies AUDITOR_* overrides and
// validates the result.
func (l *Loader) Load() (*Config, error) {
	path, err := l.ConfigFile()
	if err != nil {
		return nil, err
	}
	return l.LoadFile(path)
}

// LoadOrDefault is Load, falling back to DefaultConfig when no file exists.
func (l *Loader) LoadOrDefault() (*Config, error) {
	cfg, err := l.Load()
	switch {
	case err == nil:
		return cfg, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	cfg = DefaultConfig()
	return cfg, l.finish(cfg)
}

// LoadFile decodes path over the defaults, so omitted keys keep their
// default values.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: failed to parse YAML: %w", path, err)
	}
	if err := l.finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) finish(cfg *Config) error {
	if err := l.overrideFromEnv(cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// envBindings maps AUDITOR_* variables onto config fields.
var envBindings = []struct {
	name string
	set  func(*Config, string) error
}{
	{"AUDITOR_BASE_URL", func(c *Config, v string) error { c.Target.BaseURL = v; return nil }},
	{"AUDITOR_START_PATH", func(c *Config, v string) error { c.Target.StartPath = v; return nil }},
	{"AUDITOR_BACKEND", func(c *Config, v string) error { c.Browser.Backend = v; return nil }},
	{"AUDITOR_MAX_DEPTH", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("must be an integer: %w", err)
		}
		c.Exploration.MaxDepth = n
		return nil
	}},
	{"AUDITOR_LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"AUDITOR_OUTPUT_DIR", func(c *Config, v string) error { c.Output.Dir = v; return nil }},
}

func (l *Loader) overrideFromEnv(cfg *Config) error {
	for _, b := range envBindings {
		v := l.getenv(b.name)
		if v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return fmt.Errorf("%s %w", b.name, err)
		}
	}
	return nil
}

// Save stamps Meta.UpdatedAt and writes cfg as YAML, creating parent dirs.
func (l *Loader) Save(cfg *Config, path string) error {
	cfg.Meta.UpdatedAt = time.Now()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// InitPath is where init writes a new project config.
func (l *Loader) InitPath() string {
	return filepath.Join(l.startDir, ConfigDirName, ConfigFileName)
}

// IsInitialized reports whether any config file can be found.
func (l *Loader) IsInitialized() bool {
	_, err := l.ConfigFile()
	return err == nil
}

// ProjectRoot is the directory holding the .auditor folder in use.
func (l *Loader) ProjectRoot() (string, error) {
	path, err := l.ConfigFile()
	if err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Dir(path)), nil
}
