package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lance13c/auditor/internal/logging"
)

// Config represents the complete auditor configuration
type Config struct {
	Target      TargetConfig      `yaml:"target"`
	Exploration ExplorationConfig `yaml:"exploration"`
	Browser     BrowserConfig     `yaml:"browser"`
	Output      OutputConfig      `yaml:"output"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Routes      []Route           `yaml:"routes,omitempty"`
	Meta        MetaConfig        `yaml:"meta"`
}

// TargetConfig names the application under audit
type TargetConfig struct {
	BaseURL   string `yaml:"base_url"`
	StartPath string `yaml:"start_path,omitempty"`
}

// ExplorationConfig bounds a run
type ExplorationConfig struct {
	MaxDepth                 int    `yaml:"max_depth"`
	MaxInteractionsPerScreen int    `yaml:"max_interactions_per_screen"`
	MaxScreens               int    `yaml:"max_screens,omitempty"` // 0 = unlimited
	ProbeValue               string `yaml:"probe_value,omitempty"`
	AllowExternal            bool   `yaml:"allow_external,omitempty"`
}

// Browser backends
const (
	BackendChrome    = "chrome"    // chromedp-launched browser
	BackendDevTools  = "devtools"  // attach to a running browser's debugging port
	BackendSimulated = "simulated" // YAML site map, no browser
	BackendCommand   = "command"   // external automation CLI
)

var backends = []string{BackendChrome, BackendDevTools, BackendSimulated, BackendCommand}

// BrowserConfig selects and tunes the protocol backend
type BrowserConfig struct {
	Backend     string        `yaml:"backend"`
	Headless    bool          `yaml:"headless"`
	Timeout     time.Duration `yaml:"timeout"`
	ExecPath    string        `yaml:"exec_path,omitempty"`
	DebuggerURL string        `yaml:"debugger_url,omitempty"` // devtools backend
	SiteFile    string        `yaml:"site_file,omitempty"`    // simulated backend
	Command     string        `yaml:"command,omitempty"`      // command backend binary
}

// OutputConfig controls report files
type OutputConfig struct {
	Dir           string   `yaml:"dir"`
	Formats       []string `yaml:"formats"`
	PlaywrightDir string   `yaml:"playwright_dir,omitempty"`
}

// DatabaseConfig controls the audit history store
type DatabaseConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig controls the file logger
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir,omitempty"`
}

// MetaConfig holds metadata about the configuration
type MetaConfig struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DefaultConfig returns a new config with sensible defaults
func DefaultConfig() *Config {
	now := time.Now()
	return &Config{
		Target: TargetConfig{
			BaseURL: "http://localhost:3000",
		},
		Exploration: ExplorationConfig{
			MaxDepth:                 5,
			MaxInteractionsPerScreen: 3,
			ProbeValue:               "test_value",
		},
		Browser: BrowserConfig{
			Backend:     BackendChrome,
			Headless:    true,
			Timeout:     30 * time.Second,
			DebuggerURL: "http://localhost:9222",
		},
		Output: OutputConfig{
			Dir:     "qa-reports",
			Formats: []string{"json", "markdown", "html"},
		},
		Database: DatabaseConfig{
			Path:    ".auditor/history.db",
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Meta: MetaConfig{
			Version:   "1.0.0",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// StartURL joins the base URL and the start path
func (c *Config) StartURL() string {
	base := strings.TrimRight(c.Target.BaseURL, "/")
	if c.Target.StartPath == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(c.Target.StartPath, "/")
}

// URLFor joins the base URL and a route path
func (c *Config) URLFor(path string) string {
	return strings.TrimRight(c.Target.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return NewValidationError("target.base_url is required")
	}
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("target.base_url must be an http(s) URL: " + c.Target.BaseURL)
	}

	if !contains(backends, c.Browser.Backend) {
		return NewValidationError(fmt.Sprintf("browser.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Browser.Backend))
	}
	if c.Browser.Backend == BackendDevTools && c.Browser.DebuggerURL == "" {
		return NewValidationError("browser.debugger_url is required for the devtools backend")
	}

	if c.Exploration.MaxDepth < 0 {
		return NewValidationError("exploration.max_depth cannot be negative")
	}
	if c.Exploration.MaxInteractionsPerScreen < 0 {
		return NewValidationError("exploration.max_interactions_per_screen cannot be negative")
	}
	if c.Exploration.MaxScreens < 0 {
		return NewValidationError("exploration.max_screens cannot be negative")
	}

	for _, f := range c.Output.Formats {
		switch strings.ToLower(f) {
		case "json", "markdown", "md", "html":
		default:
			return NewValidationError("output.formats contains unknown format: " + f)
		}
	}

	if c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			return NewValidationError("logging.level: " + err.Error())
		}
	}

	for i, r := range c.Routes {
		if r.Path == "" {
			return NewValidationError(fmt.Sprintf("routes[%d].path is required", i))
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
