// Package config loads the explorer configuration from JSON or YAML layers over
// built-in defaults, validates it against an embedded JSON Schema and applies
// EXPLORER_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/graph"
)

// Store backends
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config represents the complete application configuration
type Config struct {
	Store StoreConfig `json:"store" yaml:"store"`
	HTTP  HTTPConfig  `json:"http" yaml:"http"`
	NATS  NATSConfig  `json:"nats" yaml:"nats"`
	Log   LogConfig   `json:"log" yaml:"log"`
}

// StoreConfig selects and configures the component store.
type StoreConfig struct {
	Backend  string `json:"backend" yaml:"backend"`
	DataFile string `json:"data_file" yaml:"data_file"`
	// Format is turtle, ntriples or rdfxml. Empty derives it from the file extension.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Watch reloads the local snapshot when the data file changes.
	Watch    bool          `json:"watch" yaml:"watch"`
	Debounce time.Duration `json:"debounce,omitempty" yaml:"debounce,omitempty"`

	QueryURL      string        `json:"query_url,omitempty" yaml:"query_url,omitempty"`
	StatementsURL string        `json:"statements_url,omitempty" yaml:"statements_url,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ProbeInterval time.Duration `json:"probe_interval,omitempty" yaml:"probe_interval,omitempty"`
}

// HTTPConfig configures the web surface.
type HTTPConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Addr         string        `json:"addr" yaml:"addr"`
	RateLimit    float64       `json:"rate_limit" yaml:"rate_limit"` // requests per second, 0 disables
	Burst        int           `json:"burst" yaml:"burst"`
	CORSOrigins  []string      `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
}

// NATSConfig defines NATS connection settings. The NATS surface is off when URLs is
// empty.
type NATSConfig struct {
	URLs           []string      `json:"urls,omitempty" yaml:"urls,omitempty"`
	SubjectPrefix  string        `json:"subject_prefix" yaml:"subject_prefix"`
	MaxReconnects  int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait  time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	RequestTimeout time.Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	Username       string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password       string        `json:"password,omitempty" yaml:"password,omitempty"`
	Token          string        `json:"token,omitempty" yaml:"token,omitempty"`
}

// Enabled reports whether a NATS server is configured.
func (n NATSConfig) Enabled() bool {
	return len(n.URLs) > 0
}

// LogConfig configures slog output and optional file rotation.
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
}

// Default returns the built-in configuration: local backend over the bundled data file.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:       BackendLocal,
			DataFile:      "data/components.ttl",
			Debounce:      500 * time.Millisecond,
			QueryURL:      "http://localhost:7200/repositories/ros-components",
			Timeout:       30 * time.Second,
			ProbeInterval: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Enabled:      true,
			Addr:         ":8080",
			RateLimit:    50,
			Burst:        100,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			SubjectPrefix:  "explorer",
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// GraphFormat resolves the configured serialization of the data file.
func (c *Config) GraphFormat() (graph.Format, error) {
	return graph.ParseFormat(c.Store.Format, c.Store.DataFile)
}

// Validate checks cross-field rules the schema cannot express and normalizes case.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)

	var problems []string
	switch c.Store.Backend {
	case BackendLocal:
		if c.Store.DataFile == "" {
			problems = append(problems, "store.data_file is required for the local backend")
		}
	case BackendRemote:
		if c.Store.QueryURL == "" {
			problems = append(problems, "store.query_url is required for the remote backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q must be %q or %q", c.Store.Backend, BackendLocal, BackendRemote))
	}

	if _, err := c.GraphFormat(); err != nil {
		problems = append(problems, "store.format: "+err.Error())
	}
	if c.Store.Watch && c.Store.Backend == BackendRemote {
		problems = append(problems, "store.watch only applies to the local backend")
	}

	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		problems = append(problems, "http.addr is required when http is enabled")
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.Burst < 0 {
		problems = append(problems, "http.rate_limit and http.burst must not be negative")
	}

	if !isValidNATSSubjectPart(c.NATS.SubjectPrefix) {
		problems = append(problems, fmt.Sprintf(
			"nats.subject_prefix %q is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.NATS.SubjectPrefix))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		problems = append(problems, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, fmt.Sprintf("log.format %q must be json or text", c.Log.Format))
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "validate configuration")
	}
	return nil
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// String returns a JSON representation of the config with secrets masked.
func (c *Config) String() string {
	masked := *c
	if masked.NATS.Password != "" {
		masked.NATS.Password = "****"
	}
	if masked.NATS.Token != "" {
		masked.NATS.Token = "****"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}
