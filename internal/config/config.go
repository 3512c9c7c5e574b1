// Package config loads webrenderd server configuration from an optional YAML
// file with environment-variable overrides. Keep this package free of
// transport and rendering concerns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/halmos/go-webrender/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound   = errors.New("config file not found")
	ErrConfigParse      = errors.New("failed to parse config")
	ErrInvalidAddr      = errors.New("invalid listen address")
	ErrInvalidTimeout   = errors.New("invalid render timeout")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidBodyLimit = errors.New("invalid request body limit")
)

// Environment variable names. Values here override the config file.
const (
	EnvAddr      = "WEBRENDER_ADDR"
	EnvAPIKey    = "WEBRENDER_API_KEY"
	EnvTimeout   = "WEBRENDER_TIMEOUT"
	EnvLogLevel  = "WEBRENDER_LOG_LEVEL"
	EnvLogFormat = "WEBRENDER_LOG_FORMAT"
)

// Defaults applied when neither file nor environment provides a value.
const (
	DefaultAddr    = ":3000"
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps request bodies; raw HTML payloads can be
	// large but are never unbounded (2 MiB).
	DefaultMaxBodyBytes = 2 << 20
)

// Config holds all configuration for the render server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig defines the HTTP listener options.
type ServerConfig struct {
	Addr         string `yaml:"addr"`         // Listen address (default ":3000")
	APIKey       string `yaml:"apiKey"`       // Empty = no API-key gate
	MaxBodyBytes int64  `yaml:"maxBodyBytes"` // Request body cap in bytes
}

// RenderConfig defines rendering behavior.
type RenderConfig struct {
	Timeout Duration `yaml:"timeout"` // Page load timeout (default 30s)
}

// Duration decodes YAML scalars like "45s" or "2m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogConfig defines logging output options.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" (default) or "console"
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Render: RenderConfig{
			Timeout: Duration(DefaultTimeout),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidTimeout, EnvTimeout, v, err)
		}
		c.Render.Timeout = Duration(d)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate checks that the configuration is usable. It never mutates the
// config; defaults belong to Default and applyEnv.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return ErrInvalidAddr
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("%w: %v (must be positive)", ErrInvalidTimeout, c.Render.Timeout.Std())
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidBodyLimit, c.Server.MaxBodyBytes)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	return nil
}
