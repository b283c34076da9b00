package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Remote   RemoteConfig   `yaml:"remote" toml:"remote"`
	Retry    RetryConfig    `yaml:"retry" toml:"retry"`
	Registry RegistryConfig `yaml:"registry" toml:"registry"`
	Logging  LogConfig      `yaml:"logging" toml:"logging"`
	Dev      DevConfig      `yaml:"dev" toml:"dev"`
}

// RemoteConfig holds the app endpoint connection settings.
type RemoteConfig struct {
	BaseURL      string   `envconfig:"APPSYNC_BASE_URL" yaml:"base_url" toml:"base_url"`
	Endpoint     string   `envconfig:"APPSYNC_ENDPOINT" yaml:"endpoint" toml:"endpoint"`
	Timeout      Duration `envconfig:"APPSYNC_TIMEOUT" yaml:"timeout" toml:"timeout"`
	Token        string   `envconfig:"APPSYNC_TOKEN" yaml:"token" toml:"token"`
	Username     string   `envconfig:"APPSYNC_USERNAME" yaml:"username" toml:"username"`
	Password     string   `envconfig:"APPSYNC_PASSWORD" yaml:"password" toml:"password"`
	UserAgent    string   `envconfig:"APPSYNC_USER_AGENT" yaml:"user_agent" toml:"user_agent"`
	RateLimitRPS float64  `envconfig:"APPSYNC_RATE_LIMIT_RPS" yaml:"rate_limit_rps" toml:"rate_limit_rps"`
}

// RetryConfig holds transport retry settings.
type RetryConfig struct {
	Max     int      `envconfig:"APPSYNC_RETRY_MAX" yaml:"max" toml:"max"`
	WaitMin Duration `envconfig:"APPSYNC_RETRY_WAIT_MIN" yaml:"wait_min" toml:"wait_min"`
	WaitMax Duration `envconfig:"APPSYNC_RETRY_WAIT_MAX" yaml:"wait_max" toml:"wait_max"`
}

// RegistryConfig holds collection behavior settings.
type RegistryConfig struct {
	// StrictUnwrap turns a response without an apps field into an error
	// instead of an empty registry.
	StrictUnwrap bool `envconfig:"APPSYNC_STRICT_UNWRAP" yaml:"strict_unwrap" toml:"strict_unwrap"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// DevConfig holds settings for the local dev server.
type DevConfig struct {
	Addr string `envconfig:"APPSYNC_DEV_ADDR" yaml:"addr" toml:"addr"`
}

// Duration is a time.Duration that decodes from strings like "30s" in env vars and files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load loads configuration from environment variables on top of defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:      "http://localhost:8000",
			Endpoint:     "/app",
			Timeout:      Duration(30 * time.Second),
			UserAgent:    "appsync/1.0",
			RateLimitRPS: 0,
		},
		Retry: RetryConfig{
			Max:     3,
			WaitMin: Duration(time.Second),
			WaitMax: Duration(30 * time.Second),
		},
		Registry: RegistryConfig{
			StrictUnwrap: false,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Dev: DevConfig{
			Addr: "127.0.0.1:8000",
		},
	}
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote base URL is required")
	}
	if c.Remote.Endpoint == "" || c.Remote.Endpoint[0] != '/' {
		return fmt.Errorf("endpoint must be an absolute path, got %q", c.Remote.Endpoint)
	}
	if c.Retry.Max < 0 {
		return fmt.Errorf("retry max must not be negative")
	}
	if c.Retry.WaitMax < c.Retry.WaitMin {
		return fmt.Errorf("retry wait max (%s) is below wait min (%s)", c.Retry.WaitMax.Std(), c.Retry.WaitMin.Std())
	}
	if c.Remote.Password != "" && c.Remote.Username == "" {
		return fmt.Errorf("password is set without a username")
	}
	if c.Remote.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

// applyEnv overrides only the fields whose variables are set.
func applyEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}
