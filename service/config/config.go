package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// UpstreamURLEnv names the environment variable holding the upstream base URL.
const UpstreamURLEnv = "PYTHON_API_URL"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Upstream transaction service configuration. UpstreamURL may be empty:
	// the transactions handler rejects each request until it is set.
	UpstreamURL     string
	UpstreamTimeout time.Duration

	// Metrics configuration
	MetricsEnabled bool
}

// Load reads configuration from environment variables and validates all fields.
// Returns an error if any configuration is invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Upstream configuration
	cfg.UpstreamURL = os.Getenv(UpstreamURLEnv)
	if cfg.UpstreamURL != "" {
		if err := validateUpstreamURL(cfg.UpstreamURL); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", UpstreamURLEnv, err))
		}
	}

	timeout, err := parseDuration("UPSTREAM_TIMEOUT", "0s")
	if err != nil {
		errs = append(errs, err)
	} else if timeout < 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT cannot be negative"))
	} else {
		cfg.UpstreamTimeout = timeout
	}

	// Metrics configuration
	enabled, err := parseBool("METRICS_ENABLED", true)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MetricsEnabled = enabled
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerAddr == "" {
		errs = append(errs, fmt.Errorf("ServerAddr is required"))
	}

	if c.UpstreamURL != "" {
		if err := validateUpstreamURL(c.UpstreamURL); err != nil {
			errs = append(errs, fmt.Errorf("UpstreamURL: %w", err))
		}
	}

	if c.UpstreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("UpstreamTimeout cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// validateUpstreamURL requires an absolute http or https URL.
func validateUpstreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: host is required", raw)
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
