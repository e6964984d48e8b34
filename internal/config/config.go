// SPDX-License-Identifier: MIT

// Package config holds daemon and runtime configuration: defaults, YAML file
// loading, environment overrides and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration. YAML tags match the config file;
// every field also has a QBRIDGE_* environment override.
type Config struct {
	// Listen is the HTTP listen address of the daemon.
	Listen string `yaml:"listen"`
	// DataDir holds the job registry database and result exports.
	DataDir string `yaml:"data_dir"`
	// LogLevel is the zerolog level name.
	LogLevel string `yaml:"log_level"`

	// Python is the interpreter executable hosting the wrapped SDK.
	Python string `yaml:"python"`
	// BootTimeout bounds worker boot (SDK import).
	BootTimeout time.Duration `yaml:"boot_timeout"`
	// CallTimeout is the default per-call deadline; 0 disables it.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// RateLimitPerMinute is the per-IP request budget on the API.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	// RuntimeCallsPerSecond throttles delegated calls across all requests;
	// 0 disables the limiter.
	RuntimeCallsPerSecond float64 `yaml:"runtime_calls_per_second"`

	// OTLPEndpoint enables trace export when set (host:port, gRPC).
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Listen:             ":8089",
		DataDir:            "./data",
		LogLevel:           "info",
		Python:             "python3",
		BootTimeout:        30 * time.Second,
		CallTimeout:        2 * time.Minute,
		RateLimitPerMinute: 120,
	}
}

// LoadFile merges the YAML file at path over cfg. A missing file is not an
// error; a malformed one is.
func LoadFile(cfg Config, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv merges QBRIDGE_* environment overrides over cfg.
func FromEnv(cfg Config) (Config, error) {
	if v := os.Getenv("QBRIDGE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("QBRIDGE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QBRIDGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QBRIDGE_PYTHON"); v != "" {
		cfg.Python = v
	}
	if v := os.Getenv("QBRIDGE_BOOT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("config: QBRIDGE_BOOT_TIMEOUT: %w", err)
		}
		cfg.BootTimeout = d
	}
	if v := os.Getenv("QBRIDGE_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("config: QBRIDGE_CALL_TIMEOUT: %w", err)
		}
		cfg.CallTimeout = d
	}
	if v := os.Getenv("QBRIDGE_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: QBRIDGE_RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}
	if v := os.Getenv("QBRIDGE_RUNTIME_CALLS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("config: QBRIDGE_RUNTIME_CALLS_PER_SECOND: %w", err)
		}
		cfg.RuntimeCallsPerSecond = f
	}
	if v := os.Getenv("QBRIDGE_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	return cfg, nil
}

// Load resolves the effective configuration: defaults, then the optional
// file, then the environment.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(Defaults(), path)
	if err != nil {
		return cfg, err
	}
	cfg, err = FromEnv(cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Python == "" {
		return fmt.Errorf("config: python executable is required")
	}
	if c.BootTimeout <= 0 {
		return fmt.Errorf("config: boot_timeout must be positive, got %s", c.BootTimeout)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("config: call_timeout must not be negative, got %s", c.CallTimeout)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("config: rate_limit_per_minute must not be negative, got %d", c.RateLimitPerMinute)
	}
	if c.RuntimeCallsPerSecond < 0 {
		return fmt.Errorf("config: runtime_calls_per_second must not be negative, got %g", c.RuntimeCallsPerSecond)
	}
	return nil
}
