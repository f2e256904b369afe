// Package config loads the dashboard configuration from YAML with
// environment-variable overrides for anything sensitive.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ratewatch/internal/storage"
)

// Config holds every setting the dashboard daemon reads. Sensitive values
// (storage DSN) can be overridden by environment variables after the file
// loads.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Board struct {
		URL        string        `yaml:"url"`
		TimeoutSec int           `yaml:"timeout_sec"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"board"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Kind    string `yaml:"kind"`
		DSN     string `yaml:"dsn"`
	} `yaml:"storage"`

	Metrics struct {
		Enabled       bool     `yaml:"enabled"`
		Job           string   `yaml:"job"`
		Tags          []string `yaml:"tags"`
		FlushEverySec int      `yaml:"flush_every_sec"`
	} `yaml:"metrics"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML config file, applies environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Board.TimeoutSec <= 0 {
		c.Board.TimeoutSec = 20
	}
	if c.Board.CacheTTL <= 0 {
		c.Board.CacheTTL = 10 * time.Minute
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "ratesd"
	}
	if c.Metrics.FlushEverySec <= 0 {
		c.Metrics.FlushEverySec = 60
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Storage.Enabled {
		if c.Storage.Kind == "" {
			return fmt.Errorf("storage enabled but kind is empty")
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage enabled but dsn is empty (set RATEWATCH_STORAGE_DSN)")
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// StorageConfig returns the storage factory config for the configured
// backend.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{Kind: c.Storage.Kind, DSN: c.Storage.DSN}
}

// overrideWithEnv replaces config values with environment variables when
// present. DSNs carry credentials and never belong in the file on shared
// machines.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("RATEWATCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RATEWATCH_BOARD_URL"); v != "" {
		cfg.Board.URL = v
	}
	if v := os.Getenv("RATEWATCH_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}
