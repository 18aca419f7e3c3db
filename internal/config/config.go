// Package config loads daemon configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Logging LogConfig
	Files   FilesConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// FilesConfig holds filesystem manager tunables. The defaults bound how much
// file content a single control-plane request may pull into memory and how
// many suboperations a batch may keep in flight.
type FilesConfig struct {
	ReadLimit   int64 `envconfig:"FILES_READ_LIMIT" default:"10000000"`
	TailBytes   int64 `envconfig:"FILES_TAIL_BYTES" default:"80000"`
	Concurrency int   `envconfig:"FILES_CONCURRENCY" default:"5"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
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
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Files: FilesConfig{
			ReadLimit:   10_000_000,
			TailBytes:   80_000,
			Concurrency: 5,
		},
	}
}
