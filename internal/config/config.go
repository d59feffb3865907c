// Package config loads and validates the resumer CLI configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the resumer CLI.
type Config struct {
	Downloads     []Download    `yaml:"downloads" validate:"dive"`
	MaxConcurrent int           `yaml:"max_concurrent" validate:"gte=0"`
	Timeout       time.Duration `yaml:"timeout" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent"`
	Bandwidth     int           `yaml:"bandwidth" validate:"gte=0"`
	StrictResume  bool          `yaml:"strict_resume"`
	ProgressLog   bool          `yaml:"progress_log"`
	Checkpoints   string        `yaml:"checkpoints"`
	LogLevel      string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Download describes one file to fetch.
type Download struct {
	URL     string            `yaml:"url" validate:"required,http_url"`
	Output  string            `yaml:"output" validate:"required"`
	Resume  bool              `yaml:"resume"`
	SHA256  string            `yaml:"sha256" validate:"omitempty,len=64,hexadecimal"`
	Tag     string            `yaml:"tag"`
	Headers map[string]string `yaml:"headers"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		MaxConcurrent: 4,
		LogLevel:      "info",
	}
}

// LoadFromFile reads the YAML file at path on top of [Default].
// The result is not validated.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the declared constraints of c.
func (c Config) Validate() error {
	if len(c.Downloads) == 0 {
		return errors.New("no downloads configured")
	}

	return Validate(c)
}

// Level maps LogLevel onto a [slog.Level], defaulting to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
