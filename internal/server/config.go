// Package server serves a read-only web reader over a directory of
// converted book snapshots.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the reader service configuration.
type Config struct {
	LogLevel  slog.Level    `yaml:"log_level"`
	HTTP      HTTPConfig    `yaml:"http"`
	Library   LibraryConfig `yaml:"library"`
	CacheSize int           `yaml:"cache_size"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LibraryConfig holds the path to the directory of book snapshots.
type LibraryConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.CacheSize, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a Config with default values: the reader
// listens on :8123 and serves snapshots found in the working directory.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		HTTP: HTTPConfig{
			Port: 8123,
		},
		Library: LibraryConfig{
			Root: ".",
		},
		CacheSize: 10,
	}
}

// LoadConfig reads a YAML config file into cfg with environment variable
// expansion and validates the result. A missing file leaves the defaults
// untouched.
func LoadConfig(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg.Validate()
		}
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
