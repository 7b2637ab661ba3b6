// Package config provides configuration for the suitcase command.
//
// Config file locations (priority order):
//  1. $SUITCASE_CONFIG
//  2. ./suitcase.yaml
//  3. $XDG_CONFIG_HOME/suitcase/config.yaml
//  4. ~/.config/suitcase/config.yaml
//  5. /etc/suitcase/config.yaml
//
// Command line flags override whatever the file sets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFormat         = "edf"
	DefaultStreamEncoding = "json"
	DefaultDebounce       = 500 * time.Millisecond
	DefaultIdle           = 30 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:        1,
		Format:         DefaultFormat,
		OutputDir:      ".",
		StreamEncoding: DefaultStreamEncoding,
		Catalog:        CatalogConfig{Path: DefaultCatalogPath()},
		Watch: WatchConfig{
			Debounce: Duration(DefaultDebounce),
			Idle:     Duration(DefaultIdle),
		},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.StreamEncoding == "" {
		c.StreamEncoding = DefaultStreamEncoding
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = DefaultCatalogPath()
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(DefaultDebounce)
	}
	if c.Watch.Idle == 0 {
		c.Watch.Idle = Duration(DefaultIdle)
	}
}

// Validate rejects values no command could run with
func (c *Config) Validate() error {
	switch c.StreamEncoding {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid config: stream_encoding %q (want json or yaml)", c.StreamEncoding)
	}
	if c.Watch.Debounce < 0 || c.Watch.Idle < 0 {
		return fmt.Errorf("invalid config: negative watch interval")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Format: %s, Output: %s, Encoding: %s\n", c.Format, c.OutputDir, c.StreamEncoding)
	if c.Catalog.Enabled {
		summary += fmt.Sprintf("Catalog: %s\n", c.Catalog.Path)
	} else {
		summary += "Catalog: disabled\n"
	}
	summary += fmt.Sprintf("Watch: debounce %s, idle %s", c.Watch.Debounce.Duration(), c.Watch.Idle.Duration())
	return summary
}
