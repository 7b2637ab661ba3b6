package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version        int           `yaml:"version"`
	Format         string        `yaml:"format"`          // native format name, see format.Registry
	OutputDir      string        `yaml:"output_dir"`      // where exports are written
	StreamEncoding string        `yaml:"stream_encoding"` // json or yaml
	Catalog        CatalogConfig `yaml:"catalog"`
	Metrics        MetricsConfig `yaml:"metrics"`
	Watch          WatchConfig   `yaml:"watch"`
	Log            LogConfig     `yaml:"log"`
}

// CatalogConfig holds run catalog settings
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig holds batch metrics settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // empty = no textfile
}

// WatchConfig tunes directory watching for ingest -watch
type WatchConfig struct {
	Debounce   Duration `yaml:"debounce"`
	Idle       Duration `yaml:"idle"`
	Extensions []string `yaml:"extensions,omitempty"` // empty = the format's extension
}

// LogConfig holds logging settings
type LogConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
