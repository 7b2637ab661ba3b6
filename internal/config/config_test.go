package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Format != DefaultFormat {
		t.Errorf("Format = %s, want %s", cfg.Format, DefaultFormat)
	}
	if cfg.StreamEncoding != "json" {
		t.Errorf("StreamEncoding = %s, want json", cfg.StreamEncoding)
	}
	if cfg.Catalog.Enabled {
		t.Error("Catalog should be disabled by default")
	}
	if cfg.Catalog.Path == "" {
		t.Error("Catalog.Path should not be empty")
	}
	if cfg.Watch.Debounce.Duration() != DefaultDebounce {
		t.Errorf("Watch.Debounce = %s, want %s", cfg.Watch.Debounce.Duration(), DefaultDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
format: smv
catalog:
  enabled: true
watch:
  idle: 2m
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}

	if cfg.Format != "smv" {
		t.Errorf("Format = %s, want smv", cfg.Format)
	}
	if !cfg.Catalog.Enabled || cfg.Catalog.Path == "" {
		t.Errorf("Catalog = %+v, want enabled with a default path", cfg.Catalog)
	}
	if cfg.Watch.Idle.Duration() != 2*time.Minute {
		t.Errorf("Watch.Idle = %s, want 2m", cfg.Watch.Idle.Duration())
	}
	if cfg.Watch.Debounce.Duration() != DefaultDebounce {
		t.Errorf("Watch.Debounce = %s, want default", cfg.Watch.Debounce.Duration())
	}
	if cfg.StreamEncoding != DefaultStreamEncoding {
		t.Errorf("StreamEncoding = %s, want default", cfg.StreamEncoding)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "format: [edf", "parse config"},
		{"bad duration", "watch:\n  debounce: soon\n", "parse config"},
		{"bad encoding", "stream_encoding: xml\n", "stream_encoding"},
		{"negative interval", "watch:\n  idle: -1s\n", "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := LoadFromPath(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFromPath() error = %v, want one mentioning %q", err, tt.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Format = "smv"
	cfg.OutputDir = "/data/out"
	cfg.StreamEncoding = "yaml"
	cfg.Metrics.Textfile = "/var/lib/node_exporter/suitcase.prom"
	cfg.Watch.Extensions = []string{"img", "edf"}
	cfg.Log.Verbose = true

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	if loaded.Format != "smv" || loaded.OutputDir != "/data/out" || loaded.StreamEncoding != "yaml" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Metrics.Textfile != cfg.Metrics.Textfile {
		t.Errorf("Metrics.Textfile = %s, want %s", loaded.Metrics.Textfile, cfg.Metrics.Textfile)
	}
	if len(loaded.Watch.Extensions) != 2 || loaded.Watch.Extensions[0] != "img" {
		t.Errorf("Watch.Extensions = %v, want [img edf]", loaded.Watch.Extensions)
	}
	if !loaded.Log.Verbose {
		t.Error("Log.Verbose should be true")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", t.TempDir())

	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := DefaultConfig().Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := DefaultConfig().Save(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Chdir(tmpDir)

	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s (env)", found, explicit)
	}

	// Explicit path doesn't exist, should fall back to the working directory
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %s, want ./%s", found, ConfigFileName)
	}
}

func TestFindConfigPathXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	want := filepath.Join(xdg, ConfigDirName, "config.yaml")
	if err := DefaultConfig().Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if found := FindConfigPath(); found != want {
		t.Errorf("FindConfigPath() = %s, want %s", found, want)
	}
}

func TestDefaultCatalogPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/srv/data")
	if got := DefaultCatalogPath(); got != "/srv/data/suitcase/catalog.db" {
		t.Errorf("DefaultCatalogPath() = %s", got)
	}

	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/beamline")
	if got := DefaultCatalogPath(); got != "/home/beamline/.local/share/suitcase/catalog.db" {
		t.Errorf("DefaultCatalogPath() = %s", got)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.Enabled = true
	cfg.Catalog.Path = "/tmp/catalog.db"

	summary := cfg.Summary()
	for _, want := range []string{"Format: edf", "Catalog: /tmp/catalog.db", "debounce 500ms"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() = %q, missing %q", summary, want)
		}
	}
}
