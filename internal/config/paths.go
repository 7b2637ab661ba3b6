package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "SUITCASE_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "suitcase.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "suitcase"
)

// FindConfigPath searches for config file in priority order:
// 1. $SUITCASE_CONFIG (explicit path)
// 2. ./suitcase.yaml (working directory)
// 3. $XDG_CONFIG_HOME/suitcase/config.yaml
// 4. ~/.config/suitcase/config.yaml
// 5. /etc/suitcase/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	systemPath := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(systemPath) {
		return systemPath
	}

	return ""
}

// DefaultCatalogPath returns where the run catalog lives when the config
// does not say: $XDG_DATA_HOME/suitcase, then ~/.local/share/suitcase, then
// the working directory
func DefaultCatalogPath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, ConfigDirName, "catalog.db")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", ConfigDirName, "catalog.db")
	}
	return "suitcase.db"
}

// EnsureDir creates the parent directory of path if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
