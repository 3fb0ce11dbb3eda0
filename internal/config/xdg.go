package config

import (
	"os"
	"path/filepath"
)

// AppName names the per-application XDG directories.
const AppName = "brownian"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDataDir returns the directory holding the preset database and logs.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), AppName)
}

// DefaultDBPath returns the default path for the SQLite preset database.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "presets.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), AppName, "config.toml")
}
