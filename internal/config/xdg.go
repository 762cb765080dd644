// Package config resolves XDG paths and loads the TOML config file.
package config

import (
	"os"
	"path/filepath"
)

const appDir = "formcoach"

// XDGConfigHome returns $XDG_CONFIG_HOME, falling back to ~/.config.
func XDGConfigHome() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns $XDG_DATA_HOME, falling back to ~/.local/share.
func XDGDataHome() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, fallback)
}

// DefaultDBPath returns the default path for the takes database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "formcoach.db")
}

// DefaultChartDir returns where HTML charts are written when no output
// path is given.
func DefaultChartDir() string {
	return filepath.Join(XDGDataHome(), appDir, "charts")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}
