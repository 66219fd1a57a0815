// Package xdg provides helpers to resolve XDG Base Directory paths for graphwatch.
// Directories fall back to the traditional locations under the home directory
// when the XDG environment variables are unset, and are created private.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "graphwatch"

// ConfigDir returns the XDG config directory for graphwatch.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/graphwatch when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for graphwatch.
// It falls back to ~/.local/state/graphwatch when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

func resolve(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
