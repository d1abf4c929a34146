package config

import (
	"os"
	"path/filepath"
)

const appName = "gradebook"

// baseDir resolves one XDG base directory. Relative values of env are
// ignored, as the XDG base directory rules require.
func baseDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" && filepath.IsAbs(dir) {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// ConfigDir is gradebook's directory under $XDG_CONFIG_HOME.
func ConfigDir() string {
	return filepath.Join(baseDir("XDG_CONFIG_HOME", ".config"), appName)
}

// DataDir is gradebook's directory under $XDG_DATA_HOME.
func DataDir() string {
	return filepath.Join(baseDir("XDG_DATA_HOME", ".local", "share"), appName)
}

// DefaultConfigPath returns the TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDBPath returns the save journal database path.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), appName+".db")
}
