// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Weights WeightsConfig `toml:"weights"`
	History HistoryConfig `toml:"history"`
	Display DisplayConfig `toml:"display"`
}

// WeightsConfig maps the default scoring weights.
type WeightsConfig struct {
	Regular *float64 `toml:"regular"`
	Midterm *float64 `toml:"midterm"`
	Final   *float64 `toml:"final"`
}

// HistoryConfig maps save-journal settings.
type HistoryConfig struct {
	Enabled *bool `toml:"enabled"`
	Limit   *int  `toml:"limit"`
}

// DisplayConfig maps presentation settings.
type DisplayConfig struct {
	ColumnWidth *int `toml:"column-width"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
