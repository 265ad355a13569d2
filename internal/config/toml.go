// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server ServerConfig `toml:"server"`
	Arena  ArenaConfig  `toml:"arena"`
}

// ServerConfig maps backend endpoints.
type ServerConfig struct {
	BackendURL  *string `toml:"backend-url"`
	AuthURL     *string `toml:"auth-url"`
	SocketURL   *string `toml:"socket-url"`
	ExecutorURL *string `toml:"executor-url"`
	TimeoutSec  *int    `toml:"timeout"`
}

// ArenaConfig maps arena-related settings.
type ArenaConfig struct {
	Language     *string `toml:"language"`
	MatchSeconds *int    `toml:"match-seconds"`
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
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
