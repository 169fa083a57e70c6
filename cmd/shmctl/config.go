package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds the CLI's adjustable defaults. None of it is required:
// the tool runs fine with DefaultConfig() and no file on disk at all.
type Config struct {
	RegionSize int `json:"region_size,omitempty"`
	Capacity   int `json:"capacity,omitempty"`
	ItemSize   int `json:"item_size,omitempty"`
}

// DefaultConfig returns the built-in defaults used when no config file
// is present and no CLI flag overrides them.
func DefaultConfig() Config {
	return Config{
		RegionSize: 4096,
		Capacity:   16,
		ItemSize:   64,
	}
}

// configFileName is the default config file name under
// $XDG_CONFIG_HOME/shmkit (or ~/.config/shmkit if unset).
const configFileName = "config.jsonc"

func globalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shmkit", configFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shmkit", configFileName)
}

// LoadConfig loads Config with the following precedence (highest
// wins): defaults, then the global config file if present, then an
// explicit --config path if given.
func LoadConfig(explicitPath string) (Config, error) {
	cfg := DefaultConfig()

	if path := globalConfigPath(); path != "" {
		merged, loaded, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg = mergeConfig(cfg, merged)
		}
	}

	if explicitPath != "" {
		merged, loaded, err := loadConfigFile(explicitPath)
		if err != nil {
			return Config{}, err
		}
		if !loaded {
			return Config{}, fmt.Errorf("config file not found: %s", explicitPath)
		}
		cfg = mergeConfig(cfg, merged)
	}

	return cfg, nil
}

func loadConfigFile(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	return cfg, true, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.RegionSize != 0 {
		base.RegionSize = overlay.RegionSize
	}
	if overlay.Capacity != 0 {
		base.Capacity = overlay.Capacity
	}
	if overlay.ItemSize != 0 {
		base.ItemSize = overlay.ItemSize
	}
	return base
}
