// Package config loads and manages the EcoPoints client configuration file
// stored at ~/.ecopoints/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name within the config directory.
const DefaultConfigFile = "config.yaml"

// DefaultServer is the production EcoPoints API base URL.
const DefaultServer = "https://ecopoints.hvd.lat/api"

// Config represents the contents of ~/.ecopoints/config.yaml.
type Config struct {
	Server string `yaml:"server"`
	// Theme overrides the OS preference when set to "light" or "dark".
	// Empty means follow the OS.
	Theme string `yaml:"theme,omitempty"`
	// CaptureCommand is an external command producing a still image on the
	// native scan path (written to the path given as its last argument).
	CaptureCommand string `yaml:"capture_command,omitempty"`
}

func configPath(dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("determining home directory: %w", err)
		}
		dir = filepath.Join(home, ".ecopoints")
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// Load reads the config from the given directory (default ~/.ecopoints).
// Returns a default config if the file doesn't exist.
func Load(dir string) (*Config, error) {
	path, err := configPath(dir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	return &cfg, nil
}

// Save writes the config to the given directory (default ~/.ecopoints).
func Save(dir string, cfg *Config) error {
	path, err := configPath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *Config {
	return &Config{Server: DefaultServer}
}
