// Package config handles loading and saving kin configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/kin/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UIConfig holds TUI preference settings.
type UIConfig struct {
	// AutoSearchMinChars triggers a search automatically once the query
	// reaches this many runes. 0 disables auto-search (submit only).
	AutoSearchMinChars int `yaml:"auto_search_min_chars,omitempty"`
	// LiveReload re-loads the dataset when the data file changes on disk.
	LiveReload *bool `yaml:"live_reload,omitempty"`
}

// ServeConfig holds HTTP server settings.
type ServeConfig struct {
	Addr    string `yaml:"addr,omitempty"`     // listen address, default :8000
	SiteDir string `yaml:"site_dir,omitempty"` // static site directory
}

// ExportConfig holds chart snapshot settings.
type ExportConfig struct {
	Preset string `yaml:"preset,omitempty"` // "compact" (default) or "roomy"
}

// Config is the top-level configuration for kin.
type Config struct {
	// DataFile is an explicit dataset path; DataDir is searched for the
	// preferred file names when DataFile is empty.
	DataFile string       `yaml:"data_file,omitempty"`
	DataDir  string       `yaml:"data_dir,omitempty"`
	UI       UIConfig     `yaml:"ui,omitempty"`
	Serve    ServeConfig  `yaml:"serve,omitempty"`
	Export   ExportConfig `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			AutoSearchMinChars: 2,
		},
		Serve: ServeConfig{
			Addr: ":8000",
		},
		Export: ExportConfig{
			Preset: "compact",
		},
	}
}

// LiveReloadEnabled reports the live reload setting, defaulting to on.
func (c Config) LiveReloadEnabled() bool {
	if c.UI.LiveReload == nil {
		return true
	}
	return *c.UI.LiveReload
}

// ConfigDir returns the XDG config directory for kin.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kin")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DataFile = expandHome(cfg.DataFile)
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Serve.SiteDir = expandHome(cfg.Serve.SiteDir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
