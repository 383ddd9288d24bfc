// Package config loads and saves the smarty.yaml project config: the
// template root directory, default escaper, watch server host/port,
// and compiled-artifact cache settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of smarty.yaml.
type Config struct {
	// TemplateDir names the project's .tpl directory relative to the
	// project root. It is loaded and saved only; render, watch and repl
	// take their template paths from their own arguments and flags.
	TemplateDir string `yaml:"templateDir,omitempty"`

	// Escaper names the default output escaper: "html", "css", "js",
	// "url" or "raw".
	Escaper string `yaml:"escaper,omitempty"`

	Watch *WatchConfig `yaml:"watch,omitempty"`
	Cache *CacheConfig `yaml:"cache,omitempty"`
}

// WatchConfig configures the `smarty watch` dev server.
type WatchConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// CacheConfig configures the smcache.Cache that watch and the cache
// subcommand open; render does not use the cache.
type CacheConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	MaxSize int64  `yaml:"maxSize,omitempty"`
}

// Load reads smarty.yaml from projectPath, falling back to
// DefaultConfig if the file does not exist.
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, "smarty.yaml")

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg to smarty.yaml under projectPath.
func Save(cfg *Config, projectPath string) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(filepath.Join(projectPath, "smarty.yaml"), out, 0644)
}

// DefaultConfig returns the built-in defaults used when no
// smarty.yaml is present.
func DefaultConfig() *Config {
	return &Config{
		TemplateDir: "templates",
		Escaper:     "html",
		Watch: &WatchConfig{
			Host: "localhost",
			Port: 5859,
		},
		Cache: &CacheConfig{
			Dir:     filepath.Join(defaultCacheRoot(), "smarty"),
			MaxSize: 1 << 30,
		},
	}
}

func defaultCacheRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cache"
	}
	return filepath.Join(home, ".cache")
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.TemplateDir == "" {
		cfg.TemplateDir = defaults.TemplateDir
	}
	if cfg.Escaper == "" {
		cfg.Escaper = defaults.Escaper
	}
	if cfg.Watch == nil {
		cfg.Watch = defaults.Watch
	} else {
		if cfg.Watch.Host == "" {
			cfg.Watch.Host = defaults.Watch.Host
		}
		if cfg.Watch.Port == 0 {
			cfg.Watch.Port = defaults.Watch.Port
		}
	}
	if cfg.Cache == nil {
		cfg.Cache = defaults.Cache
	} else {
		if cfg.Cache.Dir == "" {
			cfg.Cache.Dir = defaults.Cache.Dir
		}
		if cfg.Cache.MaxSize == 0 {
			cfg.Cache.MaxSize = defaults.Cache.MaxSize
		}
	}
}
