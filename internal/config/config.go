package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"convmetrics/internal/patterns"
)

// ErrNotInitialized is returned by Load when no config file exists yet.
var ErrNotInitialized = errors.New("not initialized, run 'convmetrics init' first")

// Config holds the resolved settings for one run.
type Config struct {
	ConfigDir    string
	ProjectsPath string
	StoragePath  string
	ScanInterval string
	Patterns     map[string][]patterns.PatternDef
}

// fileConfig mirrors config.yaml on disk.
type fileConfig struct {
	DataSources struct {
		ProjectsPath string `yaml:"projects_path"`
		ScanInterval string `yaml:"scan_interval"`
	} `yaml:"data_sources"`
	Storage struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Patterns map[string][]patterns.PatternDef `yaml:"patterns"`
}

// DefaultDir is where config and database live unless overridden.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".convmetrics")
}

func defaults(configDir string) Config {
	home, _ := os.UserHomeDir()
	return Config{
		ConfigDir:    configDir,
		ProjectsPath: filepath.Join(home, ".claude", "projects"),
		StoragePath:  filepath.Join(configDir, "metrics.db"),
		ScanInterval: "5m",
	}
}

// CreateDefault writes a fresh config.yaml (including the built-in pattern
// table, so it can be edited in place) and returns the resulting config.
func CreateDefault(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg := defaults(configDir)

	var fc fileConfig
	fc.DataSources.ProjectsPath = cfg.ProjectsPath
	fc.DataSources.ScanInterval = cfg.ScanInterval
	fc.Storage.Type = "sqlite"
	fc.Storage.Path = cfg.StoragePath
	fc.Patterns = patterns.Defaults()

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	cfg.Patterns = fc.Patterns
	return &cfg, nil
}

// Load reads config.yaml from configDir (the default directory when empty).
// Missing keys fall back to defaults; a missing file is ErrNotInitialized.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultDir()
	}

	path := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg := defaults(configDir)
	if fc.DataSources.ProjectsPath != "" {
		cfg.ProjectsPath = fc.DataSources.ProjectsPath
	}
	if fc.DataSources.ScanInterval != "" {
		cfg.ScanInterval = fc.DataSources.ScanInterval
	}
	if fc.Storage.Path != "" {
		cfg.StoragePath = fc.Storage.Path
	}
	cfg.Patterns = fc.Patterns
	return &cfg, nil
}

// PatternTable merges any configured pattern categories over the built-in
// defaults. Custom categories replace the whole built-in category.
func (c *Config) PatternTable() map[string][]patterns.PatternDef {
	return patterns.Merge(patterns.Defaults(), c.Patterns)
}
