package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"convmetrics/internal/patterns"
)

func TestLoadNotInitialized(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized", err)
	}
}

func TestCreateDefaultAndLoad(t *testing.T) {
	dir := t.TempDir()

	created, err := CreateDefault(dir)
	if err != nil {
		t.Fatal(err)
	}
	if created.StoragePath != filepath.Join(dir, "metrics.db") {
		t.Errorf("storage path: got %q", created.StoragePath)
	}
	if created.ScanInterval != "5m" {
		t.Errorf("scan interval: got %q", created.ScanInterval)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ProjectsPath != created.ProjectsPath {
		t.Errorf("projects path: got %q, want %q", loaded.ProjectsPath, created.ProjectsPath)
	}
	if loaded.StoragePath != created.StoragePath {
		t.Errorf("storage path: got %q, want %q", loaded.StoragePath, created.StoragePath)
	}

	// The written file carries the full default table, so the merged view
	// matches the built-ins exactly.
	table := loaded.PatternTable()
	defaults := patterns.Defaults()
	if len(table) != len(defaults) {
		t.Fatalf("category count: got %d, want %d", len(table), len(defaults))
	}
	for cat, defs := range defaults {
		if len(table[cat]) != len(defs) {
			t.Errorf("category %q: got %d patterns, want %d", cat, len(table[cat]), len(defs))
		}
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadMissingKeysFallBack(t *testing.T) {
	dir := t.TempDir()
	content := "data_sources:\n  projects_path: /custom/projects\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProjectsPath != "/custom/projects" {
		t.Errorf("projects path: got %q", cfg.ProjectsPath)
	}
	if cfg.ScanInterval != "5m" {
		t.Errorf("scan interval default: got %q", cfg.ScanInterval)
	}
	if cfg.StoragePath != filepath.Join(dir, "metrics.db") {
		t.Errorf("storage path default: got %q", cfg.StoragePath)
	}
}

func TestPatternTableOverride(t *testing.T) {
	cfg := &Config{
		Patterns: map[string][]patterns.PatternDef{
			patterns.CategoryErrorDetection: {{Name: "custom_error", Regex: `boom`, Weight: 99}},
		},
	}

	table := cfg.PatternTable()
	if len(table[patterns.CategoryErrorDetection]) != 1 {
		t.Fatalf("override category: got %d patterns, want 1", len(table[patterns.CategoryErrorDetection]))
	}
	if table[patterns.CategoryErrorDetection][0].Name != "custom_error" {
		t.Errorf("got %q", table[patterns.CategoryErrorDetection][0].Name)
	}
	if len(table[patterns.CategoryToolUsage]) == 0 {
		t.Error("untouched categories should keep their defaults")
	}
}
