package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig verifies the baked-in defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.AutoSearchMinChars != 2 {
		t.Errorf("expected auto-search at 2 chars, got %d", cfg.UI.AutoSearchMinChars)
	}
	if cfg.Serve.Addr != ":8000" {
		t.Errorf("expected default addr :8000, got %s", cfg.Serve.Addr)
	}
	if cfg.Export.Preset != "compact" {
		t.Errorf("expected compact preset, got %s", cfg.Export.Preset)
	}
	if !cfg.LiveReloadEnabled() {
		t.Error("live reload should default to on")
	}
}

// TestLoadFromMissingFile verifies defaults when no config exists
func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.UI.AutoSearchMinChars != 2 {
		t.Error("expected defaults for missing file")
	}
}

// TestLoadFromYAML verifies settings override the defaults
func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_file: /data/family.json
ui:
  auto_search_min_chars: 3
  live_reload: false
serve:
  addr: ":9001"
export:
  preset: roomy
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataFile != "/data/family.json" {
		t.Errorf("data_file not loaded: %s", cfg.DataFile)
	}
	if cfg.UI.AutoSearchMinChars != 3 {
		t.Errorf("auto_search_min_chars not loaded: %d", cfg.UI.AutoSearchMinChars)
	}
	if cfg.LiveReloadEnabled() {
		t.Error("live_reload: false should disable reload")
	}
	if cfg.Serve.Addr != ":9001" || cfg.Export.Preset != "roomy" {
		t.Errorf("serve/export sections not loaded: %s %s", cfg.Serve.Addr, cfg.Export.Preset)
	}
}

// TestLoadFromInvalidYAML verifies a parse error is surfaced
func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ui: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

// TestSaveToRoundTrip verifies Save writes what LoadFrom reads
func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.DataDir = "/trees"
	off := false
	cfg.UI.LiveReload = &off

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.DataDir != "/trees" {
		t.Errorf("data_dir lost: %s", got.DataDir)
	}
	if got.LiveReloadEnabled() {
		t.Error("live reload setting lost in round trip")
	}
}

// TestExpandHome verifies tilde expansion on load
func TestExpandHome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: ~/trees\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if strings.HasPrefix(cfg.DataDir, "~") {
		t.Errorf("tilde not expanded: %s", cfg.DataDir)
	}
	if !strings.HasSuffix(cfg.DataDir, "trees") {
		t.Errorf("expansion mangled the path: %s", cfg.DataDir)
	}
}

// TestConfigDirRespectsXDG verifies XDG_CONFIG_HOME wins
func TestConfigDirRespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := ConfigDir(); got != filepath.Join(dir, "kin") {
		t.Errorf("expected %s/kin, got %s", dir, got)
	}
}
