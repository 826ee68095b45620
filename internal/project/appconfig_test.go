package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SolarRack/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultOrientation = model.OrientationVertical
	cfg.Workers = 4
	cfg.CatalogPath = "/srv/katalog.csv"
	cfg.RecentConfigurations = []string{"a1b2c3d4", "e5f6a7b8"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultOrientation != model.OrientationVertical {
		t.Errorf("expected vertical orientation, got %s", loaded.DefaultOrientation)
	}
	if loaded.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", loaded.Workers)
	}
	if loaded.CatalogPath != "/srv/katalog.csv" {
		t.Errorf("expected catalog path, got %q", loaded.CatalogPath)
	}
	if len(loaded.RecentConfigurations) != 2 {
		t.Errorf("expected 2 recent configurations, got %d", len(loaded.RecentConfigurations))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.DefaultCellWidth != 179 || cfg.DefaultCellHeight != 113 {
		t.Errorf("expected default module size, got %vx%v", cfg.DefaultCellWidth, cfg.DefaultCellHeight)
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"workers": 8}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected Workers=8, got %d", cfg.Workers)
	}
	if cfg.DispatchTimeoutSeconds != 10 {
		t.Errorf("expected default timeout to survive, got %d", cfg.DispatchTimeoutSeconds)
	}
	if cfg.RecentConfigurations == nil {
		t.Error("RecentConfigurations should not be nil")
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv(HomeEnv, "")
	path := DefaultConfigPath()
	if filepath.Base(path) != "config.json" {
		t.Errorf("expected config.json, got %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != ".solarrack" {
		t.Errorf("expected .solarrack directory, got %s", filepath.Dir(path))
	}
}

func TestDefaultConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "config.json") {
		t.Errorf("expected config under %s, got %s", dir, got)
	}
}
