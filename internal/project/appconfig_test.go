package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/PlateNest/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultMargin = 4.0
	cfg.DefaultPlateProfile = "Prusa MK4"
	cfg.DefaultStep = 3
	cfg.RecentJobs = []string{"/tmp/job1.platenest.json", "/tmp/job2.platenest.json"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultMargin != 4.0 {
		t.Errorf("expected DefaultMargin=4.0, got %f", loaded.DefaultMargin)
	}
	if loaded.DefaultPlateProfile != "Prusa MK4" {
		t.Errorf("expected DefaultPlateProfile=Prusa MK4, got %s", loaded.DefaultPlateProfile)
	}
	if loaded.DefaultStep != 3 {
		t.Errorf("expected DefaultStep=3, got %d", loaded.DefaultStep)
	}
	if len(loaded.RecentJobs) != 2 {
		t.Errorf("expected 2 recent jobs, got %d", len(loaded.RecentJobs))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultMargin != defaults.DefaultMargin {
		t.Errorf("expected default margin %f, got %f", defaults.DefaultMargin, cfg.DefaultMargin)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadAppConfigNilRecentJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"default_margin": 6}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.RecentJobs == nil {
		t.Error("expected RecentJobs to be non-nil")
	}
	if cfg.DefaultMargin != 6 {
		t.Errorf("expected DefaultMargin=6, got %f", cfg.DefaultMargin)
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.json")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to exist: %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if filepath.Base(path) != "config.json" {
		t.Errorf("expected config.json, got %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != ".platenest" {
		t.Errorf("expected .platenest directory, got %s", filepath.Dir(path))
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"default_step": 4}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultStep != 4 {
		t.Errorf("expected DefaultStep=4, got %d", cfg.DefaultStep)
	}
	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("expected default log level %s, got %s", defaults.LogLevel, cfg.LogLevel)
	}
	if cfg.DefaultPlateProfile != defaults.DefaultPlateProfile {
		t.Errorf("expected default plate profile %s, got %s", defaults.DefaultPlateProfile, cfg.DefaultPlateProfile)
	}
	if cfg.DefaultScale != defaults.DefaultScale {
		t.Errorf("expected default scale %f, got %f", defaults.DefaultScale, cfg.DefaultScale)
	}
}
