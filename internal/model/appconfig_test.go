package model

import "testing"

func TestDefaultAppConfigMatchesDefaultSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	defaults := DefaultSettings()

	if cfg.DefaultMargin != defaults.Margin {
		t.Errorf("Margin mismatch: config=%f settings=%f", cfg.DefaultMargin, defaults.Margin)
	}
	if cfg.DefaultScale != defaults.Scale {
		t.Errorf("Scale mismatch: config=%f settings=%f", cfg.DefaultScale, defaults.Scale)
	}
	if cfg.DefaultStep != defaults.Step {
		t.Errorf("Step mismatch: config=%d settings=%d", cfg.DefaultStep, defaults.Step)
	}
	if cfg.DefaultAlgorithm != defaults.Algorithm {
		t.Errorf("Algorithm mismatch: config=%s settings=%s", cfg.DefaultAlgorithm, defaults.Algorithm)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level=info, got %s", cfg.LogLevel)
	}
	if cfg.RecentJobs == nil {
		t.Error("RecentJobs should not be nil")
	}
}

func TestApplyToSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultMargin = 3.0
	cfg.DefaultScale = 1.0
	cfg.DefaultAlgorithm = AlgorithmGenetic

	s := DefaultSettings()
	cfg.ApplyToSettings(&s)

	if s.Margin != 3.0 {
		t.Errorf("expected Margin=3.0, got %f", s.Margin)
	}
	if s.Scale != 1.0 {
		t.Errorf("expected Scale=1.0, got %f", s.Scale)
	}
	if s.Algorithm != AlgorithmGenetic {
		t.Errorf("expected Algorithm=genetic, got %s", s.Algorithm)
	}
}

func TestApplyToSettingsIgnoresZeroValues(t *testing.T) {
	s := DefaultSettings()
	AppConfig{}.ApplyToSettings(&s)

	if s != DefaultSettings() {
		t.Errorf("empty config should not change settings, got %+v", s)
	}
}

func TestAddRecentJob(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.AddRecentJob("a.json", 3)
	cfg.AddRecentJob("b.json", 3)
	cfg.AddRecentJob("a.json", 3)
	cfg.AddRecentJob("c.json", 3)
	cfg.AddRecentJob("d.json", 3)

	want := []string{"d.json", "c.json", "a.json"}
	if len(cfg.RecentJobs) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.RecentJobs)
	}
	for i := range want {
		if cfg.RecentJobs[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], cfg.RecentJobs[i])
		}
	}
}
