package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.KeepPastDays == nil || *cfg.KeepPastDays != 7 {
		t.Errorf("default retention = %v, want 7", cfg.KeepPastDays)
	}
	if cfg.CalDAV.Calendar != "Weather" {
		t.Errorf("default calendar = %q", cfg.CalDAV.Calendar)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perms = %o, want 600", perm)
	}
}

func TestLoadKeepsExplicitZeroRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`caldav:
  url: "https://caldav.example.com/user"
  calendar: "Weather"
keep_past_days: 0
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeepPastDays == nil || *cfg.KeepPastDays != 0 {
		t.Errorf("retention = %v, want explicit 0 preserved", cfg.KeepPastDays)
	}
}

func TestNormalizeClampsNegativeRetention(t *testing.T) {
	neg := -3
	cfg := &Config{KeepPastDays: &neg}
	cfg.Normalize()
	if *cfg.KeepPastDays != 0 {
		t.Errorf("retention = %d, want 0", *cfg.KeepPastDays)
	}
}

func TestApplyEnvOverridesSecrets(t *testing.T) {
	t.Setenv("WEATHERCAL_CALDAV_PASSWORD", "from-env")
	t.Setenv("OPENWEATHER_API_KEY", "owm-env")

	cfg := DefaultConfig()
	cfg.CalDAV.Password = "from-file"
	cfg.ApplyEnv()

	if cfg.CalDAV.Password != "from-env" {
		t.Errorf("password = %q, want env override", cfg.CalDAV.Password)
	}
	if cfg.OpenWeather.APIKey != "owm-env" {
		t.Errorf("api key = %q, want env override", cfg.OpenWeather.APIKey)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalDAV.URL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("expected a validation error for a malformed caldav url")
	}

	cfg.CalDAV.URL = "https://caldav.example.com/user"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
