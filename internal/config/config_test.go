package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("read timeout = %v, want 15s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.Path != "neuri.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Schedule.MaxDays != 365 {
		t.Errorf("max days = %d, want 365", cfg.Schedule.MaxDays)
	}
	if cfg.Schedule.Location != time.UTC {
		t.Errorf("location = %v, want UTC", cfg.Schedule.Location)
	}
	if cfg.Materializer.Enabled {
		t.Error("materializer should be disabled by default")
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEURI_HTTP_PORT", "9090")
	t.Setenv("NEURI_LOG_LEVEL", "debug")
	t.Setenv("NEURI_ASSISTANT_USER_ID", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	t.Setenv("NEURI_MATERIALIZER_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Assistant.UserID != "1b4e28ba-2fa1-11d2-883f-0016d3cca427" {
		t.Errorf("assistant user id = %q", cfg.Assistant.UserID)
	}
	if !cfg.Materializer.Enabled {
		t.Error("expected materializer enabled")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neuri.yaml")
	content := `
http:
  port: 7000
  write_timeout: 30s
schedule:
  timezone: America/New_York
  max_days: 90
materializer:
  spec: "@hourly"
  horizon_days: 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if _, tzErr := time.LoadLocation("America/New_York"); tzErr != nil {
			t.Skip("tzdata not available")
		}
		t.Fatalf("load file: %v", err)
	}
	if cfg.HTTP.Port != 7000 || cfg.HTTP.WriteTimeout != 30*time.Second {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.Schedule.Location.String() != "America/New_York" || cfg.Schedule.MaxDays != 90 {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Materializer.Spec != "@hourly" || cfg.Materializer.HorizonDays != 3 {
		t.Errorf("materializer = %+v", cfg.Materializer)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"NEURI_HTTP_PORT": "70000"}},
		{"bad timezone", map[string]string{"NEURI_SCHEDULE_TIMEZONE": "Mars/Olympus"}},
		{"zero max days", map[string]string{"NEURI_SCHEDULE_MAX_DAYS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
