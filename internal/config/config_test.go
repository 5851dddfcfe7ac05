package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TimezoneOffsetHours != 8 {
		t.Errorf("TimezoneOffsetHours = %d, want 8", cfg.TimezoneOffsetHours)
	}
	if cfg.Paths.CacheDir != "cache/daily" {
		t.Errorf("CacheDir = %q, want cache/daily", cfg.Paths.CacheDir)
	}
	if got := cfg.Render.Grace().Seconds(); got != 5 {
		t.Errorf("Grace = %vs, want 5s", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
timezone_offset_hours: 9
paths:
  health_dir: /data/health
  workout_dir: /data/workouts
  output_dir: /data/reports
  cache_dir: /data/cache
llm:
  model: gpt-4o
  timeout_seconds: 20
server:
  port: 9090
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TimezoneOffsetHours != 9 {
		t.Errorf("TimezoneOffsetHours = %d, want 9", cfg.TimezoneOffsetHours)
	}
	if cfg.Paths.HealthDir != "/data/health" {
		t.Errorf("HealthDir = %q", cfg.Paths.HealthDir)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if got := cfg.LLM.Timeout().Seconds(); got != 20 {
		t.Errorf("LLM timeout = %vs, want 20s", got)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PULSEREPORT_TZ_OFFSET_HOURS", "0")
	t.Setenv("PULSEREPORT_OUTPUT_DIR", "/tmp/out")
	t.Setenv("PULSEREPORT_LLM_API_KEY", "sk-test")

	path := writeConfig(t, "timezone_offset_hours: 8\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TimezoneOffsetHours != 0 {
		t.Errorf("TimezoneOffsetHours = %d, want 0 from env", cfg.TimezoneOffsetHours)
	}
	if cfg.Paths.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q, want /tmp/out", cfg.Paths.OutputDir)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
}

func TestValidateRejectsBadOffset(t *testing.T) {
	path := writeConfig(t, "timezone_offset_hours: 30\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for offset 30")
	}
}

func TestTimeoutCeilings(t *testing.T) {
	l := LLMConfig{TimeoutSeconds: 500}
	if got := l.Timeout().Seconds(); got != 60 {
		t.Errorf("LLM timeout = %vs, want 60s ceiling", got)
	}
	r := RenderConfig{TimeoutSeconds: 500}
	if got := r.Timeout().Seconds(); got != 30 {
		t.Errorf("render timeout = %vs, want 30s ceiling", got)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{TimezoneOffsetHours: 8}
	_, offset := time.Date(2026, 1, 15, 12, 0, 0, 0, cfg.Location()).Zone()
	if offset != 8*3600 {
		t.Errorf("offset = %d, want %d", offset, 8*3600)
	}
}
