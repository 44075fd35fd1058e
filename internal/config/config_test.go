package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.AppName != "Sunshift" {
		t.Errorf("AppName = %q, want Sunshift", cfg.AppName)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.PollInterval.Duration() != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval.Duration())
	}
	if cfg.Bridge.Workers != 4 || cfg.Bridge.QueueSize != 32 {
		t.Errorf("Bridge = %+v, want 4 workers and queue 32", cfg.Bridge)
	}

	want := map[string]uint16{"day": 6500, "evening": 4500, "night": 3000, "reading": 5000, "movie": 3500}
	if len(cfg.Presets) != len(want) {
		t.Fatalf("got %d presets, want %d", len(cfg.Presets), len(want))
	}
	for id, temperature := range want {
		p, ok := cfg.Preset(id)
		if !ok {
			t.Errorf("preset %q missing", id)
			continue
		}
		if p.Temperature != temperature {
			t.Errorf("preset %q temperature = %d, want %d", id, p.Temperature, temperature)
		}
	}

	if def := Default(); def.AppName != cfg.AppName || len(def.Presets) != len(cfg.Presets) {
		t.Errorf("Default() = %+v, want defaults of an empty file", def)
	}
}

func TestParseOverrides(t *testing.T) {
	data := `
app_name: Dusk
poll_interval: 30s
bridge:
  workers: 1
presets:
  - id: night
    name: Night
    temperature: 2700
    brightness: 0.5
  - id: candle
    name: Candle
    temperature: 1900
    brightness: 0.4
`

	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.AppName != "Dusk" {
		t.Errorf("AppName = %q, want Dusk", cfg.AppName)
	}
	if cfg.PollInterval.Duration() != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval.Duration())
	}
	if cfg.Bridge.Workers != 1 || cfg.Bridge.QueueSize != 32 {
		t.Errorf("Bridge = %+v", cfg.Bridge)
	}

	night, _ := cfg.Preset("night")
	if night.Temperature != 2700 || night.Brightness != 0.5 {
		t.Errorf("night = %+v, want overridden preset", night)
	}

	candle, ok := cfg.Preset("candle")
	if !ok || candle.State().Temperature != 1900 {
		t.Errorf("candle = %+v, %v", candle, ok)
	}

	if len(cfg.Presets) != 6 {
		t.Errorf("got %d presets, want 6", len(cfg.Presets))
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"bad duration": "poll_interval: soon",
		"missing id":   "presets:\n  - temperature: 3000",
		"duplicate id": "presets:\n  - id: x\n  - id: x",
		"bad yaml":     "app_name: [",

		"negative poll interval":    "poll_interval: -1s",
		"negative shutdown timeout": "shutdown_timeout: -3s",
		"negative notify timeout":   "notify:\n  timeout: -1s",
		"negative bridge workers":   "bridge:\n  workers: -1",
		"negative bridge queue":     "bridge:\n  queue_size: -1",
		"negative eventbus workers": "eventbus:\n  workers: -2",
		"negative eventbus queue":   "eventbus:\n  queue_size: -1",
	}

	for name, data := range tests {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: Parse() returned no error", name)
		}
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SUNSHIFT_TEST_LEVEL", "debug")

	tests := []struct {
		input string
		want  string
	}{
		{"level: ${SUNSHIFT_TEST_LEVEL}", "level: debug"},
		{"level: ${SUNSHIFT_TEST_LEVEL:warn}", "level: debug"},
		{"level: ${SUNSHIFT_TEST_UNSET:warn}", "level: warn"},
		{"level: ${SUNSHIFT_TEST_UNSET}", "level: "},
		{"level: plain", "level: plain"},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.input); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	cfg, err := Parse([]byte("log:\n  level: ${SUNSHIFT_TEST_LEVEL:info}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.AppName != "Sunshift" {
		t.Errorf("AppName = %q, want Sunshift", cfg.AppName)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app_name: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Errorf("LoadOrDefault() of invalid file returned no error")
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("app_name: One\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w, err := Watch(path, 10*time.Millisecond, func(cfg *Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("app_name: Two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.AppName != "Two" {
			t.Errorf("reloaded AppName = %q, want Two", cfg.AppName)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("config was not reloaded")
	}
}
