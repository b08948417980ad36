package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestLoad_WritesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level=info, got %q", cfg.LogLevel)
	}
	if cfg.Backend.TimeoutSeconds != 60 {
		t.Errorf("expected timeout 60, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Reveal.Speed != 1 || cfg.RevealInterval() != 20*time.Millisecond {
		t.Errorf("unexpected reveal defaults: %+v", cfg.Reveal)
	}
	if cfg.Tutor.TokenizerModel != "gpt-4" {
		t.Errorf("expected tokenizer gpt-4, got %q", cfg.Tutor.TokenizerModel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := tempConfigPath(t)

	cfg := defaults()
	cfg.Backend.BaseURL = "http://from-file"
	writeTestConfig(t, path, cfg)

	t.Setenv("GYAANSETU_BACKEND_URL", "http://from-env")
	t.Setenv("GYAANSETU_API_KEY", "env-key")
	t.Setenv("GYAANSETU_USER_ID", "learner-7")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend.BaseURL != "http://from-env" {
		t.Errorf("expected env base url, got %q", loaded.Backend.BaseURL)
	}
	if loaded.Backend.APIKey != "env-key" {
		t.Errorf("expected env api key, got %q", loaded.Backend.APIKey)
	}
	if loaded.UserID != "learner-7" {
		t.Errorf("expected env user id, got %q", loaded.UserID)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := &Config{
		DataDir:  "/tmp/test-data",
		LogLevel: "debug",
		UserID:   "u1",
	}
	original.Backend.BaseURL = "http://tutor.local"
	original.Backend.APIKey = "gs-round-trip"
	original.Backend.TimeoutSeconds = 30
	original.Reveal.Speed = 2
	original.Reveal.IntervalMS = 10
	original.Tutor.MaxContextTokens = 3000
	original.Speech.Command = "espeak"

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir: expected %q, got %q", original.DataDir, loaded.DataDir)
	}
	if loaded.Backend != original.Backend {
		t.Errorf("Backend: expected %+v, got %+v", original.Backend, loaded.Backend)
	}
	if loaded.Reveal != original.Reveal {
		t.Errorf("Reveal: expected %+v, got %+v", original.Reveal, loaded.Reveal)
	}
	if loaded.Tutor.MaxContextTokens != 3000 {
		t.Errorf("Tutor.MaxContextTokens: got %d", loaded.Tutor.MaxContextTokens)
	}
	if loaded.Speech.Command != "espeak" {
		t.Errorf("Speech.Command: got %q", loaded.Speech.Command)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.json")

	if err := Save(path, &Config{LogLevel: "warn"}); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}

func TestListValues(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	cfg.Backend.APIKey = "gs-secret-key-1234"

	plain := ListValues(cfg, false)
	if plain["backend.api_key"] != "gs-secret-key-1234" {
		t.Errorf("expected unmasked backend.api_key, got %v", plain["backend.api_key"])
	}

	masked := ListValues(cfg, true)
	if masked["backend.api_key"] != "***1234" {
		t.Errorf("expected masked backend.api_key=***1234, got %v", masked["backend.api_key"])
	}
	if masked["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", masked["log_level"])
	}
}

func TestGetValue_ExistingKey(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "debug"}
	cfg.Backend.BaseURL = "http://tutor.local"
	cfg.Backend.TimeoutSeconds = 8
	writeTestConfig(t, path, cfg)

	v, err := GetValue(path, "backend.base_url")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "http://tutor.local" {
		t.Errorf("expected backend.base_url, got %v", v)
	}

	v, err = GetValue(path, "backend.timeout_seconds")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != 8 {
		t.Errorf("expected timeout 8, got %v (%T)", v, v)
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, &Config{LogLevel: "info"})

	_, err := GetValue(path, "nonexistent.key")
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	expected := "unknown config key: nonexistent.key"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestGetValue_NonexistentFile(t *testing.T) {
	path := tempConfigPath(t)

	// Load creates the file with defaults
	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != "info" {
		t.Errorf("expected default log_level=info, got %v", v)
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  any
	}{
		{"log_level", "debug", "debug"},
		{"backend.timeout_seconds", "16", 16},
		{"reveal.speed", "0.5", 0.5},
		{"speech.command", "say -v Veena", "say -v Veena"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			path := tempConfigPath(t)
			cfg := &Config{LogLevel: "info"}
			cfg.Backend.BaseURL = "http://tutor.local"
			writeTestConfig(t, path, cfg)

			if err := SetValue(path, tt.key, tt.value); err != nil {
				t.Fatalf("SetValue failed: %v", err)
			}
			v, err := GetValue(path, tt.key)
			if err != nil {
				t.Fatalf("GetValue failed: %v", err)
			}
			if v != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, v, v)
			}

			// Other values are preserved
			if v, _ := GetValue(path, "backend.base_url"); v != "http://tutor.local" {
				t.Errorf("backend.base_url not preserved, got %v", v)
			}
		})
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	if err := SetValue(path, "log_level", "debug"); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestSetValue_RejectsBadInput(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"custom.flag", "true", "unknown config key: custom.flag"},
		{"backend.timeout_seconds", "soon", `backend.timeout_seconds: expected an integer, got "soon"`},
		{"reveal.speed", "fast", `reveal.speed: expected a number, got "fast"`},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			path := tempConfigPath(t)
			writeTestConfig(t, path, &Config{LogLevel: "info"})

			err := SetValue(path, tt.key, tt.value)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected error %q, got %v", tt.want, err)
			}
			if v, _ := GetValue(path, "log_level"); v != "info" {
				t.Errorf("file changed after rejected set: log_level=%v", v)
			}
		})
	}
}
