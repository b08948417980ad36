package config

import (
	"slices"
	"testing"
)

func TestKeys_FollowJSONTags(t *testing.T) {
	keys := Keys()
	for _, want := range []string{
		"data_dir",
		"backend.base_url",
		"backend.api_key",
		"backend.max_concurrent",
		"reveal.interval_ms",
		"tutor.doubt_reserve",
		"speech.command",
	} {
		if !slices.Contains(keys, want) {
			t.Errorf("missing key %s in %v", want, keys)
		}
	}
	if slices.Contains(keys, "backend") {
		t.Error("struct groups should not be listed as keys")
	}
}

func TestIsSecretKey(t *testing.T) {
	if !IsSecretKey("backend.api_key") {
		t.Error("backend.api_key should be secret")
	}
	if IsSecretKey("backend.base_url") {
		t.Error("backend.base_url should not be secret")
	}
	if IsSecretKey("nonexistent") {
		t.Error("unknown keys are not secret")
	}
}

func TestConfigGetSet(t *testing.T) {
	cfg := defaults()
	if err := cfg.Set("reveal.speed", " 1.75 "); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cfg.Set("tutor.max_context_tokens", "8000"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cfg.Set("speech.command", "espeak-ng -v hi"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cfg.Reveal.Speed != 1.75 || cfg.Tutor.MaxContextTokens != 8000 || cfg.Speech.Command != "espeak-ng -v hi" {
		t.Errorf("fields not updated: %+v", cfg)
	}

	v, err := cfg.Get("tutor.max_context_tokens")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 8000 {
		t.Errorf("expected 8000, got %v (%T)", v, v)
	}
	if _, err := cfg.Get("tutor"); err == nil {
		t.Error("expected error for group key")
	}
}

func TestValues_MasksSecrets(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"long", "gs-test123456", "***3456"},
		{"empty", "", ""},
		{"short", "ab", "***ab"},
		{"four", "abcd", "***abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: "info"}
			cfg.Backend.APIKey = tt.value

			got := cfg.Values(false)
			if got["backend.api_key"] != tt.want {
				t.Errorf("expected %q, got %v", tt.want, got["backend.api_key"])
			}
			if got["log_level"] != "info" {
				t.Errorf("non-secret changed: %v", got["log_level"])
			}
			if revealed := cfg.Values(true); revealed["backend.api_key"] != tt.value {
				t.Errorf("expected revealed %q, got %v", tt.value, revealed["backend.api_key"])
			}
		})
	}
}

func TestValues_CoversEveryKey(t *testing.T) {
	values := defaults().Values(true)
	if len(values) != len(Keys()) {
		t.Fatalf("expected %d values, got %d", len(Keys()), len(values))
	}
	if values["backend.timeout_seconds"] != 60 {
		t.Errorf("expected default timeout 60, got %v", values["backend.timeout_seconds"])
	}
}
