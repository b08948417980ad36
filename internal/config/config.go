package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	UserID   string `json:"user_id"`
	Backend  struct {
		BaseURL        string `json:"base_url"`
		APIKey         string `json:"api_key" secret:"true"`
		TimeoutSeconds int    `json:"timeout_seconds"`
		MaxConcurrent  int    `json:"max_concurrent"`
	} `json:"backend"`
	Reveal struct {
		Speed      float64 `json:"speed"`
		IntervalMS int     `json:"interval_ms"`
	} `json:"reveal"`
	Tutor struct {
		TokenizerModel   string `json:"tokenizer_model"`
		MaxContextTokens int    `json:"max_context_tokens"`
		DoubtReserve     int    `json:"doubt_reserve"`
	} `json:"tutor"`
	Speech struct {
		Command string `json:"command"`
	} `json:"speech"`
}

// RevealInterval is the base reveal tick period.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Reveal.IntervalMS) * time.Millisecond
}

// DefaultPath is ~/.gyaansetu/config.json.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".gyaansetu", "config.json")
}

func defaults() *Config {
	cfg := &Config{
		DataDir:  filepath.Join(os.Getenv("HOME"), ".gyaansetu"),
		LogLevel: "info",
		UserID:   "default_user",
	}
	cfg.Backend.BaseURL = "http://localhost:8000"
	cfg.Backend.TimeoutSeconds = 60
	cfg.Backend.MaxConcurrent = 4
	cfg.Reveal.Speed = 1
	cfg.Reveal.IntervalMS = 20
	cfg.Tutor.TokenizerModel = "gpt-4"
	cfg.Tutor.MaxContextTokens = 6000
	cfg.Tutor.DoubtReserve = 500
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("GYAANSETU_BACKEND_URL"); baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if apiKey := os.Getenv("GYAANSETU_API_KEY"); apiKey != "" {
		cfg.Backend.APIKey = apiKey
	}
	if userID := os.Getenv("GYAANSETU_USER_ID"); userID != "" {
		cfg.UserID = userID
	}

	return cfg, nil
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ListValues returns every setting as a flat dot-key map, optionally with
// secrets masked.
func ListValues(cfg *Config, mask bool) map[string]any {
	return cfg.Values(!mask)
}

// readFile decodes the config file over the defaults without applying
// environment overrides.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// GetValue reads a single dot-key from the config file, creating the file
// with defaults first if it does not exist.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return cfg.Get(key)
}

// SetValue writes a single dot-key to an existing config file. The value is
// parsed according to the setting's type; unknown keys are rejected.
func SetValue(path, key, value string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return Save(path, cfg)
}
