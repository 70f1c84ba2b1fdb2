package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"quality too high", func(c *Config) { c.Capture.Quality = 150 }},
		{"quality too low", func(c *Config) { c.Capture.Quality = 0 }},
		{"bad format", func(c *Config) { c.Capture.Format = "bmp" }},
		{"negative max edge", func(c *Config) { c.Capture.MaxEdge = -1 }},
		{"empty ollama url", func(c *Config) { c.Classify.OllamaURL = "" }},
		{"empty model", func(c *Config) { c.Classify.Model = "" }},
		{"temperature out of range", func(c *Config) { c.Classify.Temperature = 3 }},
		{"negative cache ttl", func(c *Config) { c.Geo.CacheTTLSeconds = -1 }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Classify.Model = "minicpm-v"
	cfg.Geo.RedisAddr = "localhost:6379"

	path := filepath.Join(t.TempDir(), "config.json")
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Classify.Model != "minicpm-v" {
		t.Errorf("model not round-tripped: %q", loaded.Classify.Model)
	}
	if loaded.Geo.RedisAddr != "localhost:6379" {
		t.Errorf("redis addr not round-tripped: %q", loaded.Geo.RedisAddr)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.json"); err == nil {
		t.Error("expected error for missing file")
	}
}
