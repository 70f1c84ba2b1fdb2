package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Geo      GeoConfig      `json:"geo"`
	Capture  CaptureConfig  `json:"capture"`
	Classify ClassifyConfig `json:"classify"`
}

// GeoConfig holds configuration for location resolution
type GeoConfig struct {
	NominatimURL    string `json:"nominatim_url"`
	RedisAddr       string `json:"redis_addr"` // empty disables the lookup cache
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`
}

// CaptureConfig holds configuration for frame capture and encoding
type CaptureConfig struct {
	Format   string `json:"format"` // jpg|png|webp
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
	MaxEdge  int    `json:"max_edge"`
}

// ClassifyConfig holds configuration for the streaming classifier
type ClassifyConfig struct {
	OllamaURL          string  `json:"ollama_url"`
	Model              string  `json:"model"`
	Temperature        float64 `json:"temperature"`
	TopP               float64 `json:"top_p"`
	MaxDurationSeconds int     `json:"max_duration_seconds"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Geo: GeoConfig{
			NominatimURL:    "https://nominatim.openstreetmap.org",
			CacheTTLSeconds: 3600,
		},
		Capture: CaptureConfig{
			Format:  "jpg",
			Quality: 85,
			MaxEdge: 1536,
		},
		Classify: ClassifyConfig{
			OllamaURL:          "http://localhost:11434",
			Model:              "llava",
			Temperature:        0.7,
			TopP:               0.9,
			MaxDurationSeconds: 300,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		return fmt.Errorf("capture.quality must be between 1 and 100")
	}

	switch c.Capture.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("capture.format must be one of jpg, png, webp")
	}

	if c.Capture.MaxEdge < 0 {
		return fmt.Errorf("capture.max_edge must not be negative")
	}

	if c.Classify.OllamaURL == "" {
		return fmt.Errorf("classify.ollama_url cannot be empty")
	}

	if c.Classify.Model == "" {
		return fmt.Errorf("classify.model cannot be empty")
	}

	if c.Classify.Temperature < 0 || c.Classify.Temperature > 2 {
		return fmt.Errorf("classify.temperature must be between 0 and 2")
	}

	if c.Geo.CacheTTLSeconds < 0 {
		return fmt.Errorf("geo.cache_ttl_seconds must not be negative")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "recyclelens", "config.json")
}
