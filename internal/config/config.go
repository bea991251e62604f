package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Engine     EngineConfig     `json:"engine"`
	Annotation AnnotationConfig `json:"annotation"`
	Output     OutputConfig     `json:"output"`
}

// EngineConfig holds configuration for the segmentation engine
type EngineConfig struct {
	URL        string  `json:"url"`
	Model      string  `json:"model"`
	Confidence float64 `json:"confidence"`
	ImageSize  int     `json:"image_size"`
}

// AnnotationConfig holds configuration for annotation sessions
type AnnotationConfig struct {
	Extensions []string `json:"extensions"`
}

// OutputConfig holds configuration for batch output artifacts
type OutputConfig struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			URL:        "http://localhost:8000",
			Model:      "sam2.1_l.pt",
			Confidence: 0.88,
			ImageSize:  1024,
		},
		Annotation: AnnotationConfig{
			Extensions: []string{"jpg", "jpeg", "png", "bmp", "tiff", "tif", "webp"},
		},
		Output: OutputConfig{
			Format:   "jpg",
			Quality:  90,
			Lossless: false,
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
	if c.Engine.URL == "" {
		return fmt.Errorf("engine.url cannot be empty")
	}

	if c.Engine.Model == "" {
		return fmt.Errorf("engine.model cannot be empty")
	}

	if c.Engine.Confidence <= 0 || c.Engine.Confidence > 1 {
		return fmt.Errorf("engine.confidence must be between 0 and 1")
	}

	if c.Engine.ImageSize < 1 {
		return fmt.Errorf("engine.image_size must be positive")
	}

	if len(c.Annotation.Extensions) == 0 {
		return fmt.Errorf("annotation.extensions cannot be empty")
	}

	switch c.Output.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "sam-annotator", "config.json")
}
