// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Question string `json:"question,omitempty"` // Path to the exam question file
	Response string `json:"response,omitempty"` // Path to the student response file
	Rubric   string `json:"rubric,omitempty"`   // Path to the rubric file
	Audio    string `json:"audio,omitempty"`    // Path to the pitch recording
	CacheDir string `json:"cache_dir,omitempty"` // Directory for cached transcripts

	// Behavior
	ExamType    string `json:"exam_type,omitempty"`    // Declared exam type; empty means classify
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name, path string
	}{
		{"question", c.Question},
		{"response", c.Response},
		{"rubric", c.Rubric},
		{"audio", c.Audio},
	} {
		if p.path == "" {
			continue
		}
		if _, err := os.Stat(p.path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", p.name, p.path)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Question == "" {
		result.Question = defaults.Question
	}
	if result.Response == "" {
		result.Response = defaults.Response
	}
	if result.Rubric == "" {
		result.Rubric = defaults.Rubric
	}
	if result.Audio == "" {
		result.Audio = defaults.Audio
	}
	if result.CacheDir == "" {
		result.CacheDir = defaults.CacheDir
	}
	if result.ExamType == "" {
		result.ExamType = defaults.ExamType
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}
