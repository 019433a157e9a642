// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	// DataAPI is the base URL of the infrastructure dataset backend.
	DataAPI string `yaml:"data_api"`

	// LookupAPI is the base URL of the route / find-nearest backend.
	// Defaults to DataAPI when empty.
	LookupAPI string `yaml:"lookup_api,omitempty"`

	// CacheDir holds locally snapshotted collections used as a
	// fallback when a dataset fetch fails. Empty disables the fallback.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// LookupTimeout bounds each route/nearest call, in seconds.
	LookupTimeout int `yaml:"lookup_timeout,omitempty"`

	Chat   Chat   `yaml:"chat,omitempty"`
	Camera Camera `yaml:"camera,omitempty"`
}

// Chat selects and tunes the agent backend.
type Chat struct {
	// BackendURL points at an external chat agent. When empty the
	// built-in Anthropic agent is used instead.
	BackendURL string `yaml:"backend_url,omitempty"`

	Model        string `yaml:"model,omitempty"`
	MaxTokens    int    `yaml:"max_tokens,omitempty"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
}

// Camera is the initial view state shown before any interaction.
type Camera struct {
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`
	Zoom      float64 `yaml:"zoom"`
	Pitch     float64 `yaml:"pitch"`
	Bearing   float64 `yaml:"bearing"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
