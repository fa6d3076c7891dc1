package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Sangwon91/prior/agent"
)

const defaultBufferSize = 64

// Config holds initialization parameters for the bridge server and agent.
type Config struct {
	Agent       agent.Config `json:"agent"`
	Host        string       `json:"host,omitempty"`
	Port        int          `json:"port,omitempty"`
	BufferSize  int          `json:"buffer_size,omitempty"`
	ProjectRoot string       `json:"project_root,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Agent:      agent.DefaultConfig(),
		Host:       "localhost",
		Port:       8000,
		BufferSize: defaultBufferSize,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)

	if source.Host != "" {
		c.Host = source.Host
	}
	if source.Port > 0 {
		c.Port = source.Port
	}
	if source.BufferSize > 0 {
		c.BufferSize = source.BufferSize
	}
	if source.ProjectRoot != "" {
		c.ProjectRoot = source.ProjectRoot
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
