package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"agent": {"model": "gpt-4o-mini", "max_tokens": 1024},
		"port": 9100,
		"project_root": "/srv/project"
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("Agent.Model = %q, want gpt-4o-mini", cfg.Agent.Model)
	}
	if cfg.Agent.MaxTokens != 1024 {
		t.Errorf("Agent.MaxTokens = %d, want 1024", cfg.Agent.MaxTokens)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	// Defaults survive for fields the file omits.
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Host)
	}
	if cfg.BufferSize != defaultBufferSize {
		t.Errorf("BufferSize = %d, want default", cfg.BufferSize)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{Port: 9000, ProjectRoot: "/tmp/p"})

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.ProjectRoot != "/tmp/p" {
		t.Errorf("ProjectRoot = %q, want /tmp/p", cfg.ProjectRoot)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want default preserved", cfg.Host)
	}
}
