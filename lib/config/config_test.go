// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Engine.BaseURL == "" {
		t.Error("default config has empty engine base URL")
	}
	if cfg.Engine.PollInterval.Std() != DefaultPollInterval {
		t.Errorf("poll interval = %v, want %v", cfg.Engine.PollInterval.Std(), DefaultPollInterval)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentpilot.yaml")
	content := `
engine:
  base_url: "http://engine.internal:9000"
  poll_interval: 5s
capture:
  enabled: true
  folder_id: "research"
history:
  path: "/tmp/history.jsonl"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.BaseURL != "http://engine.internal:9000" {
		t.Errorf("base URL = %q", cfg.Engine.BaseURL)
	}
	if cfg.Engine.PollInterval.Std() != 5*time.Second {
		t.Errorf("poll interval = %v, want 5s", cfg.Engine.PollInterval.Std())
	}
	if cfg.Engine.RequestTimeout.Std() != DefaultRequestTimeout {
		t.Errorf("request timeout = %v, want default", cfg.Engine.RequestTimeout.Std())
	}
	if !cfg.Capture.Enabled || cfg.Capture.FolderID != "research" {
		t.Errorf("capture config = %+v", cfg.Capture)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateCaptureRequiresFolder(t *testing.T) {
	cfg := Default()
	cfg.Capture.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled capture without folder_id")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.BaseURL != Default().Engine.BaseURL {
		t.Errorf("base URL = %q, want default", cfg.Engine.BaseURL)
	}
}
