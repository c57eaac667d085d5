// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for agentpilot
// commands.
//
// Configuration is loaded from a single YAML file specified by the
// AGENTPILOT_CONFIG environment variable or a --config flag. There is
// no automatic discovery or fallback chain: deterministic, auditable
// configuration with no hidden overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "AGENTPILOT_CONFIG"

// Duration wraps time.Duration with YAML unmarshalling from the
// standard "2s" / "500ms" string form.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration's string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the configuration for agentpilot commands.
type Config struct {
	// Engine configures the automation engine endpoints.
	Engine EngineConfig `yaml:"engine"`

	// Capture configures visited-URL capture into a collection.
	Capture CaptureConfig `yaml:"capture"`

	// History configures the terminal-job history recorder.
	History HistoryConfig `yaml:"history"`
}

// EngineConfig locates the automation engine and tunes the sync loop.
type EngineConfig struct {
	// BaseURL is the engine's HTTP base URL (e.g., "http://localhost:8700").
	BaseURL string `yaml:"base_url"`

	// PollInterval is the cadence of authoritative status polls while
	// a job is non-terminal. Zero means DefaultPollInterval.
	PollInterval Duration `yaml:"poll_interval"`

	// RequestTimeout bounds individual REST calls (start, cancel,
	// intervention submit). Zero means DefaultRequestTimeout. Status
	// polls are bounded by the poll interval itself.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// CaptureConfig configures visited-URL capture.
type CaptureConfig struct {
	// Enabled turns on auto-capture of visited URLs.
	Enabled bool `yaml:"enabled"`

	// FolderID is the collection folder receiving captured URLs.
	FolderID string `yaml:"folder_id"`
}

// HistoryConfig configures the JSONL history recorder.
type HistoryConfig struct {
	// Path is the JSONL file terminal jobs are appended to. Empty
	// disables history recording.
	Path string `yaml:"path"`
}

// Default timing values, applied by Validate when the file leaves them
// unset.
const (
	DefaultPollInterval   = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Default returns a configuration suitable for a local engine.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			BaseURL:        "http://localhost:8700",
			PollInterval:   Duration(DefaultPollInterval),
			RequestTimeout: Duration(DefaultRequestTimeout),
		},
	}
}

// Load reads and validates the config file at path. If path is empty,
// the AGENTPILOT_CONFIG environment variable is consulted; if that is
// also empty, Default() is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return config, nil
}

// Validate checks required fields and applies timing defaults.
func (c *Config) Validate() error {
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.Engine.PollInterval < 0 {
		return fmt.Errorf("engine.poll_interval must not be negative")
	}
	if c.Engine.PollInterval == 0 {
		c.Engine.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Engine.RequestTimeout == 0 {
		c.Engine.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if c.Capture.Enabled && c.Capture.FolderID == "" {
		return fmt.Errorf("capture.folder_id is required when capture is enabled")
	}
	return nil
}
