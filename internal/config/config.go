// Package config provides the configuration structure for the xtts-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	SpeakerDir  string `toml:"speaker_dir"`
	OutputDir   string `toml:"output_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// ModelConfig holds the configuration for the synthesis model.
type ModelConfig struct {
	// Source selects the backend: "local" or "api".
	Source string `toml:"source"`
	// Version is the model checkpoint version (e.g. "2.0.2").
	Version string `toml:"version"`
	// Device is the configured accelerator device (e.g. "cuda").
	Device string `toml:"device"`
	// LowMemory relocates the model between host and accelerator memory
	// around each request to bound peak accelerator memory use.
	LowMemory bool `toml:"low_memory"`
}

// RemoteConfig holds the configuration for the remote inference service
// used by the "api" backend.
type RemoteConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	SpeechRequestSubject   string `toml:"speech_request_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// Config is the root configuration structure.
type Config struct {
	Paths  PathsConfig  `toml:"paths"`
	Model  ModelConfig  `toml:"model"`
	Remote RemoteConfig `toml:"remote"`
	NATS   NATSConfig   `toml:"nats"`
}

// Load loads the configuration for the xtts-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
