// Package config_test tests the configuration loading for the xtts-service.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/xtts-service/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[paths]
speaker_dir = "speakers"
output_dir = "output"
base_logs_dir = "/var/log/xtts-service"

[model]
source = "api"
version = "2.0.2"
device = "cuda"
low_memory = true

[remote]
url = "http://localhost:8020"
timeout_seconds = 300

[nats]
url = "nats://127.0.0.1:4222"
speech_request_subject = "speech.requested"
audio_object_store_bucket = "AUDIO_FILES"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "speakers", cfg.Paths.SpeakerDir)
	assert.Equal(t, "output", cfg.Paths.OutputDir)
	assert.Equal(t, "/var/log/xtts-service", cfg.Paths.BaseLogsDir)
	assert.Equal(t, "api", cfg.Model.Source)
	assert.Equal(t, "2.0.2", cfg.Model.Version)
	assert.Equal(t, "cuda", cfg.Model.Device)
	assert.True(t, cfg.Model.LowMemory)
	assert.Equal(t, "http://localhost:8020", cfg.Remote.URL)
	assert.Equal(t, 300, cfg.Remote.TimeoutSeconds)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "speech.requested", cfg.NATS.SpeechRequestSubject)
	assert.Equal(t, "AUDIO_FILES", cfg.NATS.AudioObjectStoreBucket)
}
