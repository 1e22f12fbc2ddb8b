// Package audio_test tests WAV encoding of synthesized waveforms.
package audio_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/xtts-service/internal/audio"
)

func TestWriteWAV_Format(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")

	samples := make([]float64, 2400)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(float64(i)/10.0)
	}

	require.NoError(t, audio.WriteWAV(path, samples, audio.SampleRate))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, file.Close())
	}()

	decoder := wav.NewDecoder(file)
	buffer, err := decoder.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, audio.SampleRate, buffer.Format.SampleRate)
	assert.Equal(t, 1, buffer.Format.NumChannels)
	assert.Len(t, buffer.Data, len(samples))
}

func TestWriteWAV_ClampsSamples(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clamped.wav")

	require.NoError(t, audio.WriteWAV(path, []float64{2.0, -3.0, 0.0}, audio.SampleRate))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, file.Close())
	}()

	decoder := wav.NewDecoder(file)
	buffer, err := decoder.FullPCMBuffer()
	require.NoError(t, err)

	require.Len(t, buffer.Data, 3)
	assert.Equal(t, 32767, buffer.Data[0])
	assert.Equal(t, -32767, buffer.Data[1])
	assert.Equal(t, 0, buffer.Data[2])
}

func TestWriteWAV_BadPath(t *testing.T) {
	t.Parallel()

	err := audio.WriteWAV(filepath.Join(t.TempDir(), "missing", "out.wav"), nil, audio.SampleRate)
	require.Error(t, err)
}
