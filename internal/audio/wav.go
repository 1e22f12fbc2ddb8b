// Package audio encodes synthesized waveforms as WAV files.
package audio

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate is the output sample rate of the synthesis model.
const SampleRate = 24000

const (
	bitDepth       = 16
	numChannels    = 1
	pcmAudioFormat = 1
	maxSampleValue = 32767
)

// WriteWAV writes samples in [-1, 1] to path as a single-channel 16-bit
// PCM stream at the given sample rate. Samples outside [-1, 1] are clamped.
func WriteWAV(path string, samples []float64, rate int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	intData := make([]int, len(samples))
	for i, sample := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		intData[i] = int(clamped * maxSampleValue)
	}

	encoder := wav.NewEncoder(file, rate, bitDepth, numChannels, pcmAudioFormat)
	buffer := &gaudio.IntBuffer{
		Data: intData,
		Format: &gaudio.Format{
			NumChannels: numChannels,
			SampleRate:  rate,
		},
		SourceBitDepth: bitDepth,
	}

	writeErr := encoder.Write(buffer)
	encoderCloseErr := encoder.Close()
	fileCloseErr := file.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to encode waveform to %s: %w", path, writeErr)
	}

	if encoderCloseErr != nil {
		return fmt.Errorf("failed to finalize WAV file %s: %w", path, encoderCloseErr)
	}

	if fileCloseErr != nil {
		return fmt.Errorf("failed to close output file %s: %w", path, fileCloseErr)
	}

	return nil
}
