// Package core defines the shared types, model contracts, and error kinds
// for the xtts-service synthesis core.
package core

import (
	"context"
	"errors"
)

// Device identifies where the model weights physically reside.
type Device string

const (
	// DeviceHost is host (CPU) memory.
	DeviceHost Device = "cpu"
	// DeviceCUDA is the default accelerator device.
	DeviceCUDA Device = "cuda"
)

// Backend selects which inference implementation serves synthesis calls.
type Backend string

const (
	// BackendLocal runs inference with an in-process model.
	BackendLocal Backend = "local"
	// BackendAPI delegates inference to a remote service.
	BackendAPI Backend = "api"
)

// Static errors surfaced by the synthesis core.
var (
	// ErrSpeakerNotFound indicates that an identifier matched neither an
	// audio file nor a non-empty speaker directory.
	ErrSpeakerNotFound = errors.New("speaker not found")
	// ErrInvalidDirectory indicates that a configured path does not exist
	// or is not a directory.
	ErrInvalidDirectory = errors.New("provided path is not a valid directory")
	// ErrModelNotLoaded indicates that synthesis was attempted before a
	// model handle was loaded.
	ErrModelNotLoaded = errors.New("model is not loaded")
)

// Tensor is an opaque handle to model-owned conditioning data. The core
// never inspects tensors; it only shuttles them between the model's
// extraction and inference operations.
type Tensor any

// Conditioning pairs the conditioning latent with the speaker embedding
// derived from reference audio. Together they steer the model to produce
// speech in the reference voice.
type Conditioning struct {
	Latent    Tensor
	Embedding Tensor
}

// SamplingParams holds the sampling knobs passed to local inference.
type SamplingParams struct {
	Temperature         float64
	LengthPenalty       float64
	RepetitionPenalty   float64
	TopK                int
	TopP                float64
	EnableTextSplitting bool
}

// DefaultSamplingParams returns the fixed sampling parameters used for
// every local generation call.
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		Temperature:         0.75,
		LengthPenalty:       1.0,
		RepetitionPenalty:   5.0,
		TopK:                50,
		TopP:                0.85,
		EnableTextSplitting: true,
	}
}

// LocalModel is the contract of an in-process synthesis model.
type LocalModel interface {
	// ExtractConditioning derives conditioning data from reference audio.
	// It is expensive (seconds-scale) and runs on whichever device the
	// model currently occupies.
	ExtractConditioning(ctx context.Context, references []string) (Conditioning, error)

	// Infer synthesizes a waveform for the given text. Samples are in the
	// range [-1, 1].
	Infer(
		ctx context.Context,
		text, language string,
		cond Conditioning,
		params SamplingParams,
	) ([]float64, error)

	// Relocate physically moves the model weights to the given device.
	// The call is synchronous and blocking.
	Relocate(device Device) error
}

// AcceleratorCacheReleaser is implemented by local models that can free
// accelerator-side memory held by weights that were relocated off the
// accelerator.
type AcceleratorCacheReleaser interface {
	ReleaseAcceleratorCache()
}

// RemoteModel is the contract of a remote inference service that produces
// the output file itself.
type RemoteModel interface {
	SynthesizeToFile(
		ctx context.Context,
		text string,
		references []string,
		language, path string,
	) error
}

// ModelHandle is the singleton, process-wide handle to the loaded model.
// CurrentDevice always reflects where the one model instance physically
// resides; it is mutated only by the placement scheduler and at load time.
type ModelHandle struct {
	Mode                 Backend
	Local                LocalModel
	Remote               RemoteModel
	CurrentDevice        Device
	TargetDevice         Device
	LowMemory            bool
	AcceleratorAvailable bool
}

// Ready reports whether the handle carries a model for its backend mode.
func (h *ModelHandle) Ready() bool {
	if h == nil {
		return false
	}

	switch h.Mode {
	case BackendLocal:
		return h.Local != nil
	case BackendAPI:
		return h.Remote != nil
	default:
		return false
	}
}

// GenerationRequest describes one synthesis call. It is transient: created
// per call and discarded after synthesis completes.
type GenerationRequest struct {
	Text         string
	Speaker      string
	Language     string
	OutputTarget string
}

// ObjectStore defines the interface for interacting with a key-value blob
// store holding produced audio.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
