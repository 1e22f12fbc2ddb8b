// Package engine orchestrates text-to-speech generation: text cleanup,
// speaker resolution, device placement, and backend dispatch compose into
// one synthesis operation.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/xtts-service/internal/audio"
	"github.com/book-expert/xtts-service/internal/core"
	"github.com/book-expert/xtts-service/internal/device"
	"github.com/book-expert/xtts-service/internal/latents"
	"github.com/book-expert/xtts-service/internal/speakers"
)

// Engine is the generation orchestrator. The loaded model is process-wide
// shared mutable state whose placement and inference state are not safe for
// concurrent access, so the full pre-transition, dispatch, post-transition
// cycle runs under one exclusive lock: concurrent callers queue and are
// served in arrival order.
type Engine struct {
	mu        sync.Mutex
	handle    *core.ModelHandle
	registry  *speakers.Registry
	cache     *latents.Cache
	scheduler *device.Scheduler
	outputDir string
	log       *logger.Logger
}

// New creates an engine over the given speaker registry and output
// directory. No model is loaded yet; synthesis fails with ErrModelNotLoaded
// until Load is called.
func New(registry *speakers.Registry, outputDir string, log *logger.Logger) (*Engine, error) {
	err := validateDir(outputDir)
	if err != nil {
		return nil, err
	}

	return &Engine{
		registry:  registry,
		outputDir: outputDir,
		log:       log,
	}, nil
}

// Load attaches a ready model handle to the engine. For a local model
// outside low-memory mode it also pre-creates latents for every known
// speaker; in low-memory mode the warm-up is skipped because it would force
// the model onto the accelerator prematurely.
func (e *Engine) Load(ctx context.Context, handle *core.ModelHandle) error {
	if !handle.Ready() {
		return core.ErrModelNotLoaded
	}

	e.mu.Lock()
	e.handle = handle
	e.scheduler = device.New(handle, e.log)

	if handle.Mode == core.BackendLocal {
		e.cache = latents.New(handle.Local, e.log)
	}
	e.mu.Unlock()

	if handle.Mode == core.BackendLocal && !handle.LowMemory {
		e.log.Info("Pre-create latents for all current speakers")

		err := e.WarmUp(ctx)
		if err != nil {
			return err
		}
	}

	e.log.Info("Model successfully loaded")

	return nil
}

// WarmUp pre-populates the latent cache for every speaker the registry
// currently knows about.
func (e *Engine) WarmUp(ctx context.Context) error {
	if e.cache == nil {
		return core.ErrModelNotLoaded
	}

	known, err := e.registry.Scan()
	if err != nil {
		return err
	}

	for _, speaker := range known {
		_, err = e.cache.GetOrCreate(ctx, speaker.Name, speaker.References)
		if err != nil {
			return err
		}
	}

	e.log.Info("Latents created for all %d speakers", len(known))

	return nil
}

// Synthesize turns text plus a speaker identifier into an audio file and
// returns the resolved output path.
//
// Backend failures are returned unchanged, never wrapped or retried, so
// callers can classify them. The device post-transition is still attempted
// after a failed dispatch.
func (e *Engine) Synthesize(ctx context.Context, req core.GenerationRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.handle.Ready() {
		return "", core.ErrModelNotLoaded
	}

	speaker, err := e.registry.Resolve(req.Speaker)
	if err != nil {
		return "", err
	}

	outputPath := e.resolveOutputPath(req.OutputTarget)
	text := CleanText(req.Text)

	err = e.scheduler.BeforeCall()
	if err != nil {
		return "", err
	}

	dispatchErr := e.dispatch(ctx, text, req.Language, speaker, outputPath)

	restoreErr := e.scheduler.AfterCall()

	if dispatchErr != nil {
		return "", dispatchErr
	}

	if restoreErr != nil {
		return "", restoreErr
	}

	return outputPath, nil
}

// Speakers returns the display names of all available speakers.
func (e *Engine) Speakers() ([]string, error) {
	return e.registry.List()
}

// SpeakerRecords returns catalog records for external consumption.
func (e *Engine) SpeakerRecords() ([]speakers.Record, error) {
	return e.registry.Records()
}

// Languages returns the supported language codes mapped to display names.
func (e *Engine) Languages() map[string]string {
	return Languages()
}

// OutputDir returns the configured output directory.
func (e *Engine) OutputDir() string {
	return e.outputDir
}

// SetOutputDir points the engine at a different output directory.
func (e *Engine) SetOutputDir(dir string) error {
	err := validateDir(dir)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.outputDir = dir
	e.mu.Unlock()

	e.log.Info("Output folder is set to %s", dir)

	return nil
}

// dispatch runs the backend for one request. Errors from the model's
// conditioning or inference calls propagate unchanged.
func (e *Engine) dispatch(
	ctx context.Context,
	text, language string,
	speaker speakers.Speaker,
	outputPath string,
) error {
	if e.handle.Mode == core.BackendAPI {
		return e.handle.Remote.SynthesizeToFile(
			ctx,
			text,
			speaker.References,
			language,
			outputPath,
		)
	}

	return e.localGeneration(ctx, text, language, speaker, outputPath)
}

func (e *Engine) localGeneration(
	ctx context.Context,
	text, language string,
	speaker speakers.Speaker,
	outputPath string,
) error {
	generateStart := time.Now()

	cond, err := e.cache.GetOrCreate(ctx, speaker.Name, speaker.References)
	if err != nil {
		return err
	}

	samples, err := e.handle.Local.Infer(
		ctx,
		text,
		language,
		cond,
		core.DefaultSamplingParams(),
	)
	if err != nil {
		return err
	}

	err = audio.WriteWAV(outputPath, samples, audio.SampleRate)
	if err != nil {
		return err
	}

	e.log.Info("Processing time: %.2f seconds.", time.Since(generateStart).Seconds())

	return nil
}

// resolveOutputPath resolves an output target to a final file path:
// absolute paths are used verbatim, bare filenames are joined under the
// configured output directory.
func (e *Engine) resolveOutputPath(target string) string {
	if filepath.IsAbs(target) {
		return target
	}

	return filepath.Join(e.outputDir, target)
}

func validateDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", core.ErrInvalidDirectory, dir)
	}

	return nil
}
