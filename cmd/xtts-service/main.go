// main package for the xtts-service
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/xtts-service/internal/config"
	"github.com/book-expert/xtts-service/internal/core"
	"github.com/book-expert/xtts-service/internal/engine"
	"github.com/book-expert/xtts-service/internal/objectstore"
	"github.com/book-expert/xtts-service/internal/speakers"
	"github.com/book-expert/xtts-service/internal/worker"
	"github.com/book-expert/xtts-service/internal/xttsapi"
)

const healthCheckTimeout = 10 * time.Second

// errUnsupportedModelSource is returned for model sources this binary
// cannot construct. Local models are injected by embedding the engine.
var errUnsupportedModelSource = errors.New("unsupported model source")

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "xtts-service-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

// buildModelHandle constructs a ready model handle for the configured
// backend. This binary fronts a remote XTTS inference service; a local
// in-process model is provided by applications that embed the engine
// directly.
func buildModelHandle(cfg *config.Config) (*core.ModelHandle, error) {
	if cfg.Model.Source != string(core.BackendAPI) {
		return nil, fmt.Errorf("%w: %q", errUnsupportedModelSource, cfg.Model.Source)
	}

	timeout := time.Duration(cfg.Remote.TimeoutSeconds) * time.Second
	remote := xttsapi.New(cfg.Remote.URL, timeout)

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	err := remote.HealthCheck(ctx)
	if err != nil {
		return nil, fmt.Errorf("XTTS service health check failed: %w", err)
	}

	return &core.ModelHandle{
		Mode:          core.BackendAPI,
		Remote:        remote,
		CurrentDevice: core.DeviceHost,
		TargetDevice:  core.Device(cfg.Model.Device),
		LowMemory:     cfg.Model.LowMemory,
	}, nil
}

func buildEngine(cfg *config.Config, log *logger.Logger) (*engine.Engine, error) {
	registry, err := speakers.New(cfg.Paths.SpeakerDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create speaker registry: %w", err)
	}

	eng, err := engine.New(registry, cfg.Paths.OutputDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	handle, err := buildModelHandle(cfg)
	if err != nil {
		return nil, err
	}

	err = eng.Load(context.Background(), handle)
	if err != nil {
		return nil, fmt.Errorf("failed to load model handle: %w", err)
	}

	return eng, nil
}

func runWorker(ctx context.Context, cfg *config.Config, eng *engine.Engine, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to create audio object store: %w", err)
	}

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.SpeechRequestSubject,
		store,
		eng,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.System(
		"XTTS-Service successfully initialized. Listening for requests on subject: %s",
		cfg.NATS.SpeechRequestSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}

	return nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	eng, err := buildEngine(cfg, finalLog)
	if err != nil {
		finalLog.Error("Failed to build engine: %v", err)

		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWorker(ctx, cfg, eng, finalLog)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
