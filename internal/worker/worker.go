// Package worker provides a NATS worker that serves speech synthesis
// requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/xtts-service/internal/core"
	"github.com/book-expert/xtts-service/internal/engine"
	"github.com/book-expert/xtts-service/internal/speakers"
)

const handleMessageTimeout = 10 * time.Minute

var (
	// ErrTextEmpty indicates that the request carried no text.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrSpeakerEmpty indicates that the request carried no speaker identifier.
	ErrSpeakerEmpty = errors.New("speaker cannot be empty")
	// ErrUnsupportedLanguage indicates that the language code is not in the
	// supported table.
	ErrUnsupportedLanguage = errors.New("unsupported language code")
)

// SpeechRequestedEvent asks the service to synthesize one utterance.
type SpeechRequestedEvent struct {
	Header   events.EventHeader `json:"header"`
	Text     string             `json:"text"`
	Speaker  string             `json:"speaker"`
	Language string             `json:"language"`
}

// SpeechCreatedEvent reports the stored audio of a completed request.
type SpeechCreatedEvent struct {
	Header     events.EventHeader `json:"header"`
	AudioKey   string             `json:"audio_key"`
	OutputPath string             `json:"output_path"`
}

// Synthesizer is the part of the generation engine the worker depends on.
type Synthesizer interface {
	Synthesize(ctx context.Context, req core.GenerationRequest) (string, error)
}

// NatsWorker listens for synthesis requests on a NATS subject, runs the
// engine, and uploads the produced audio to an object store.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	synthesizer    Synthesizer
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	synthesizer Synthesizer,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		synthesizer:    synthesizer,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	audioKey, outputPath, processErr := w.processRequest(ctx, event)
	if processErr != nil {
		w.log.Error(
			"Failed to process synthesis request for workflow %s: %v",
			event.Header.WorkflowID,
			processErr,
		)

		return
	}

	replyEvent := &SpeechCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		OutputPath: outputPath,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error(
			"Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID,
			err,
		)
	}
}

// processRequest runs the engine for one request and uploads the produced
// audio under a fresh object key.
func (w *NatsWorker) processRequest(
	ctx context.Context,
	event *SpeechRequestedEvent,
) (audioKey, outputPath string, err error) {
	audioKey = uuid.NewString() + speakers.AudioExtension

	outputPath, err = w.synthesizer.Synthesize(ctx, core.GenerationRequest{
		Text:         event.Text,
		Speaker:      event.Speaker,
		Language:     event.Language,
		OutputTarget: audioKey,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to synthesize speech: %w", err)
	}

	audioData, err := os.ReadFile(outputPath)
	if err != nil {
		return "", "", fmt.Errorf(
			"failed to read produced audio %s: %w",
			outputPath,
			err,
		)
	}

	err = w.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", "", fmt.Errorf(
			"failed to upload audio data for key '%s': %w",
			audioKey,
			err,
		)
	}

	return audioKey, outputPath, nil
}

// publishReplyEvent marshals and responds with the SpeechCreatedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *SpeechCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*SpeechRequestedEvent, error) {
	var event SpeechRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.Text == "" {
		return nil, ErrTextEmpty
	}

	if event.Speaker == "" {
		return nil, ErrSpeakerEmpty
	}

	if !engine.IsLanguageSupported(event.Language) {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedLanguage, event.Language)
	}

	return &event, nil
}
