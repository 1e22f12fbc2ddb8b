// Package worker_test tests the NATS worker for the xtts-service.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/xtts-service/internal/core"
	"github.com/book-expert/xtts-service/internal/worker"
)

var (
	errMockSynthesize = errors.New("mock synthesize error")
	errMockUpload     = errors.New("mock upload error")
)

// mockObjectStore is a mock implementation of the ObjectStore interface.
type mockObjectStore struct {
	uploadShouldFail bool
	uploadedKey      string
	uploadedData     []byte
}

func (m *mockObjectStore) Download(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	if m.uploadShouldFail {
		return errMockUpload
	}

	m.uploadedKey = key
	m.uploadedData = data

	return nil
}

// mockSynthesizer writes a fake audio file the way the engine would and
// records the request it served.
type mockSynthesizer struct {
	outputDir  string
	request    core.GenerationRequest
	shouldFail bool
}

func (m *mockSynthesizer) Synthesize(
	_ context.Context,
	req core.GenerationRequest,
) (string, error) {
	if m.shouldFail {
		return "", errMockSynthesize
	}

	m.request = req

	path := filepath.Join(m.outputDir, req.OutputTarget)

	err := os.WriteFile(path, []byte("RIFF-fake-audio"), 0o600)
	if err != nil {
		return "", err
	}

	return path, nil
}

func setupTest(t *testing.T) (*mockObjectStore, *mockSynthesizer, *nats.Conn, context.CancelFunc) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	testLogger, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	mockStore := &mockObjectStore{}
	mockEngine := &mockSynthesizer{outputDir: t.TempDir()}

	workerInstance, err := worker.NewNatsWorker(
		natsConnection, "speech.requested", mockStore, mockEngine, testLogger,
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errChan)
	})

	return mockStore, mockEngine, natsConnection, cancel
}

func newRequestEvent(text, speaker, language string) *worker.SpeechRequestedEvent {
	return &worker.SpeechRequestedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
		},
		Text:     text,
		Speaker:  speaker,
		Language: language,
	}
}

func TestHandleMessage_Success(t *testing.T) {
	t.Parallel()

	mockStore, mockEngine, natsConnection, cancel := setupTest(t)
	defer cancel()

	testEvent := newRequestEvent("hello there", "alice", "en")

	eventData, err := json.Marshal(testEvent)
	require.NoError(t, err)

	replyMsg, err := natsConnection.Request("speech.requested", eventData, 5*time.Second)
	require.NoError(t, err, "Request should succeed and receive a reply")

	var replyEvent worker.SpeechCreatedEvent

	err = json.Unmarshal(replyMsg.Data, &replyEvent)
	require.NoError(t, err)

	assert.Equal(t, "hello there", mockEngine.request.Text)
	assert.Equal(t, "alice", mockEngine.request.Speaker)
	assert.Equal(t, "en", mockEngine.request.Language)

	assert.NotEmpty(t, mockStore.uploadedKey, "an audio key should have been generated and uploaded")
	assert.Equal(t, []byte("RIFF-fake-audio"), mockStore.uploadedData)

	assert.Equal(t, mockStore.uploadedKey, replyEvent.AudioKey)
	assert.Equal(t, mockEngine.request.OutputTarget, replyEvent.AudioKey)
	assert.NotEmpty(t, replyEvent.OutputPath)
	assert.Equal(t, testEvent.Header.WorkflowID, replyEvent.Header.WorkflowID)
}

func TestHandleMessage_InvalidRequests(t *testing.T) {
	t.Parallel()

	_, mockEngine, natsConnection, cancel := setupTest(t)
	defer cancel()

	cases := []struct {
		name  string
		event *worker.SpeechRequestedEvent
	}{
		{"empty text", newRequestEvent("", "alice", "en")},
		{"empty speaker", newRequestEvent("hello", "", "en")},
		{"unsupported language", newRequestEvent("hello", "alice", "xx")},
	}

	for _, testCase := range cases {
		eventData, err := json.Marshal(testCase.event)
		require.NoError(t, err)

		_, err = natsConnection.Request("speech.requested", eventData, 250*time.Millisecond)
		require.Error(t, err, "%s: invalid requests must not produce a reply", testCase.name)
	}

	assert.Empty(t, mockEngine.request.Text, "invalid requests must not reach the engine")
}

func TestHandleMessage_SynthesisFailure(t *testing.T) {
	t.Parallel()

	mockStore, mockEngine, natsConnection, cancel := setupTest(t)
	defer cancel()

	mockEngine.shouldFail = true

	eventData, err := json.Marshal(newRequestEvent("hello", "alice", "en"))
	require.NoError(t, err)

	_, err = natsConnection.Request("speech.requested", eventData, 250*time.Millisecond)
	require.Error(t, err, "failed synthesis must not produce a reply")

	assert.Empty(t, mockStore.uploadedKey)
}
