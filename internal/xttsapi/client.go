// Package xttsapi provides a client for a remote XTTS inference service.
//
// The client implements the core.RemoteModel contract: it delegates text,
// reference path(s), and language code to the service's file-producing
// endpoint and writes the returned audio to the requested path.
package xttsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// API endpoints and paths.
const (
	apiSynthesize = "/tts_to_audio"
	apiHealth     = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

const outputFilePermissions = 0o600

// Error messages.
const (
	errTextCannotBeEmpty       = "text cannot be empty"
	errUnexpectedContentType   = "unexpected content type: expected audio/wav, got %s"
	errReceivedEmptyAudio      = "received empty audio data"
	errFmtServiceErrorWithCode = "XTTS service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "XTTS service returned non-OK status: %s, body: %s"
)

// Client is an HTTP client for the remote XTTS inference service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// synthesisRequest is the JSON payload of the synthesis endpoint.
type synthesisRequest struct {
	// Text is the input text to convert to speech.
	Text string `json:"text"`

	// SpeakerWav holds server-side reference audio paths for voice cloning.
	SpeakerWav []string `json:"speaker_wav"`

	// Language is the target language code (e.g. "en", "es").
	Language string `json:"language"`
}

// errorResponse is a structured error returned by the service.
type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// New creates a client for the XTTS service at baseURL. The baseURL should
// include the protocol and port (e.g. "http://localhost:8020"). The timeout
// applies to all HTTP requests made by this client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SynthesizeToFile asks the remote service to synthesize text in the voice
// of the given reference audio and writes the returned WAV data to path.
func (c *Client) SynthesizeToFile(
	ctx context.Context,
	text string,
	references []string,
	language, path string,
) error {
	audioData, err := c.generate(ctx, text, references, language)
	if err != nil {
		return err
	}

	writeErr := os.WriteFile(path, audioData, outputFilePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file %s: %w", path, writeErr)
	}

	return nil
}

// HealthCheck verifies that the remote service is running and operational.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// generate sends a synthesis request and returns the raw audio data.
func (c *Client) generate(
	ctx context.Context,
	text string,
	references []string,
	language string,
) ([]byte, error) {
	if text == "" {
		return nil, errors.New(errTextCannotBeEmpty)
	}

	requestBody, err := json.Marshal(synthesisRequest{
		Text:       text,
		SpeakerWav: references,
		Language:   language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + apiSynthesize

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to XTTS service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf(errUnexpectedContentType, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, errors.New(errReceivedEmptyAudio)
	}

	return audioData, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw response body so diagnostics are
// preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp errorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}
