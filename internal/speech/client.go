// Package speech provides the client for the standalone speech-synthesis
// HTTP service and the voice selection heuristics used for dialogue lines.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeMP3    = "audio/mpeg"
)

// Static errors.
var (
	ErrTextEmpty          = errors.New("text cannot be empty")
	ErrVoiceEmpty         = errors.New("voice cannot be empty")
	ErrReceivedEmptyAudio = errors.New("received empty audio data")
)

// Client is an HTTP client for the speech-synthesis service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Request defines the JSON payload for speech generation requests.
type Request struct {
	// Text contains the input text to convert to speech. Must be non-empty.
	Text string `json:"text"`

	// Voice names the synthesis voice (e.g. "zh-CN-XiaoxiaoNeural").
	Voice string `json:"voice"`
}

// ErrorResponse represents a structured error response from the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewClient creates and configures a client for the speech-synthesis service.
// The baseURL should include the protocol and port (e.g. "http://localhost:8000").
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize converts text to speech with the given voice and returns the raw
// MP3 audio data. Callers are responsible for persisting or streaming the
// bytes as needed.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, ErrTextEmpty
	}

	if voice == "" {
		return nil, ErrVoiceEmpty
	}

	requestBody, err := json.Marshal(Request{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMP3)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeMP3 {
		return nil, fmt.Errorf("unexpected content type: expected %s, got %s", contentTypeMP3, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrReceivedEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the speech-synthesis service is running. It is
// used by the readiness endpoint so a misconfigured deployment fails fast.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
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

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw response body so diagnostics are never
// lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp ErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf("TTS service error (%s): %s (code: %s)",
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("TTS service returned non-OK status: %s, body: %s", resp.Status, string(body))
}
