// Package vision provides the vision-model client and the per-page analysis
// logic built on top of it.
//
// The client speaks the Anthropic-compatible messages API exposed by the
// MiniMax platform: one user turn carrying an image part and an instruction
// part, answered with free-form text.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/narration-service/internal/core"
)

// API endpoints and headers.
const (
	apiMessages         = "/v1/messages"
	headerAPIKey        = "x-api-key"
	headerVersion       = "anthropic-version"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
	anthropicVersion    = "2023-06-01"
	errorBodyLimitBytes = 300
)

// Static errors.
var (
	ErrAPIKeyEmpty       = errors.New("vision API key cannot be empty")
	ErrBaseURLEmpty      = errors.New("vision base URL cannot be empty")
	ErrEmptyModelContent = errors.New("vision service returned no content")
)

// StatusError reports a non-success HTTP response from the vision service.
// The body is truncated so it can be embedded in fallback records without
// flooding them.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vision service returned status %d: %s", e.StatusCode, e.Body)
}

// ClientOptions configures a vision Client.
type ClientOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client is an HTTP client for the vision-model service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
}

// NewClient creates and configures a client for the vision-model service.
func NewClient(opts ClientOptions) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxTokens:  opts.MaxTokens,
	}
}

// Wire types for the messages API.
type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentPart struct {
	Type   string       `json:"type"`
	Source *imageSource `json:"source,omitempty"`
	Text   string       `json:"text,omitempty"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// DescribeImage sends a single-turn multimodal request for one page image and
// returns the raw text of the model's reply. The reply is expected, but not
// guaranteed, to contain an embedded JSON object; callers must treat it as
// untrusted free-form text.
func (c *Client) DescribeImage(
	ctx context.Context,
	image core.ImagePayload,
	instruction string,
) (string, error) {
	if c.apiKey == "" {
		return "", ErrAPIKeyEmpty
	}

	if c.baseURL == "" {
		return "", ErrBaseURLEmpty
	}

	requestBody, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []message{
			{
				Role: "user",
				Content: []contentPart{
					{
						Type: "image",
						Source: &imageSource{
							Type:      "base64",
							MediaType: image.MediaType,
							Data:      image.Data,
						},
					},
					{Type: "text", Text: instruction},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiMessages,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerAPIKey, c.apiKey)
	httpReq.Header.Set(headerVersion, anthropicVersion)
	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to vision service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimitBytes))

		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed messagesResponse

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}

	if len(parsed.Content) == 0 {
		return "", ErrEmptyModelContent
	}

	return parsed.Content[0].Text, nil
}
