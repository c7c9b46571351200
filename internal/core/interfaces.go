// Package core defines the core business logic and interfaces for the narration service.
package core

import "context"

// ImagePayload is a base64-encoded page image together with its declared
// media type (e.g. "image/jpeg").
type ImagePayload struct {
	Data      string
	MediaType string
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
}

// VisionModel describes a single page image in free-form text that is
// expected, but not guaranteed, to contain an embedded JSON object.
type VisionModel interface {
	DescribeImage(ctx context.Context, image ImagePayload, instruction string) (string, error)
}

// SpeechSynthesizer converts text to audio data using the given voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
